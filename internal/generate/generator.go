// Package generate produces the personalized application message for a
// posting. The generation call is external and non-deterministic; everything
// that feeds it and validates its output lives here.
package generate

import (
	"context"
	"fmt"
	"log"
	"strings"

	"waas-apply/internal/config"
	"waas-apply/internal/domain"
)

// Generator turns profile + posting into a validated Draft.
type Generator struct {
	client *Client
	cfg    config.Message
}

func NewGenerator(client *Client, cfg config.Message) *Generator {
	return &Generator{client: client, cfg: cfg}
}

// Generate produces a draft and enforces the output policy: non-empty,
// at least cfg.MinWords words. One in-call regenerate on a short reply
// (the model usually fixes itself when told), then it is a failure.
func (g *Generator) Generate(ctx context.Context, profile config.Profile, p domain.Posting) (domain.Draft, error) {
	prompt := buildPrompt(profile, p, g.cfg.Style)

	text, err := g.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return domain.Draft{}, err
	}

	if tooShort(text, g.cfg.MinWords) {
		log.Printf("[generate] draft too short (%d words) for %s, regenerating",
			wordCount(text), p.ID)
		prompt += fmt.Sprintf("\n\nIMPORTANT: Your previous message was too short. Write at least %d words.", g.cfg.MinWords)
		text, err = g.client.Complete(ctx, systemPrompt, prompt)
		if err != nil {
			return domain.Draft{}, err
		}
	}

	if strings.TrimSpace(text) == "" {
		return domain.Draft{}, fmt.Errorf("generation produced empty output for %s", p.ID)
	}
	if tooShort(text, g.cfg.MinWords) {
		return domain.Draft{}, fmt.Errorf("generation produced degenerate output for %s: %d words, need %d",
			p.ID, wordCount(text), g.cfg.MinWords)
	}

	draft := domain.NewDraft(p.ID, text)
	log.Printf("[generate] draft for %s: %d words, %d chars", p.ID, draft.WordCount, draft.CharCount)
	return draft, nil
}

func wordCount(s string) int { return len(strings.Fields(s)) }

func tooShort(s string, minWords int) bool { return wordCount(s) < minWords }
