package generate

import (
	"fmt"
	"strings"

	"waas-apply/internal/config"
	"waas-apply/internal/domain"
)

const systemPrompt = `You are helping a student write a short, personalized message to apply for a startup internship on Y Combinator's Work at a Startup platform. This message goes directly to the founding team.

RULES:
- Write EXACTLY 50-150 words. Count carefully.
- Write in first person as the applicant.
- Be conversational but professional. No corporate speak.
- Reference something SPECIFIC about the company or product -- not generic praise.
- Connect the applicant's experience to what the company actually needs.
- Show genuine curiosity about the problem space.
- Do NOT use phrases like "I am excited to apply" or "I believe I would be a great fit".
- Do NOT list skills in bullet points. Weave them into a narrative.
- If the company mentions specific values or personality traits they want, subtly reflect those.
- End with a forward-looking statement (what you want to build/learn), not a plea.
- Sound like a real person wrote this, not a cover letter generator.
- Output ONLY the message text. No subject line, no greeting header, no sign-off.`

// buildPrompt assembles the full context block for one posting. Empty fields
// are simply left out rather than sent as blank headers.
func buildPrompt(profile config.Profile, p domain.Posting, style string) string {
	var b []string
	add := func(format string, args ...any) { b = append(b, fmt.Sprintf(format, args...)) }

	add("Write a message to apply for this role. Here's the context:")
	add("")

	if p.Company.YCBatch != "" {
		add("COMPANY: %s (%s)", p.Company.Name, p.Company.YCBatch)
	} else {
		add("COMPANY: %s", p.Company.Name)
	}
	if p.Company.Description != "" {
		add("WHAT THEY DO: %s", p.Company.Description)
	}

	add("\nROLE: %s", p.Title)
	if p.Description != "" {
		add("DESCRIPTION: %s", p.Description)
	}
	if p.Requirements != "" {
		add("REQUIREMENTS: %s", p.Requirements)
	}
	if p.CultureNotes != "" {
		add("CULTURE/VALUES: %s", p.CultureNotes)
	}
	if p.Location != "" {
		add("LOCATION: %s", p.Location)
	}

	add("\nABOUT ME:\n%s", profile.ExperienceSummary)
	if len(profile.ResumeHighlights) > 0 {
		add("\nKEY THINGS I'VE DONE:")
		for _, h := range profile.ResumeHighlights {
			add("- %s", h)
		}
	}
	add("\nMY SKILLS: %s", strings.Join(profile.Skills, ", "))

	if profile.Interests != "" {
		add("\nWHAT I'M LOOKING FOR: %s", profile.Interests)
	}
	if profile.PersonalityNotes != "" {
		add("\nMY STYLE: %s", profile.PersonalityNotes)
	}
	if style != "" {
		add("\nTONE GUIDANCE: %s", style)
	}

	add("\nWrite the message now. 50-150 words, specific to this company.")
	return strings.Join(b, "\n")
}

const fallbackTemplate = "Hi! I'm %s, a student with experience in %s. " +
	"I came across %s and I'm really interested in the %s role. " +
	"[EDIT THIS: mention something specific about what they're building]. " +
	"I'd love to chat about how I can contribute."

// FallbackMessage returns a template draft with [EDIT THIS] markers for when
// the generation service is unavailable. It always needs operator editing.
func FallbackMessage(profile config.Profile, p domain.Posting) string {
	skills := profile.Skills
	if len(skills) > 3 {
		skills = skills[:3]
	}
	return fmt.Sprintf(fallbackTemplate,
		profile.Name, strings.Join(skills, ", "), p.Company.Name, p.Title)
}
