// Package review is the human-approval checkpoint between generation and
// submission. It is a pure interaction boundary: it never mutates the posting
// and the only retry loop here is re-prompting ambiguous operator input.
package review

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"waas-apply/internal/domain"
)

type Decision int

const (
	Approve Decision = iota
	ApproveEdited
	Skip
	Abort
)

// Outcome carries the decision and the final text. For ApproveEdited the text
// is the operator's edit, captured verbatim including newlines.
type Outcome struct {
	Decision Decision
	Text     string
}

// EditFunc opens the current text for editing and returns the replacement.
type EditFunc func(current string) (string, error)

// Gate prompts on a terminal. Reader/writer are injected so tests can script
// the conversation.
type Gate struct {
	in   *bufio.Reader
	out  io.Writer
	edit EditFunc
}

func NewGate(in io.Reader, out io.Writer, edit EditFunc) *Gate {
	if edit == nil {
		edit = EditInTerminal
	}
	return &Gate{in: bufio.NewReader(in), out: out, edit: edit}
}

const (
	bold    = "\033[1m"
	dim     = "\033[2m"
	red     = "\033[91m"
	green   = "\033[92m"
	yellow  = "\033[93m"
	cyan    = "\033[96m"
	magenta = "\033[95m"
	reset   = "\033[0m"
)

var notFound = dim + red + "not on the page" + reset

// Present shows the posting context and draft, then loops until the operator
// produces one of the four decisions. Editing redisplays the draft and loops
// back so the edit can itself be approved or redone.
func (g *Gate) Present(p domain.Posting, draft domain.Draft, number, total int) (Outcome, error) {
	text := draft.Text
	edited := false

	g.header(number, total)
	g.context(p)
	g.message(text)

	for {
		fmt.Fprintf(g.out, "\n%s[A]pprove  [E]dit  [S]kip  [Q]uit%s > ", bold, reset)
		line, err := g.in.ReadString('\n')
		if err != nil && line == "" {
			// stdin gone; safest interpretation is quit
			return Outcome{Decision: Abort, Text: text}, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "approve", "":
			if edited {
				return Outcome{Decision: ApproveEdited, Text: text}, nil
			}
			return Outcome{Decision: Approve, Text: text}, nil
		case "e", "edit":
			newText, err := g.edit(text)
			if err != nil {
				fmt.Fprintf(g.out, "%sedit failed: %v%s\n", red, err, reset)
				continue
			}
			if newText != text {
				text = newText
				edited = true
			}
			g.message(text)
		case "s", "skip":
			return Outcome{Decision: Skip, Text: text}, nil
		case "q", "quit":
			return Outcome{Decision: Abort, Text: text}, nil
		default:
			fmt.Fprintln(g.out, "Invalid choice. Use A/E/S/Q.")
		}
	}
}

func (g *Gate) header(number, total int) {
	bar := strings.Repeat("=", 60)
	fmt.Fprintf(g.out, "\n%s\n", bar)
	if total > 0 {
		fmt.Fprintf(g.out, "%s%s Job %d/%d%s\n", bold, cyan, number, total, reset)
	} else {
		fmt.Fprintf(g.out, "%s%s Job %d%s\n", bold, cyan, number, reset)
	}
	fmt.Fprintf(g.out, "%s\n", bar)
}

func (g *Gate) context(p domain.Posting) {
	field := func(label, value string) {
		if value == "" {
			value = notFound
		}
		fmt.Fprintf(g.out, "%s%-12s%s%s\n", bold, label+":", reset, value)
	}

	name := p.Company.Name
	if p.Company.YCBatch != "" {
		name += " (" + p.Company.YCBatch + ")"
	}
	fmt.Fprintln(g.out)
	field("Company", name)
	field("Role", p.Title)
	field("Location", p.Location)
	size := p.Company.Size
	if size != "" {
		size += " people"
	}
	field("Size", size)
	field("Salary", p.SalaryRange)
	field("Job URL", dim+p.URL+reset)

	section := func(label, value string) {
		fmt.Fprintf(g.out, "\n%s%s%s:%s\n", bold, magenta, label, reset)
		if value == "" {
			fmt.Fprintf(g.out, "  %s\n", notFound)
			return
		}
		fmt.Fprintf(g.out, "  %s%s%s\n", dim, truncate(value, 500), reset)
	}
	section("About the company", p.Company.Description)
	section("Role summary", p.Description)
	section("Requirements", truncate(p.Requirements, 400))
	section("Culture/Values", p.CultureNotes)
}

func (g *Gate) message(text string) {
	words := len(strings.Fields(text))
	fmt.Fprintf(g.out, "\n%s%s--- Generated Message (%d words, %d chars) ---%s\n",
		bold, green, words, len(text), reset)
	fmt.Fprintf(g.out, "%s%s%s\n", yellow, text, reset)
	fmt.Fprintf(g.out, "%s%s%s\n", green, strings.Repeat("-", 30), reset)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
