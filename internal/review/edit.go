package review

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// EditInTerminal edits through $EDITOR when set, otherwise inline. Returning
// the original text unchanged is a no-op for the gate.
func EditInTerminal(current string) (string, error) {
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editInEditor(current, editor)
	}
	return editInline(current)
}

func editInEditor(current, editor string) (string, error) {
	f, err := os.CreateTemp("", "waas-apply-*.txt")
	if err != nil {
		return current, err
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(current); err != nil {
		f.Close()
		return current, err
	}
	f.Close()

	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return current, fmt.Errorf("run %s: %w", editor, err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return current, err
	}
	// Verbatim, newlines and all. An emptied file comes back empty so the
	// caller can treat the edit as a skip.
	return string(edited), nil
}

func editInline(current string) (string, error) {
	fmt.Printf("\n%sType your new message (blank lines are preserved).%s\n", dim, reset)
	fmt.Printf("%sType %s:done%s%s on its own line to finish, or immediately to keep the current text.%s\n",
		dim, bold, reset, dim, reset)

	r := bufio.NewReader(os.Stdin)
	var lines []string
	for {
		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\n")
		if strings.EqualFold(strings.TrimSpace(trimmed), ":done") || err != nil {
			break
		}
		lines = append(lines, trimmed)
	}

	if len(lines) == 0 {
		return current, nil
	}
	return strings.Join(lines, "\n"), nil
}
