package enhancer

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// RewriteService is the built-in deterministic mode: it tidies the draft
// without calling out to any external program. It stands in for backends
// that need a browser or a model and keeps the daemon usable out of the box.
type RewriteService struct{}

// Enhance normalizes whitespace, capitalizes the opening sentence, and makes
// sure the prompt ends with terminal punctuation.
func (s *RewriteService) Enhance(_ context.Context, req Request) (string, error) {
	draft := strings.TrimSpace(req.Prompt)
	if draft == "" {
		return "", fmt.Errorf("prompt must not be empty")
	}

	var paragraphs []string
	for _, para := range strings.Split(draft, "\n\n") {
		lines := strings.Split(para, "\n")
		for i, line := range lines {
			lines[i] = collapseSpaces(strings.TrimSpace(line))
		}
		cleaned := strings.TrimSpace(strings.Join(lines, "\n"))
		if cleaned != "" {
			paragraphs = append(paragraphs, cleaned)
		}
	}

	out := strings.Join(paragraphs, "\n\n")
	out = capitalizeFirst(out)
	last, _ := utf8.DecodeLastRuneInString(out)
	if !strings.ContainsRune(".!?:", last) {
		out += "."
	}
	return out, nil
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capitalizeFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
