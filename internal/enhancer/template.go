package enhancer

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
)

// defaultTemplate is used when no template file is found on disk.
const defaultTemplate = `Improve the following prompt so it is specific, unambiguous, and actionable.
Preserve the author's intent and keep the original language.

{{.Prompt}}
`

var separatorLine = regexp.MustCompile(`(?i)^#+\s*(start|end)\s*#+$`)

// resolveTemplate returns the template text for name, preferring a
// locale-suffixed file (name_en_us.txt) over the base file (name.txt).
// Falls back to the built-in default when neither exists.
func resolveTemplate(dir, name, locale string) (string, error) {
	if name == "" {
		name = "default"
	}

	var candidates []string
	if locale != "" {
		suffix := strings.ToLower(strings.ReplaceAll(locale, "-", "_"))
		candidates = append(candidates, filepath.Join(dir, name+"_"+suffix+".txt"))
	}
	candidates = append(candidates, filepath.Join(dir, name+".txt"))

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read template %s: %w", path, err)
		}
	}

	return defaultTemplate, nil
}

// renderTemplate substitutes the draft into the template text. A rendered
// result that is empty after trimming is an error.
func renderTemplate(text, prompt string) (string, error) {
	tmpl, err := template.New("enhance").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, struct{ Prompt string }{Prompt: prompt}); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	rendered := strings.TrimSpace(sb.String())
	if rendered == "" {
		return "", fmt.Errorf("rendered template is empty")
	}
	return rendered, nil
}

// stripSeparatorLines removes "#### start ####" / "#### end ####" marker
// lines some backends wrap their output in.
func stripSeparatorLines(text string) string {
	if text == "" {
		return text
	}

	lines := strings.Split(text, "\n")
	filtered := lines[:0]
	for _, line := range lines {
		if separatorLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		filtered = append(filtered, line)
	}

	cleaned := strings.Join(filtered, "\n")
	if strings.HasSuffix(text, "\n") && !strings.HasSuffix(cleaned, "\n") {
		cleaned += "\n"
	}
	return cleaned
}
