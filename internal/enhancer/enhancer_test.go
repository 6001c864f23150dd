package enhancer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestCoordinatorModes(t *testing.T) {
	c, err := NewCoordinator(Settings{Mode: "rewrite"})
	if err != nil {
		t.Fatalf("new coordinator: %v", err)
	}

	// Empty mode falls back to the default
	svc, err := c.Service("")
	if err != nil {
		t.Fatalf("default service: %v", err)
	}
	if _, ok := svc.(*RewriteService); !ok {
		t.Errorf("default service: got %T, want *RewriteService", svc)
	}

	// Mode names are normalized
	svc2, err := c.Service("  REWRITE ")
	if err != nil {
		t.Fatalf("normalized mode: %v", err)
	}
	if svc2 != svc {
		t.Error("same mode should return the cached service")
	}

	// Explicit command mode
	if _, err := c.Service("command"); err != nil {
		t.Errorf("command mode: %v", err)
	}

	// Unknown mode
	if _, err := c.Service("selenium"); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("got %v, want ErrUnsupportedMode", err)
	}
}

func TestCoordinatorRejectsBadDefaultMode(t *testing.T) {
	if _, err := NewCoordinator(Settings{Mode: "banana"}); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("got %v, want ErrUnsupportedMode", err)
	}
}

func TestRewrite(t *testing.T) {
	svc := &RewriteService{}

	got, err := svc.Enhance(context.Background(), Request{Prompt: "  fix   the bug\n\n\n  in  parser  "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Fix the bug\n\nin parser." {
		t.Errorf("got %q", got)
	}

	// Existing terminal punctuation is kept
	got, err = svc.Enhance(context.Background(), Request{Prompt: "what does this do?"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "What does this do?" {
		t.Errorf("got %q", got)
	}

	// Empty draft is an error
	if _, err := svc.Enhance(context.Background(), Request{Prompt: "   "}); err == nil {
		t.Error("expected error for empty prompt")
	}
}

func TestResolveTemplate(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "default.txt"), []byte("base {{.Prompt}}"), 0o644)
	os.WriteFile(filepath.Join(dir, "default_en_us.txt"), []byte("localized {{.Prompt}}"), 0o644)

	// Locale match wins
	text, err := resolveTemplate(dir, "default", "en-US")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "localized") {
		t.Errorf("got %q", text)
	}

	// Unmatched locale falls back to base
	text, err = resolveTemplate(dir, "default", "fr-FR")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(text, "base") {
		t.Errorf("got %q", text)
	}

	// Missing files fall back to the built-in template
	text, err = resolveTemplate(dir, "missing", "")
	if err != nil {
		t.Fatal(err)
	}
	if text != defaultTemplate {
		t.Errorf("expected built-in template, got %q", text)
	}
}

func TestRenderTemplate(t *testing.T) {
	got, err := renderTemplate("before\n{{.Prompt}}\nafter", "the draft")
	if err != nil {
		t.Fatal(err)
	}
	if got != "before\nthe draft\nafter" {
		t.Errorf("got %q", got)
	}

	if _, err := renderTemplate("{{.Prompt}}", "   "); err == nil {
		t.Error("expected error for empty rendered output")
	}

	if _, err := renderTemplate("{{.Broken", "x"); err == nil {
		t.Error("expected parse error")
	}
}

func TestStripSeparatorLines(t *testing.T) {
	in := "#### start ####\nenhanced text\nmore text\n### END ###\n"
	got := stripSeparatorLines(in)
	if got != "enhanced text\nmore text\n" {
		t.Errorf("got %q", got)
	}

	// No markers: unchanged
	plain := "just text\n"
	if got := stripSeparatorLines(plain); got != plain {
		t.Errorf("got %q", got)
	}
}

func TestCommandService(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script test")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "enhance.sh")
	// Upper-cases the input; checks the flag protocol.
	content := `#!/bin/sh
in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --in) in="$2"; shift 2;;
    --out) out="$2"; shift 2;;
    *) shift;;
  esac
done
tr '[:lower:]' '[:upper:]' < "$in" > "$out"
`
	if err := os.WriteFile(script, []byte(content), 0o755); err != nil {
		t.Fatal(err)
	}

	tmplDir := t.TempDir()
	os.WriteFile(filepath.Join(tmplDir, "default.txt"), []byte("{{.Prompt}}"), 0o644)

	svc := &CommandService{
		ScriptPath:   script,
		TemplateName: "default",
		TemplateDir:  tmplDir,
	}

	got, err := svc.Enhance(context.Background(), Request{Prompt: "hello"})
	if err != nil {
		t.Fatalf("enhance: %v", err)
	}
	if strings.TrimSpace(got) != "HELLO" {
		t.Errorf("got %q", got)
	}
}

func TestCommandServiceReportsStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script test")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "fail.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'model offline' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	svc := &CommandService{ScriptPath: script, TemplateDir: t.TempDir()}
	_, err := svc.Enhance(context.Background(), Request{Prompt: "hello"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model offline") {
		t.Errorf("stderr not surfaced: %v", err)
	}
}
