package enhancer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const tempRetries = 5

// CommandService shells out to an external script which reads the rendered
// prompt from an input file and writes the enhanced prompt to an output file.
type CommandService struct {
	ScriptPath    string
	TemplateName  string
	TemplateDir   string
	KeepTempFiles bool
}

// Enhance renders the template around the draft, invokes the script as
// `script --in <file> --out <file>`, and returns the cleaned output.
func (s *CommandService) Enhance(ctx context.Context, req Request) (string, error) {
	script := strings.TrimSpace(s.ScriptPath)
	if script == "" {
		return "", fmt.Errorf("enhancer script path must not be empty")
	}

	text, err := resolveTemplate(s.TemplateDir, s.TemplateName, req.Locale)
	if err != nil {
		return "", err
	}
	rendered, err := renderTemplate(text, req.Prompt)
	if err != nil {
		return "", err
	}

	inPath, outPath, cleanup, err := tempFilePair(s.KeepTempFiles)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := os.WriteFile(inPath, []byte(rendered), 0o600); err != nil {
		return "", fmt.Errorf("write input file: %w", err)
	}

	cmd := exec.CommandContext(ctx, script, "--in", inPath, "--out", outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("enhance script failed: %s", msg)
		}
		return "", fmt.Errorf("enhance script failed: %w", err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("read output file: %w", err)
	}

	return stripSeparatorLines(string(out)), nil
}

// tempFilePair allocates an input/output file pair. When keep is set the
// files land in a stable directory under a timestamped name and survive the
// call for inspection; otherwise they are transient and cleanup removes them.
func tempFilePair(keep bool) (inPath, outPath string, cleanup func(), err error) {
	if !keep {
		in, err := os.CreateTemp("", "promate-enhancer_*_in.txt")
		if err != nil {
			return "", "", nil, fmt.Errorf("create temp input: %w", err)
		}
		in.Close()
		out, err := os.CreateTemp("", "promate-enhancer_*_out.txt")
		if err != nil {
			os.Remove(in.Name())
			return "", "", nil, fmt.Errorf("create temp output: %w", err)
		}
		out.Close()
		return in.Name(), out.Name(), func() {
			os.Remove(in.Name())
			os.Remove(out.Name())
		}, nil
	}

	dir := filepath.Join(os.TempDir(), "promate-enhancer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", nil, fmt.Errorf("create temp dir: %w", err)
	}

	for i := 0; i < tempRetries; i++ {
		stamp := time.Now().UTC().Format("20060102150405.000")
		stamp = strings.ReplaceAll(stamp, ".", "")
		in := filepath.Join(dir, stamp+"_in.txt")
		out := filepath.Join(dir, stamp+"_out.txt")

		fIn, err := os.OpenFile(in, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err != nil {
			if os.IsExist(err) {
				time.Sleep(time.Millisecond)
				continue
			}
			return "", "", nil, fmt.Errorf("create input file: %w", err)
		}
		fIn.Close()

		fOut, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
		if err != nil {
			os.Remove(in)
			if os.IsExist(err) {
				time.Sleep(time.Millisecond)
				continue
			}
			return "", "", nil, fmt.Errorf("create output file: %w", err)
		}
		fOut.Close()

		return in, out, func() {}, nil
	}

	return "", "", nil, fmt.Errorf("failed to allocate temp files in %s", dir)
}
