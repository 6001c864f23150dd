// Package enhancer implements the service-side enhancement engine: a
// coordinator that dispatches to one of the supported modes.
package enhancer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Request is one enhancement to perform.
type Request struct {
	Prompt string
	Locale string
}

// Service produces an enhanced prompt from a draft.
type Service interface {
	Enhance(ctx context.Context, req Request) (string, error)
}

// ErrUnsupportedMode is returned when a requested mode cannot be served.
var ErrUnsupportedMode = errors.New("unsupported enhancement mode")

// Settings configures the coordinator and its mode services.
type Settings struct {
	Mode          string // default mode: "command" or "rewrite"
	TemplateName  string
	TemplateDir   string
	ScriptPath    string
	KeepTempFiles bool
}

// Coordinator lazily constructs one service per mode and caches it.
type Coordinator struct {
	mu       sync.Mutex
	settings Settings
	services map[string]Service
}

// NewCoordinator validates the default mode and returns a coordinator.
func NewCoordinator(settings Settings) (*Coordinator, error) {
	mode := normalizeMode(settings.Mode)
	if mode == "" {
		mode = "rewrite"
	}
	if mode != "command" && mode != "rewrite" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, settings.Mode)
	}
	settings.Mode = mode
	return &Coordinator{
		settings: settings,
		services: make(map[string]Service),
	}, nil
}

// DefaultMode returns the configured default mode.
func (c *Coordinator) DefaultMode() string {
	return c.settings.Mode
}

// Service returns the service for mode, falling back to the default mode when
// mode is empty.
func (c *Coordinator) Service(mode string) (Service, error) {
	normalized := normalizeMode(mode)
	if normalized == "" {
		normalized = c.settings.Mode
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if svc, ok := c.services[normalized]; ok {
		return svc, nil
	}

	var svc Service
	switch normalized {
	case "command":
		svc = &CommandService{
			ScriptPath:    c.settings.ScriptPath,
			TemplateName:  c.settings.TemplateName,
			TemplateDir:   c.settings.TemplateDir,
			KeepTempFiles: c.settings.KeepTempFiles,
		}
	case "rewrite":
		svc = &RewriteService{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, mode)
	}

	c.services[normalized] = svc
	return svc, nil
}

func normalizeMode(mode string) string {
	return strings.ToLower(strings.TrimSpace(mode))
}
