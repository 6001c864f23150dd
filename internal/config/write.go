package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteDefault writes a default config.toml pointing at endpoint.
// Returns the config file path. Skips if config.toml already exists.
func WriteDefault(endpoint string) (string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, nil // already exists
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}

	content := fmt.Sprintf(`[enhancer]
endpoint = %q
timeout_seconds = 10
formats = ["text"]
locale = ""
max_draft_bytes = 32768
max_recent_messages = 4
supports_cancel = true

[server]
address = ":8080"
api_key_env = "PROMATE_API_KEY"
mode = "rewrite"
template_name = "default"
script_path = "enhance_prompt.sh"
keep_temp_files = false
read_timeout_seconds = 5
write_timeout_seconds = 10

[journal]
keep = 500
`, endpoint)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}

	return path, nil
}
