package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# vnquery Configuration

[market]
# Market data API base URL
base_url = "https://apipubaws.tcbs.com.vn"
# HTTP request timeout (e.g., "30s")
request_timeout = "30s"
# Number of history responses kept in the in-memory cache
cache_capacity = 128
# Concurrent workers for multi-symbol retrieval
fetch_workers = 5
# Candle interval: 1D, 1W, 1M
default_interval = "1D"

[llm]
# OpenAI model for intent analysis and answer generation
model = "gpt-4o-mini"
# Sampling temperature (0.0 - 2.0)
temperature = 0.2
# Maximum tokens per completion
max_tokens = 1024

[server]
# HTTP listen address
addr = ":8388"
read_timeout = "15s"
write_timeout = "2m"
shutdown_timeout = "10s"

[trace]
# Persist per-question traces (JSON files plus SQLite)
enabled = false
dir = ""
db_path = ""
`

const credentialsTemplate = `# vnquery Credentials
# WARNING: Keep this file secure! Do not commit to version control.

[openai]
api_key = ""
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}

func createTemplateCredentials(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "credentials.toml")
	// Use restricted permissions for credentials file
	if err := os.WriteFile(path, []byte(credentialsTemplate), 0600); err != nil {
		return fmt.Errorf("writing credentials template: %w", err)
	}

	// A missing credentials file is not fatal; the environment may carry the
	// key instead.
	return nil
}
