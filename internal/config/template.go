package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Template returns the default configuration as commented TOML.
func Template() string {
	return `# bblocks configuration

# Register loaded when no --register flag is given.
register = "` + DefaultRegister + `"

# debug, info, warn or error
log_level = "info"

[cache]
# none, file, memory, redis or mongo
backend = "file"
# dir = "~/.cache/bblocks"
ttl = "24h"
# redis_url = "redis://localhost:6379/0"
# mongo_uri = "mongodb://localhost:27017"
mongo_database = "bblocks"
mongo_collection = "http_cache"

[server]
addr = ":8080"
read_timeout = "30s"
write_timeout = "2m0s"
max_body_bytes = 10485760
# Fetch this many full records in parallel at startup (0 disables).
preload = 0

[uplift]
# Repeat SHACL rules until they infer nothing new.
iterate_rules = false
`
}

// WriteDefault creates a config file at path with the default settings and
// comments. It refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template()), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
