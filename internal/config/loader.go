package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load returns the defaults overlaid with the file at path. A missing file
// is not an error. The result is not validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := decode(path, data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// FormatForPath maps a file extension to "toml" or "yaml". Unknown
// extensions are returned unchanged so Encode can reject them.
func FormatForPath(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", "":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return ext
	}
}

// Encode writes cfg to w as "toml" or "yaml".
func Encode(w io.Writer, format string, cfg Config) error {
	switch format {
	case "toml":
		if err := toml.NewEncoder(w).Encode(cfg); err != nil {
			return fmt.Errorf("encode TOML config: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("encode YAML config: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (use .toml, .yaml or .yml)", format)
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml", "":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("parse TOML config: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("parse YAML config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	return nil
}

// Write stores cfg at path in the format implied by the extension,
// creating parent directories.
func Write(path string, cfg Config) error {
	var buf bytes.Buffer
	buf.WriteString("# awake configuration. Command-line flags override these values.\n\n")
	if err := Encode(&buf, FormatForPath(path), cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// WriteDefault writes the default configuration unless path exists. It
// reports whether a file was created.
func WriteDefault(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := Write(path, Default()); err != nil {
		return false, err
	}
	return true, nil
}
