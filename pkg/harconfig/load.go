package harconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON config file and applies overrides on top of it,
// the same shallow-merge-by-key behavior as the original's _merge: nested
// maps are merged recursively, any other value in overrides replaces the
// corresponding value from the file outright.
//
// The merged document is decoded into a Config seeded with Default(), so
// unset fields retain their defaults rather than zero values.
func Load(path string, overrides map[string]interface{}) (Config, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return Config{}, err
	}
	merged := mergeMaps(raw, overrides)

	if _, ok := merged["input_har"]; !ok {
		return Config{}, ErrMissingInputArchive
	}

	cfg := Default()
	encoded, err := yaml.Marshal(merged)
	if err != nil {
		return Config{}, fmt.Errorf("harconfig: re-encode merged config: %w", err)
	}
	if err := yaml.Unmarshal(encoded, &cfg); err != nil {
		return Config{}, fmt.Errorf("harconfig: decode merged config: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadRaw(path string) (map[string]interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("harconfig: read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	raw := map[string]interface{}{}
	switch ext {
	case ".json":
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("harconfig: parse %s as JSON: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("harconfig: parse %s as YAML: %w", path, err)
		}
	default:
		return nil, ErrUnknownFormat
	}
	return raw, nil
}

// mergeMaps recursively merges b over a, matching har_minimizer/config.py's
// _merge: nested maps merge key-by-key, anything else in b wins outright.
func mergeMaps(a, b map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(a))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		if bSub, ok := v.(map[string]interface{}); ok {
			if aSub, ok := result[k].(map[string]interface{}); ok {
				result[k] = mergeMaps(aSub, bSub)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// finalize derives computed fields and validates the assembled config.
func (c *Config) finalize() error {
	c.Client.Timeout = time.Duration(c.Client.TimeoutSec * float64(time.Second))

	switch BodyTypeOf(c.Minimization.Body.BodyType) {
	case "auto", "json", "form", "raw":
	default:
		return ErrUnknownBodyType
	}

	switch strings.ToUpper(c.Comparator.Logic) {
	case "AND", "OR":
		c.Comparator.Logic = strings.ToUpper(c.Comparator.Logic)
	default:
		return ErrUnknownLogic
	}

	for _, step := range c.Minimization.Order {
		if step != "headers" && step != "body" {
			return ErrUnknownOrderStep
		}
	}

	if c.MaxRoundsPerRequest <= 0 {
		c.MaxRoundsPerRequest = Default().MaxRoundsPerRequest
	}
	if c.Client.RateLimit.MaxConcurrent <= 0 {
		c.Client.RateLimit.MaxConcurrent = 1
	}

	return nil
}

// BodyTypeOf normalizes a body_type string, defaulting an empty value to
// "auto".
func BodyTypeOf(bodyType string) string {
	if bodyType == "" {
		return "auto"
	}
	return strings.ToLower(bodyType)
}
