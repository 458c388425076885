// Package harconfig loads and validates the run configuration: the input
// archive location, request filters, the comparator rules, the header/body
// minimization settings, and the client and rate-limit knobs.
//
// It is grounded on the original har_minimizer/config.py: the same nested
// groups, the same defaults, and the same shallow-merge override behavior,
// translated from Python dataclasses into tagged Go structs decoded with
// gopkg.in/yaml.v3 (or encoding/json for a .json config file).
package harconfig

import "time"

// RateLimitConfig configures the outbound token-bucket gate.
type RateLimitConfig struct {
	// RequestsPerSecond is the global send-rate ceiling. Nil means
	// unlimited.
	RequestsPerSecond *float64 `yaml:"requests_per_second" json:"requests_per_second"`
	// MaxConcurrent is the worker-pool size enforced by the orchestrator.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`
}

// ClientConfig configures the HTTP client used to replay requests.
type ClientConfig struct {
	Timeout    time.Duration     `yaml:"-" json:"-"`
	TimeoutSec float64           `yaml:"timeout" json:"timeout"`
	VerifyTLS  bool              `yaml:"verify_tls" json:"verify_tls"`
	Proxies    map[string]string `yaml:"proxies" json:"proxies"`
	RateLimit  RateLimitConfig   `yaml:"rate_limit" json:"rate_limit"`
}

// HeaderMinConfig configures header-reduction.
type HeaderMinConfig struct {
	Enabled        bool     `yaml:"enabled" json:"enabled"`
	Protected      []string `yaml:"protected" json:"protected"`
	Ignore         []string `yaml:"ignore" json:"ignore"`
	CandidateRegex []string `yaml:"candidate_regex" json:"candidate_regex"`
}

// BodyMinConfig configures body-reduction.
type BodyMinConfig struct {
	Enabled            bool     `yaml:"enabled" json:"enabled"`
	BodyType           string   `yaml:"body_type" json:"body_type"`
	ProtectedKeys      []string `yaml:"protected_keys" json:"protected_keys"`
	OnlyKeys           []string `yaml:"only_keys" json:"only_keys"`
	TreatEmptyAsAbsent bool     `yaml:"treat_empty_as_absent" json:"treat_empty_as_absent"`
}

// MinimizationConfig groups the header/body reduction settings and the
// order in which the two phases run.
type MinimizationConfig struct {
	Headers HeaderMinConfig `yaml:"headers" json:"headers"`
	Body    BodyMinConfig   `yaml:"body" json:"body"`
	Order   []string        `yaml:"order" json:"order"`
}

// ComparatorConfig configures the response equivalence predicate.
type ComparatorConfig struct {
	StatusCode      bool     `yaml:"status_code" json:"status_code"`
	LengthCheck     bool     `yaml:"length_check" json:"length_check"`
	LengthTolerance float64  `yaml:"length_tolerance" json:"length_tolerance"`
	NeedAll         []string `yaml:"need_all" json:"need_all"`
	NeedAny         []string `yaml:"need_any" json:"need_any"`
	Regex           []string `yaml:"regex" json:"regex"`
	Logic           string   `yaml:"logic" json:"logic"`
}

// FilterConfig restricts which archive entries are minimized at all.
type FilterConfig struct {
	Methods               []string `yaml:"methods" json:"methods"`
	Hosts                 []string `yaml:"hosts" json:"hosts"`
	URLRegex              []string `yaml:"url_regex" json:"url_regex"`
	IndexRange            *[2]int  `yaml:"index_range" json:"index_range"`
	DeduplicateIdentical  bool     `yaml:"deduplicate_identical" json:"deduplicate_identical"`
}

// ScopeConfig further restricts entries to an explicit allow-list.
type ScopeConfig struct {
	IncludeURLs   []string `yaml:"include_urls" json:"include_urls"`
	IncludeRegex  []string `yaml:"include_regex" json:"include_regex"`
}

// OutputConfig controls the updated-archive export.
type OutputConfig struct {
	DeduplicateIdentical bool `yaml:"deduplicate_identical" json:"deduplicate_identical"`
}

// Config is the top-level run configuration.
type Config struct {
	InputHAR            string              `yaml:"input_har" json:"input_har"`
	ReportPath          string              `yaml:"report_path" json:"report_path"`
	OutputHAR           string              `yaml:"output_har" json:"output_har"`
	Filters             FilterConfig        `yaml:"filters" json:"filters"`
	Scope               ScopeConfig         `yaml:"scope" json:"scope"`
	Comparator          ComparatorConfig    `yaml:"comparator" json:"comparator"`
	Minimization        MinimizationConfig  `yaml:"minimization" json:"minimization"`
	Client              ClientConfig        `yaml:"client" json:"client"`
	Output              OutputConfig        `yaml:"output" json:"output"`
	MaxRoundsPerRequest int                 `yaml:"max_rounds_per_request" json:"max_rounds_per_request"`
	UpdateHARMetadata   bool                `yaml:"update_har_metadata" json:"update_har_metadata"`
}

// Default returns a Config populated with the same defaults as the
// original: headers-then-body ordering, host/cookie protected,
// content-length ignored, a 200-round budget per request.
func Default() Config {
	return Config{
		ReportPath: "min_report.json",
		Comparator: ComparatorConfig{
			StatusCode: true,
			Logic:      "AND",
		},
		Minimization: MinimizationConfig{
			Headers: HeaderMinConfig{
				Enabled:   true,
				Protected: []string{"host", "cookie"},
				Ignore:    []string{"content-length"},
			},
			Body: BodyMinConfig{
				Enabled:            true,
				BodyType:           "auto",
				TreatEmptyAsAbsent: true,
			},
			Order: []string{"headers", "body"},
		},
		Client: ClientConfig{
			TimeoutSec: 20.0,
			VerifyTLS:  true,
			RateLimit: RateLimitConfig{
				MaxConcurrent: 1,
			},
		},
		MaxRoundsPerRequest: 200,
		UpdateHARMetadata:   true,
	}
}
