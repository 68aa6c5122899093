package providers

import "time"

// Config configures one HTTP provider client.
type Config struct {
	Name    string        `yaml:"name" json:"name"`
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// RequestsPerSecond caps the outbound call rate. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty"`

	// StatusPath is the endpoint used for status queries; %s is replaced by
	// the job id.
	StatusPath string `yaml:"status_path,omitempty" json:"status_path,omitempty"`
}

// UploadConfig configures the upload-for-reference client.
type UploadConfig struct {
	BaseURL string        `yaml:"base_url" json:"base_url"`
	APIKey  string        `yaml:"api_key" json:"api_key"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// CacheTTL bounds how long a hosted URL stays memoized. Zero uses the
	// cache default.
	CacheTTL time.Duration `yaml:"cache_ttl,omitempty" json:"cache_ttl,omitempty"`
}

// DefaultConfig returns a provider config with sane transport defaults.
func DefaultConfig(name, baseURL string) Config {
	return Config{
		Name:              name,
		BaseURL:           baseURL,
		Timeout:           120 * time.Second,
		RequestsPerSecond: 2,
		StatusPath:        "v1/jobs/%s",
	}
}

// DefaultUploadConfig returns an upload client config with sane defaults.
func DefaultUploadConfig(baseURL string) UploadConfig {
	return UploadConfig{
		BaseURL:  baseURL,
		Timeout:  120 * time.Second,
		CacheTTL: 30 * time.Minute,
	}
}
