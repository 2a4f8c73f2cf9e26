// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-explainer/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AcquisitionConfig holds settings for the source resolver.
type AcquisitionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// TempDir is the parent of the per-request download directories.
	// Empty means os.TempDir().
	TempDir string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`

	// ChunkSize is the write size used while streaming a download (default 8192).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`
}

// ConversionBackend identifies the PDF conversion tool.
type ConversionBackend string

const (
	BackendTabula     ConversionBackend = "tabula"
	BackendMarkitdown ConversionBackend = "markitdown"
)

// ConversionConfig holds settings for the conversion stage.
type ConversionConfig struct {
	// Backend selects the conversion tool: tabula or markitdown.
	Backend ConversionBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// OutputDir receives converted Markdown files (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// KeepCode preserves fenced code blocks in the output.
	KeepCode bool `json:"keep_code" yaml:"keep_code" mapstructure:"keep_code"`

	// EmbedImages inlines raster images as base64 data URIs.
	EmbedImages bool `json:"embed_images" yaml:"embed_images" mapstructure:"embed_images"`

	// ShowProgress prints per-step status lines.
	ShowProgress bool `json:"show_progress" yaml:"show_progress" mapstructure:"show_progress"`
}

// AIBackendKind selects the generative AI service.
type AIBackendKind string

const (
	AIBackendGemini AIBackendKind = "gemini"
	AIBackendVertex AIBackendKind = "vertex"
)

// AIConfig holds settings for the explanation client.
type AIConfig struct {
	// Backend selects the service: gemini (API key) or vertex (service account).
	Backend AIBackendKind `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the model identifier (e.g. "gemini-2.5-pro").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the single credential for the service. For the gemini backend
	// it is the API key; for vertex it is the path to a service-account file.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// ProjectID and Region locate the Vertex AI endpoint.
	ProjectID string `json:"project_id,omitempty" yaml:"project_id,omitempty" mapstructure:"project_id"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// Bucket is the GCS bucket that holds uploaded documents for vertex.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" mapstructure:"bucket"`
}

// Validate reports a ConfigurationError when the credential or a
// backend-specific setting is missing.
func (c AIConfig) Validate() error {
	if c.APIKey == "" {
		return &Error{Kind: ConfigurationError, Op: "config", Err: fmt.Errorf("API credential is not set (GOOGLE_API_KEY)")}
	}
	if c.Model == "" {
		return &Error{Kind: ConfigurationError, Op: "config", Err: fmt.Errorf("model is not set")}
	}
	switch c.Backend {
	case "", AIBackendGemini:
	case AIBackendVertex:
		if c.ProjectID == "" || c.Region == "" || c.Bucket == "" {
			return &Error{Kind: ConfigurationError, Op: "config", Err: fmt.Errorf("vertex backend needs project_id, region and bucket")}
		}
	default:
		return &Error{Kind: ConfigurationError, Op: "config", Err: fmt.Errorf("unknown AI backend %q", c.Backend)}
	}
	return nil
}

// ServerConfig holds settings for the interactive web front end.
type ServerConfig struct {
	// Addr is the listen address (default ":7860").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// BodyLimit caps upload size in bytes (default 50 MiB).
	BodyLimit int `json:"body_limit" yaml:"body_limit" mapstructure:"body_limit"`

	// Convert runs the conversion stage before upload.
	Convert bool `json:"convert" yaml:"convert" mapstructure:"convert"`
}

// StorageConfig holds settings for the optional S3-compatible artifact mirror.
// An empty Endpoint disables the mirror.
type StorageConfig struct {
	Endpoint  string        `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string        `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string        `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	Bucket    string        `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool          `json:"use_ssl" yaml:"use_ssl" mapstructure:"use_ssl"`
	LinkTTL   time.Duration `json:"link_ttl" yaml:"link_ttl" mapstructure:"link_ttl"`
}

// Enabled reports whether a mirror endpoint is configured.
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Config groups all settings for the tool.
type Config struct {
	Acquisition AcquisitionConfig `json:"acquisition" yaml:"acquisition" mapstructure:"acquisition"`
	Conversion  ConversionConfig  `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	AI          AIConfig          `json:"ai" yaml:"ai" mapstructure:"ai"`
	Server      ServerConfig      `json:"server" yaml:"server" mapstructure:"server"`
	Storage     StorageConfig     `json:"storage" yaml:"storage" mapstructure:"storage"`
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Acquisition: AcquisitionConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "paper-explainer/0.1",
			},
			ChunkSize: 8192,
		},
		Conversion: ConversionConfig{
			Backend:      BackendTabula,
			OutputDir:    "output",
			KeepCode:     true,
			EmbedImages:  true,
			ShowProgress: true,
		},
		AI: AIConfig{
			Backend: AIBackendGemini,
			Model:   "gemini-2.5-pro",
			Region:  "us-central1",
		},
		Server: ServerConfig{
			Addr:      ":7860",
			BodyLimit: 50 << 20,
		},
		Storage: StorageConfig{
			LinkTTL: time.Hour,
		},
	}
}
