package inquiry

import (
	"net/url"
	"strings"
	"time"
)

// Config consolidates settings for the server, the CLI and the factory
type Config struct {
	Server  ServerConfig  `json:"server"`
	Storage StorageConfig `json:"storage"`
	Export  ExportConfig  `json:"export"`
	Publish PublishConfig `json:"publish"`
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
	MaxBodyBytes    int64         `json:"maxBodyBytes"`
}

// StorageBackend selects a repository implementation
type StorageBackend string

const (
	StorageBackendMemory   StorageBackend = "memory"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendDuckDB   StorageBackend = "duckdb"
)

// StorageConfig contains repository settings
type StorageConfig struct {
	Backend StorageBackend `json:"backend"`
	// DuckDBPath is a file path, or empty for an in-memory database.
	DuckDBPath string         `json:"duckdbPath"`
	Database   DatabaseConfig `json:"database"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	Database       string        `json:"database"`
	Username       string        `json:"username"`
	Password       string        `json:"password"`
	SSLMode        string        `json:"sslMode"`
	MaxConnections int           `json:"maxConnections"`
	Timeout        time.Duration `json:"timeout"`
	TableName      string        `json:"tableName"`
	// UseIAMAuth replaces Password with a DSQL IAM auth token.
	UseIAMAuth bool   `json:"useIamAuth"`
	Region     string `json:"region"`
}

// ExportConfig parameterises the widget compiler
type ExportConfig struct {
	// ScriptBaseURL is where the compact variant loads its script from.
	ScriptBaseURL string        `json:"scriptBaseUrl"`
	Endpoint      string        `json:"endpoint"`
	SubmitTimeout time.Duration `json:"submitTimeout"`
	Messages      Messages      `json:"messages"`
}

// Messages are the user-facing strings baked into the generated runtime
type Messages struct {
	Required     string `json:"required"`
	InvalidEmail string `json:"invalidEmail"`
	InvalidPhone string `json:"invalidPhone"`
	InvalidNum   string `json:"invalidNumber"`
	MinLength    string `json:"minLength"` // %d is replaced with the limit
	MaxLength    string `json:"maxLength"` // %d is replaced with the limit
	Pattern      string `json:"pattern"`
	Config       string `json:"config"`
	Success      string `json:"success"`
	Failure      string `json:"failure"`
	Submit       string `json:"submit"`
	Submitting   string `json:"submitting"`
	Choose       string `json:"choose"`
	Other        string `json:"other"`
	TooManyFiles string `json:"tooManyFiles"`
	FileTooLarge string `json:"fileTooLarge"`
	Attachments  string `json:"attachments"`
}

// PublishConfig contains S3 hosting settings for compact scripts
type PublishConfig struct {
	Enabled         bool          `json:"enabled"`
	Bucket          string        `json:"bucket"`
	Prefix          string        `json:"prefix"`
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"accessKeyId"`
	SecretAccessKey string        `json:"secretAccessKey"`
	UsePathStyle    bool          `json:"usePathStyle"`
	Timeout         time.Duration `json:"timeout"`
	// BreakerThreshold failures within BreakerWindow open the breaker for BreakerCooldown.
	BreakerThreshold int           `json:"breakerThreshold"`
	BreakerWindow    time.Duration `json:"breakerWindow"`
	BreakerCooldown  time.Duration `json:"breakerCooldown"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultMessages returns the English message catalogue
func DefaultMessages() Messages {
	return Messages{
		Required:     "This field is required",
		InvalidEmail: "Please enter a valid email address",
		InvalidPhone: "Please enter a valid phone number",
		InvalidNum:   "Please enter a valid number",
		MinLength:    "Please enter at least %d characters",
		MaxLength:    "Please enter no more than %d characters",
		Pattern:      "Please match the requested format",
		Config:       "This form is not configured to accept submissions. Please contact the site owner.",
		Success:      "Thank you! Your inquiry has been sent.",
		Failure:      "Sorry, your inquiry could not be sent. Please try again later.",
		Submit:       "Submit",
		Submitting:   "Sending...",
		Choose:       "Please choose",
		Other:        "Other",
		TooManyFiles: "You can attach at most %d files",
		FileTooLarge: "Each file must be smaller than %d MB",
		Attachments:  "Attachments",
	}
}

// WithDefaults fills blank messages from the English catalogue
func (m Messages) WithDefaults() Messages {
	d := DefaultMessages()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&m.Required, d.Required)
	fill(&m.InvalidEmail, d.InvalidEmail)
	fill(&m.InvalidPhone, d.InvalidPhone)
	fill(&m.InvalidNum, d.InvalidNum)
	fill(&m.MinLength, d.MinLength)
	fill(&m.MaxLength, d.MaxLength)
	fill(&m.Pattern, d.Pattern)
	fill(&m.Config, d.Config)
	fill(&m.Success, d.Success)
	fill(&m.Failure, d.Failure)
	fill(&m.Submit, d.Submit)
	fill(&m.Submitting, d.Submitting)
	fill(&m.Choose, d.Choose)
	fill(&m.Other, d.Other)
	fill(&m.TooManyFiles, d.TooManyFiles)
	fill(&m.FileTooLarge, d.FileTooLarge)
	fill(&m.Attachments, d.Attachments)
	return m
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1024 * 1024, // 1MB
		},
		Storage: StorageConfig{
			Backend: StorageBackendMemory,
			Database: DatabaseConfig{
				Host:           "localhost",
				Port:           5432,
				Database:       "inquiry",
				SSLMode:        "disable",
				MaxConnections: 10,
				Timeout:        30 * time.Second,
				TableName:      "inquiry_kv",
			},
		},
		Export: ExportConfig{
			ScriptBaseURL: "http://localhost:8080/widgets",
			Endpoint:      "/api/inquiries",
			SubmitTimeout: 15 * time.Second,
			Messages:      DefaultMessages(),
		},
		Publish: PublishConfig{
			Region:           "us-east-1",
			Prefix:           "widgets/",
			Timeout:          30 * time.Second,
			BreakerThreshold: 5,
			BreakerWindow:    time.Minute,
			BreakerCooldown:  30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 1 and 65535"}
	}

	if c.Server.MaxBodyBytes <= 0 {
		return &ConfigError{Field: "server.maxBodyBytes", Message: "must be greater than 0"}
	}

	switch c.Storage.Backend {
	case StorageBackendMemory, StorageBackendDuckDB:
	case StorageBackendPostgres:
		if c.Storage.Database.MaxConnections <= 0 {
			return &ConfigError{Field: "storage.database.maxConnections", Message: "must be greater than 0"}
		}
		if c.Storage.Database.UseIAMAuth && c.Storage.Database.Region == "" {
			return &ConfigError{Field: "storage.database.region", Message: "is required when useIamAuth is set"}
		}
	default:
		return &ConfigError{Field: "storage.backend", Message: "must be one of memory, postgres, duckdb"}
	}

	if c.Export.ScriptBaseURL != "" {
		if _, err := url.Parse(c.Export.ScriptBaseURL); err != nil {
			return &ConfigError{Field: "export.scriptBaseUrl", Message: "must be a valid URL"}
		}
	}

	if strings.TrimSpace(c.Export.Endpoint) == "" {
		return &ConfigError{Field: "export.endpoint", Message: "must not be empty"}
	}

	if c.Export.SubmitTimeout <= 0 {
		return &ConfigError{Field: "export.submitTimeout", Message: "must be greater than 0"}
	}

	if c.Publish.Enabled {
		if c.Publish.Bucket == "" {
			return &ConfigError{Field: "publish.bucket", Message: "is required when publishing is enabled"}
		}
		if c.Publish.BreakerThreshold <= 0 {
			return &ConfigError{Field: "publish.breakerThreshold", Message: "must be greater than 0"}
		}
	}

	return nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ConfigError) Error() string {
	return "config validation error for field '" + e.Field + "': " + e.Message
}
