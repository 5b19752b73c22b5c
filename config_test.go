package inquiry

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Server.Port != 8080 {
		t.Errorf("Expected server port to be 8080, got %d", config.Server.Port)
	}
	if config.Storage.Backend != StorageBackendMemory {
		t.Errorf("Expected memory backend by default, got %s", config.Storage.Backend)
	}
	if config.Storage.Database.TableName != "inquiry_kv" {
		t.Errorf("Expected table name inquiry_kv, got %s", config.Storage.Database.TableName)
	}
	if config.Export.Endpoint != "/api/inquiries" {
		t.Errorf("Expected endpoint /api/inquiries, got %s", config.Export.Endpoint)
	}
	if config.Export.SubmitTimeout != 15*time.Second {
		t.Errorf("Expected submit timeout 15s, got %v", config.Export.SubmitTimeout)
	}
	if config.Export.Messages.Required != "This field is required" {
		t.Errorf("Unexpected required message %q", config.Export.Messages.Required)
	}
	if config.Publish.Enabled {
		t.Error("Expected publishing to be disabled by default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got: %v", err)
	}
}

func TestConfigValidationDetailed(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorField  string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid port",
			mutate:      func(c *Config) { c.Server.Port = 0 },
			expectError: true,
			errorField:  "server.port",
		},
		{
			name:        "invalid body limit",
			mutate:      func(c *Config) { c.Server.MaxBodyBytes = 0 },
			expectError: true,
			errorField:  "server.maxBodyBytes",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Storage.Backend = "sqlite" },
			expectError: true,
			errorField:  "storage.backend",
		},
		{
			name: "postgres without connections",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendPostgres
				c.Storage.Database.MaxConnections = 0
			},
			expectError: true,
			errorField:  "storage.database.maxConnections",
		},
		{
			name: "iam auth without region",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendPostgres
				c.Storage.Database.UseIAMAuth = true
				c.Storage.Database.Region = ""
			},
			expectError: true,
			errorField:  "storage.database.region",
		},
		{
			name:        "blank endpoint",
			mutate:      func(c *Config) { c.Export.Endpoint = "  " },
			expectError: true,
			errorField:  "export.endpoint",
		},
		{
			name:        "zero submit timeout",
			mutate:      func(c *Config) { c.Export.SubmitTimeout = 0 },
			expectError: true,
			errorField:  "export.submitTimeout",
		},
		{
			name:        "publish without bucket",
			mutate:      func(c *Config) { c.Publish.Enabled = true },
			expectError: true,
			errorField:  "publish.bucket",
		},
		{
			name: "publish with bucket",
			mutate: func(c *Config) {
				c.Publish.Enabled = true
				c.Publish.Bucket = "widgets"
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("Expected validation error but got none")
				} else if configErr, ok := err.(*ConfigError); ok {
					if configErr.Field != tt.errorField {
						t.Errorf("Expected error field %s, got %s", tt.errorField, configErr.Field)
					}
				} else {
					t.Errorf("Expected ConfigError, got %T", err)
				}
			} else if err != nil {
				t.Errorf("Expected no validation error but got: %v", err)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{
		Field:   "test.field",
		Message: "test message",
	}

	expected := "config validation error for field 'test.field': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message %s, got %s", expected, err.Error())
	}
}
