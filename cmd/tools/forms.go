package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lychee-technology/inquiry"
	"github.com/lychee-technology/inquiry/internal/editor"
)

// loadForm reads a form JSON file and applies the order normalisation the
// editor applies on save.
func loadForm(path string) (*inquiry.Form, error) {
	if path == "" {
		return nil, fmt.Errorf("-form is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file: %w", err)
	}
	var form inquiry.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("parse form file %s: %w", path, err)
	}
	editor.Densify(&form)
	return &form, nil
}

// loadCheckedForm is loadForm followed by the save-time checks.
func loadCheckedForm(path string) (*inquiry.Form, error) {
	form, err := loadForm(path)
	if err != nil {
		return nil, err
	}
	if err := editor.Check(form).Err(); err != nil {
		return nil, err
	}
	return form, nil
}

// writeOutput writes data to out, or to stdout when out is empty.
func writeOutput(out string, data []byte) error {
	if out == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	fmt.Printf("Output written: %s\n", out)
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getenvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getenvDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
