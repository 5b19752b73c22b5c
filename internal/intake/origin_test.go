package intake

import (
	"testing"

	"github.com/lychee-technology/inquiry"
	"github.com/stretchr/testify/assert"
)

func TestAllowOrigin(t *testing.T) {
	form := &inquiry.Form{Settings: inquiry.FormSettings{
		AllowedDomains: []string{"Example.com", "localhost:3000", "https://shop.example.org/", "  "},
	}}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"https://example.com", true},
		{"http://EXAMPLE.com:8443", true},
		{"https://www.example.com", false},
		{"http://localhost:3000", true},
		{"http://localhost:4000", false},
		{"https://shop.example.org", true},
		{"null", false},
		{"https://evil.test", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AllowOrigin(form, tt.origin), tt.origin)
	}
}
