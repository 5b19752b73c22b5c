package editor

import (
	"crypto/rand"
	"encoding/base32"
	"strconv"
	"sync"
	"time"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz156789"

var customEncoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// EncodeToBase32 encodes data with the lowercase, padding-free alphabet used
// in form and field ids.
func EncodeToBase32(data []byte) string {
	return customEncoding.EncodeToString(data)
}

// DecodeFromBase32 reverses EncodeToBase32.
func DecodeFromBase32(s string) ([]byte, error) {
	return customEncoding.DecodeString(s)
}

// IDGenerator issues opaque ids of the form base36(unix millis) followed by
// eight random base32 characters. It never returns the same id twice.
type IDGenerator struct {
	mu   sync.Mutex
	now  func() time.Time
	last string
}

// NewIDGenerator returns a generator using the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

var defaultIDs = NewIDGenerator()

// NewID returns an id from the process-wide generator.
func NewID() string {
	return defaultIDs.Next()
}

// Next returns a fresh id.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	prefix := strconv.FormatInt(g.now().UnixMilli(), 36)
	for {
		var buf [5]byte // 40 bits, exactly eight characters
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand does not fail on supported platforms
			panic("editor: reading random bytes: " + err.Error())
		}
		id := prefix + EncodeToBase32(buf[:])
		if id != g.last {
			g.last = id
			return id
		}
	}
}
