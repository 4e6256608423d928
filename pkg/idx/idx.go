// Package idx issues the sortable identifiers used for token ids (jti) and
// request ids.
package idx

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID string.
type ID string

// Zero is the empty ID.
const Zero ID = ""

// ErrInvalid reports a malformed ULID string.
var ErrInvalid = errors.New("idx: invalid ulid")

// Generator produces ULIDs from a monotonic entropy source. It is safe for
// concurrent use; ids made within the same millisecond still sort in order.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewGenerator wraps r (crypto/rand when nil) in a monotonic source.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{entropy: ulid.Monotonic(r, 0)}
}

// NewAt returns an ID carrying the timestamp t.
func (g *Generator) NewAt(t time.Time) (ID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t.UTC()), g.entropy)
	if err != nil {
		return Zero, err
	}
	return ID(u.String()), nil
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

func generator() *Generator {
	defaultOnce.Do(func() { defaultGen = NewGenerator(nil) })
	return defaultGen
}

// New returns an ID for the current time from the process-wide generator.
// It panics if the entropy source fails, which crypto/rand does not do.
func New() ID {
	return MustNewAt(time.Now())
}

// MustNewAt is NewAt on the process-wide generator, panicking on failure.
func MustNewAt(t time.Time) ID {
	id, err := generator().NewAt(t)
	if err != nil {
		panic("idx: failed to generate ULID: " + err.Error())
	}
	return id
}

// Parse validates s as a ULID.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(s); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

func (id ID) String() string { return string(id) }

// Time extracts the embedded timestamp, or the zero time for invalid ids.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time()).UTC()
}
