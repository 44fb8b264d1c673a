// Package id generates the string identities the supervisor hands out.
//
// Stack and task identities are small integers owned by the supervisor's
// allocators. Everything that crosses a process boundary (activity tokens,
// lifecycle event ids) is a prefixed ULID instead, so tokens stay sortable by
// creation time and are readable in logs:
//
//	act_01J9Z8X3W6Q6T0Y4M8QF2K7V1N
//	evt_01J9Z8X3W7D1B3C5E8G0H2J4K6
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ActivityToken identifies one activity instance for its whole life. Hosting
// processes report pause/stop completion against it.
type ActivityToken string

// EventID identifies one lifecycle event on the event feed.
type EventID string

const (
	ActivityPrefix = "act"
	EventPrefix    = "evt"
	TracePrefix    = "trc"
	SpanPrefix     = "spn"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		entropy: rand.Reader,
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// WithPrefix creates a prefixed ULID string.
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewActivityToken generates a token for a freshly started activity.
func NewActivityToken() ActivityToken {
	return ActivityToken(Default().WithPrefix(ActivityPrefix))
}

// NewEventID generates an id for a lifecycle event.
func NewEventID() EventID {
	return EventID(Default().WithPrefix(EventPrefix))
}

func (t ActivityToken) String() string { return string(t) }
func (e EventID) String() string       { return string(e) }

// Short returns the trailing random part of the token, the same eight
// characters dumps print.
func (t ActivityToken) Short() string {
	s := string(t)
	if len(s) <= 8 {
		return s
	}
	return s[len(s)-8:]
}

// Split separates a prefixed id into prefix and ULID.
func Split(s string) (prefix string, u ulid.ULID, err error) {
	prefix, raw, ok := strings.Cut(s, "_")
	if !ok {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", s)
	}
	u, err = ulid.Parse(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("id %q: %w", s, err)
	}
	return prefix, u, nil
}

// IsActivityToken reports whether s is a well-formed activity token.
func IsActivityToken(s string) bool {
	prefix, _, err := Split(s)
	return err == nil && prefix == ActivityPrefix
}

// Timestamp extracts the creation time encoded in a prefixed id.
func Timestamp(s string) (time.Time, error) {
	_, u, err := Split(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
