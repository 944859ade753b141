package templar

import (
	"github.com/jmylchreest/templar/pkg/sanitize"
)

// Config holds Processor configuration.
type Config struct {
	// Sanitize holds the rules of both passes. Nil means sanitize.DefaultConfig().
	Sanitize *sanitize.Config

	// Session, when set, is shared by every call of the Processor.
	Session *sanitize.Session

	// ValidateFields runs field schema validation and fills Result.FieldErrors.
	ValidateFields bool

	// UniqueFieldIDs also reports field ids used more than once.
	UniqueFieldIDs bool
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ValidateFields: true,
	}
}

// Option configures a Processor.
type Option func(*Config)

// WithConfig sets the sanitizer rules.
func WithConfig(cfg *sanitize.Config) Option {
	return func(c *Config) {
		c.Sanitize = cfg
	}
}

// WithSession runs every call inside s. Calls sharing a session are serialized.
func WithSession(s *sanitize.Session) Option {
	return func(c *Config) {
		c.Session = s
	}
}

// WithValidation enables or disables field validation.
func WithValidation(enabled bool) Option {
	return func(c *Config) {
		c.ValidateFields = enabled
	}
}

// WithUniqueFieldIDs enables the duplicate field id check.
func WithUniqueFieldIDs(enabled bool) Option {
	return func(c *Config) {
		c.UniqueFieldIDs = enabled
	}
}
