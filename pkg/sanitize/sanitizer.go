package sanitize

import (
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/jmylchreest/templar/internal/logger"
)

// Sanitizer runs the structure and annotate passes with one Config.
// It holds no per-call state and is safe for concurrent use.
type Sanitizer struct {
	config    *Config
	selectors []compiledSelector
	session   *Session

	structurePolicy *bluemonday.Policy
	documentPolicy  *bluemonday.Policy
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithSession makes every call run inside s instead of a fresh session.
// Calls sharing a session are serialized.
func WithSession(s *Session) Option {
	return func(z *Sanitizer) {
		z.session = s
	}
}

// New creates a Sanitizer. If config is nil, DefaultConfig() is used.
func New(config *Config, opts ...Option) (*Sanitizer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	selectors, err := config.compileSelectors()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	s := &Sanitizer{
		config:          config,
		selectors:       selectors,
		structurePolicy: newDocumentPolicy(config.ForbidTags),
		documentPolicy:  DocumentPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration in use.
func (s *Sanitizer) Config() *Config {
	return s.config
}

func (s *Sanitizer) sessionFor() *Session {
	if s.session != nil {
		return s.session
	}
	return NewSession()
}

func (s *Sanitizer) debug(msg string, args ...any) {
	if s.config.Debug && logger.DebugEnabled() {
		logger.Debug(msg, args...)
	}
}

var (
	defaultOnce      sync.Once
	defaultSanitizer *Sanitizer
)

func defaultInstance() *Sanitizer {
	defaultOnce.Do(func() {
		s, err := New(DefaultConfig())
		if err != nil {
			panic(fmt.Sprintf("sanitize: default config: %v", err))
		}
		defaultSanitizer = s
	})
	return defaultSanitizer
}

// SanitizeStructure runs the structure pass with DefaultConfig.
func SanitizeStructure(raw string) (*StructureResult, error) {
	return defaultInstance().Structure(raw)
}

// AnnotateEditable runs the annotate pass with DefaultConfig over the output
// of SanitizeStructure and wraps styles in a single <style> block.
func AnnotateEditable(htmlText, styles string) (*AnnotateResult, error) {
	return defaultInstance().Annotate(htmlText, styles)
}

// parseDocument parses text as a whole document. The parser adds any missing
// html, head and body elements.
func parseDocument(text string) (*html.Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc.Nodes[0], nil
}

func render(root *html.Node) (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return sb.String(), nil
}
