// Package templar prepares uploaded HTML templates for in-place editing.
//
// Process runs both sanitizer passes and returns the final document, the
// wrapped style block and the fields the template declares:
//
//	result, err := templar.Process(raw)
//	if err != nil {
//		return err
//	}
//	page, err := result.Document()
package templar

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/templar/internal/logger"
	"github.com/jmylchreest/templar/pkg/field"
	"github.com/jmylchreest/templar/pkg/sanitize"
)

// Result is a processed template.
type Result struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// HTML is the annotated document without styles.
	HTML string `json:"html" yaml:"html"`

	// Styles is the extracted CSS wrapped in a single <style> block.
	Styles string `json:"styles" yaml:"styles"`

	// RawStyles is the extracted CSS as found in the template.
	RawStyles string `json:"-" yaml:"-"`

	Classes     []string                `json:"classes" yaml:"classes"`
	Fields      []field.Definition      `json:"fields" yaml:"fields"`
	FieldErrors []field.ValidationError `json:"field_errors,omitempty" yaml:"field_errors,omitempty"`
	Warnings    []sanitize.Warning      `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	StructureStats *sanitize.Stats `json:"-" yaml:"-"`
	AnnotateStats  *sanitize.Stats `json:"-" yaml:"-"`
	Duration       time.Duration   `json:"-" yaml:"-"`

	// Err is set by ProcessMany when this document failed.
	Err   error  `json:"-" yaml:"-"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Valid reports whether the template processed and all its fields validated.
func (r *Result) Valid() bool {
	return r.Err == nil && len(r.FieldErrors) == 0
}

// Document returns the final HTML with the style block appended to <head>.
func (r *Result) Document() (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(r.HTML))
	if err != nil {
		return "", fmt.Errorf("parse result: %w", err)
	}
	if r.Styles != "" {
		doc.Find("head").AppendHtml(r.Styles)
	}
	return doc.Html()
}

// Processor runs the two-pass pipeline with a fixed configuration.
// It is safe for concurrent use.
type Processor struct {
	sanitizer *sanitize.Sanitizer
	config    Config
}

// New creates a Processor.
func New(opts ...Option) (*Processor, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var sanitizeOpts []sanitize.Option
	if cfg.Session != nil {
		sanitizeOpts = append(sanitizeOpts, sanitize.WithSession(cfg.Session))
	}
	s, err := sanitize.New(cfg.Sanitize, sanitizeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sanitizer: %w", err)
	}

	return &Processor{
		sanitizer: s,
		config:    cfg,
	}, nil
}

// Process runs both passes over raw with a Processor built from opts.
func Process(raw string, opts ...Option) (*Result, error) {
	p, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return p.Process(raw)
}

// Process sanitizes raw, annotates the result and validates its fields.
// Field problems are reported in Result.FieldErrors, never as an error.
func (p *Processor) Process(raw string) (*Result, error) {
	start := time.Now()

	structure, err := p.sanitizer.Structure(raw)
	if err != nil {
		return nil, fmt.Errorf("structure pass: %w", err)
	}
	annotated, err := p.sanitizer.Annotate(structure.HTML, structure.Styles)
	if err != nil {
		return nil, fmt.Errorf("annotate pass: %w", err)
	}

	result := &Result{
		HTML:           annotated.HTML,
		Styles:         annotated.Styles,
		RawStyles:      structure.Styles,
		Classes:        structure.Classes,
		Fields:         structure.Fields,
		Warnings:       structure.Warnings,
		StructureStats: structure.Stats,
		AnnotateStats:  annotated.Stats,
	}

	if p.config.ValidateFields {
		result.FieldErrors = field.ValidateAll(result.Fields)
	}
	if p.config.UniqueFieldIDs {
		result.FieldErrors = append(result.FieldErrors, field.CheckUnique(result.Fields)...)
	}

	result.Duration = time.Since(start)
	logger.Debug("template processed",
		"fields", len(result.Fields),
		"field_errors", len(result.FieldErrors),
		"removed", structure.Stats.TotalRemoved(),
		"marked", structure.Stats.ElementsMarked+annotated.Stats.ElementsMarked,
		"duration", result.Duration)

	return result, nil
}
