// Package sanitize prepares uploaded HTML templates for in-place editing.
//
// Preparation runs in two passes. Structure strips disallowed nodes, lifts
// <style> text out of the document, collects the class vocabulary and
// extracts data-field-* definitions. Annotate then isolates text runs that
// share a parent with other nodes and marks text-bearing leaves as editable
// and focusable.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid sanitize config")

// Config defines the removal and marking rules of both passes.
type Config struct {
	// === Removal ===

	// RemoveSelectors lists CSS selectors whose matches are removed with their
	// subtree. They are evaluated in order after <style> extraction.
	RemoveSelectors []string `json:"remove_selectors" yaml:"remove_selectors" mapstructure:"remove_selectors" validate:"dive,required"`

	// EmptyMarkerClass is the placeholder class removed when the element has no text.
	EmptyMarkerClass string `json:"empty_marker_class" yaml:"empty_marker_class" mapstructure:"empty_marker_class" validate:"omitempty,token"`

	// ForbidTags are dropped together with their content by the pass-1 policy.
	ForbidTags []string `json:"forbid_tags" yaml:"forbid_tags" mapstructure:"forbid_tags" validate:"dive,required,token"`

	// StripStyleLabel drops the text before the only "*/" in a <style> block.
	StripStyleLabel bool `json:"strip_style_label" yaml:"strip_style_label" mapstructure:"strip_style_label"`

	// === Marking ===

	// RootContainerID is the id of the page container whose direct text is never marked.
	RootContainerID string `json:"root_container_id" yaml:"root_container_id" mapstructure:"root_container_id"`

	// EditableClass is added to elements the editor may edit in place.
	EditableClass string `json:"editable_class" yaml:"editable_class" mapstructure:"editable_class" validate:"required,token"`

	// ActiveClass is reserved for consumers toggling the active-edit state.
	// The pipeline never applies it.
	ActiveClass string `json:"active_class" yaml:"active_class" mapstructure:"active_class" validate:"required,token,nefield=EditableClass"`

	// WrapperTag is the element created around isolated text runs.
	WrapperTag string `json:"wrapper_tag" yaml:"wrapper_tag" mapstructure:"wrapper_tag" validate:"required,alphanum,lowercase"`

	// ContainerTag is the element kind marked when it holds exactly one text child.
	ContainerTag string `json:"container_tag" yaml:"container_tag" mapstructure:"container_tag" validate:"required,alphanum,lowercase"`

	// Debug logs every removal and anomaly at debug level.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// DefaultConfig returns the rules used for pdf2htmlEX-style templates.
func DefaultConfig() *Config {
	return &Config{
		RemoveSelectors: []string{
			"#sidebar",
			"#outline",
			".loading-indicator",
		},
		EmptyMarkerClass: "_",
		ForbidTags:       []string{"title"},
		StripStyleLabel:  true,

		RootContainerID: "page-container",
		EditableClass:   "editable",
		ActiveClass:     "edit-active",
		WrapperTag:      "span",
		ContainerTag:    "div",
	}
}

// Merge merges another config into this one.
// Non-zero/non-empty values from other override this config.
// Selectors and forbidden tags are appended, not replaced.
// Boolean options can only be switched on by other; a false value in other
// cannot be told apart from an unset one. To turn StripStyleLabel or Debug
// off, set the field on the merged config.
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	merged := *c
	merged.RemoveSelectors = appendUnique(append([]string(nil), c.RemoveSelectors...), other.RemoveSelectors...)
	merged.ForbidTags = appendUnique(append([]string(nil), c.ForbidTags...), other.ForbidTags...)

	if other.EmptyMarkerClass != "" {
		merged.EmptyMarkerClass = other.EmptyMarkerClass
	}
	if other.StripStyleLabel {
		merged.StripStyleLabel = true
	}
	if other.RootContainerID != "" {
		merged.RootContainerID = other.RootContainerID
	}
	if other.EditableClass != "" {
		merged.EditableClass = other.EditableClass
	}
	if other.ActiveClass != "" {
		merged.ActiveClass = other.ActiveClass
	}
	if other.WrapperTag != "" {
		merged.WrapperTag = other.WrapperTag
	}
	if other.ContainerTag != "" {
		merged.ContainerTag = other.ContainerTag
	}
	if other.Debug {
		merged.Debug = true
	}

	return &merged
}

func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if !seen[v] {
			dst = append(dst, v)
			seen[v] = true
		}
	}
	return dst
}

var (
	configValidateOnce sync.Once
	configValidate     *validator.Validate
)

func configValidator() *validator.Validate {
	configValidateOnce.Do(func() {
		v := validator.New()
		// A class or tag token: non-empty and free of whitespace.
		_ = v.RegisterValidation("token", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsAny(s, " \t\n\r\f")
		})
		configValidate = v
	})
	return configValidate
}

// Validate checks the config and compiles its selectors.
func (c *Config) Validate() error {
	if err := configValidator().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := c.compileSelectors(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// compileSelectors compiles RemoveSelectors in order.
func (c *Config) compileSelectors() ([]compiledSelector, error) {
	out := make([]compiledSelector, 0, len(c.RemoveSelectors))
	for _, raw := range c.RemoveSelectors {
		sel, err := cascadia.Compile(raw)
		if err != nil {
			return nil, fmt.Errorf("remove selector %q: %w", raw, err)
		}
		out = append(out, compiledSelector{raw: raw, sel: sel})
	}
	return out, nil
}

type compiledSelector struct {
	raw string
	sel cascadia.Selector
}
