package sanitize

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Removal reasons recorded in Stats.RemovedByRule.
const (
	RuleStyle       = "style"
	RuleEmptyMarker = "empty-marker"
	RuleBlank       = "blank"
	RuleCompact     = "compact"
)

// Stats captures metrics about what a pass did.
type Stats struct {
	// Size metrics
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	// Removals
	RemovedByRule map[string]int `json:"removed_by_rule"` // rule or selector -> count
	RemovedByTag  map[string]int `json:"removed_by_tag"`  // tag -> count

	// Extraction (pass 1)
	StylesExtracted int `json:"styles_extracted"`
	FieldsExtracted int `json:"fields_extracted"`

	// Annotation
	ElementsMarked int `json:"elements_marked"`
	TextIsolated   int `json:"text_isolated"` // pass 2

	// Timing
	ParseDuration     time.Duration `json:"parse_duration_ms"`
	TransformDuration time.Duration `json:"transform_duration_ms"`
	OutputDuration    time.Duration `json:"output_duration_ms"`
	TotalDuration     time.Duration `json:"total_duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		RemovedByRule: make(map[string]int),
		RemovedByTag:  make(map[string]int),
	}
}

// RecordRemoval records that a node was removed by rule.
func (s *Stats) RecordRemoval(rule, tag string) {
	s.RemovedByRule[rule]++
	s.RemovedByTag[strings.ToLower(tag)]++
}

// TotalRemoved returns the number of removed nodes.
func (s *Stats) TotalRemoved() int {
	total := 0
	for _, count := range s.RemovedByRule {
		total += count
	}
	return total
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes\n", s.InputBytes, s.OutputBytes))
	sb.WriteString(fmt.Sprintf("Removed: %d nodes\n", s.TotalRemoved()))

	if len(s.RemovedByRule) > 0 {
		sb.WriteString("Removed by rule: ")
		sb.WriteString(joinCounts(s.RemovedByRule))
		sb.WriteString("\n")
	}

	if s.StylesExtracted > 0 || s.FieldsExtracted > 0 {
		sb.WriteString(fmt.Sprintf("Extracted: %d style blocks, %d fields\n", s.StylesExtracted, s.FieldsExtracted))
	}

	if s.ElementsMarked > 0 || s.TextIsolated > 0 {
		sb.WriteString(fmt.Sprintf("Editable: %d marked, %d text runs isolated\n", s.ElementsMarked, s.TextIsolated))
	}

	sb.WriteString(fmt.Sprintf("Timing: parse=%v, transform=%v, output=%v, total=%v\n",
		s.ParseDuration.Round(time.Microsecond),
		s.TransformDuration.Round(time.Microsecond),
		s.OutputDuration.Round(time.Microsecond),
		s.TotalDuration.Round(time.Microsecond)))

	return sb.String()
}

// joinCounts renders a count map sorted by key.
func joinCounts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, m[k]))
	}
	return strings.Join(parts, ", ")
}

// Warning represents a non-fatal anomaly found while sanitizing.
type Warning struct {
	Phase   string `json:"phase"`   // "structure", "annotate"
	Message string `json:"message"` // Human-readable description
	Context string `json:"context"` // Field id or selector that caused it
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}
