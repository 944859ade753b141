package sanitize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/jmylchreest/templar/pkg/field"
)

const (
	phaseStructure = "structure"
	phaseAnnotate  = "annotate"
)

// observedAttr tags observed elements while the policy runs, so the settled
// document tells which of them survived.
const observedAttr = "data-templar-observed"

// StructureResult is the output of the structure pass.
type StructureResult struct {
	// HTML is the sanitized document.
	HTML string `json:"html"`

	// Styles is the text of every removed <style> block, in document order.
	Styles string `json:"styles"`

	// Classes is the sorted set of class tokens seen on kept elements.
	Classes []string `json:"classes"`

	// Fields are the field definitions in document order.
	Fields []field.Definition `json:"fields"`

	Stats    *Stats    `json:"stats"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// AddWarning adds a warning to the result.
func (r *StructureResult) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *StructureResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// observation is what the walk learned from one kept element. It is only
// reported if the element is still in the settled document.
type observation struct {
	classes []string
	field   *field.Definition
}

type structureVisitor struct {
	s        *Sanitizer
	result   *StructureResult
	styles   strings.Builder
	text     map[*html.Node]textInfo
	observed []observation
	survived map[int]bool
}

// Structure runs the structure pass over raw.
//
// Each element, text and comment node is visited before its children and the
// first matching rule wins:
//   - <style> text is appended to the styles and the element removed
//   - elements matching a remove selector are removed
//   - elements with the empty marker class and no text are removed
//   - non-text nodes whose text is only whitespace are removed
//   - a text node makes its parent editable unless the parent is the root container
//
// Kept elements contribute their classes and data-field-* definitions.
// Elements emptied by removals below them are compacted away, then the
// document is passed through the sanitizer policy with ForbidTags dropped.
// Classes and fields are only reported for elements the policy kept.
func (s *Sanitizer) Structure(raw string) (*StructureResult, error) {
	startTime := time.Now()
	result := &StructureResult{
		Stats: NewStats(),
	}
	result.Stats.InputBytes = len(raw)

	parseStart := time.Now()
	root, err := parseDocument(raw)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		return nil, err
	}

	v := &structureVisitor{
		s:      s,
		result: result,
		text:   make(map[*html.Node]textInfo),
	}
	var out string
	err = s.sessionFor().Do([]Hook{v.visit}, func(sess *Session) error {
		transformStart := time.Now()
		summarizeText(root, v.text)
		sess.Walk(root)
		s.compact(root, result.Stats)
		result.Stats.TransformDuration = time.Since(transformStart)

		outputStart := time.Now()
		defer func() { result.Stats.OutputDuration = time.Since(outputStart) }()

		sanitized, err := sess.Sanitize(root, s.structurePolicy)
		if err != nil {
			return err
		}
		// The policy unwraps unknown elements and skips forbidden content, which
		// can leave blank elements or text under an unmarked parent.
		settled, err := parseDocument(sanitized)
		if err != nil {
			return err
		}
		s.compact(settled, result.Stats)
		v.survived = claimObserved(settled)
		s.markTextParents(settled, result.Stats)
		out, err = render(settled)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.HTML = out
	result.Styles = v.styles.String()
	v.collect()

	result.Stats.OutputBytes = len(out)
	result.Stats.TotalDuration = time.Since(startTime)
	return result, nil
}

func (v *structureVisitor) visit(n *html.Node) Decision {
	cfg := v.s.config

	if isElement(n, "style") {
		v.styles.WriteString(extractStyle(textContent(n), cfg.StripStyleLabel))
		v.result.Stats.StylesExtracted++
		return v.remove(n, RuleStyle)
	}

	text := v.textOf(n)
	if n.Type == html.ElementNode {
		for _, sel := range v.s.selectors {
			if sel.sel.Match(n) {
				return v.remove(n, sel.raw)
			}
		}
		if hasClass(n, cfg.EmptyMarkerClass) && text.empty {
			return v.remove(n, RuleEmptyMarker)
		}
	}

	if n.Type != html.TextNode && !isSkeleton(n) && text.blank() {
		return v.remove(n, RuleBlank)
	}

	if n.Type == html.TextNode {
		v.s.markTextParent(n, v.result.Stats)
		return keepDecision
	}

	if n.Type != html.ElementNode {
		return keepDecision
	}

	removeAttr(n, observedAttr)
	obs := observation{classes: classes(n)}
	if def, ok := field.FromAttributes(n.Attr); ok {
		obs.field = &def
	}
	if obs.classes != nil || obs.field != nil {
		setAttr(n, observedAttr, strconv.Itoa(len(v.observed)))
		v.observed = append(v.observed, obs)
	}
	return keepDecision
}

// textOf returns the text summary of n as it was before the walk. Descendants
// are visited after n, so nothing below n has been removed yet.
func (v *structureVisitor) textOf(n *html.Node) textInfo {
	if info, ok := v.text[n]; ok {
		return info
	}
	return textInfoOf(textContent(n))
}

func (v *structureVisitor) remove(n *html.Node, rule string) Decision {
	v.result.Stats.RecordRemoval(rule, nodeName(n))
	v.s.debug("removed node", "phase", phaseStructure, "rule", rule, "node", nodeName(n))
	return dropDecision
}

// collect reports the classes and fields of elements that survived.
func (v *structureVisitor) collect() {
	seen := make(map[string]bool)
	for i, obs := range v.observed {
		if !v.survived[i] {
			continue
		}
		for _, c := range obs.classes {
			seen[c] = true
		}
		if obs.field == nil {
			continue
		}
		v.result.Fields = append(v.result.Fields, *obs.field)
		v.checkField(*obs.field)
	}

	v.result.Classes = make([]string, 0, len(seen))
	for c := range seen {
		v.result.Classes = append(v.result.Classes, c)
	}
	sort.Strings(v.result.Classes)
	v.result.Stats.FieldsExtracted = len(v.result.Fields)
}

// checkField records lenient extraction anomalies. The field is kept either way.
func (v *structureVisitor) checkField(def field.Definition) {
	switch d := def.Data.(type) {
	case field.Unknown:
		v.result.AddWarning(phaseStructure, fmt.Sprintf("unrecognized field data type %q", d.RawType), def.ID)
		v.s.debug("unrecognized field data type", "field", def.ID, "type", d.RawType)
	case field.Increment:
		if !d.Numeric {
			v.result.AddWarning(phaseStructure, fmt.Sprintf("non-numeric start-from %q", d.Raw), def.ID)
			v.s.debug("non-numeric start-from", "field", def.ID, "value", d.Raw)
		}
	}
}

// compact removes, bottom-up, elements that removals below them left blank or
// empty-marked. It returns the text summary of n after compaction.
func (s *Sanitizer) compact(n *html.Node, stats *Stats) textInfo {
	if n.Type == html.TextNode || n.Type == html.CommentNode {
		return textInfoOf(n.Data)
	}

	info := textInfo{empty: true, space: true}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		ci := s.compact(c, stats)
		if c.Parent == n && c.Type != html.CommentNode {
			info = info.join(ci)
		}
		c = next
	}
	if n.Type != html.ElementNode || isSkeleton(n) || n.Parent == nil {
		return info
	}

	if info.blank() || (info.empty && hasClass(n, s.config.EmptyMarkerClass)) {
		stats.RecordRemoval(RuleCompact, nodeName(n))
		s.debug("removed node", "phase", phaseStructure, "rule", RuleCompact, "node", nodeName(n))
		n.Parent.RemoveChild(n)
	}
	return info
}

// claimObserved strips the observation tags from the settled document and
// returns the indexes it found.
func claimObserved(n *html.Node) map[int]bool {
	found := make(map[int]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if raw, ok := attrValue(n, observedAttr); ok {
				if i, err := strconv.Atoi(raw); err == nil {
					found[i] = true
				}
				removeAttr(n, observedAttr)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// markTextParent marks the parent element of text node n editable, unless it
// is the root container or part of the document skeleton.
func (s *Sanitizer) markTextParent(n *html.Node, stats *Stats) {
	parent := n.Parent
	if parent == nil || parent.Type != html.ElementNode || isSkeleton(parent) ||
		attr(parent, "id") == s.config.RootContainerID {
		return
	}
	if markEditable(parent, s.config.EditableClass) {
		stats.ElementsMarked++
	}
}

func (s *Sanitizer) markTextParents(n *html.Node, stats *Stats) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			s.markTextParent(c, stats)
			continue
		}
		s.markTextParents(c, stats)
	}
}

// extractStyle returns the CSS of one <style> block. When the text contains
// exactly one "*/", everything up to and including it is a label and dropped.
func extractStyle(text string, stripLabel bool) string {
	if !stripLabel {
		return text
	}
	if parts := strings.Split(text, "*/"); len(parts) == 2 {
		return parts[1]
	}
	return text
}

func nodeName(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return "#text"
	case html.CommentNode:
		return "#comment"
	default:
		return strings.ToLower(n.Data)
	}
}
