package sanitize

import (
	"strings"
	"time"

	"golang.org/x/net/html"
)

// AnnotateResult is the output of the annotate pass.
type AnnotateResult struct {
	// HTML is the final document.
	HTML string `json:"html"`

	// Styles is the pass-1 style text wrapped in one <style> block.
	Styles string `json:"styles"`

	Stats *Stats `json:"stats"`
}

// Annotate runs the annotate pass over the HTML produced by Structure.
//
// A non-blank text node sharing its parent with other nodes is moved into a
// new WrapperTag element, unless the parent is the root container or a
// document skeleton element. Then the parent of every text node is marked
// editable when it is a WrapperTag element, or a ContainerTag element with a
// single child.
func (s *Sanitizer) Annotate(htmlText, styles string) (*AnnotateResult, error) {
	startTime := time.Now()
	result := &AnnotateResult{
		Styles: WrapStyles(styles),
		Stats:  NewStats(),
	}
	result.Stats.InputBytes = len(htmlText)

	parseStart := time.Now()
	root, err := parseDocument(htmlText)
	result.Stats.ParseDuration = time.Since(parseStart)
	if err != nil {
		return nil, err
	}

	var out string
	err = s.sessionFor().Do([]Hook{s.annotateHook(result.Stats)}, func(sess *Session) error {
		transformStart := time.Now()
		sess.Walk(root)
		result.Stats.TransformDuration = time.Since(transformStart)

		outputStart := time.Now()
		var err error
		out, err = sess.Sanitize(root, s.documentPolicy)
		result.Stats.OutputDuration = time.Since(outputStart)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.HTML = out
	result.Stats.OutputBytes = len(out)
	result.Stats.TotalDuration = time.Since(startTime)
	return result, nil
}

func (s *Sanitizer) annotateHook(stats *Stats) Hook {
	cfg := s.config
	return func(n *html.Node) Decision {
		if n.Type != html.TextNode {
			return keepDecision
		}
		parent := n.Parent
		if parent == nil || parent.Type != html.ElementNode || isSkeleton(parent) ||
			attr(parent, "id") == cfg.RootContainerID {
			return keepDecision
		}

		if childCount(parent) > 1 && strings.TrimRightFunc(n.Data, isTrailingSpace) != "" {
			wrapper := newElement(cfg.WrapperTag)
			wrapper.AppendChild(&html.Node{Type: html.TextNode, Data: n.Data})
			stats.TextIsolated++
			s.debug("isolated text", "phase", phaseAnnotate, "parent", nodeName(parent))
			return ReplaceWith(wrapper)
		}

		if isElement(parent, cfg.WrapperTag) ||
			(isElement(parent, cfg.ContainerTag) && childCount(parent) == 1) {
			if markEditable(parent, cfg.EditableClass) {
				stats.ElementsMarked++
			}
		}
		return keepDecision
	}
}

// WrapStyles returns css as a single <style> block. Any "</style" inside css
// is escaped so the block cannot be closed early when re-parsed.
func WrapStyles(css string) string {
	var sb strings.Builder
	sb.WriteString("<style>")
	sb.WriteString(escapeStyleClose(css))
	sb.WriteString("</style>")
	return sb.String()
}

func escapeStyleClose(css string) string {
	const closeTag = "</style"
	var sb strings.Builder
	for i := 0; i < len(css); {
		if len(css)-i >= len(closeTag) && strings.EqualFold(css[i:i+len(closeTag)], closeTag) {
			sb.WriteString(`<\/`)
			sb.WriteString(css[i+2 : i+len(closeTag)])
			i += len(closeTag)
			continue
		}
		sb.WriteByte(css[i])
		i++
	}
	return sb.String()
}
