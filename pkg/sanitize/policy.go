package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// documentElements are the HTML elements a template may keep, the DOMPurify
// default set without style, template and the obsolete web-component tags.
// Anything else is unwrapped by the policy (its text survives) unless its
// content is skipped.
var documentElements = []string{
	"html", "head", "body",
	"a", "abbr", "acronym", "address", "area", "article", "aside", "audio",
	"b", "bdi", "bdo", "big", "blink", "blockquote", "br", "button",
	"canvas", "caption", "center", "cite", "code", "col", "colgroup",
	"data", "datalist", "dd", "del", "details", "dfn", "dialog", "dir", "div", "dl", "dt",
	"em", "fieldset", "figcaption", "figure", "font", "footer", "form",
	"h1", "h2", "h3", "h4", "h5", "h6", "header", "hgroup", "hr",
	"i", "img", "input", "ins", "kbd", "label", "legend", "li",
	"main", "map", "mark", "marquee", "menu", "menuitem", "meter", "nav", "nobr",
	"ol", "optgroup", "option", "output", "p", "picture", "pre", "progress", "q",
	"rp", "rt", "ruby", "s", "samp", "section", "select", "small", "source", "spacer",
	"span", "strike", "strong", "sub", "summary", "sup",
	"table", "tbody", "td", "textarea", "tfoot", "th", "thead", "time", "tr", "track", "tt",
	"u", "ul", "var", "video", "wbr",
}

// elementAttrs are the element-specific attributes kept on top of the global
// ones. Attribute rules on an element also allow the element itself, so
// forbidden elements are left out.
var elementAttrs = map[string][]string{
	"a":        {"href", "target", "name"},
	"img":      {"src", "alt", "width", "height"},
	"td":       {"colspan", "rowspan", "headers", "scope", "align", "valign"},
	"th":       {"colspan", "rowspan", "headers", "scope", "align", "valign"},
	"font":     {"color", "face", "size"},
	"time":     {"datetime"},
	"del":      {"cite", "datetime"},
	"ins":      {"cite", "datetime"},
	"q":        {"cite"},
	"label":    {"for"},
	"data":     {"value"},
	"col":      {"span", "width"},
	"colgroup": {"span", "width"},
	"table":    {"border", "cellpadding", "cellspacing", "width"},
}

var tabIndexPattern = regexp.MustCompile(`^-?[0-9]+$`)

// DocumentPolicy returns the general-purpose policy applied at the end of
// each pass. It keeps the html/head/body skeleton, presentational markup,
// class/id/style/tabindex and data-* attributes, and drops scripts, event
// handlers, comments and unknown elements.
func DocumentPolicy() *bluemonday.Policy {
	return newDocumentPolicy(nil)
}

// newDocumentPolicy builds DocumentPolicy with the forbidden tags removed from
// the allowed set and dropped along with their content.
func newDocumentPolicy(forbid []string) *bluemonday.Policy {
	forbidden := make(map[string]bool, len(forbid))
	for _, tag := range forbid {
		forbidden[tag] = true
	}
	elements := make([]string, 0, len(documentElements))
	for _, tag := range documentElements {
		if !forbidden[tag] {
			elements = append(elements, tag)
		}
	}

	p := bluemonday.NewPolicy()
	p.AllowElements(elements...)
	p.AllowNoAttrs().OnElements(elements...)

	p.AllowAttrs("class", "id", "style", "title", "lang", "dir").Globally()
	p.AllowAttrs("tabindex").Matching(tabIndexPattern).Globally()
	p.AllowDataAttributes()

	p.AllowStandardURLs()
	p.AllowDataURIImages()
	for tag, attrs := range elementAttrs {
		if !forbidden[tag] {
			p.AllowAttrs(attrs...).OnElements(tag)
		}
	}

	if len(forbid) > 0 {
		p.SkipElementsContent(forbid...)
	}
	return p
}
