package sanitize

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func selectionOf(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// textContent follows DOM textContent: comments yield their data, elements
// the concatenation of their descendant text.
func textContent(n *html.Node) string {
	switch n.Type {
	case html.CommentNode, html.TextNode:
		return n.Data
	case html.ElementNode, html.DocumentNode:
		return selectionOf(n).Text()
	default:
		return ""
	}
}

// textInfo summarizes the DOM textContent of a node without building it.
type textInfo struct {
	empty bool // no text at all
	space bool // empty, or only whitespace once trailing whitespace is trimmed
}

// blank reports whether the text is non-empty and only whitespace.
func (t textInfo) blank() bool {
	return !t.empty && t.space
}

func (t textInfo) join(o textInfo) textInfo {
	return textInfo{empty: t.empty && o.empty, space: t.space && o.space}
}

func textInfoOf(s string) textInfo {
	return textInfo{empty: s == "", space: strings.TrimRightFunc(s, isTrailingSpace) == ""}
}

// summarizeText records the textInfo of n and every node below it in one
// bottom-up pass. Comments count for themselves but not for their ancestors.
func summarizeText(n *html.Node, into map[*html.Node]textInfo) textInfo {
	var info textInfo
	switch n.Type {
	case html.TextNode, html.CommentNode:
		info = textInfoOf(n.Data)
	default:
		info = textInfo{empty: true, space: true}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			ci := summarizeText(c, into)
			if c.Type != html.CommentNode {
				info = info.join(ci)
			}
		}
	}
	into[n] = info
	return info
}

func isTrailingSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func isElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// isSkeleton reports whether n is one of the document skeleton elements the
// sanitizer always keeps.
func isSkeleton(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Html, atom.Head, atom.Body:
		return true
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	selectionOf(n).SetAttr(key, val)
}

func removeAttr(n *html.Node, key string) {
	selectionOf(n).RemoveAttr(key)
}

func classes(n *html.Node) []string {
	if n.Type != html.ElementNode {
		return nil
	}
	return strings.Fields(attr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	if class == "" || n.Type != html.ElementNode {
		return false
	}
	return selectionOf(n).HasClass(class)
}

// markEditable adds the editable class and makes n reachable with the tab key.
// It reports whether n changed.
func markEditable(n *html.Node, class string) bool {
	tokens := classes(n)
	hasToken := false
	for _, c := range tokens {
		if c == class {
			hasToken = true
			break
		}
	}
	if hasToken && attr(n, "tabindex") == "0" {
		return false
	}

	sel := selectionOf(n)
	if !hasToken {
		sel.SetAttr("class", strings.Join(append(tokens, class), " "))
	}
	sel.SetAttr("tabindex", "0")
	return true
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func newElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}
