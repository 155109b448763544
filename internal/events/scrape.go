package events

import (
	"strings"

	"github.com/andybalholm/cascadia"
	xhtml "golang.org/x/net/html"
)

// findAll returns every descendant of root matching sel, in document order.
func findAll(root *xhtml.Node, sel cascadia.Selector) []*xhtml.Node {
	return cascadia.QueryAll(root, sel)
}

func firstText(root *xhtml.Node, sel cascadia.Selector) string {
	return nodeText(cascadia.Query(root, sel))
}

func firstAttr(root *xhtml.Node, sel cascadia.Selector, key string) string {
	n := cascadia.Query(root, sel)
	if n == nil {
		return ""
	}
	v, _ := attr(n, key)
	return v
}

func attr(n *xhtml.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func nodeText(n *xhtml.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var collect func(*xhtml.Node)
	collect = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(b.String())
}
