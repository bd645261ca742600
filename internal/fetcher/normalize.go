package fetcher

import (
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yosssi/gohtml"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeHTML parses a page and re-serializes it canonically: attributes
// sorted by name, comments dropped, text whitespace collapsed, then indented
// by a pretty-printer with one element per line.
func NormalizeHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	for _, root := range doc.Nodes {
		canonicalize(root)
	}

	rendered, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return "", err
	}
	return gohtml.Format(rendered), nil
}

func canonicalize(n *html.Node) {
	if n.Type == html.ElementNode && len(n.Attr) > 1 {
		sort.SliceStable(n.Attr, func(i, j int) bool {
			if n.Attr[i].Namespace != n.Attr[j].Namespace {
				return n.Attr[i].Namespace < n.Attr[j].Namespace
			}
			return n.Attr[i].Key < n.Attr[j].Key
		})
	}

	preserve := n.Type == html.ElementNode && preservesWhitespace(n.DataAtom)

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.CommentNode:
			n.RemoveChild(c)
		case html.TextNode:
			if !preserve {
				text := strings.TrimSpace(whitespaceRun.ReplaceAllString(c.Data, " "))
				if text == "" {
					n.RemoveChild(c)
				} else {
					c.Data = text
				}
			}
		default:
			canonicalize(c)
		}
		c = next
	}
}

func preservesWhitespace(a atom.Atom) bool {
	switch a {
	case atom.Pre, atom.Textarea, atom.Script, atom.Style:
		return true
	}
	return false
}
