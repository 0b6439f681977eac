// Package builder turns HTML snapshots into UI trees. Every element becomes a
// node and its element children become its transitions.
package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"qubot/ui"
)

var ErrNoDocument = errors.New("document has no html element")

// link is an anchor node with the raw href it points to.
type link struct {
	node ui.NodeID
	href string
}

// Build parses a page and returns its frozen tree, rooted at the html element.
func Build(page string) (*ui.Tree, error) {
	tree, _, err := build(page)
	return tree, err
}

func build(page string) (*ui.Tree, []link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse page: %w", err)
	}
	root := doc.Find("html").First()
	if root.Length() == 0 {
		return nil, nil, ErrNoDocument
	}

	d, err := describe(root)
	if err != nil {
		return nil, nil, err
	}
	tree := ui.NewTree(d)
	links, err := graft(tree, tree.Root().ID, root.Children())
	if err != nil {
		return nil, nil, err
	}
	tree.Freeze()
	return tree, links, nil
}

// Attach grafts the body of another page under parent and refreezes the tree.
func Attach(tree *ui.Tree, parent ui.NodeID, page string) error {
	_, err := attach(tree, parent, page)
	return err
}

func attach(tree *ui.Tree, parent ui.NodeID, page string) ([]link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	links, err := graft(tree, parent, doc.Find("body").First().Children())
	if err != nil {
		return nil, err
	}
	tree.Freeze()
	return links, nil
}

// graft adds every element of the selection under parent, depth first, and
// collects the anchors it added.
func graft(tree *ui.Tree, parent ui.NodeID, children *goquery.Selection) ([]link, error) {
	var links []link
	var err error
	children.EachWithBreak(func(_ int, child *goquery.Selection) bool {
		var d ui.Descriptor
		d, err = describe(child)
		if err != nil {
			return false
		}
		id := tree.AddTransition(parent, d)
		if n := child.Get(0); n.DataAtom == atom.A {
			if href, ok := attr(n, "href"); ok && href != "" {
				links = append(links, link{node: id, href: href})
			}
		}

		var nested []link
		nested, err = graft(tree, id, child.Children())
		if err != nil {
			return false
		}
		links = append(links, nested...)
		return true
	})
	return links, err
}

func describe(s *goquery.Selection) (ui.Descriptor, error) {
	n := s.Get(0)
	if n == nil || n.Type != html.ElementNode {
		return ui.Descriptor{}, fmt.Errorf("not an element")
	}
	content, err := goquery.OuterHtml(s)
	if err != nil {
		return ui.Descriptor{}, fmt.Errorf("failed to render element: %w", err)
	}
	id, _ := attr(n, "id")
	class, _ := attr(n, "class")
	inputType, _ := attr(n, "type")
	return ui.Descriptor{
		TagName:   n.Data,
		ID:        id,
		Class:     class,
		InputType: inputType,
		Content:   content,
	}, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
