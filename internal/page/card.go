package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Card is one match entry as rendered by the host page
type Card struct {
	doc  *Document
	node *html.Node

	// Index is the card's position among cards at the time it was located
	Index int
}

// Replacement describes what a transformed card looks like
type Replacement struct {
	Classes  []string
	Expanded bool
	Inner    string
}

// Node returns the underlying element
func (c *Card) Node() *html.Node {
	return c.node
}

// Processed reports whether the card has already been transformed
func (c *Card) Processed() bool {
	c.doc.mu.RLock()
	defer c.doc.mu.RUnlock()
	return attr(c.node, ProcessedAttr) == "true"
}

// Expanded reports the card's current display state
func (c *Card) Expanded() bool {
	c.doc.mu.RLock()
	defer c.doc.mu.RUnlock()
	return attr(c.node, ExpandedAttr) == "true"
}

// MapLabel returns the trimmed text of the map-name label
func (c *Card) MapLabel() (string, bool) {
	return c.text(c.doc.selectors.MapLabel)
}

// DurationLabel returns the trimmed text of the duration label
func (c *Card) DurationLabel() (string, bool) {
	return c.text(c.doc.selectors.Duration)
}

func (c *Card) text(selector string) (string, bool) {
	c.doc.mu.RLock()
	defer c.doc.mu.RUnlock()
	found := goquery.NewDocumentFromNode(c.node).Find(selector).First()
	if found.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(found.Text()), true
}

// Replace swaps the card for a freshly built element. The new element inherits the
// original's attributes but nothing else, so listeners bound to the original are gone.
// It is marked processed and carries the requested display state.
func (c *Card) Replace(r Replacement) error {
	c.doc.mu.Lock()
	old := c.node
	parent := old.Parent
	if parent == nil {
		c.doc.mu.Unlock()
		return ErrDetached
	}

	fragCtx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	children, err := html.ParseFragment(strings.NewReader(r.Inner), fragCtx)
	if err != nil {
		c.doc.mu.Unlock()
		return err
	}

	n := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     append([]html.Attribute(nil), old.Attr...),
	}
	for _, class := range r.Classes {
		addClass(n, class)
	}
	setAttr(n, ProcessedAttr, "true")
	setAttr(n, ExpandedAttr, boolString(r.Expanded))
	for _, child := range children {
		n.AppendChild(child)
	}

	parent.InsertBefore(n, old)
	parent.RemoveChild(old)
	c.node = n
	c.doc.mu.Unlock()

	c.doc.notify([]Mutation{{Target: parent, Added: []*html.Node{n}, Removed: []*html.Node{old}}})
	return nil
}

// Toggle flips the display state in response to a click on target, unless target sits
// inside an element matching ignore. It reports whether the state changed.
func (c *Card) Toggle(target *html.Node, ignore string) bool {
	c.doc.mu.Lock()
	defer c.doc.mu.Unlock()

	if target != nil && ignore != "" {
		if goquery.NewDocumentFromNode(target).Closest(ignore).Length() > 0 {
			return false
		}
	}

	expanded := attr(c.node, ExpandedAttr) == "true"
	setAttr(c.node, ExpandedAttr, boolString(!expanded))
	return true
}

// Find queries inside the card. The selection must not be kept past fn.
func (c *Card) Find(selector string, fn func(*goquery.Selection)) {
	c.doc.mu.RLock()
	defer c.doc.mu.RUnlock()
	fn(goquery.NewDocumentFromNode(c.node).Find(selector))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func addClass(n *html.Node, class string) {
	existing := strings.Fields(attr(n, "class"))
	for _, c := range existing {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.TrimSpace(strings.Join(append(existing, class), " ")))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
