package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Host page contract. The card class contains characters that need escaping in a class
// selector, so it is matched as a whitespace-separated attribute token instead.
const (
	DefaultCardSelector     = `[class~="@container/match-card"]`
	DefaultMapLabelSelector = ".line-clamp-2"
	DefaultDurationSelector = ".font-display"

	DataReadyClass = "dbd-data-ready"
	ProcessedAttr  = "data-dbd-processed"
	ExpandedAttr   = "data-dbd-expanded"
)

var ErrDetached = errors.New("card is no longer attached to the document")

// Selectors describes where cards and their labels live in the host markup
type Selectors struct {
	Card     string
	MapLabel string
	Duration string
}

// DefaultSelectors returns the selectors for the current host page layout
func DefaultSelectors() Selectors {
	return Selectors{
		Card:     DefaultCardSelector,
		MapLabel: DefaultMapLabelSelector,
		Duration: DefaultDurationSelector,
	}
}

// Mutation describes one child-list change
type Mutation struct {
	Target  *html.Node
	Added   []*html.Node
	Removed []*html.Node
}

// Observer receives each batch of child-list mutations
type Observer func([]Mutation)

// Document is the in-memory host page. Every child-list change made through it, by the
// host or by this module, is reported to observers after the change is applied.
type Document struct {
	mu        sync.RWMutex
	doc       *goquery.Document
	selectors Selectors

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int
}

// Parse reads an HTML document
func Parse(r io.Reader, selectors Selectors) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	if selectors.Card == "" {
		selectors.Card = DefaultCardSelector
	}
	if selectors.MapLabel == "" {
		selectors.MapLabel = DefaultMapLabelSelector
	}
	if selectors.Duration == "" {
		selectors.Duration = DefaultDurationSelector
	}
	return &Document{
		doc:       doc,
		selectors: selectors,
		observers: make(map[int]Observer),
	}, nil
}

// ParseString is Parse for an in-memory string
func ParseString(s string, selectors Selectors) (*Document, error) {
	return Parse(strings.NewReader(s), selectors)
}

// Observe registers fn and returns a function that unregisters it
func (d *Document) Observe(fn Observer) func() {
	d.obsMu.Lock()
	defer d.obsMu.Unlock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() {
		d.obsMu.Lock()
		defer d.obsMu.Unlock()
		delete(d.observers, id)
	}
}

func (d *Document) notify(batch []Mutation) {
	if len(batch) == 0 {
		return
	}
	d.obsMu.Lock()
	observers := make([]Observer, 0, len(d.observers))
	for _, fn := range d.observers {
		observers = append(observers, fn)
	}
	d.obsMu.Unlock()

	for _, fn := range observers {
		fn(batch)
	}
}

// Mutate applies a host-side edit. fn returns the mutations it made; they are reported
// to observers once fn has returned.
func (d *Document) Mutate(fn func(doc *goquery.Document) []Mutation) {
	d.mu.Lock()
	batch := fn(d.doc)
	d.mu.Unlock()
	d.notify(batch)
}

// AppendHTML parses markup and appends it to every element matching selector.
// It is the common host-side edit: new cards arriving in the list.
func (d *Document) AppendHTML(selector, markup string) {
	d.Mutate(func(doc *goquery.Document) []Mutation {
		var batch []Mutation
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			parent := s.Get(0)
			nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
			if err != nil {
				return
			}
			for _, n := range nodes {
				parent.AppendChild(n)
			}
			batch = append(batch, Mutation{Target: parent, Added: nodes})
		})
		return batch
	})
}

// Remove detaches every element matching selector
func (d *Document) Remove(selector string) {
	d.Mutate(func(doc *goquery.Document) []Mutation {
		var batch []Mutation
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			if n.Parent == nil {
				return
			}
			parent := n.Parent
			parent.RemoveChild(n)
			batch = append(batch, Mutation{Target: parent, Removed: []*html.Node{n}})
		})
		return batch
	})
}

// Locate returns the cards currently in the document, in document order. A selector that
// matches nothing, or does not compile, yields no cards.
func (d *Document) Locate() []*Card {
	d.mu.RLock()
	defer d.mu.RUnlock()

	sel := d.doc.Find(d.selectors.Card)
	cards := make([]*Card, 0, sel.Length())
	sel.Each(func(i int, s *goquery.Selection) {
		cards = append(cards, &Card{doc: d, node: s.Get(0), Index: i})
	})
	return cards
}

// AddRootClass adds a class to the <html> element. Attribute changes are not child-list
// mutations and are not reported.
func (d *Document) AddRootClass(class string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	root := d.doc.Find("html").First()
	if root.Length() == 0 {
		return
	}
	addClass(root.Get(0), class)
}

// HasRootClass reports whether the <html> element carries class
func (d *Document) HasRootClass(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Find("html").First().HasClass(class)
}

// InjectStyle appends a <style> element with the given id to <head>, once.
func (d *Document) InjectStyle(id, css string) {
	d.Mutate(func(doc *goquery.Document) []Mutation {
		if doc.Find("style#"+id).Length() > 0 {
			return nil
		}
		head := doc.Find("head").First()
		if head.Length() == 0 {
			head = doc.Find("html").First()
		}
		if head.Length() == 0 {
			return nil
		}
		style := &html.Node{
			Type:     html.ElementNode,
			Data:     "style",
			DataAtom: atom.Style,
			Attr:     []html.Attribute{{Key: "id", Val: id}},
		}
		style.AppendChild(&html.Node{Type: html.TextNode, Data: css})
		parent := head.Get(0)
		parent.AppendChild(style)
		return []Mutation{{Target: parent, Added: []*html.Node{style}}}
	})
}

// InjectScript appends an inline <script> with the given id to <body>, once.
func (d *Document) InjectScript(id, js string) {
	d.Mutate(func(doc *goquery.Document) []Mutation {
		if doc.Find("script#"+id).Length() > 0 {
			return nil
		}
		body := doc.Find("body").First()
		if body.Length() == 0 {
			return nil
		}
		script := &html.Node{
			Type:     html.ElementNode,
			Data:     "script",
			DataAtom: atom.Script,
			Attr:     []html.Attribute{{Key: "id", Val: id}},
		}
		script.AppendChild(&html.Node{Type: html.TextNode, Data: js})
		parent := body.Get(0)
		parent.AppendChild(script)
		return []Mutation{{Target: parent, Added: []*html.Node{script}}}
	})
}

// Find runs a read-only query. The selection must not be kept past fn.
func (d *Document) Find(selector string, fn func(*goquery.Selection)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.doc.Find(selector))
}

// Render writes the whole document
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.doc.Nodes) == 0 {
		return nil
	}
	return html.Render(w, d.doc.Nodes[0])
}

// String renders the document to a string
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
