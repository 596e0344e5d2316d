// Package pageclient drives the upload page the way its browser script
// does: it binds the upload form and the analyze button of a parsed page
// and turns each activation into exactly one backend request.
package pageclient

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	// ErrNoSuchField is returned when a form has no control with the given name.
	ErrNoSuchField = errors.New("pageclient: no such form field")
	// ErrNoSuchOption is returned when a value matches no option, radio or checkbox.
	ErrNoSuchOption = errors.New("pageclient: no such option")
	// ErrNotFileInput is returned when files are attached to a non-file control.
	ErrNotFileInput = errors.New("pageclient: field is not a file input")
)

// File is a file attached to a file input.
type File struct {
	Name    string
	Content []byte
}

// Document is a parsed page. Every view onto it (forms, radio groups)
// shares the document's lock, so reads and edits are safe for concurrent use.
type Document struct {
	mu    sync.Mutex
	doc   *goquery.Document
	files map[*html.Node][]File
}

// Parse reads an HTML page.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Document{
		doc:   goquery.NewDocumentFromNode(root),
		files: make(map[*html.Node][]File),
	}, nil
}

// ParseString is Parse for an in-memory page.
func ParseString(page string) (*Document, error) {
	return Parse(strings.NewReader(page))
}

// Form returns the form element with the given id.
func (d *Document) Form(id string) (*Form, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.byID(id)
	if sel.Length() == 0 || goquery.NodeName(sel) != "form" {
		return nil, false
	}
	return &Form{doc: d, sel: sel}, true
}

// HasElement reports whether any element carries the given id.
func (d *Document) HasElement(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.byID(id).Length() > 0
}

// RadioGroup returns a view of every radio input named name. The group
// may be empty.
func (d *Document) RadioGroup(name string) *RadioGroup {
	return &RadioGroup{doc: d, name: name}
}

// byID matches ids literally so that ids need no selector escaping.
// Callers hold d.mu.
func (d *Document) byID(id string) *goquery.Selection {
	if id == "" {
		return d.doc.Selection.Slice(0, 0)
	}
	return d.doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, _ := s.Attr("id")
		return v == id
	}).First()
}

func inputType(s *goquery.Selection) string {
	t, ok := s.Attr("type")
	if !ok {
		return "text"
	}
	return strings.ToLower(strings.TrimSpace(t))
}
