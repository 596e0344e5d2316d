package pageclient

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// RadioGroup is the set of radio inputs sharing a name attribute.
type RadioGroup struct {
	doc  *Document
	name string
}

// Name returns the group's name attribute.
func (g *RadioGroup) Name() string { return g.name }

// Checked returns the value of the checked radio. ok is false when none is
// checked. Browsers keep at most one radio of a group checked; if the markup
// checks several, the last one wins.
func (g *RadioGroup) Checked() (value string, ok bool) {
	g.doc.mu.Lock()
	defer g.doc.mu.Unlock()

	g.radios().Each(func(_ int, s *goquery.Selection) {
		if _, checked := s.Attr("checked"); checked {
			value, ok = radioValue(s), true
		}
	})
	return value, ok
}

// Values lists the group's values in document order.
func (g *RadioGroup) Values() []string {
	g.doc.mu.Lock()
	defer g.doc.mu.Unlock()

	radios := g.radios()
	values := make([]string, 0, radios.Length())
	radios.Each(func(_ int, s *goquery.Selection) {
		values = append(values, radioValue(s))
	})
	return values
}

// Select checks the radio with the given value and unchecks the rest.
func (g *RadioGroup) Select(value string) error {
	g.doc.mu.Lock()
	defer g.doc.mu.Unlock()

	radios := g.radios()
	target := radios.FilterFunction(func(_ int, s *goquery.Selection) bool {
		return radioValue(s) == value
	}).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s=%q", ErrNoSuchOption, g.name, value)
	}

	radios.RemoveAttr("checked")
	target.SetAttr("checked", "checked")
	return nil
}

// radios matches names literally. Callers hold the document lock.
func (g *RadioGroup) radios() *goquery.Selection {
	return g.doc.doc.Find("input").FilterFunction(func(_ int, s *goquery.Selection) bool {
		name, _ := s.Attr("name")
		return name == g.name && inputType(s) == "radio"
	})
}

func radioValue(s *goquery.Selection) string {
	if v, ok := s.Attr("value"); ok {
		return v
	}
	return "on"
}
