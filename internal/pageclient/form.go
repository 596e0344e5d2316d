package pageclient

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Form is a view of a form element.
type Form struct {
	doc *Document
	sel *goquery.Selection
}

// field is one entry of the form data set. file is only meaningful when
// isFile is set.
type field struct {
	name   string
	value  string
	file   File
	isFile bool
}

// SetValue sets the named control the way a user would: text-like inputs
// and textareas take the value, selects and radios pick the matching
// option, and a checkbox with that value is checked.
func (f *Form) SetValue(name, value string) error {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	controls := f.controls(name)
	if controls.Length() == 0 {
		return fmt.Errorf("%w: %q", ErrNoSuchField, name)
	}

	first := controls.First()
	switch goquery.NodeName(first) {
	case "textarea":
		first.SetText(value)
		return nil
	case "select":
		return selectOption(first, name, value)
	}

	switch inputType(first) {
	case "file":
		return fmt.Errorf("%w: %q", ErrNotFileInput, name)
	case "radio", "checkbox":
		target := controls.FilterFunction(func(_ int, s *goquery.Selection) bool {
			return radioValue(s) == value
		}).First()
		if target.Length() == 0 {
			return fmt.Errorf("%w: %s=%q", ErrNoSuchOption, name, value)
		}
		if inputType(target) == "radio" {
			controls.RemoveAttr("checked")
		}
		target.SetAttr("checked", "checked")
		return nil
	default:
		first.SetAttr("value", value)
		return nil
	}
}

// AttachFile adds a file to the named file input. Attaching more than one
// file to an input without the multiple attribute replaces the previous one.
func (f *Form) AttachFile(name string, file File) error {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	input := f.controls(name).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return goquery.NodeName(s) == "input" && inputType(s) == "file"
	}).First()
	if input.Length() == 0 {
		if f.controls(name).Length() == 0 {
			return fmt.Errorf("%w: %q", ErrNoSuchField, name)
		}
		return fmt.Errorf("%w: %q", ErrNotFileInput, name)
	}

	node := input.Get(0)
	if _, multiple := input.Attr("multiple"); !multiple {
		f.doc.files[node] = nil
	}
	f.doc.files[node] = append(f.doc.files[node], file)
	return nil
}

// dataSet collects the successful controls in document order.
func (f *Form) dataSet() []field {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	var fields []field
	f.sel.Find("input, select, textarea").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" || disabled(s) {
			return
		}

		switch goquery.NodeName(s) {
		case "textarea":
			fields = append(fields, field{name: name, value: s.Text()})
			return
		case "select":
			for _, v := range selectedValues(s) {
				fields = append(fields, field{name: name, value: v})
			}
			return
		}

		switch inputType(s) {
		case "submit", "button", "reset", "image":
		case "radio", "checkbox":
			if _, checked := s.Attr("checked"); checked {
				fields = append(fields, field{name: name, value: radioValue(s)})
			}
		case "file":
			files := f.doc.files[s.Get(0)]
			if len(files) == 0 {
				fields = append(fields, field{name: name, isFile: true})
				return
			}
			for _, file := range files {
				fields = append(fields, field{name: name, file: file, isFile: true})
			}
		default:
			v, _ := s.Attr("value")
			fields = append(fields, field{name: name, value: v})
		}
	})
	return fields
}

// controls returns the form's controls with the given name. Callers hold
// the document lock.
func (f *Form) controls(name string) *goquery.Selection {
	return f.sel.Find("input, select, textarea").FilterFunction(func(_ int, s *goquery.Selection) bool {
		n, _ := s.Attr("name")
		return n == name
	})
}

// disabled reports a disabled control or one inside a disabled fieldset.
func disabled(s *goquery.Selection) bool {
	if _, ok := s.Attr("disabled"); ok {
		return true
	}
	return s.ParentsFiltered("fieldset[disabled]").Length() > 0
}

func optionValue(opt *goquery.Selection) string {
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return strings.TrimSpace(opt.Text())
}

// selectedValues follows the browser rule: a single select with nothing
// selected submits its first option.
func selectedValues(s *goquery.Selection) []string {
	options := s.Find("option")
	var values []string
	options.Each(func(_ int, opt *goquery.Selection) {
		if _, ok := opt.Attr("selected"); ok {
			values = append(values, optionValue(opt))
		}
	})

	if _, multiple := s.Attr("multiple"); multiple {
		return values
	}
	if len(values) == 0 {
		if options.Length() == 0 {
			return nil
		}
		return []string{optionValue(options.First())}
	}
	return values[len(values)-1:]
}

func selectOption(s *goquery.Selection, name, value string) error {
	options := s.Find("option")
	target := options.FilterFunction(func(_ int, opt *goquery.Selection) bool {
		return optionValue(opt) == value
	}).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s=%q", ErrNoSuchOption, name, value)
	}

	if _, multiple := s.Attr("multiple"); !multiple {
		options.RemoveAttr("selected")
	}
	target.SetAttr("selected", "selected")
	return nil
}
