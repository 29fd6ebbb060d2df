// Package codec maps the external record store's typed property wire
// format to and from plain Go values. The wire shapes are dictated by
// the store and must be reproduced exactly; everything here is pure and
// stateless.
//
// Decoding is total: unknown or malformed shapes yield the kind's zero
// value (empty string, absent number, false, empty list) rather than an
// error, because the store does not enforce its own schema.
package codec

import (
	"encoding/json"
	"time"
)

// Kind identifies a property's wire type. The set is closed; dispatch
// over it is exhaustive so a new kind cannot be added silently.
type Kind string

const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindNumber      Kind = "number"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindDate        Kind = "date"
	KindCheckbox    Kind = "checkbox"
)

// TextSpan is a single run of text. Encoding always produces default
// styling; the system never emits rich formatting.
type TextSpan struct {
	PlainText string
}

type textSpanWire struct {
	Type string `json:"type"`
	Text struct {
		Content string `json:"content"`
	} `json:"text"`
	PlainText string `json:"plain_text,omitempty"`
}

// MarshalJSON encodes the span as a single default-styled text run.
func (s TextSpan) MarshalJSON() ([]byte, error) {
	var w textSpanWire
	w.Type = "text"
	w.Text.Content = s.PlainText
	w.PlainText = s.PlainText
	return json.Marshal(w)
}

// UnmarshalJSON accepts any run shape, preferring plain_text and
// falling back to the text content.
func (s *TextSpan) UnmarshalJSON(data []byte) error {
	var w textSpanWire
	if err := json.Unmarshal(data, &w); err != nil {
		*s = TextSpan{}
		return nil
	}
	if w.PlainText != "" {
		s.PlainText = w.PlainText
	} else {
		s.PlainText = w.Text.Content
	}
	return nil
}

// SelectOption is one choice of a select or multi-select property.
type SelectOption struct {
	Name string `json:"name"`
}

// DateValue is a calendar date, optionally with a time of day.
type DateValue struct {
	Start   time.Time
	HasTime bool
}

type dateWire struct {
	Start string `json:"start"`
}

// MarshalJSON serializes to an ISO calendar date, or a full timestamp
// when time of day is significant.
func (d DateValue) MarshalJSON() ([]byte, error) {
	layout := "2006-01-02"
	if d.HasTime {
		layout = time.RFC3339
	}
	return json.Marshal(dateWire{Start: d.Start.Format(layout)})
}

// UnmarshalJSON accepts either a calendar date or a full timestamp.
func (d *DateValue) UnmarshalJSON(data []byte) error {
	var w dateWire
	if err := json.Unmarshal(data, &w); err != nil {
		*d = DateValue{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, w.Start); err == nil {
		d.Start = t
		d.HasTime = true
		return nil
	}
	if t, err := time.Parse("2006-01-02", w.Start); err == nil {
		d.Start = t
		d.HasTime = false
		return nil
	}
	*d = DateValue{}
	return nil
}

// Property is a tagged union over the closed kind set. Exactly the
// variant named by Kind is meaningful; the rest hold zero values.
type Property struct {
	Kind        Kind
	Title       []TextSpan
	RichText    []TextSpan
	Number      *float64
	Select      *SelectOption
	MultiSelect []SelectOption
	Date        *DateValue
	Checkbox    bool
}

type propertyWire struct {
	Type        string         `json:"type"`
	Title       []TextSpan     `json:"title,omitempty"`
	RichText    []TextSpan     `json:"rich_text,omitempty"`
	Number      *float64       `json:"number,omitempty"`
	Select      *SelectOption  `json:"select,omitempty"`
	MultiSelect []SelectOption `json:"multi_select,omitempty"`
	Date        *DateValue     `json:"date,omitempty"`
	Checkbox    *bool          `json:"checkbox,omitempty"`
}

// MarshalJSON produces the store's wire envelope for the property's kind.
func (p Property) MarshalJSON() ([]byte, error) {
	w := propertyWire{Type: string(p.Kind)}
	switch p.Kind {
	case KindTitle:
		w.Title = p.Title
		if w.Title == nil {
			w.Title = []TextSpan{}
		}
	case KindRichText:
		w.RichText = p.RichText
		if w.RichText == nil {
			w.RichText = []TextSpan{}
		}
	case KindNumber:
		w.Number = p.Number
	case KindSelect:
		w.Select = p.Select
	case KindMultiSelect:
		w.MultiSelect = p.MultiSelect
		if w.MultiSelect == nil {
			w.MultiSelect = []SelectOption{}
		}
	case KindDate:
		w.Date = p.Date
	case KindCheckbox:
		checked := p.Checkbox
		w.Checkbox = &checked
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a wire property. It never fails: malformed
// input yields a zero property.
func (p *Property) UnmarshalJSON(data []byte) error {
	var w propertyWire
	if err := json.Unmarshal(data, &w); err != nil {
		*p = Property{}
		return nil
	}
	p.Kind = Kind(w.Type)
	p.Title = w.Title
	p.RichText = w.RichText
	p.Number = w.Number
	p.Select = w.Select
	p.MultiSelect = w.MultiSelect
	p.Date = w.Date
	if w.Checkbox != nil {
		p.Checkbox = *w.Checkbox
	}
	return nil
}

// PlainText joins the property's text runs. Works for title and
// rich-text kinds; yields "" for everything else.
func (p Property) PlainText() string {
	spans := p.Title
	if p.Kind == KindRichText {
		spans = p.RichText
	}
	out := ""
	for _, s := range spans {
		out += s.PlainText
	}
	return out
}

// NumberValue returns the numeric value and whether one is present.
func (p Property) NumberValue() (float64, bool) {
	if p.Kind != KindNumber || p.Number == nil {
		return 0, false
	}
	return *p.Number, true
}

// SelectValue returns the selected option name, or "" if none.
func (p Property) SelectValue() string {
	if p.Kind != KindSelect || p.Select == nil {
		return ""
	}
	return p.Select.Name
}

// MultiSelectValues returns the selected option names in order.
func (p Property) MultiSelectValues() []string {
	if p.Kind != KindMultiSelect {
		return nil
	}
	names := make([]string, 0, len(p.MultiSelect))
	for _, o := range p.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}

// DateTime returns the date value and whether one is present.
func (p Property) DateTime() (time.Time, bool) {
	if p.Kind != KindDate || p.Date == nil {
		return time.Time{}, false
	}
	return p.Date.Start, true
}

// BoolValue returns the checkbox value; false for any other kind.
func (p Property) BoolValue() bool {
	return p.Kind == KindCheckbox && p.Checkbox
}

// NewTitle encodes a title property with a single default-styled run.
func NewTitle(text string) Property {
	return Property{Kind: KindTitle, Title: []TextSpan{{PlainText: text}}}
}

// NewRichText encodes a rich-text property with a single default-styled run.
func NewRichText(text string) Property {
	return Property{Kind: KindRichText, RichText: []TextSpan{{PlainText: text}}}
}

// NewNumber encodes a number property.
func NewNumber(value float64) Property {
	return Property{Kind: KindNumber, Number: &value}
}

// NewSelect encodes a select property.
func NewSelect(name string) Property {
	return Property{Kind: KindSelect, Select: &SelectOption{Name: name}}
}

// NewMultiSelect encodes a multi-select property, dropping duplicate
// names while preserving first-seen order.
func NewMultiSelect(names []string) Property {
	seen := make(map[string]struct{}, len(names))
	options := make([]SelectOption, 0, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		options = append(options, SelectOption{Name: name})
	}
	return Property{Kind: KindMultiSelect, MultiSelect: options}
}

// NewDate encodes a date property. When withTime is false the value
// serializes as a calendar date.
func NewDate(t time.Time, withTime bool) Property {
	return Property{Kind: KindDate, Date: &DateValue{Start: t, HasTime: withTime}}
}

// NewCheckbox encodes a checkbox property.
func NewCheckbox(checked bool) Property {
	return Property{Kind: KindCheckbox, Checkbox: checked}
}
