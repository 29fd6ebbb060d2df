package store

import (
	"time"

	"spendpilot/pkg/codec"
)

// Record is one item in an external collection, with typed named
// properties.
type Record struct {
	ID             string                    `json:"id"`
	CollectionID   string                    `json:"collection_id,omitempty"`
	CreatedTime    time.Time                 `json:"created_time"`
	LastEditedTime time.Time                 `json:"last_edited_time"`
	Properties     map[string]codec.Property `json:"properties"`
}

// Property returns the named property, or a zero property if absent.
func (r *Record) Property(name string) codec.Property {
	if r.Properties == nil {
		return codec.Property{}
	}
	return r.Properties[name]
}

// clone returns a copy whose property map is independent of the
// original. Cache reads hand out clones so a caller mutating a result
// cannot corrupt later hits.
func (r Record) clone() Record {
	if r.Properties != nil {
		properties := make(map[string]codec.Property, len(r.Properties))
		for name, property := range r.Properties {
			properties[name] = property
		}
		r.Properties = properties
	}
	return r
}

func cloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i := range records {
		out[i] = records[i].clone()
	}
	return out
}

// Schema describes a collection: its title and the kind of each
// property.
type Schema struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Properties map[string]codec.Kind `json:"properties"`
}

func (s Schema) clone() Schema {
	if s.Properties != nil {
		properties := make(map[string]codec.Kind, len(s.Properties))
		for name, kind := range s.Properties {
			properties[name] = kind
		}
		s.Properties = properties
	}
	return s
}

// SortDirection orders query results.
type SortDirection string

const (
	Ascending  SortDirection = "ascending"
	Descending SortDirection = "descending"
)

// Sort is one element of a query's ordering. The wire shape
// {property, direction} is dictated by the external store.
type Sort struct {
	Property  string        `json:"property"`
	Direction SortDirection `json:"direction"`
}

// Filter is the external store's nested filter object: a leaf names a
// property and exactly one typed condition, a branch is a conjunction
// or disjunction of sub-filters. The shape must be reproduced exactly
// for compatibility.
type Filter struct {
	Property string `json:"property,omitempty"`

	Select      *SelectCondition   `json:"select,omitempty"`
	MultiSelect *SelectCondition   `json:"multi_select,omitempty"`
	Number      *NumberCondition   `json:"number,omitempty"`
	Date        *DateCondition     `json:"date,omitempty"`
	Checkbox    *CheckboxCondition `json:"checkbox,omitempty"`

	And []*Filter `json:"and,omitempty"`
	Or  []*Filter `json:"or,omitempty"`
}

// SelectCondition matches select and multi-select properties.
type SelectCondition struct {
	Equals   string `json:"equals,omitempty"`
	Contains string `json:"contains,omitempty"`
}

// NumberCondition matches number properties.
type NumberCondition struct {
	Equals               *float64 `json:"equals,omitempty"`
	GreaterThan          *float64 `json:"greater_than,omitempty"`
	GreaterThanOrEqualTo *float64 `json:"greater_than_or_equal_to,omitempty"`
	LessThan             *float64 `json:"less_than,omitempty"`
	LessThanOrEqualTo    *float64 `json:"less_than_or_equal_to,omitempty"`
}

// DateCondition matches date properties. Bounds are ISO calendar dates
// or full timestamps.
type DateCondition struct {
	Equals    string `json:"equals,omitempty"`
	Before    string `json:"before,omitempty"`
	After     string `json:"after,omitempty"`
	OnOrAfter string `json:"on_or_after,omitempty"`
}

// CheckboxCondition matches checkbox properties.
type CheckboxCondition struct {
	Equals *bool `json:"equals,omitempty"`
}

// SelectEquals builds a select equality leaf.
func SelectEquals(property, value string) *Filter {
	return &Filter{Property: property, Select: &SelectCondition{Equals: value}}
}

// MultiSelectContains builds a multi-select containment leaf.
func MultiSelectContains(property, value string) *Filter {
	return &Filter{Property: property, MultiSelect: &SelectCondition{Contains: value}}
}

// NumberAtLeast builds a number >= leaf.
func NumberAtLeast(property string, value float64) *Filter {
	return &Filter{Property: property, Number: &NumberCondition{GreaterThanOrEqualTo: &value}}
}

// DateOnOrAfter builds a date >= leaf from a calendar date.
func DateOnOrAfter(property string, t time.Time) *Filter {
	return &Filter{Property: property, Date: &DateCondition{OnOrAfter: t.Format("2006-01-02")}}
}

// CheckboxEquals builds a checkbox equality leaf.
func CheckboxEquals(property string, value bool) *Filter {
	return &Filter{Property: property, Checkbox: &CheckboxCondition{Equals: &value}}
}

// And combines filters into a conjunction. Nil members are dropped; a
// single surviving member is returned unwrapped.
func And(filters ...*Filter) *Filter {
	kept := make([]*Filter, 0, len(filters))
	for _, f := range filters {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return &Filter{And: kept}
	}
}
