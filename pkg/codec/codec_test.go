package codec

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestTextSpanWireShape(t *testing.T) {
	encoded, err := json.Marshal(NewTitle("New laptop"))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	for _, fragment := range []string{`"type":"title"`, `"content":"New laptop"`, `"plain_text":"New laptop"`} {
		if !strings.Contains(string(encoded), fragment) {
			t.Errorf("encoded title missing %s: %s", fragment, encoded)
		}
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	when := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)
	tests := []struct {
		name     string
		property Property
		check    func(t *testing.T, p Property)
	}{
		{"title", NewTitle("Concert"), func(t *testing.T, p Property) {
			if p.PlainText() != "Concert" {
				t.Errorf("PlainText = %q", p.PlainText())
			}
		}},
		{"rich text", NewRichText("some reasoning"), func(t *testing.T, p Property) {
			if p.PlainText() != "some reasoning" {
				t.Errorf("PlainText = %q", p.PlainText())
			}
		}},
		{"number", NewNumber(123.45), func(t *testing.T, p Property) {
			value, ok := p.NumberValue()
			if !ok || value != 123.45 {
				t.Errorf("NumberValue = %v/%v", value, ok)
			}
		}},
		{"select", NewSelect("pending"), func(t *testing.T, p Property) {
			if p.SelectValue() != "pending" {
				t.Errorf("SelectValue = %q", p.SelectValue())
			}
		}},
		{"multi select", NewMultiSelect([]string{"travel", "family"}), func(t *testing.T, p Property) {
			values := p.MultiSelectValues()
			if len(values) != 2 || values[0] != "travel" || values[1] != "family" {
				t.Errorf("MultiSelectValues = %v", values)
			}
		}},
		{"date with time", NewDate(when, true), func(t *testing.T, p Property) {
			got, ok := p.DateTime()
			if !ok || !got.Equal(when) {
				t.Errorf("DateTime = %v/%v", got, ok)
			}
		}},
		{"checkbox", NewCheckbox(true), func(t *testing.T, p Property) {
			if !p.BoolValue() {
				t.Error("BoolValue = false")
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := json.Marshal(tt.property)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			var decoded Property
			if err := json.Unmarshal(encoded, &decoded); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			tt.check(t, decoded)
		})
	}
}

func TestDateWireFormats(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	dateOnly, _ := json.Marshal(NewDate(day, false))
	if !strings.Contains(string(dateOnly), `"start":"2026-03-10"`) {
		t.Errorf("date-only encoding = %s", dateOnly)
	}

	withTime, _ := json.Marshal(NewDate(day.Add(14*time.Hour), true))
	if !strings.Contains(string(withTime), "2026-03-10T14:00:00Z") {
		t.Errorf("timestamp encoding = %s", withTime)
	}
}

func TestPropertyUnmarshalIsTotal(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not an object", `"just a string"`},
		{"wrong field types", `{"type":"number","number":"NaN-ish"}`},
		{"unknown type tag", `{"type":"rollup","rollup":{}}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Property
			if err := json.Unmarshal([]byte(tt.input), &p); err != nil {
				t.Fatalf("unmarshal must not fail: %v", err)
			}
			// accessors on a zero or foreign-kind property are safe
			if _, ok := p.NumberValue(); ok {
				t.Error("unexpected number present")
			}
			_ = p.PlainText()
			_ = p.SelectValue()
			_ = p.MultiSelectValues()
		})
	}
}

func TestAccessorsRejectWrongKind(t *testing.T) {
	number := NewNumber(7)
	if number.SelectValue() != "" {
		t.Error("SelectValue on a number should be empty")
	}
	if number.BoolValue() {
		t.Error("BoolValue on a number should be false")
	}
	if _, ok := NewSelect("x").NumberValue(); ok {
		t.Error("NumberValue on a select should be absent")
	}
	if _, ok := NewTitle("x").DateTime(); ok {
		t.Error("DateTime on a title should be absent")
	}
}

func TestNewMultiSelectDeduplicates(t *testing.T) {
	values := NewMultiSelect([]string{"a", "b", "a", "c", "b"}).MultiSelectValues()
	if len(values) != 3 || values[0] != "a" || values[1] != "b" || values[2] != "c" {
		t.Errorf("deduplicated values = %v, want [a b c]", values)
	}
}
