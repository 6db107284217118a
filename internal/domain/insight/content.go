// Package insight turns arbitrarily shaped AI insight payloads (text, lists,
// records) into a uniform sequence of renderable blocks.
//
// Payloads are classified once, at the boundary where they are received, into
// a Content value. Rendering code only ever matches on Content kinds.
package insight

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind classifies an insight payload.
type Kind int

// Content kinds.
const (
	KindEmpty Kind = iota
	KindText
	KindList
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "empty"
	}
}

// Record is a titled entry. Empty fields are treated as absent.
type Record struct {
	Title       string
	Description string
}

// Item is one list element: either text or a record. Elements of any other
// shape classify as an empty record.
type Item struct {
	text   string
	record *Record
}

// IsText reports whether the item is a text element.
func (i Item) IsText() bool { return i.record == nil }

// Content is a classified insight payload.
type Content struct {
	kind   Kind
	text   string
	items  []Item
	record Record
}

// Kind returns the payload classification.
func (c Content) Kind() Kind { return c.kind }

// Empty is the content of an absent or unrecognized payload.
func Empty() Content { return Content{kind: KindEmpty} }

// Text builds text content.
func Text(s string) Content { return Content{kind: KindText, text: s} }

// FromRecord builds record content.
func FromRecord(r Record) Content { return Content{kind: KindRecord, record: r} }

// List builds list content from already classified items.
func List(items ...Item) Content { return Content{kind: KindList, items: items} }

// TextItem builds a text list element.
func TextItem(s string) Item { return Item{text: s} }

// RecordItem builds a record list element.
func RecordItem(r Record) Item { return Item{record: &r} }

// Parse classifies a raw JSON payload. Empty input, null and malformed JSON
// are all Empty.
func Parse(raw json.RawMessage) Content {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Empty()
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Empty()
	}
	return FromValue(v)
}

// FromValue classifies an already decoded JSON value.
func FromValue(v any) Content {
	switch t := v.(type) {
	case string:
		return Text(t)
	case []any:
		items := make([]Item, 0, len(t))
		for _, elem := range t {
			switch e := elem.(type) {
			case string:
				items = append(items, TextItem(e))
			case map[string]any:
				items = append(items, RecordItem(recordOf(e)))
			default:
				items = append(items, RecordItem(Record{}))
			}
		}
		return List(items...)
	case map[string]any:
		return FromRecord(recordOf(t))
	case Content:
		return t
	}
	return Empty()
}

// recordOf reads the title and description fields. A record never expands
// beyond one level, so nested lists and records are ignored.
func recordOf(m map[string]any) Record {
	return Record{Title: scalar(m["title"]), Description: scalar(m["description"])}
}

// scalar renders a JSON scalar as text. Zero, false and null read as absent.
func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == 0 {
			return ""
		}
		return fmt.Sprint(t)
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return ""
		}
		return t.String()
	case bool:
		if !t {
			return ""
		}
		return fmt.Sprint(t)
	}
	return ""
}
