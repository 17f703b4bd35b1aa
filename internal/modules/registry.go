// Package modules describes the list modules of the console: which
// collection each one pages through, how its rows render, which sort
// orders and page sizes it offers and which fields its form edits.
package modules

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mcoot/gamehub-console/internal/model"
)

// FieldKind selects the input control of a form field
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	// FieldRef is a select filled from another collection
	FieldRef FieldKind = "ref"
	// FieldBool is a true/false select
	FieldBool FieldKind = "bool"
)

// Choice is one option of a select control
type Choice struct {
	Value string
	Label string
}

// Options maps a reference field name to its dropdown choices
type Options map[string][]Choice

// Field is one visible form input. Name is also the JSON key sent to the API.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
	Default  string
	// Source is the collection a FieldRef field picks from
	Source string
}

// Column is a list column header
type Column struct {
	Key   string
	Title string
}

// Row is one rendered list item
type Row struct {
	ID    string
	Cells []string
}

// Definition is the static description of one list module
type Definition struct {
	Name            string
	Title           string
	Collection      string
	Singular        string
	DefaultPageSize int
	// PageSizes is empty when the page size is fixed
	PageSizes   []int
	SortOptions []Choice
	// ResetOnSort returns to page 1 when the sort or page size changes
	ResetOnSort bool
	Columns     []Column
	EmptyText   string
	Fields      []Field
	RenderRow   func(raw json.RawMessage) (Row, error)
}

// InitialState returns the view state a module starts with
func (d *Definition) InitialState() model.ViewState {
	return model.ViewState{Page: 1, PageSize: d.DefaultPageSize}
}

// AllowsPageSize reports whether size is a selectable page size
func (d *Definition) AllowsPageSize(size int) bool {
	for _, s := range d.PageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// AllowsSort reports whether key is one of the offered sort orders
func (d *Definition) AllowsSort(key string) bool {
	for _, o := range d.SortOptions {
		if o.Value == key {
			return true
		}
	}
	return false
}

// RefFields returns the fields whose options come from other collections
func (d *Definition) RefFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Kind == FieldRef {
			out = append(out, f)
		}
	}
	return out
}

// Payload builds the request body from submitted form values. Text is
// trimmed, numbers that do not parse become 0, bools are "true"/"false".
func (d *Definition) Payload(values url.Values) map[string]any {
	payload := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		raw := strings.TrimSpace(values.Get(f.Name))
		switch f.Kind {
		case FieldNumber:
			n, err := strconv.Atoi(raw)
			if err != nil {
				n = 0
			}
			payload[f.Name] = n
		case FieldBool:
			payload[f.Name] = raw == "true"
		default:
			payload[f.Name] = raw
		}
	}
	return payload
}

// Defaults returns the field values of an empty create-mode form
func (d *Definition) Defaults() map[string]string {
	values := make(map[string]string, len(d.Fields))
	for _, f := range d.Fields {
		values[f.Name] = f.Default
	}
	return values
}

// Populate extracts form values from an entity. Populated references
// yield their identifier.
func (d *Definition) Populate(raw json.RawMessage) (map[string]string, error) {
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil || record == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrMalformedRecord, d.Singular)
	}

	values := d.Defaults()
	for _, f := range d.Fields {
		v, ok := record[f.Name]
		if !ok {
			continue
		}
		values[f.Name] = formValue(v)
	}
	return values, nil
}

func formValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		if id, ok := t["_id"].(string); ok {
			return id
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// EntityID reads the _id of a raw entity
func EntityID(raw json.RawMessage) string {
	var rec struct {
		ID string `json:"_id"`
	}
	_ = json.Unmarshal(raw, &rec)
	return rec.ID
}

// Registry maps module names to definitions, in menu order
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// NewRegistry creates a registry from definitions
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r
}

// Get looks a module up by name
func (r *Registry) Get(name string) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownModule, name)
	}
	return d, nil
}

// All returns the definitions in registration order
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}
