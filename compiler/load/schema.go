// Package load decodes the model description produced by the upstream ORM schema
// compiler into the immutable descriptors consumed by the generator.
package load

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

// Kind is the kind of the type a field points to.
type Kind string

// Field kinds as emitted by the upstream schema compiler.
const (
	KindScalar      Kind = "scalar"
	KindObject      Kind = "object"
	KindEnum        Kind = "enum"
	KindUnsupported Kind = "unsupported"
)

// Scalar type keywords understood by the generator.
const (
	TypeString   = "String"
	TypeInt      = "Int"
	TypeBigInt   = "BigInt"
	TypeFloat    = "Float"
	TypeDecimal  = "Decimal"
	TypeBoolean  = "Boolean"
	TypeDateTime = "DateTime"
	TypeJSON     = "Json"
	TypeBytes    = "Bytes"
)

// Document is a loaded model description: every model and enum of one schema.
type Document struct {
	Models []*Model `json:"models"`
	Enums  []*Enum  `json:"enums,omitempty"`

	models map[string]*Model
	enums  map[string]*Enum
}

// Model represents a data entity loaded from the model description.
type Model struct {
	Name          string   `json:"name"`
	DBName        string   `json:"dbName,omitempty"`
	Documentation string   `json:"documentation,omitempty"`
	PrimaryKey    []string `json:"primaryKey,omitempty"`
	Fields        []*Field `json:"fields"`

	fields    map[string]*Field
	relations map[string]struct{}
}

// Field represents a single model field loaded from the model description.
type Field struct {
	Name               string    `json:"name"`
	Kind               Kind      `json:"kind"`
	Type               string    `json:"type"`
	IsList             bool      `json:"isList,omitempty"`
	IsRequired         bool      `json:"isRequired,omitempty"`
	Nullable           *bool     `json:"isNullable,omitempty"`
	IsID               bool      `json:"isId,omitempty"`
	IsUnique           bool      `json:"isUnique,omitempty"`
	HasDefault         bool      `json:"hasDefaultValue,omitempty"`
	IsUpdatedAt        bool      `json:"isUpdatedAt,omitempty"`
	RelationName       string    `json:"relationName,omitempty"`
	RelationFromFields []string  `json:"relationFromFields,omitempty"`
	RelationToFields   []string  `json:"relationToFields,omitempty"`
	Documentation      string    `json:"documentation,omitempty"`
	Alternatives       []TypeRef `json:"inputTypes,omitempty"`

	model *Model
}

// TypeRef is one alternative type a field accepts. Upstream input types carry
// several of them (e.g. a scalar or a field-update envelope).
type TypeRef struct {
	Kind   Kind   `json:"kind"`
	Type   string `json:"type"`
	IsList bool   `json:"isList,omitempty"`
}

// Enum represents an enum declared in the model description.
type Enum struct {
	Name          string      `json:"name"`
	Values        []EnumValue `json:"values"`
	Documentation string      `json:"documentation,omitempty"`
}

// EnumValue is a single enum literal. It decodes from either a bare string
// or an object with a "name" key.
type EnumValue struct {
	Name   string `json:"name"`
	DBName string `json:"dbName,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler for EnumValue.
func (v *EnumValue) UnmarshalJSON(buf []byte) error {
	buf = bytes.TrimSpace(buf)
	if len(buf) > 0 && buf[0] == '"' {
		return json.Unmarshal(buf, &v.Name)
	}
	type plain EnumValue
	return json.Unmarshal(buf, (*plain)(v))
}

// =============================================================================
// Field methods
// =============================================================================

// Model returns the model that owns the field.
func (f *Field) Model() *Model { return f.model }

// IsRelation reports if the field points to another model.
func (f *Field) IsRelation() bool { return f.Kind == KindObject }

// IsEnum reports if the field type is an enum.
func (f *Field) IsEnum() bool { return f.Kind == KindEnum }

// IsScalar reports if the field holds a scalar value.
func (f *Field) IsScalar() bool { return f.Kind == KindScalar || f.Kind == "" }

// IsNullable reports if the field accepts null. Unless stated explicitly,
// a non-list field that is not required is nullable.
func (f *Field) IsNullable() bool {
	if f.Nullable != nil {
		return *f.Nullable
	}
	return !f.IsRequired && !f.IsList
}

// HoldsForeignKey reports if the relation field declares the foreign key,
// i.e. the owning side of the relation.
func (f *Field) HoldsForeignKey() bool {
	return f.IsRelation() && len(f.RelationFromFields) > 0
}

// IsSelfRelation reports if the relation field points back to its own model.
func (f *Field) IsSelfRelation() bool {
	return f.IsRelation() && f.model != nil && f.Type == f.model.Name
}

// =============================================================================
// Model methods
// =============================================================================

// Field returns the field with the given name, or nil.
func (m *Model) Field(name string) *Field {
	if m.fields == nil {
		m.index()
	}
	return m.fields[name]
}

// HasField reports if the model declares a field with the given name.
func (m *Model) HasField(name string) bool { return m.Field(name) != nil }

// FieldNames returns the field names in declaration order.
func (m *Model) FieldNames() []string {
	names := make([]string, len(m.Fields))
	for i, f := range m.Fields {
		names[i] = f.Name
	}
	return names
}

// RelationFields returns the relation fields in declaration order.
func (m *Model) RelationFields() []*Field {
	var fields []*Field
	for _, f := range m.Fields {
		if f.IsRelation() {
			fields = append(fields, f)
		}
	}
	return fields
}

// Relations returns the set of relation names the model takes part in.
func (m *Model) Relations() map[string]struct{} {
	if m.relations == nil {
		m.index()
	}
	return m.relations
}

// ForeignKeyFields returns the set of scalar fields used as foreign keys
// by the relation fields of the model.
func (m *Model) ForeignKeyFields() map[string]struct{} {
	fks := make(map[string]struct{})
	for _, f := range m.Fields {
		for _, name := range f.RelationFromFields {
			fks[name] = struct{}{}
		}
	}
	return fks
}

// IsForeignKey reports if the named field is a foreign-key scalar.
func (m *Model) IsForeignKey(name string) bool {
	_, ok := m.ForeignKeyFields()[name]
	return ok
}

func (m *Model) index() {
	m.fields = make(map[string]*Field, len(m.Fields))
	m.relations = make(map[string]struct{})
	for _, f := range m.Fields {
		f.model = m
		m.fields[f.Name] = f
		if f.RelationName != "" {
			m.relations[f.RelationName] = struct{}{}
		}
	}
}

// =============================================================================
// Document methods
// =============================================================================

// Model returns the model with the given name, or nil.
func (d *Document) Model(name string) *Model {
	if d.models == nil {
		d.index()
	}
	return d.models[name]
}

// Enum returns the enum with the given name, or nil.
func (d *Document) Enum(name string) *Enum {
	if d.enums == nil {
		d.index()
	}
	return d.enums[name]
}

// ModelNames returns the model names in declaration order.
func (d *Document) ModelNames() []string {
	names := make([]string, len(d.Models))
	for i, m := range d.Models {
		names[i] = m.Name
	}
	return names
}

func (d *Document) index() {
	d.models = make(map[string]*Model, len(d.Models))
	d.enums = make(map[string]*Enum, len(d.Enums))
	for _, m := range d.Models {
		m.index()
		d.models[m.Name] = m
	}
	for _, e := range d.Enums {
		d.enums[e.Name] = e
	}
}

// Validate checks the structural integrity of the document. Unknown relation
// targets are not an error here; the generator reports them as graph issues.
func (d *Document) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(d.Models))
	owners := make(map[*Field]string)
	for i, m := range d.Models {
		if m == nil || strings.TrimSpace(m.Name) == "" {
			errs = append(errs, fmt.Errorf("model #%d: missing name", i))
			continue
		}
		if _, ok := seen[m.Name]; ok {
			errs = append(errs, fmt.Errorf("model %q: declared more than once", m.Name))
		}
		seen[m.Name] = struct{}{}
		fields := make(map[string]struct{}, len(m.Fields))
		for j, f := range m.Fields {
			if f == nil || f.Name == "" {
				errs = append(errs, fmt.Errorf("model %q: field #%d: missing name", m.Name, j))
				continue
			}
			if owner, ok := owners[f]; ok {
				errs = append(errs, fmt.Errorf("model %q: field %q is shared with model %q", m.Name, f.Name, owner))
			}
			owners[f] = m.Name
			if _, ok := fields[f.Name]; ok {
				errs = append(errs, fmt.Errorf("model %q: field %q declared more than once", m.Name, f.Name))
			}
			fields[f.Name] = struct{}{}
			if f.Type == "" {
				errs = append(errs, fmt.Errorf("model %q: field %q: missing type", m.Name, f.Name))
			}
		}
	}
	for i, e := range d.Enums {
		if e == nil || e.Name == "" {
			errs = append(errs, fmt.Errorf("enum #%d: missing name", i))
			continue
		}
		if len(e.Values) == 0 {
			errs = append(errs, fmt.Errorf("enum %q: no values", e.Name))
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// Decoding
// =============================================================================

// envelope accepts both a bare document and one nested under "datamodel",
// which is how the upstream compiler wraps it.
type envelope struct {
	Datamodel *Document `json:"datamodel"`
	Models    []*Model  `json:"models"`
	Enums     []*Enum   `json:"enums"`
}

// Unmarshal decodes the given buffer into a validated Document.
func Unmarshal(buf []byte) (*Document, error) {
	var env envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("decode model description: %w", err)
	}
	doc := env.Datamodel
	if doc == nil {
		doc = &Document{Models: env.Models, Enums: env.Enums}
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model description: %w", err)
	}
	doc.index()
	return doc, nil
}

// LoadFile reads and decodes the model description at path.
func LoadFile(path string) (*Document, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model description: %w", err)
	}
	return Unmarshal(buf)
}

// Marshal encodes the document back to its JSON form.
func Marshal(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// NewDocument builds an indexed document from in-memory models and enums.
// It is mostly useful for tests and programmatic callers.
func NewDocument(models []*Model, enums ...*Enum) (*Document, error) {
	doc := &Document{Models: models, Enums: enums}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	doc.index()
	return doc, nil
}

// MustNewDocument is like NewDocument but panics on error.
func MustNewDocument(models []*Model, enums ...*Enum) *Document {
	doc, err := NewDocument(models, enums...)
	if err != nil {
		panic(err)
	}
	return doc
}
