// Package schema describes the persistent data of modules with explicit descriptor
// tables. A Descriptor lists its own attributes and the descriptors it extends;
// flattening walks both to associate every declared path with its value.
package schema

import "fmt"

// Attribute types. Object attributes use the name of their nested descriptor.
const (
	TypeString  = "String"
	TypeNumber  = "Number"
	TypeBoolean = "Boolean"
	// TypeList attributes hold an array replaced whole by overrides; its elements are
	// described by Items and validated by the JSON Schema only.
	TypeList = "List"
)

// Metadata types refining a native attribute type.
const (
	MetaInteger = "integer"
	MetaCode    = "code"
)

// Metadata holds the annotations of an attribute.
type Metadata struct {
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"        yaml:"enum,omitempty"`
	Type        string   `json:"type,omitempty"        yaml:"type,omitempty"`
}

// Attribute is a declared field of a descriptor.
type Attribute struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Metadata Metadata    `json:"metadata"`
	Schema   *Descriptor `json:"schema,omitempty"`
	Items    *Descriptor `json:"items,omitempty"`
}

// Descriptor is the schema of a persistent data structure.
type Descriptor struct {
	Name       string        `json:"name"`
	Attributes []*Attribute  `json:"attributes"`
	Extends    []*Descriptor `json:"-"`
}

// Attribute returns the own or inherited attribute with the given name.
func (d *Descriptor) Attribute(name string) (*Attribute, bool) {
	for _, attribute := range d.Attributes {
		if attribute.Name == name {
			return attribute, true
		}
	}

	for _, base := range d.Extends {
		if attribute, ok := base.Attribute(name); ok {
			return attribute, true
		}
	}

	return nil, false
}

// Builder assembles a Descriptor at registration time.
type Builder struct {
	descriptor *Descriptor
	err        error
}

// NewBuilder starts a descriptor named name.
func NewBuilder(name string) *Builder {
	return &Builder{descriptor: &Descriptor{Name: name}}
}

// Extends appends base descriptors whose attributes are inherited.
func (b *Builder) Extends(bases ...*Descriptor) *Builder {
	b.descriptor.Extends = append(b.descriptor.Extends, bases...)

	return b
}

func (b *Builder) add(attribute *Attribute) *Builder {
	for _, existing := range b.descriptor.Attributes {
		if existing.Name == attribute.Name && b.err == nil {
			b.err = fmt.Errorf("schema %s: attribute %q declared twice", b.descriptor.Name, attribute.Name)
		}
	}

	b.descriptor.Attributes = append(b.descriptor.Attributes, attribute)

	return b
}

func (b *Builder) String(name, description string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeString, Metadata: Metadata{Description: description}})
}

// Enum declares a string attribute restricted to values.
func (b *Builder) Enum(name, description string, values ...string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeString, Metadata: Metadata{Description: description, Enum: values}})
}

// Code declares a string attribute holding an expression source.
func (b *Builder) Code(name, description string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeString, Metadata: Metadata{Description: description, Type: MetaCode}})
}

func (b *Builder) Number(name, description string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeNumber, Metadata: Metadata{Description: description}})
}

func (b *Builder) Integer(name, description string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeNumber, Metadata: Metadata{Description: description, Type: MetaInteger}})
}

func (b *Builder) Boolean(name, description string) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeBoolean, Metadata: Metadata{Description: description}})
}

// Object declares a nested attribute described by nested.
func (b *Builder) Object(name, description string, nested *Descriptor) *Builder {
	return b.add(&Attribute{Name: name, Type: nested.Name, Metadata: Metadata{Description: description}, Schema: nested})
}

// List declares an array attribute whose elements are objects described by items.
func (b *Builder) List(name, description string, items *Descriptor) *Builder {
	return b.add(&Attribute{Name: name, Type: TypeList, Metadata: Metadata{Description: description}, Items: items})
}

// Build returns the descriptor, or an error when an attribute was declared twice.
func (b *Builder) Build() (*Descriptor, error) {
	if b.err != nil {
		return nil, b.err
	}

	return b.descriptor, nil
}

// MustBuild is Build panicking on error, for package-level descriptors.
func (b *Builder) MustBuild() *Descriptor {
	d, err := b.Build()
	if err != nil {
		panic(err)
	}

	return d
}
