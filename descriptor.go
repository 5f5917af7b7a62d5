package victionary

import (
	"github.com/villagesql/victionary/vef"
)

// Implementation tags for TypeDescriptor. Tag values are persisted in
// column metadata elsewhere and must stay stable.
const (
	ImplExtension byte = 1 // backed by a loaded extension module
	ImplBuiltin   byte = 2 // built into the host
)

// TypeDescriptor is the immutable runtime descriptor of one custom type:
// identity plus the function references that operate on its binary form.
// Built once from a validated registration and never mutated; consumers
// share the one cache-owned instance and compare by pointer.
type TypeDescriptor struct {
	key     TypeDescriptorKey
	implTag byte

	persistedLength       int64
	maxDecodeBufferLength int64

	encode  vef.EncodeFunc
	decode  vef.DecodeFunc
	compare vef.CompareFunc
	hash    vef.HashFunc // nil when the extension provides none
}

// NewTypeDescriptor builds a descriptor from one type entry of a validated
// registration.
func NewTypeDescriptor(key TypeDescriptorKey, implTag byte, td *vef.TypeDesc) *TypeDescriptor {
	return &TypeDescriptor{
		key:                   key,
		implTag:               implTag,
		persistedLength:       td.PersistedLength,
		maxDecodeBufferLength: td.MaxDecodeBufferLength,
		encode:                td.Encode,
		decode:                td.Decode,
		compare:               td.Compare,
		hash:                  td.Hash,
	}
}

func (d *TypeDescriptor) Key() TypeDescriptorKey   { return d.key }
func (d *TypeDescriptor) TypeName() string         { return d.key.TypeName() }
func (d *TypeDescriptor) ExtensionName() string    { return d.key.ExtensionName() }
func (d *TypeDescriptor) ExtensionVersion() string { return d.key.ExtensionVersion() }
func (d *TypeDescriptor) ImplTag() byte            { return d.implTag }

// PersistedLength is the fixed binary width, or negative for variable
// length.
func (d *TypeDescriptor) PersistedLength() int64 { return d.persistedLength }

// FixedWidth reports whether the binary form has a fixed width.
func (d *TypeDescriptor) FixedWidth() bool { return d.persistedLength >= 0 }

func (d *TypeDescriptor) MaxDecodeBufferLength() int64 { return d.maxDecodeBufferLength }

// Ops returns the callable operations of this type. The descriptor's own
// function references stay private so that the NULL sentinel and the hash
// fallback cannot be bypassed.
func (d *TypeDescriptor) Ops() TypeOps { return TypeOps{desc: d} }

// ExtensionDescriptor is the immutable runtime descriptor of one loaded
// extension: identity plus the module's realized registration table. The
// loaded-code handle behind the registration belongs to the external
// loader, not to this descriptor.
type ExtensionDescriptor struct {
	key ExtensionDescriptorKey
	reg *vef.Registration
}

func NewExtensionDescriptor(key ExtensionDescriptorKey, reg *vef.Registration) *ExtensionDescriptor {
	return &ExtensionDescriptor{key: key, reg: reg}
}

func (d *ExtensionDescriptor) Key() ExtensionDescriptorKey     { return d.key }
func (d *ExtensionDescriptor) Name() string                    { return d.key.Name() }
func (d *ExtensionDescriptor) Version() string                 { return d.key.Version() }
func (d *ExtensionDescriptor) Registration() *vef.Registration { return d.reg }

// Func looks up one exported function by case-insensitive name.
func (d *ExtensionDescriptor) Func(name string) *vef.FuncDesc {
	want := normalizeIdent(name)
	for _, fd := range d.reg.Funcs {
		if normalizeIdent(fd.Name) == want {
			return fd
		}
	}
	return nil
}

// TypeContext is one cached parameterized instantiation of a type. It holds
// a non-owning reference to the cache-owned TypeDescriptor; the reference
// is valid for as long as the caller holds the shared lock under which the
// context was acquired.
type TypeContext struct {
	key  TypeContextKey
	desc *TypeDescriptor
}

func (c *TypeContext) Key() TypeContextKey         { return c.key }
func (c *TypeContext) Parameters() TypeParameters  { return c.key.Parameters() }
func (c *TypeContext) Descriptor() *TypeDescriptor { return c.desc }
