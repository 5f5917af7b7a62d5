package vef

import "sync"

// Builders assemble registrations through value-receiver chaining: every
// step returns a modified copy, so partial chains can be held in variables
// and reused without aliasing. Shared slices are copied on append for the
// same reason.

// TypeBuilder accumulates one custom type. Start with NewType, finish with
// Build.
type TypeBuilder struct {
	desc TypeDesc
}

// NewType starts a type builder. The default persisted length is variable.
func NewType(name string) TypeBuilder {
	return TypeBuilder{desc: TypeDesc{
		Protocol:        Latest,
		Name:            name,
		PersistedLength: VariableLength,
	}}
}

// PersistedLength fixes the binary width; pass VariableLength for
// variable-width types.
func (b TypeBuilder) PersistedLength(n int64) TypeBuilder {
	b.desc.PersistedLength = n
	return b
}

// MaxDecodeBufferLength bounds the text form produced by decode.
func (b TypeBuilder) MaxDecodeBufferLength(n int64) TypeBuilder {
	b.desc.MaxDecodeBufferLength = n
	return b
}

func (b TypeBuilder) Encode(f EncodeFunc) TypeBuilder {
	b.desc.Encode = f
	return b
}

func (b TypeBuilder) Decode(f DecodeFunc) TypeBuilder {
	b.desc.Decode = f
	return b
}

func (b TypeBuilder) Compare(f CompareFunc) TypeBuilder {
	b.desc.Compare = f
	return b
}

func (b TypeBuilder) Hash(f HashFunc) TypeBuilder {
	b.desc.Hash = f
	return b
}

// Build finalizes the descriptor. The result is independent of the builder.
func (b TypeBuilder) Build() *TypeDesc {
	d := b.desc
	return &d
}

// FuncBuilder accumulates one function. Start with NewFunc, finish with one
// of the terminal methods.
type FuncBuilder struct {
	desc FuncDesc
}

// NewFunc starts a function builder with no parameters and a string return.
func NewFunc(name string) FuncBuilder {
	return FuncBuilder{desc: FuncDesc{
		Protocol:  Latest,
		Name:      name,
		Signature: Signature{Return: StringType},
	}}
}

// Returns sets the return type.
func (b FuncBuilder) Returns(t Type) FuncBuilder {
	b.desc.Signature.Return = t
	return b
}

// Param appends one parameter type.
func (b FuncBuilder) Param(t Type) FuncBuilder {
	params := make([]Type, len(b.desc.Signature.Params), len(b.desc.Signature.Params)+1)
	copy(params, b.desc.Signature.Params)
	b.desc.Signature.Params = append(params, t)
	return b
}

// BufferSize sets the minimum output buffer size for string/custom results.
func (b FuncBuilder) BufferSize(n uint64) FuncBuilder {
	b.desc.BufferSize = n
	return b
}

func (b FuncBuilder) Prerun(f PrerunFunc) FuncBuilder {
	b.desc.Prerun = f
	return b
}

func (b FuncBuilder) Postrun(f PostrunFunc) FuncBuilder {
	b.desc.Postrun = f
	return b
}

// Impl sets the per-row implementation and finalizes the descriptor.
func (b FuncBuilder) Impl(f DispatchFunc) *FuncDesc {
	b.desc.Call = f
	d := b.desc
	return &d
}

// FromString finalizes a conversion function string -> custom, implemented
// directly by an encode function. A NullLength return becomes a NULL result.
func (b FuncBuilder) FromString(customType string, encode EncodeFunc) *FuncDesc {
	b.desc.Signature = Signature{
		Params: []Type{StringType},
		Return: CustomType(customType),
	}
	return b.Impl(func(ctx *Context, args *CallArgs, result *Result) {
		in := &args.Values[0]
		if in.Null {
			result.Kind = ResultNull
			return
		}
		n, err := encode(result.Buf, in.Str)
		finishConversion(result, n, err)
	})
}

// ToString finalizes a conversion function custom -> string, implemented
// directly by a decode function.
func (b FuncBuilder) ToString(customType string, decode DecodeFunc) *FuncDesc {
	b.desc.Signature = Signature{
		Params: []Type{CustomType(customType)},
		Return: StringType,
	}
	return b.Impl(func(ctx *Context, args *CallArgs, result *Result) {
		in := &args.Values[0]
		if in.Null {
			result.Kind = ResultNull
			return
		}
		n, err := decode(result.Buf, in.Bin)
		finishConversion(result, n, err)
	})
}

func finishConversion(result *Result, n uint64, err error) {
	switch {
	case err != nil:
		result.Kind = ResultError
		result.ErrMsg = err.Error()
	case n == NullLength:
		result.Kind = ResultNull
	default:
		result.Kind = ResultValue
		result.ActualLen = n
	}
}

// ExtensionBuilder accumulates a whole registration. Start with
// NewExtension, finish with Build or Module.
type ExtensionBuilder struct {
	reg Registration
}

// NewExtension starts an extension builder. Version must be semver text; it
// is validated at registration time, not here.
func NewExtension(name, version string) ExtensionBuilder {
	return ExtensionBuilder{reg: Registration{
		Protocol: Latest,
		Name:     name,
		Version:  version,
	}}
}

// Type appends one custom type.
func (b ExtensionBuilder) Type(td *TypeDesc) ExtensionBuilder {
	types := make([]*TypeDesc, len(b.reg.Types), len(b.reg.Types)+1)
	copy(types, b.reg.Types)
	b.reg.Types = append(types, td)
	return b
}

// Func appends one function.
func (b ExtensionBuilder) Func(fd *FuncDesc) ExtensionBuilder {
	funcs := make([]*FuncDesc, len(b.reg.Funcs), len(b.reg.Funcs)+1)
	copy(funcs, b.reg.Funcs)
	b.reg.Funcs = append(funcs, fd)
	return b
}

// Build finalizes the registration.
func (b ExtensionBuilder) Build() *Registration {
	r := b.reg
	return &r
}

// Module wraps the registration into the two entry points the loader
// expects. Register memoizes, so repeated calls return the same table;
// unregister is a no-op since builder-made extensions hold no resources.
func (b ExtensionBuilder) Module() Module {
	var once sync.Once
	var reg *Registration
	return Module{
		Register: func(arg *RegisterArg) *Registration {
			once.Do(func() {
				reg = b.Build()
				reg.SDKVersion = arg.SDKVersion
			})
			return reg
		},
		Unregister: func(arg *UnregisterArg, reg *Registration) {},
	}
}
