// Package vef defines the extension framework boundary: the versioned
// registration structs an extension module hands to the host, the function
// signatures the host calls back through, and the chainable builders
// extension authors use to assemble them.
//
// The boundary stays deliberately flat: plain function values over
// fixed-layout structs of primitive fields, so that independently built
// modules agree on the shape. Host-side code should not touch these
// function references directly; the root package wraps them behind typed
// capabilities.
package vef

import (
	"fmt"

	"github.com/villagesql/victionary/semver"
)

// Protocol identifies the layout of a registration struct. The host accepts
// exactly the protocols it knows; anything else fails the load.
type Protocol uint32

const (
	Protocol0 Protocol = iota // reserved, never valid
	Protocol1
)

// Latest is the protocol this host speaks.
const Latest = Protocol1

// NullLength is the reserved bytes-written value an encode function returns
// to signal that the encoded value is SQL NULL rather than bytes.
const NullLength = ^uint64(0)

// VariableLength as a persisted length marks a type whose binary form has no
// fixed width. Any negative persisted length means variable; this is the
// canonical value.
const VariableLength int64 = -1

// TypeID tags the payload of a Value and the shape of parameter/return types.
type TypeID int

const (
	String TypeID = iota
	Real
	Int
	Custom
)

func (id TypeID) String() string {
	switch id {
	case String:
		return "string"
	case Real:
		return "real"
	case Int:
		return "int"
	case Custom:
		return "custom"
	}
	return fmt.Sprintf("TypeID(%d)", int(id))
}

// Type is a parameter or return type in a function signature.
type Type struct {
	ID TypeID

	// CustomType is the bare type name, set only when ID == Custom. It must
	// refer to a type defined by the same extension.
	CustomType string
}

var (
	StringType = Type{ID: String}
	RealType   = Type{ID: Real}
	IntType    = Type{ID: Int}
)

// CustomType names a custom type defined by the same extension.
func CustomType(name string) Type {
	return Type{ID: Custom, CustomType: name}
}

// Signature describes a function's ordered parameter types and return type.
type Signature struct {
	Params []Type
	Return Type
}

// Fixed-signature type operations. These are the four functions a custom
// type provides; their signatures are implicit in the slot they fill.

// EncodeFunc writes the persisted binary form of the text from into buf and
// returns the number of bytes written, or NullLength to make the value SQL
// NULL. Returning an error fails the statement; the error must not escape
// through any other channel. When multiple binary encodings of a value exist
// (distinct zero representations and the like), encode must pick a canonical
// one, because the host may hash raw persisted bytes.
type EncodeFunc func(buf []byte, from []byte) (uint64, error)

// DecodeFunc is the inverse of EncodeFunc: it renders the binary form data
// as text into to and returns the number of bytes written.
type DecodeFunc func(to []byte, data []byte) (uint64, error)

// CompareFunc three-way compares two persisted binary values, always ascending;
// descending order is the caller's concern.
type CompareFunc func(a, b []byte) int

// HashFunc hashes one persisted binary value. Optional; when absent the host
// hashes the raw bytes itself.
type HashFunc func(data []byte) uint64

// ResultKind tags the outcome of a dispatch call.
type ResultKind int

const (
	ResultValue ResultKind = iota
	ResultNull
	ResultError
)

// Value is one tagged input value for a generic-dispatch call. Check Null
// first; when set, the payload fields are meaningless.
type Value struct {
	Type Type
	Null bool

	Str  []byte // String payload (text)
	Bin  []byte // Custom payload (persisted binary form)
	Real float64
	Int  int64
}

// Result is the single tagged output slot of a dispatch call. For string and
// custom results the callee writes into Buf and sets ActualLen; it may
// instead point AltBuf at memory it owns, which must stay valid until the
// next call on the same statement.
type Result struct {
	Kind      ResultKind
	ActualLen uint64

	Buf    []byte
	AltBuf []byte
	Real   float64
	Int    int64

	ErrMsg string
}

// Bytes returns the payload of a string/custom result, honoring AltBuf.
func (r *Result) Bytes() []byte {
	if r.AltBuf != nil {
		return r.AltBuf[:r.ActualLen]
	}
	return r.Buf[:r.ActualLen]
}

// Context is passed to every dispatch, prerun and postrun call.
type Context struct {
	Protocol Protocol
}

// CallArgs carries the per-row inputs of a generic-dispatch call.
type CallArgs struct {
	// UserData is whatever the prerun hook stored, nil if no prerun ran.
	UserData any

	Values []Value
}

// DispatchFunc is the generic-dispatch implementation shape: called once per
// row with tagged inputs and one tagged output slot.
type DispatchFunc func(ctx *Context, args *CallArgs, result *Result)

// PrerunArgs describes the statement to the optional per-statement setup
// hook. Constant arguments arrive pre-serialized so the hook can validate or
// precompute; nil marks a non-constant argument.
type PrerunArgs struct {
	ArgTypes    []Type
	ConstValues [][]byte
}

// PrerunResult is filled in by the prerun hook.
type PrerunResult struct {
	Kind   ResultKind
	ErrMsg string

	// ResultBufferSize requests a specific output buffer size; 0 keeps the
	// default derived from the return type.
	ResultBufferSize uint64

	// UserData is carried to every dispatch call and to postrun.
	UserData any
}

type PrerunFunc func(ctx *Context, args *PrerunArgs, result *PrerunResult)

// PostrunArgs is passed to the optional per-statement teardown hook.
type PostrunArgs struct {
	UserData any
}

type PostrunFunc func(ctx *Context, args *PostrunArgs)

// TypeDesc describes one exported custom column type.
type TypeDesc struct {
	Protocol Protocol
	Name     string

	// PersistedLength is the binary width when stored; negative means
	// variable length.
	PersistedLength int64

	// MaxDecodeBufferLength bounds the text form for decode output buffers.
	MaxDecodeBufferLength int64

	Encode  EncodeFunc  // required
	Decode  DecodeFunc  // required
	Compare CompareFunc // required
	Hash    HashFunc    // optional
}

// FuncDesc describes one exported function.
type FuncDesc struct {
	Protocol  Protocol
	Name      string
	Signature Signature

	// Call is the per-row implementation.
	Call DispatchFunc

	// Optional per-statement hooks.
	Prerun  PrerunFunc
	Postrun PostrunFunc

	// BufferSize is the minimum output buffer size for string/custom
	// results; 0 uses the default.
	BufferSize uint64
}

// Registration is the self-describing table a module's register entry point
// returns.
type Registration struct {
	Protocol Protocol

	// ErrMsg is set by the module when registration itself failed.
	ErrMsg string

	Name       string
	Version    string // semver text
	SDKVersion semver.Version

	Types []*TypeDesc
	Funcs []*FuncDesc
}

// RegisterArg is passed to a module's register entry point. Protocol is the
// highest protocol the host speaks; the module must answer with a
// registration the host can understand.
type RegisterArg struct {
	Protocol    Protocol
	HostVersion semver.Version
	SDKVersion  semver.Version
}

// UnregisterArg is passed to a module's unregister entry point.
type UnregisterArg struct {
	Protocol Protocol
}

// RegisterFunc and UnregisterFunc are the two required module entry points.
// Unregister is called exactly once, before the loader unloads the module.
type (
	RegisterFunc   func(arg *RegisterArg) *Registration
	UnregisterFunc func(arg *UnregisterArg, reg *Registration)
)

// Module is a loaded module's resolved entry points, as supplied by the
// external loader.
type Module struct {
	Register   RegisterFunc
	Unregister UnregisterFunc
}

// Validate checks a registration the way the host must before trusting it:
// exact protocol match, a module-reported error, a usable name and version,
// and complete type/function entries. It never interprets an unknown
// protocol speculatively.
func Validate(reg *Registration) error {
	if reg == nil {
		return fmt.Errorf("vef: module returned no registration")
	}
	if reg.Protocol != Latest {
		return fmt.Errorf("vef: unsupported registration protocol %d (host expects %d)", reg.Protocol, Latest)
	}
	if reg.ErrMsg != "" {
		return fmt.Errorf("vef: module registration failed: %s", reg.ErrMsg)
	}
	if reg.Name == "" {
		return fmt.Errorf("vef: registration has no extension name")
	}
	if _, err := semver.Parse(reg.Version); err != nil {
		return fmt.Errorf("vef: extension %q: bad version: %w", reg.Name, err)
	}
	for _, td := range reg.Types {
		if err := validateType(td); err != nil {
			return fmt.Errorf("vef: extension %q: %w", reg.Name, err)
		}
	}
	for _, fd := range reg.Funcs {
		if err := validateFunc(fd); err != nil {
			return fmt.Errorf("vef: extension %q: %w", reg.Name, err)
		}
	}
	return nil
}

func validateType(td *TypeDesc) error {
	if td == nil {
		return fmt.Errorf("nil type entry")
	}
	if td.Protocol != Latest {
		return fmt.Errorf("type %q: unsupported protocol %d (host expects %d)", td.Name, td.Protocol, Latest)
	}
	if td.Name == "" {
		return fmt.Errorf("type entry has no name")
	}
	if td.Encode == nil || td.Decode == nil || td.Compare == nil {
		return fmt.Errorf("type %q: encode, decode and compare are required", td.Name)
	}
	if td.MaxDecodeBufferLength <= 0 {
		return fmt.Errorf("type %q: max decode buffer length must be positive", td.Name)
	}
	return nil
}

func validateFunc(fd *FuncDesc) error {
	if fd == nil {
		return fmt.Errorf("nil function entry")
	}
	if fd.Protocol != Latest {
		return fmt.Errorf("function %q: unsupported protocol %d (host expects %d)", fd.Name, fd.Protocol, Latest)
	}
	if fd.Name == "" {
		return fmt.Errorf("function entry has no name")
	}
	if fd.Call == nil {
		return fmt.Errorf("function %q: no implementation", fd.Name)
	}
	return nil
}
