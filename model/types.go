package model

// Kind discriminates the type-node variant.
type Kind string

const (
	KindUInt8     Kind = "u8"
	KindInt8      Kind = "i8"
	KindUInt16    Kind = "u16"
	KindInt16     Kind = "i16"
	KindUInt32    Kind = "u32"
	KindInt32     Kind = "i32"
	KindUInt64    Kind = "u64"
	KindInt64     Kind = "i64"
	KindFloat32   Kind = "f32"
	KindFloat64   Kind = "f64"
	KindBoolean   Kind = "bool"
	KindString    Kind = "string"
	KindBytes     Kind = "bytes"
	KindDuration  Kind = "duration"
	KindTimestamp Kind = "timestamp"

	KindOptional Kind = "optional"
	KindSequence Kind = "sequence"
	KindMap      Kind = "map"

	KindEnum              Kind = "enum"
	KindRecord            Kind = "record"
	KindObject            Kind = "object"
	KindCallbackInterface Kind = "callback-interface"
	KindCustom            Kind = "custom"
)

// ObjectImpl identifies how an object type is implemented on the native side.
type ObjectImpl string

const (
	// ImplStruct is a plain native-backed object owning an opaque handle.
	ImplStruct ObjectImpl = "struct"
	// ImplTrait is an interface with exactly one allowed concrete
	// implementation, the native-backed one.
	ImplTrait ObjectImpl = "trait"
	// ImplCallbackTrait is implemented by the host language and invoked
	// from the native side.
	ImplCallbackTrait ObjectImpl = "callback-trait"
)

// Type is a recursive type node. Exactly the fields relevant to Kind are
// set: Inner for optional/sequence, Key/Value for map, Name (and Impl for
// objects) for named references.
type Type struct {
	Inner *Type      `json:"inner,omitempty"`
	Key   *Type      `json:"key,omitempty"`
	Value *Type      `json:"value,omitempty"`
	Name  string     `json:"name,omitempty"`
	Impl  ObjectImpl `json:"impl,omitempty"`
	Kind  Kind       `json:"kind"`
}

// IsPrimitive reports whether the node is a fixed-layout scalar or buffer
// kind with no inner structure.
func (t Type) IsPrimitive() bool {
	switch t.Kind {
	case KindUInt8, KindInt8, KindUInt16, KindInt16,
		KindUInt32, KindInt32, KindUInt64, KindInt64,
		KindFloat32, KindFloat64, KindBoolean,
		KindString, KindBytes, KindDuration, KindTimestamp:
		return true
	}
	return false
}

// IsNamed reports whether the node refers to a declared definition by name.
func (t Type) IsNamed() bool {
	switch t.Kind {
	case KindEnum, KindRecord, KindObject, KindCallbackInterface, KindCustom:
		return true
	}
	return false
}

// Convenience constructors used by tests and the WIT adapter.

func U8() Type        { return Type{Kind: KindUInt8} }
func I8() Type        { return Type{Kind: KindInt8} }
func U16() Type       { return Type{Kind: KindUInt16} }
func I16() Type       { return Type{Kind: KindInt16} }
func U32() Type       { return Type{Kind: KindUInt32} }
func I32() Type       { return Type{Kind: KindInt32} }
func U64() Type       { return Type{Kind: KindUInt64} }
func I64() Type       { return Type{Kind: KindInt64} }
func F32() Type       { return Type{Kind: KindFloat32} }
func F64() Type       { return Type{Kind: KindFloat64} }
func Bool() Type      { return Type{Kind: KindBoolean} }
func String() Type    { return Type{Kind: KindString} }
func Bytes() Type     { return Type{Kind: KindBytes} }
func Duration() Type  { return Type{Kind: KindDuration} }
func Timestamp() Type { return Type{Kind: KindTimestamp} }

func Optional(inner Type) Type { return Type{Kind: KindOptional, Inner: &inner} }
func Sequence(inner Type) Type { return Type{Kind: KindSequence, Inner: &inner} }
func Map(key, value Type) Type { return Type{Kind: KindMap, Key: &key, Value: &value} }

func EnumRef(name string) Type   { return Type{Kind: KindEnum, Name: name} }
func RecordRef(name string) Type { return Type{Kind: KindRecord, Name: name} }
func ObjectRef(name string, impl ObjectImpl) Type {
	return Type{Kind: KindObject, Name: name, Impl: impl}
}
func CallbackRef(name string) Type { return Type{Kind: KindCallbackInterface, Name: name} }
func CustomRef(name string) Type   { return Type{Kind: KindCustom, Name: name} }
