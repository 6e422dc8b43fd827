package model

import (
	"strings"
	"unicode"
)

// Field is a named, typed member of a record or enum variant.
type Field struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Argument is a named, typed callable parameter.
type Argument struct {
	Name string `json:"name"`
	Type Type   `json:"type"`
}

// Variant is one case of an enum. A variant with no fields carries only its
// tag on the wire.
type Variant struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields,omitempty"`
}

// Enum is a declared enum definition. Tags are 1-based in declaration order.
type Enum struct {
	Name     string     `json:"name"`
	Variants []*Variant `json:"variants"`
}

// IsFlat reports whether no variant carries a payload, in which case the
// enum encodes as a bare tag.
func (e *Enum) IsFlat() bool {
	for _, v := range e.Variants {
		if len(v.Fields) > 0 {
			return false
		}
	}
	return true
}

// Record is a declared record definition: fields encoded sequentially in
// declaration order.
type Record struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
}

// Method is a member function of an object or callback interface.
type Method struct {
	Name string      `json:"name"`
	Args []*Argument `json:"args,omitempty"`
	// Return is nil for void methods.
	Return *Type `json:"return,omitempty"`
	// Throws names the declared error type, empty when the method cannot
	// fail with a library error.
	Throws string `json:"throws,omitempty"`
	Async  bool   `json:"async,omitempty"`

	// Native entry points declared by the frontend.
	FFISymbol     string `json:"ffi_symbol,omitempty"`
	FFIPoll       string `json:"ffi_poll,omitempty"`
	FFIComplete   string `json:"ffi_complete,omitempty"`
	FFIFreeFuture string `json:"ffi_free_future,omitempty"`
}

// Constructor creates an object instance. The constructor named "new" is the
// unnamed host-language constructor.
type Constructor struct {
	Name      string      `json:"name"`
	Args      []*Argument `json:"args,omitempty"`
	Throws    string      `json:"throws,omitempty"`
	FFISymbol string      `json:"ffi_symbol,omitempty"`
}

// TraitKind identifies a built-in trait implementation on an object.
type TraitKind string

const (
	TraitDisplay TraitKind = "display"
	TraitDebug   TraitKind = "debug"
	TraitEq      TraitKind = "eq"
	TraitHash    TraitKind = "hash"
)

// Trait is a built-in trait implementation backed by a hidden native method.
type Trait struct {
	Kind   TraitKind `json:"kind"`
	Method *Method   `json:"method"`
}

// Object is a declared object definition: an opaque native handle with
// lifecycle, or a trait abstraction over one.
type Object struct {
	Name         string         `json:"name"`
	Impl         ObjectImpl     `json:"impl"`
	Constructors []*Constructor `json:"constructors,omitempty"`
	Methods      []*Method      `json:"methods,omitempty"`
	Traits       []*Trait       `json:"traits,omitempty"`
	FFIClone     string         `json:"ffi_clone,omitempty"`
	FFIFree      string         `json:"ffi_free,omitempty"`
	// FFIInit registers the vtable for host-implemented trait objects.
	FFIInit string `json:"ffi_init,omitempty"`
}

// HasCallbackInterface reports whether the object is host-implemented and
// invoked from the native side.
func (o *Object) HasCallbackInterface() bool { return o.Impl == ImplCallbackTrait }

// IsTraitInterface reports whether the object is a trait abstraction with a
// single allowed native implementation.
func (o *Object) IsTraitInterface() bool { return o.Impl == ImplTrait }

// AsType returns the type node referring to this object.
func (o *Object) AsType() Type { return ObjectRef(o.Name, o.Impl) }

// CallbackInterface is a host-implemented contract the native side calls
// back into through a function-pointer vtable.
type CallbackInterface struct {
	Name    string    `json:"name"`
	Methods []*Method `json:"methods"`
	// FFIInit registers the vtable with the native side.
	FFIInit string `json:"ffi_init,omitempty"`
}

// Function is a free function exported by the library.
type Function struct {
	Name          string      `json:"name"`
	Args          []*Argument `json:"args,omitempty"`
	Return        *Type       `json:"return,omitempty"`
	Throws        string      `json:"throws,omitempty"`
	Async         bool        `json:"async,omitempty"`
	FFISymbol     string      `json:"ffi_symbol,omitempty"`
	FFIPoll       string      `json:"ffi_poll,omitempty"`
	FFIComplete   string      `json:"ffi_complete,omitempty"`
	FFIFreeFuture string      `json:"ffi_free_future,omitempty"`
}

// Definitions is the arena of declarations by name for one library.
type Definitions struct {
	// Namespace is the library's module identifier.
	Namespace string `json:"namespace"`
	// FFIModule is the symbol-name infix for native entry points. Defaults
	// to Namespace.
	FFIModule string `json:"ffi_module,omitempty"`

	Enums     []*Enum              `json:"enums,omitempty"`
	Records   []*Record            `json:"records,omitempty"`
	Objects   []*Object            `json:"objects,omitempty"`
	Callbacks []*CallbackInterface `json:"callbacks,omitempty"`
	Functions []*Function          `json:"functions,omitempty"`

	// ErrorNames lists type names declared as throws-types.
	ErrorNames []string `json:"error_names,omitempty"`

	enums     map[string]*Enum
	records   map[string]*Record
	objects   map[string]*Object
	callbacks map[string]*CallbackInterface
	errors    map[string]bool
}

// Enum returns the enum definition with the given declared name.
func (d *Definitions) Enum(name string) (*Enum, bool) {
	d.index()
	e, ok := d.enums[name]
	return e, ok
}

// Record returns the record definition with the given declared name.
func (d *Definitions) Record(name string) (*Record, bool) {
	d.index()
	r, ok := d.records[name]
	return r, ok
}

// Object returns the object definition with the given declared name.
func (d *Definitions) Object(name string) (*Object, bool) {
	d.index()
	o, ok := d.objects[name]
	return o, ok
}

// Callback returns the callback interface definition with the given name.
func (d *Definitions) Callback(name string) (*CallbackInterface, bool) {
	d.index()
	c, ok := d.callbacks[name]
	return c, ok
}

// IsErrorName reports whether the named type is used as a throws-type.
func (d *Definitions) IsErrorName(name string) bool {
	d.index()
	return d.errors[name]
}

func (d *Definitions) index() {
	if d.enums != nil {
		return
	}
	d.enums = make(map[string]*Enum, len(d.Enums))
	for _, e := range d.Enums {
		d.enums[e.Name] = e
	}
	d.records = make(map[string]*Record, len(d.Records))
	for _, r := range d.Records {
		d.records[r.Name] = r
	}
	d.objects = make(map[string]*Object, len(d.Objects))
	for _, o := range d.Objects {
		d.objects[o.Name] = o
	}
	d.callbacks = make(map[string]*CallbackInterface, len(d.Callbacks))
	for _, c := range d.Callbacks {
		d.callbacks[c.Name] = c
	}
	d.errors = make(map[string]bool, len(d.ErrorNames))
	for _, n := range d.ErrorNames {
		d.errors[n] = true
	}
}

// Finalize fills in default native entry-point names for any callable the
// frontend left unnamed, using the conventional symbol scheme. Frontends
// that declare explicit symbols are left untouched.
func (d *Definitions) Finalize() {
	if d.FFIModule == "" {
		d.FFIModule = strings.ReplaceAll(d.Namespace, "-", "_")
	}
	mod := d.FFIModule

	for _, f := range d.Functions {
		if f.FFISymbol == "" {
			f.FFISymbol = "uniffi_" + mod + "_fn_func_" + toSnake(f.Name)
		}
		fillFutureSymbols(mod, f.Return, f.Async, &f.FFIPoll, &f.FFIComplete, &f.FFIFreeFuture)
	}

	for _, o := range d.Objects {
		snake := toSnake(o.Name)
		if o.FFIClone == "" {
			o.FFIClone = "uniffi_" + mod + "_fn_clone_" + snake
		}
		if o.FFIFree == "" {
			o.FFIFree = "uniffi_" + mod + "_fn_free_" + snake
		}
		for _, c := range o.Constructors {
			if c.FFISymbol == "" {
				c.FFISymbol = "uniffi_" + mod + "_fn_constructor_" + snake + "_" + toSnake(c.Name)
			}
		}
		for _, m := range o.Methods {
			if m.FFISymbol == "" {
				m.FFISymbol = "uniffi_" + mod + "_fn_method_" + snake + "_" + toSnake(m.Name)
			}
			fillFutureSymbols(mod, m.Return, m.Async, &m.FFIPoll, &m.FFIComplete, &m.FFIFreeFuture)
		}
		for _, tr := range o.Traits {
			if tr.Method != nil && tr.Method.FFISymbol == "" {
				tr.Method.FFISymbol = "uniffi_" + mod + "_fn_method_" + snake + "_uniffi_trait_" + string(tr.Kind)
			}
		}
		if o.Impl == ImplCallbackTrait && o.FFIInit == "" {
			o.FFIInit = "uniffi_" + mod + "_fn_init_callback_vtable_" + strings.ToLower(snake)
		}
	}

	for _, cb := range d.Callbacks {
		if cb.FFIInit == "" {
			cb.FFIInit = "uniffi_" + mod + "_fn_init_callback_vtable_" + strings.ToLower(toSnake(cb.Name))
		}
		for _, m := range cb.Methods {
			if m.FFISymbol == "" {
				m.FFISymbol = "uniffi_" + mod + "_fn_callback_" + toSnake(cb.Name) + "_" + toSnake(m.Name)
			}
		}
	}
}

func fillFutureSymbols(mod string, ret *Type, async bool, poll, complete, free *string) {
	if !async {
		return
	}
	suffix := futureKindSuffix(ret)
	if *poll == "" {
		*poll = "ffi_" + mod + "_rust_future_poll_" + suffix
	}
	if *complete == "" {
		*complete = "ffi_" + mod + "_rust_future_complete_" + suffix
	}
	if *free == "" {
		*free = "ffi_" + mod + "_rust_future_free_" + suffix
	}
}

// futureKindSuffix maps a return type to the shared future entry-point
// family for its wire representation.
func futureKindSuffix(ret *Type) string {
	if ret == nil {
		return "void"
	}
	switch ret.Kind {
	case KindUInt8, KindBoolean:
		return "u8"
	case KindInt8:
		return "i8"
	case KindUInt16:
		return "u16"
	case KindInt16:
		return "i16"
	case KindUInt32:
		return "u32"
	case KindInt32:
		return "i32"
	case KindUInt64:
		return "u64"
	case KindInt64, KindDuration, KindTimestamp:
		return "i64"
	case KindFloat32:
		return "f32"
	case KindFloat64:
		return "f64"
	case KindObject:
		return "pointer"
	default:
		return "rust_buffer"
	}
}

// toSnake converts camelCase, PascalCase or kebab-case to snake_case.
// Already-snake input passes through unchanged.
func toSnake(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	prevLower := false
	for _, r := range name {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
			prevLower = false
		case unicode.IsUpper(r):
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
		}
	}
	return b.String()
}
