package model

import "testing"

func TestEnumIsFlat(t *testing.T) {
	flat := &Enum{
		Name: "Direction",
		Variants: []*Variant{
			{Name: "north"}, {Name: "south"},
		},
	}
	if !flat.IsFlat() {
		t.Error("enum without payloads should be flat")
	}

	withPayload := &Enum{
		Name: "Shape",
		Variants: []*Variant{
			{Name: "point"},
			{Name: "circle", Fields: []*Field{{Name: "radius", Type: F64()}}},
		},
	}
	if withPayload.IsFlat() {
		t.Error("enum with a payload variant should not be flat")
	}
}

func TestDefinitionsLookups(t *testing.T) {
	d := &Definitions{
		Namespace:  "geometry",
		Enums:      []*Enum{{Name: "Shape"}},
		Records:    []*Record{{Name: "Point"}},
		Objects:    []*Object{{Name: "Canvas", Impl: ImplStruct}},
		Callbacks:  []*CallbackInterface{{Name: "Observer"}},
		ErrorNames: []string{"GeometryError"},
	}

	if _, ok := d.Enum("Shape"); !ok {
		t.Error("Enum lookup failed")
	}
	if _, ok := d.Record("Point"); !ok {
		t.Error("Record lookup failed")
	}
	if _, ok := d.Object("Canvas"); !ok {
		t.Error("Object lookup failed")
	}
	if _, ok := d.Callback("Observer"); !ok {
		t.Error("Callback lookup failed")
	}
	if !d.IsErrorName("GeometryError") {
		t.Error("IsErrorName should report declared error names")
	}
	if d.IsErrorName("Shape") {
		t.Error("IsErrorName should reject non-error names")
	}
	if _, ok := d.Enum("Missing"); ok {
		t.Error("lookup of unknown enum should fail")
	}
}

func TestFinalizeFillsEntryPoints(t *testing.T) {
	d := &Definitions{
		Namespace: "my-lib",
		Objects: []*Object{{
			Name: "Counter",
			Impl: ImplStruct,
			Constructors: []*Constructor{
				{Name: "new"},
			},
			Methods: []*Method{
				{Name: "increment"},
				{Name: "currentValue", Return: typePtr(U64()), Async: true},
			},
		}},
		Functions: []*Function{
			{Name: "make_counter", Return: typePtr(ObjectRef("Counter", ImplStruct))},
		},
		Callbacks: []*CallbackInterface{{
			Name:    "Notifier",
			Methods: []*Method{{Name: "notify"}},
		}},
	}
	d.Finalize()

	if d.FFIModule != "my_lib" {
		t.Errorf("FFIModule = %q, want my_lib", d.FFIModule)
	}

	obj := d.Objects[0]
	if obj.FFIClone != "uniffi_my_lib_fn_clone_counter" {
		t.Errorf("FFIClone = %q", obj.FFIClone)
	}
	if obj.FFIFree != "uniffi_my_lib_fn_free_counter" {
		t.Errorf("FFIFree = %q", obj.FFIFree)
	}
	if got := obj.Constructors[0].FFISymbol; got != "uniffi_my_lib_fn_constructor_counter_new" {
		t.Errorf("constructor symbol = %q", got)
	}
	if got := obj.Methods[0].FFISymbol; got != "uniffi_my_lib_fn_method_counter_increment" {
		t.Errorf("method symbol = %q", got)
	}

	async := obj.Methods[1]
	if async.FFISymbol != "uniffi_my_lib_fn_method_counter_current_value" {
		t.Errorf("async method symbol = %q", async.FFISymbol)
	}
	if async.FFIPoll != "ffi_my_lib_rust_future_poll_u64" {
		t.Errorf("poll symbol = %q", async.FFIPoll)
	}
	if async.FFIComplete != "ffi_my_lib_rust_future_complete_u64" {
		t.Errorf("complete symbol = %q", async.FFIComplete)
	}
	if async.FFIFreeFuture != "ffi_my_lib_rust_future_free_u64" {
		t.Errorf("free symbol = %q", async.FFIFreeFuture)
	}

	if got := d.Functions[0].FFISymbol; got != "uniffi_my_lib_fn_func_make_counter" {
		t.Errorf("function symbol = %q", got)
	}
	if got := d.Callbacks[0].FFIInit; got != "uniffi_my_lib_fn_init_callback_vtable_notifier" {
		t.Errorf("callback init symbol = %q", got)
	}
}

func TestFinalizeKeepsDeclaredSymbols(t *testing.T) {
	d := &Definitions{
		Namespace: "lib",
		Functions: []*Function{
			{Name: "go", FFISymbol: "custom_symbol"},
		},
	}
	d.Finalize()
	if d.Functions[0].FFISymbol != "custom_symbol" {
		t.Errorf("declared symbol overwritten: %q", d.Functions[0].FFISymbol)
	}
}

func TestFutureKindSuffix(t *testing.T) {
	tests := []struct {
		ret  *Type
		want string
	}{
		{nil, "void"},
		{typePtr(U8()), "u8"},
		{typePtr(Bool()), "u8"},
		{typePtr(I64()), "i64"},
		{typePtr(Duration()), "i64"},
		{typePtr(F32()), "f32"},
		{typePtr(ObjectRef("O", ImplStruct)), "pointer"},
		{typePtr(String()), "rust_buffer"},
		{typePtr(Sequence(U32())), "rust_buffer"},
	}
	for _, tt := range tests {
		if got := futureKindSuffix(tt.ret); got != tt.want {
			t.Errorf("futureKindSuffix(%v) = %q, want %q", tt.ret, got, tt.want)
		}
	}
}

func TestToSnake(t *testing.T) {
	tests := []struct{ in, want string }{
		{"already_snake", "already_snake"},
		{"camelCase", "camel_case"},
		{"PascalCase", "pascal_case"},
		{"kebab-case", "kebab_case"},
		{"HTTPServer", "httpserver"},
		{"value2", "value2"},
	}
	for _, tt := range tests {
		if got := toSnake(tt.in); got != tt.want {
			t.Errorf("toSnake(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func typePtr(t Type) *Type { return &t }
