package model

import (
	"strings"
	"testing"
)

const sampleModel = `{
  "namespace": "todolist",
  "enums": [
    {
      "name": "TodoError",
      "variants": [
        {"name": "EmptyString"},
        {"name": "DuplicateTodo", "fields": [{"name": "entry", "type": {"kind": "string"}}]}
      ]
    }
  ],
  "records": [
    {
      "name": "TodoEntry",
      "fields": [
        {"name": "text", "type": {"kind": "string"}},
        {"name": "done", "type": {"kind": "bool"}}
      ]
    }
  ],
  "objects": [
    {
      "name": "TodoList",
      "impl": "struct",
      "constructors": [{"name": "new"}],
      "methods": [
        {"name": "addEntry", "args": [{"name": "entry", "type": {"kind": "record", "name": "TodoEntry"}}], "throws": "TodoError"},
        {"name": "entries", "return": {"kind": "sequence", "inner": {"kind": "record", "name": "TodoEntry"}}}
      ]
    }
  ],
  "callbacks": [
    {"name": "ChangeListener", "methods": [{"name": "onChange"}]}
  ],
  "error_names": ["TodoError"]
}`

func TestLoad(t *testing.T) {
	d, err := Load(strings.NewReader(sampleModel))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if d.Namespace != "todolist" {
		t.Errorf("namespace = %q", d.Namespace)
	}
	if d.FFIModule != "todolist" {
		t.Errorf("ffi module = %q", d.FFIModule)
	}

	e, ok := d.Enum("TodoError")
	if !ok {
		t.Fatal("TodoError not found")
	}
	if e.IsFlat() {
		t.Error("TodoError has a payload variant, should not be flat")
	}
	if !d.IsErrorName("TodoError") {
		t.Error("TodoError should be an error name")
	}

	obj, ok := d.Object("TodoList")
	if !ok {
		t.Fatal("TodoList not found")
	}
	if obj.Impl != ImplStruct {
		t.Errorf("impl = %q", obj.Impl)
	}
	if len(obj.Methods) != 2 {
		t.Fatalf("methods = %d", len(obj.Methods))
	}

	add := obj.Methods[0]
	if add.Throws != "TodoError" {
		t.Errorf("throws = %q", add.Throws)
	}
	if add.Args[0].Type.Kind != KindRecord || add.Args[0].Type.Name != "TodoEntry" {
		t.Errorf("arg type = %+v", add.Args[0].Type)
	}
	if add.FFISymbol != "uniffi_todolist_fn_method_todolist_add_entry" {
		t.Errorf("symbol = %q", add.FFISymbol)
	}

	entries := obj.Methods[1]
	if entries.Return == nil || entries.Return.Kind != KindSequence {
		t.Fatalf("return = %+v", entries.Return)
	}
	if entries.Return.Inner.Kind != KindRecord {
		t.Errorf("inner = %+v", entries.Return.Inner)
	}
}

func TestLoadRejectsMissingNamespace(t *testing.T) {
	if _, err := Load(strings.NewReader(`{}`)); err == nil {
		t.Error("expected error for model without namespace")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"namespace": "x", "bogus": 1}`)); err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"namespace": `)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
