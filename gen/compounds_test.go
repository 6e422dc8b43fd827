package gen

import (
	"strings"
	"testing"

	"github.com/dartffi/bindgen/model"
)

func TestRenderOptional(t *testing.T) {
	h := newTestHelper(t, nil)
	out := renderType(t, h, model.Optional(model.String()))
	for _, want := range []string{
		"class FfiConverterOptionalString {",
		"getInt8(0) == 0",
		"return LiftRetVal(null, 1);",
		"FfiConverterString.read(Uint8List.view(buf.buffer, buf.offsetInBytes + 1))",
		"toRustBuffer(Uint8List.fromList([0]))",
		"buf[0] = 1;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("optional codec missing %q", want)
		}
	}
	// The inner string codec must have been pulled in too.
	if !strings.Contains(out, "class FfiConverterString {") {
		t.Error("inner string codec not included")
	}
}

func TestRenderSequence(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.Sequence(model.U32()))
	for _, want := range []string{
		"class FfiConverterSequenceUInt32 {",
		"List<int> res = [];",
		"setInt32(0, value.length);",
		"FfiConverterUInt32.write(value[i]",
		".fold(0, (a, b) => a + b) + 4;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("sequence codec missing %q", want)
		}
	}
}

func TestRenderMap(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.Map(model.String(), model.I64()))
	for _, want := range []string{
		"class FfiConverterMapStringToInt64 {",
		"final map = <String, int>{};",
		"for (final entry in value.entries) {",
		"FfiConverterString.write(entry.key",
		"FfiConverterInt64.write(entry.value",
		".fold(4, (a, b) => a + b);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("map codec missing %q", want)
		}
	}
	if !strings.Contains(out, "class FfiConverterString {") || !strings.Contains(out, "class FfiConverterInt64 {") {
		t.Error("key and value codecs not included")
	}
}

func TestCompoundExceptionSafeNaming(t *testing.T) {
	defs := &model.Definitions{
		Namespace: "demo",
		FFIModule: "demo",
		Enums: []*model.Enum{
			{Name: "TodoError", Variants: []*model.Variant{{Name: "EmptyString"}, {Name: "DuplicatedTodo"}}},
		},
	}
	out := renderType(t, newTestHelper(t, defs), model.Optional(model.EnumRef("TodoError")))
	if !strings.Contains(out, "class FfiConverterOptionalTodoException {") {
		t.Errorf("optional converter name not exception-safe:\n%s", out)
	}
	if !strings.Contains(out, "FfiConverterTodoException.read") {
		t.Error("inner converter reference not exception-safe")
	}
	// Every reference site must carry the rewrite; a single stray raw name
	// means a dangling identifier in the emitted source.
	if strings.Contains(out, "OptionalTodoError") || strings.Contains(out, "FfiConverterTodoError.") {
		t.Errorf("raw error name leaked into emission:\n%s", out)
	}
}

func TestNestedCompoundIncludesAllLayers(t *testing.T) {
	h := newTestHelper(t, nil)
	out := renderType(t, h, model.Optional(model.Sequence(model.String())))
	for _, want := range []string{
		"class FfiConverterOptionalSequenceString {",
		"class FfiConverterSequenceString {",
		"class FfiConverterString {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("nested include missing %q", want)
		}
	}
	if got := strings.Count(out, "class FfiConverterString {"); got != 1 {
		t.Errorf("string codec emitted %d times, want 1", got)
	}
}
