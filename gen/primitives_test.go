package gen

import (
	"strings"
	"testing"

	"github.com/dartffi/bindgen/model"
)

func newTestHelper(t *testing.T, defs *model.Definitions) *TypeHelper {
	t.Helper()
	if defs == nil {
		defs = &model.Definitions{Namespace: "demo", FFIModule: "demo"}
	}
	return NewTypeHelper(defs, nil)
}

func renderType(t *testing.T, h *TypeHelper, typ model.Type) string {
	t.Helper()
	if err := h.Include(typ); err != nil {
		t.Fatalf("Include(%v): %v", typ.Kind, err)
	}
	return h.Render()
}

func TestNumericTableCoversAllKinds(t *testing.T) {
	kinds := []model.Kind{
		model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindFloat32, model.KindFloat64,
	}
	for _, k := range kinds {
		if _, ok := numericSpecs[k]; !ok {
			t.Errorf("no numeric spec for kind %q", k)
		}
	}
	if len(numericSpecs) != len(kinds) {
		t.Errorf("numeric table has %d rows, want %d", len(numericSpecs), len(kinds))
	}
}

func TestRenderInt32(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.I32())
	for _, want := range []string{
		"class FfiConverterInt32 {",
		"getInt32(0), 4",
		"if (value < -2147483648 || value > 2147483647) {",
		"Value out of range for i32",
		"setInt32(0, lower(value));",
		"return 4;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Int32 codec missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUInt64OnlyChecksLowerBound(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.U64())
	if !strings.Contains(out, "if (value < 0) {") {
		t.Errorf("UInt64 codec missing negative check:\n%s", out)
	}
	if strings.Contains(out, "value >") {
		t.Errorf("UInt64 codec must not check an upper bound:\n%s", out)
	}
	if !strings.Contains(out, "Value out of range for u64") {
		t.Errorf("UInt64 codec missing range message:\n%s", out)
	}
}

func TestRenderFloatsUseLittleEndianBothWays(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.F32())
	if !strings.Contains(out, "getFloat32(0, Endian.little), 4") {
		t.Errorf("Double32 read not little-endian:\n%s", out)
	}
	if !strings.Contains(out, "setFloat32(0, value, Endian.little);") {
		t.Errorf("Double32 write not little-endian:\n%s", out)
	}
	out = renderType(t, newTestHelper(t, nil), model.F64())
	if !strings.Contains(out, "class FfiConverterDouble64 {") {
		t.Errorf("Double64 codec missing:\n%s", out)
	}
}

func TestRenderBoolean(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.Bool())
	for _, want := range []string{
		"class FfiConverterBool {",
		"static bool lift(int value) => value == 1;",
		"static int lower(bool value) => value ? 1 : 0;",
		"getInt8(0) == 1, 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Bool codec missing %q", want)
		}
	}
}

func TestRenderStringCache(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.String())
	for _, want := range []string{
		"class FfiConverterString {",
		"static const int _maxCacheSize = 128;",
		"if (value.length > 256) {",
		"_cacheKeys.removeAt(0)",
		"utf8.decoder.convert(buf, 4, end)",
		"setInt32(0, list.length);",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("String codec missing %q", want)
		}
	}
}

func TestRenderBytes(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.Bytes())
	for _, want := range []string{
		"class FfiConverterUint8List {",
		"return 4 + value.length;",
		"Uint8List.view(buf.buffer, buf.offsetInBytes + 4, length)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Uint8List codec missing %q", want)
		}
	}
}

func TestRenderDurationAndTimestamp(t *testing.T) {
	out := renderType(t, newTestHelper(t, nil), model.Duration())
	for _, want := range []string{
		"class FfiConverterDuration {",
		"getUint64(0)",
		"getUint32(8)",
		"return 12;",
		"value.isNegative",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Duration codec missing %q", want)
		}
	}
	out = renderType(t, newTestHelper(t, nil), model.Timestamp())
	for _, want := range []string{
		"class FfiConverterTimestamp {",
		"getInt64(0)",
		"DateTime.fromMicrosecondsSinceEpoch",
		"isUtc: true",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Timestamp codec missing %q", want)
		}
	}
}

func TestIncludeIsIdempotent(t *testing.T) {
	h := newTestHelper(t, nil)
	for i := 0; i < 3; i++ {
		if err := h.Include(model.String()); err != nil {
			t.Fatalf("Include: %v", err)
		}
	}
	out := h.Render()
	if got := strings.Count(out, "class FfiConverterString {"); got != 1 {
		t.Errorf("string codec emitted %d times, want 1", got)
	}
}
