package wire

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	stderrors "errors"

	bgerrors "github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

func testDefs() *model.Definitions {
	return &model.Definitions{
		Namespace: "todolist",
		Enums: []*model.Enum{
			{
				Name: "Level",
				Variants: []*model.Variant{
					{Name: "low"}, {Name: "medium"}, {Name: "high"},
				},
			},
			{
				Name: "TodoError",
				Variants: []*model.Variant{
					{Name: "EmptyString"},
					{Name: "DuplicatedTodo", Fields: []*model.Field{
						{Name: "todo", Type: model.String()},
					}},
					{Name: "DeadlineMissed", Fields: []*model.Field{
						{Name: "urgency", Type: model.EnumRef("Level")},
						{Name: "days_late", Type: model.U32()},
					}},
				},
			},
		},
		Records: []*model.Record{
			{Name: "TodoEntry", Fields: []*model.Field{
				{Name: "text", Type: model.String()},
				{Name: "urgency", Type: model.EnumRef("Level")},
				{Name: "done", Type: model.Bool()},
			}},
		},
		ErrorNames: []string{"TodoError"},
	}
}

func mustCodec(t *testing.T, typ model.Type) Codec {
	t.Helper()
	c, err := For(typ, testDefs())
	if err != nil {
		t.Fatalf("For(%v): %v", typ, err)
	}
	return c
}

func TestRoundTripConsumesAllocationSize(t *testing.T) {
	tests := []struct {
		name string
		typ  model.Type
		v    any
	}{
		{"u8", model.U8(), int64(200)},
		{"i8 negative", model.I8(), int64(-100)},
		{"u16", model.U16(), int64(65535)},
		{"i32 min", model.I32(), int64(-2147483648)},
		{"u64", model.U64(), int64(9007199254740991)},
		{"i64", model.I64(), int64(-1)},
		{"f32", model.F32(), float64(1.5)},
		{"f64", model.F64(), 3.141592653589793},
		{"bool", model.Bool(), true},
		{"string", model.String(), "héllo wörld"},
		{"empty string", model.String(), ""},
		{"bytes", model.Bytes(), []byte{0, 1, 255}},
		{"duration", model.Duration(), 90*time.Second + 250*time.Millisecond},
		{"timestamp", model.Timestamp(), time.UnixMicro(1700000000123456).UTC()},
		{"optional none", model.Optional(model.String()), nil},
		{"optional some", model.Optional(model.U32()), int64(7)},
		{"sequence", model.Sequence(model.String()), []any{"a", "", "ccc"}},
		{"nested sequence", model.Sequence(model.Sequence(model.Bool())), []any{[]any{true}, []any{}}},
		{"map", model.Map(model.String(), model.U32()), []Entry{{Key: "a", Value: int64(1)}, {Key: "b", Value: int64(2)}}},
		{"flat enum", model.EnumRef("Level"), EnumValue{Tag: 2}},
		{"payload enum", model.EnumRef("TodoError"), EnumValue{Tag: 2, Fields: []any{"dup"}}},
		{"nested flat enum field", model.EnumRef("TodoError"), EnumValue{Tag: 3, Fields: []any{EnumValue{Tag: 3}, int64(4)}}},
		{"record", model.RecordRef("TodoEntry"), []any{"buy milk", EnumValue{Tag: 1}, false}},
		{"object handle", model.ObjectRef("TodoList", model.ImplStruct), int64(0x1234)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustCodec(t, tt.typ)
			size, err := c.AllocationSize(tt.v)
			if err != nil {
				t.Fatalf("AllocationSize: %v", err)
			}
			buf, err := Encode(c, tt.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if len(buf) != size {
				t.Fatalf("encoded %d bytes, allocation size %d", len(buf), size)
			}
			got, n, err := c.Read(buf, 0)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if n != size {
				t.Errorf("consumed %d bytes, allocation size %d", n, size)
			}
			if !reflect.DeepEqual(got, tt.v) {
				t.Errorf("round trip: got %#v, want %#v", got, tt.v)
			}
		})
	}
}

func TestRecursiveNamedCodecs(t *testing.T) {
	defs := &model.Definitions{
		Namespace: "graph",
		Records: []*model.Record{
			{Name: "Node", Fields: []*model.Field{
				{Name: "label", Type: model.String()},
				{Name: "next", Type: model.Optional(model.RecordRef("Node"))},
			}},
		},
		Enums: []*model.Enum{
			{Name: "Expr", Variants: []*model.Variant{
				{Name: "Lit", Fields: []*model.Field{
					{Name: "value", Type: model.I64()},
				}},
				{Name: "Neg", Fields: []*model.Field{
					{Name: "inner", Type: model.Optional(model.EnumRef("Expr"))},
				}},
			}},
		},
	}

	t.Run("self-referential record", func(t *testing.T) {
		c, err := For(model.RecordRef("Node"), defs)
		if err != nil {
			t.Fatalf("For: %v", err)
		}
		chain := []any{"head", []any{"tail", nil}}
		size, err := c.AllocationSize(chain)
		if err != nil {
			t.Fatalf("AllocationSize: %v", err)
		}
		buf, err := Encode(c, chain)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if len(buf) != size {
			t.Fatalf("encoded %d bytes, allocation size %d", len(buf), size)
		}
		got, err := Decode(c, buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !reflect.DeepEqual(got, chain) {
			t.Errorf("round trip: got %#v, want %#v", got, chain)
		}
	})

	t.Run("self-referential enum", func(t *testing.T) {
		c, err := For(model.EnumRef("Expr"), defs)
		if err != nil {
			t.Fatalf("For: %v", err)
		}
		v := EnumValue{Tag: 2, Fields: []any{EnumValue{Tag: 1, Fields: []any{int64(42)}}}}
		buf, err := Encode(c, v)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(c, buf)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip: got %#v, want %#v", got, v)
		}
	})

	t.Run("dangling reference still fails", func(t *testing.T) {
		_, err := For(model.RecordRef("Missing"), defs)
		assertKind(t, err, bgerrors.PhaseEncode, bgerrors.KindNotFound)
	})
}

func TestByteLayouts(t *testing.T) {
	t.Run("string is length prefixed", func(t *testing.T) {
		buf, err := Encode(mustCodec(t, model.String()), "abc")
		if err != nil {
			t.Fatal(err)
		}
		want := []byte{0, 0, 0, 3, 'a', 'b', 'c'}
		if !bytes.Equal(buf, want) {
			t.Errorf("got % x, want % x", buf, want)
		}
	})

	t.Run("u32 is big endian", func(t *testing.T) {
		buf, err := Encode(mustCodec(t, model.U32()), int64(0x01020304))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
			t.Errorf("got % x", buf)
		}
	})

	t.Run("f32 is little endian", func(t *testing.T) {
		buf, err := Encode(mustCodec(t, model.F32()), float64(1.0))
		if err != nil {
			t.Fatal(err)
		}
		// 1.0f32 = 0x3F800000
		if !bytes.Equal(buf, []byte{0x00, 0x00, 0x80, 0x3F}) {
			t.Errorf("got % x", buf)
		}
	})

	t.Run("optional spends one presence byte", func(t *testing.T) {
		c := mustCodec(t, model.Optional(model.Bool()))
		none, err := Encode(c, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(none, []byte{0}) {
			t.Errorf("absent: got % x", none)
		}
		some, err := Encode(c, true)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(some, []byte{1, 1}) {
			t.Errorf("present: got % x", some)
		}
	})

	t.Run("flat enum is a bare 1-based tag", func(t *testing.T) {
		buf, err := Encode(mustCodec(t, model.EnumRef("Level")), EnumValue{Tag: 3})
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(buf, []byte{0, 0, 0, 3}) {
			t.Errorf("got % x", buf)
		}
	})

	t.Run("nested flat enum field stays bare", func(t *testing.T) {
		v := EnumValue{Tag: 3, Fields: []any{EnumValue{Tag: 2}, int64(5)}}
		buf, err := Encode(mustCodec(t, model.EnumRef("TodoError")), v)
		if err != nil {
			t.Fatal(err)
		}
		// outer tag 3, inner tag 2 with no framing, then u32 field
		want := []byte{0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 5}
		if !bytes.Equal(buf, want) {
			t.Errorf("got % x, want % x", buf, want)
		}
	})

	t.Run("duration splits seconds and nanos", func(t *testing.T) {
		buf, err := Encode(mustCodec(t, model.Duration()), 2*time.Second+3*time.Nanosecond)
		if err != nil {
			t.Fatal(err)
		}
		want := []byte{0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 3}
		if !bytes.Equal(buf, want) {
			t.Errorf("got % x, want % x", buf, want)
		}
	})
}

func TestValidation(t *testing.T) {
	t.Run("u8 bounds", func(t *testing.T) {
		c := mustCodec(t, model.U8())
		_, err := Encode(c, int64(256))
		assertKind(t, err, bgerrors.PhaseValidate, bgerrors.KindOutOfRange)
		_, err = Encode(c, int64(-1))
		assertKind(t, err, bgerrors.PhaseValidate, bgerrors.KindOutOfRange)
		for _, v := range []int64{0, 255} {
			if _, err := Encode(c, v); err != nil {
				t.Errorf("u8 %d should pass: %v", v, err)
			}
		}
	})

	t.Run("u64 rejects negatives only", func(t *testing.T) {
		c := mustCodec(t, model.U64())
		if _, err := Encode(c, int64(-1)); err == nil {
			t.Error("negative u64 should fail")
		}
		if _, err := Encode(c, int64(0)); err != nil {
			t.Errorf("zero u64 should pass: %v", err)
		}
	})

	t.Run("negative duration", func(t *testing.T) {
		_, err := Encode(mustCodec(t, model.Duration()), -time.Second)
		assertKind(t, err, bgerrors.PhaseValidate, bgerrors.KindOutOfRange)
	})

	t.Run("enum tag outside range on decode", func(t *testing.T) {
		c := mustCodec(t, model.EnumRef("Level"))
		_, _, err := c.Read([]byte{0, 0, 0, 4}, 0)
		assertKind(t, err, bgerrors.PhaseDecode, bgerrors.KindInvalidEnum)
		_, _, err = c.Read([]byte{0, 0, 0, 0}, 0)
		assertKind(t, err, bgerrors.PhaseDecode, bgerrors.KindInvalidEnum)
	})

	t.Run("enum tag outside range on encode", func(t *testing.T) {
		_, err := Encode(mustCodec(t, model.EnumRef("Level")), EnumValue{Tag: 9})
		assertKind(t, err, bgerrors.PhaseValidate, bgerrors.KindInvalidEnum)
	})

	t.Run("invalid utf8 on decode", func(t *testing.T) {
		_, _, err := mustCodec(t, model.String()).Read([]byte{0, 0, 0, 2, 0xFF, 0xFE}, 0)
		assertKind(t, err, bgerrors.PhaseDecode, bgerrors.KindInvalidUTF8)
	})

	t.Run("short buffer", func(t *testing.T) {
		_, _, err := mustCodec(t, model.U32()).Read([]byte{0, 0}, 0)
		assertKind(t, err, bgerrors.PhaseDecode, bgerrors.KindOutOfBounds)
	})

	t.Run("short buffer on write", func(t *testing.T) {
		_, err := mustCodec(t, model.U32()).Write(int64(1), make([]byte, 2), 0)
		assertKind(t, err, bgerrors.PhaseEncode, bgerrors.KindOutOfBounds)
		_, err = mustCodec(t, model.String()).Write("abc", make([]byte, 5), 0)
		assertKind(t, err, bgerrors.PhaseEncode, bgerrors.KindOutOfBounds)
	})

	t.Run("trailing bytes rejected by Decode", func(t *testing.T) {
		if _, err := Decode(mustCodec(t, model.Bool()), []byte{1, 0}); err == nil {
			t.Error("expected trailing bytes to fail")
		}
	})
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	c := mustCodec(t, model.Map(model.String(), model.U32()))
	in := []Entry{{Key: "z", Value: int64(1)}, {Key: "a", Value: int64(2)}, {Key: "m", Value: int64(3)}}
	buf, err := Encode(c, in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(c, buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("entry order changed: %#v", out)
	}
}

func TestTimestampBeforeEpoch(t *testing.T) {
	c := mustCodec(t, model.Timestamp())
	v := time.UnixMicro(-1700000000123456).UTC()
	buf, err := Encode(c, v)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(c, buf)
	if err != nil {
		t.Fatal(err)
	}
	if !got.(time.Time).Equal(v) {
		t.Errorf("got %v, want %v", got, v)
	}
}

func assertKind(t *testing.T, err error, phase bgerrors.Phase, kind bgerrors.Kind) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	var e *bgerrors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected a structured error, got %v", err)
	}
	if e.Phase != phase || e.Kind != kind {
		t.Errorf("got [%s] %s, want [%s] %s", e.Phase, e.Kind, phase, kind)
	}
}
