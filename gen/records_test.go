package gen

import (
	"strings"
	"testing"

	"github.com/dartffi/bindgen/model"
)

func recordDefs() *model.Definitions {
	defs := todoDefs()
	defs.Records = []*model.Record{
		{
			Name: "TodoEntry",
			Fields: []*model.Field{
				{Name: "text", Type: model.String()},
				{Name: "urgency", Type: model.EnumRef("Level")},
				{Name: "done", Type: model.Bool()},
			},
		},
		{
			Name: "Note",
			Fields: []*model.Field{
				{Name: "body", Type: model.String()},
			},
		},
	}
	return defs
}

func TestRenderRecord(t *testing.T) {
	out := renderType(t, newTestHelper(t, recordDefs()), model.RecordRef("TodoEntry"))
	for _, want := range []string{
		"class TodoEntry {",
		"final String text;",
		"final Level urgency;",
		"final bool done;",
		"required String this.text,",
		"class FfiConverterTodoEntry {",
		"text: text,",
		"new_offset += FfiConverterString.write(value.text, Uint8List.view(buf.buffer, new_offset));",
		"FfiConverterBool.allocationSize(value.done)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("record emission missing %q:\n%s", want, out)
		}
	}
	// Record fields include their codecs.
	for _, want := range []string{
		"class FfiConverterString {",
		"class FfiConverterLevel {",
		"class FfiConverterBool {",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("field codec missing %q", want)
		}
	}
}

func TestRecordFlatEnumFieldBareTag(t *testing.T) {
	out := renderType(t, newTestHelper(t, recordDefs()), model.RecordRef("TodoEntry"))
	if !strings.Contains(out, "final urgency_int = buf.buffer.asByteData(new_offset).getInt32(0);") {
		t.Error("flat enum field not read as bare tag")
	}
	if !strings.Contains(out, "final urgency_buffer = FfiConverterLevel.lower(value.urgency);") {
		t.Error("flat enum field not written via lower")
	}
}

func TestRenderSingleFieldRecord(t *testing.T) {
	out := renderType(t, newTestHelper(t, recordDefs()), model.RecordRef("Note"))
	if !strings.Contains(out, "Note(String this.body);") {
		t.Error("single-field record constructor not positional")
	}
	if !strings.Contains(out, "return LiftRetVal(Note(body), new_offset - buf.offsetInBytes);") {
		t.Errorf("single-field record read shape wrong:\n%s", out)
	}
}

func TestRecordReferencedFromSequence(t *testing.T) {
	h := newTestHelper(t, recordDefs())
	out := renderType(t, h, model.Sequence(model.RecordRef("TodoEntry")))
	if !strings.Contains(out, "class FfiConverterSequenceTodoEntry {") {
		t.Error("sequence-of-record converter missing")
	}
	if got := strings.Count(out, "class FfiConverterTodoEntry {"); got != 1 {
		t.Errorf("record codec emitted %d times, want 1", got)
	}
}
