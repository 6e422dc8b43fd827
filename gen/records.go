package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// renderRecord emits a plain data class plus its codec. Fields encode
// sequentially in declared order with no per-record framing, so the
// record's wire size is exactly the sum of its field sizes.
func (h *TypeHelper) renderRecord(r *model.Record) (string, error) {
	clsName := ClassName(r.Name)
	convName := "FfiConverter" + clsName

	for _, f := range r.Fields {
		if err := h.Include(f.Type); err != nil {
			return "", err
		}
	}

	fieldLabel := func(f *model.Field) string {
		return ExceptionSafeName(TypeLabel(f.Type))
	}
	fieldConv := func(f *model.Field) string {
		return ExceptionSafeName(ConverterName(f.Type))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\n", clsName)
	for i, f := range r.Fields {
		fmt.Fprintf(&b, "  final %s %s;\n", fieldLabel(f), enumFieldName(f, i))
	}
	b.WriteString("\n")
	if len(r.Fields) > 1 {
		fmt.Fprintf(&b, "  %s({\n", clsName)
		for i, f := range r.Fields {
			fmt.Fprintf(&b, "    required %s this.%s,\n", fieldLabel(f), enumFieldName(f, i))
		}
		fmt.Fprintf(&b, "  });\n")
	} else {
		var params []string
		for i, f := range r.Fields {
			params = append(params, fmt.Sprintf("%s this.%s", fieldLabel(f), enumFieldName(f, i)))
		}
		fmt.Fprintf(&b, "  %s(%s);\n", clsName, strings.Join(params, ", "))
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "class %s {\n", convName)
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buf) {\n", clsName)
	fmt.Fprintf(&b, "    return %s.read(buf.asUint8List()).value;\n", convName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    int new_offset = buf.offsetInBytes;\n\n")
	for i, f := range r.Fields {
		name := enumFieldName(f, i)
		if h.isFlatEnumField(f) {
			fmt.Fprintf(&b, "    final %s_int = buf.buffer.asByteData(new_offset).getInt32(0);\n", name)
			fmt.Fprintf(&b, "    final %s = %s.lift(toRustBuffer(createUint8ListFromInt(%s_int)));\n", name, fieldConv(f), name)
			fmt.Fprintf(&b, "    new_offset += 4;\n")
		} else {
			fmt.Fprintf(&b, "    final %s_lifted = %s.read(Uint8List.view(buf.buffer, new_offset));\n", name, fieldConv(f))
			fmt.Fprintf(&b, "    final %s = %s_lifted.value;\n", name, name)
			fmt.Fprintf(&b, "    new_offset += %s_lifted.bytesRead;\n", name)
		}
	}
	var names []string
	for i, f := range r.Fields {
		names = append(names, enumFieldName(f, i))
	}
	if len(r.Fields) > 1 {
		var args []string
		for i, f := range r.Fields {
			args = append(args, fmt.Sprintf("%s: %s", enumFieldName(f, i), enumFieldName(f, i)))
		}
		fmt.Fprintf(&b, "    return LiftRetVal(%s(\n", clsName)
		fmt.Fprintf(&b, "      %s,\n", strings.Join(args, ",\n      "))
		fmt.Fprintf(&b, "    ), new_offset - buf.offsetInBytes);\n")
	} else {
		fmt.Fprintf(&b, "    return LiftRetVal(%s(%s), new_offset - buf.offsetInBytes);\n", clsName, strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "  }\n\n")

	fmt.Fprintf(&b, "  static RustBuffer lower(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    final buf = Uint8List(allocationSize(value));\n")
	fmt.Fprintf(&b, "    write(value, buf);\n")
	fmt.Fprintf(&b, "    return toRustBuffer(buf);\n")
	fmt.Fprintf(&b, "  }\n\n")

	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    return ")
	if len(r.Fields) == 0 {
		fmt.Fprintf(&b, "0;\n")
	} else {
		var parts []string
		for i, f := range r.Fields {
			if h.isFlatEnumField(f) {
				parts = append(parts, "4")
			} else {
				parts = append(parts, fmt.Sprintf("%s.allocationSize(value.%s)", fieldConv(f), enumFieldName(f, i)))
			}
		}
		fmt.Fprintf(&b, "%s;\n", strings.Join(parts, " + "))
	}
	fmt.Fprintf(&b, "  }\n\n")

	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    int new_offset = buf.offsetInBytes;\n\n")
	for i, f := range r.Fields {
		name := enumFieldName(f, i)
		if h.isFlatEnumField(f) {
			fmt.Fprintf(&b, "    final %s_buffer = %s.lower(value.%s);\n", name, fieldConv(f), name)
			fmt.Fprintf(&b, "    final %s_int = %s_buffer.asUint8List().buffer.asByteData().getInt32(0);\n", name, name)
			fmt.Fprintf(&b, "    buf.buffer.asByteData(new_offset).setInt32(0, %s_int);\n", name)
			fmt.Fprintf(&b, "    new_offset += 4;\n")
		} else {
			fmt.Fprintf(&b, "    new_offset += %s.write(value.%s, Uint8List.view(buf.buffer, new_offset));\n", fieldConv(f), name)
		}
	}
	fmt.Fprintf(&b, "\n    return new_offset - buf.offsetInBytes;\n")
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}
