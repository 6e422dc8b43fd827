package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// renderEnum emits either a plain Dart enum with a tag codec (no variant
// carries data) or a sealed-style class hierarchy with one subclass per
// payload variant. Tags are 1-based in declaration order; a decoded tag
// outside [1, N] throws an unexpected-enum-case error.
func (h *TypeHelper) renderEnum(e *model.Enum) (string, error) {
	if e.IsFlat() {
		return h.renderFlatEnum(e), nil
	}
	return h.renderPayloadEnum(e)
}

func (h *TypeHelper) renderFlatEnum(e *model.Enum) string {
	clsName := ClassName(e.Name)
	convName := "FfiConverter" + clsName

	var b strings.Builder
	fmt.Fprintf(&b, "enum %s {\n", clsName)
	for _, v := range e.Variants {
		fmt.Fprintf(&b, "  %s,\n", EnumVariantName(v.Name))
	}
	fmt.Fprintf(&b, "  ;\n")
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "class %s {\n", convName)
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final index = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0);\n")
	fmt.Fprintf(&b, "    switch (index) {\n")
	for i, v := range e.Variants {
		fmt.Fprintf(&b, "      case %d:\n", i+1)
		fmt.Fprintf(&b, "        return LiftRetVal(%s.%s, 4);\n", clsName, EnumVariantName(v.Name))
	}
	fmt.Fprintf(&b, "      default:\n")
	fmt.Fprintf(&b, "        throw UniffiInternalError(UniffiInternalError.unexpectedEnumCase, \"Unable to determine enum variant\");\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buffer) {\n", clsName)
	fmt.Fprintf(&b, "    return %s.read(buffer.asUint8List()).value;\n", convName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static RustBuffer lower(%s input) {\n", clsName)
	fmt.Fprintf(&b, "    return toRustBuffer(createUint8ListFromInt(input.index + 1));\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s _value) {\n", clsName)
	fmt.Fprintf(&b, "    return 4;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, value.index + 1);\n")
	fmt.Fprintf(&b, "    return 4;\n")
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String()
}

func enumFieldName(f *model.Field, i int) string {
	if f.Name == "" {
		return fmt.Sprintf("v%d", i)
	}
	return VarName(f.Name)
}

// isFlatEnumField reports whether a field is itself a data-less enum. Such
// fields are written as a bare 4-byte tag with no framing around it; the
// wire size depends on this exact special case.
func (h *TypeHelper) isFlatEnumField(f *model.Field) bool {
	return h.isFlatEnumType(f.Type)
}

func (h *TypeHelper) isFlatEnumType(t model.Type) bool {
	if t.Kind != model.KindEnum {
		return false
	}
	if def, ok := h.defs.Enum(t.Name); ok {
		return def.IsFlat()
	}
	return false
}

func (h *TypeHelper) renderPayloadEnum(e *model.Enum) (string, error) {
	clsName := ClassName(e.Name)
	convName := "FfiConverter" + clsName
	isError := h.defs.IsErrorName(e.Name)

	for _, v := range e.Variants {
		for _, f := range v.Fields {
			if err := h.Include(f.Type); err != nil {
				return "", err
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "abstract class %s", clsName)
	if isError {
		fmt.Fprintf(&b, " implements Exception")
	}
	fmt.Fprintf(&b, " {\n")
	fmt.Fprintf(&b, "  RustBuffer lower();\n")
	fmt.Fprintf(&b, "  int allocationSize();\n")
	fmt.Fprintf(&b, "  int write(Uint8List buf);\n")
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "class %s {\n", convName)
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buffer) {\n", clsName)
	fmt.Fprintf(&b, "    return %s.read(buffer.asUint8List()).value;\n", convName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final index = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0);\n")
	fmt.Fprintf(&b, "    final subview = Uint8List.view(buf.buffer, buf.offsetInBytes + 4);\n")
	fmt.Fprintf(&b, "    switch (index) {\n")
	for i, v := range e.Variants {
		fmt.Fprintf(&b, "      case %d:\n", i+1)
		fmt.Fprintf(&b, "        return %s%s.read(subview);\n", ClassName(v.Name), clsName)
	}
	fmt.Fprintf(&b, "      default:\n")
	fmt.Fprintf(&b, "        throw UniffiInternalError(UniffiInternalError.unexpectedEnumCase, \"Unable to determine enum variant\");\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static RustBuffer lower(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    return value.lower();\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    return value.allocationSize();\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    return value.write(buf);\n")
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")

	for i, v := range e.Variants {
		b.WriteString("\n")
		h.renderEnumVariant(&b, e, v, i+1, clsName, isError)
	}

	if isError {
		handler := clsName + "ErrorHandler"
		fmt.Fprintf(&b, "\nclass %s extends UniffiRustCallStatusErrorHandler {\n", handler)
		fmt.Fprintf(&b, "  @override\n")
		fmt.Fprintf(&b, "  Exception lift(RustBuffer errorBuf) {\n")
		fmt.Fprintf(&b, "    return %s.lift(errorBuf);\n", convName)
		fmt.Fprintf(&b, "  }\n")
		fmt.Fprintf(&b, "}\n\n")
		fmt.Fprintf(&b, "final %s %sErrorHandler = %s();\n", handler, lowerCamel(clsName), handler)
	}
	return b.String(), nil
}

func (h *TypeHelper) renderEnumVariant(b *strings.Builder, e *model.Enum, v *model.Variant, tag int, clsName string, isError bool) {
	variantCls := ClassName(v.Name) + clsName

	fieldLabel := func(f *model.Field) string {
		return ExceptionSafeName(TypeLabel(f.Type))
	}
	fieldConv := func(f *model.Field) string {
		return ExceptionSafeName(ConverterName(f.Type))
	}

	fmt.Fprintf(b, "class %s extends %s {\n", variantCls, clsName)
	for i, f := range v.Fields {
		fmt.Fprintf(b, "  final %s %s;\n", fieldLabel(f), enumFieldName(f, i))
	}
	b.WriteString("\n")

	// Public constructor: named parameters once there is more than one
	// field, positional otherwise.
	if len(v.Fields) > 1 {
		fmt.Fprintf(b, "  %s({\n", variantCls)
		for i, f := range v.Fields {
			fmt.Fprintf(b, "    required %s this.%s,\n", fieldLabel(f), enumFieldName(f, i))
		}
		fmt.Fprintf(b, "  });\n\n")
	} else {
		var params []string
		for i, f := range v.Fields {
			params = append(params, fmt.Sprintf("%s this.%s", fieldLabel(f), enumFieldName(f, i)))
		}
		fmt.Fprintf(b, "  %s(%s);\n\n", variantCls, strings.Join(params, ", "))
	}

	// Private positional constructor used by read.
	var privParams []string
	for i, f := range v.Fields {
		privParams = append(privParams, fmt.Sprintf("%s this.%s", fieldLabel(f), enumFieldName(f, i)))
	}
	fmt.Fprintf(b, "  %s._(%s);\n\n", variantCls, strings.Join(privParams, ", "))

	fmt.Fprintf(b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", variantCls)
	fmt.Fprintf(b, "    int new_offset = buf.offsetInBytes;\n\n")
	for i, f := range v.Fields {
		name := enumFieldName(f, i)
		if h.isFlatEnumField(f) {
			fmt.Fprintf(b, "    final %s_int = buf.buffer.asByteData(new_offset).getInt32(0);\n", name)
			fmt.Fprintf(b, "    final %s = %s.lift(toRustBuffer(createUint8ListFromInt(%s_int)));\n", name, fieldConv(f), name)
			fmt.Fprintf(b, "    new_offset += 4;\n")
		} else {
			fmt.Fprintf(b, "    final %s_lifted = %s.read(Uint8List.view(buf.buffer, new_offset));\n", name, fieldConv(f))
			fmt.Fprintf(b, "    final %s = %s_lifted.value;\n", name, name)
			fmt.Fprintf(b, "    new_offset += %s_lifted.bytesRead;\n", name)
		}
	}
	var names []string
	for i, f := range v.Fields {
		names = append(names, enumFieldName(f, i))
	}
	fmt.Fprintf(b, "    return LiftRetVal(%s._(\n", variantCls)
	fmt.Fprintf(b, "      %s\n", strings.Join(names, ", "))
	fmt.Fprintf(b, "    ), new_offset - buf.offsetInBytes + 4);\n")
	fmt.Fprintf(b, "  }\n\n")

	fmt.Fprintf(b, "  @override\n")
	fmt.Fprintf(b, "  RustBuffer lower() {\n")
	fmt.Fprintf(b, "    final buf = Uint8List(allocationSize());\n")
	fmt.Fprintf(b, "    write(buf);\n")
	fmt.Fprintf(b, "    return toRustBuffer(buf);\n")
	fmt.Fprintf(b, "  }\n\n")

	fmt.Fprintf(b, "  @override\n")
	fmt.Fprintf(b, "  int allocationSize() {\n")
	fmt.Fprintf(b, "    return ")
	for i, f := range v.Fields {
		if h.isFlatEnumField(f) {
			fmt.Fprintf(b, "4 + ")
		} else {
			fmt.Fprintf(b, "%s.allocationSize(%s) + ", fieldConv(f), enumFieldName(f, i))
		}
	}
	fmt.Fprintf(b, "4;\n")
	fmt.Fprintf(b, "  }\n\n")

	fmt.Fprintf(b, "  @override\n")
	fmt.Fprintf(b, "  int write(Uint8List buf) {\n")
	fmt.Fprintf(b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, %d);\n", tag)
	fmt.Fprintf(b, "    int new_offset = buf.offsetInBytes + 4;\n\n")
	for i, f := range v.Fields {
		name := enumFieldName(f, i)
		if h.isFlatEnumField(f) {
			fmt.Fprintf(b, "    final %s_buffer = %s.lower(%s);\n", name, fieldConv(f), name)
			fmt.Fprintf(b, "    final %s_int = %s_buffer.asUint8List().buffer.asByteData().getInt32(0);\n", name, name)
			fmt.Fprintf(b, "    buf.buffer.asByteData(new_offset).setInt32(0, %s_int);\n", name)
			fmt.Fprintf(b, "    new_offset += 4;\n")
		} else {
			fmt.Fprintf(b, "    new_offset += %s.write(%s, Uint8List.view(buf.buffer, new_offset));\n", fieldConv(f), name)
		}
	}
	fmt.Fprintf(b, "\n    return new_offset - buf.offsetInBytes;\n")
	fmt.Fprintf(b, "  }\n")

	if isError {
		b.WriteString("\n  @override\n")
		if len(v.Fields) > 0 {
			var interp []string
			for i, f := range v.Fields {
				interp = append(interp, "$"+enumFieldName(f, i))
			}
			fmt.Fprintf(b, "  String toString() {\n")
			fmt.Fprintf(b, "    return \"%s(%s)\";\n", variantCls, strings.Join(interp, ", "))
			fmt.Fprintf(b, "  }\n")
		} else {
			fmt.Fprintf(b, "  String toString() {\n")
			fmt.Fprintf(b, "    return \"%s\";\n", variantCls)
			fmt.Fprintf(b, "  }\n")
		}
	}
	fmt.Fprintf(b, "}\n")
}
