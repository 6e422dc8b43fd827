package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// renderOptional emits the nullable wrapper codec: one presence byte,
// then the inner encoding when present. The inner codec is included first
// so its declaration exists wherever the wrapper is referenced.
func (h *TypeHelper) renderOptional(t model.Type) (string, error) {
	inner := *t.Inner
	if err := h.Include(inner); err != nil {
		return "", err
	}

	clName := ExceptionSafeName(ConverterName(t))
	label := ExceptionSafeName(TypeLabel(t))
	innerConv := ExceptionSafeName(ConverterName(inner))

	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\n", clName)
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buf) {\n", label)
	fmt.Fprintf(&b, "    return %s.read(buf.asUint8List()).value;\n", clName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", label)
	fmt.Fprintf(&b, "    if (ByteData.view(buf.buffer, buf.offsetInBytes).getInt8(0) == 0) {\n")
	fmt.Fprintf(&b, "      return LiftRetVal(null, 1);\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    final result = %s.read(Uint8List.view(buf.buffer, buf.offsetInBytes + 1));\n", innerConv)
	fmt.Fprintf(&b, "    return LiftRetVal<%s>(result.value, result.bytesRead + 1);\n", label)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize([%s value]) {\n", label)
	fmt.Fprintf(&b, "    if (value == null) {\n")
	fmt.Fprintf(&b, "      return 1;\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    return %s.allocationSize(value) + 1;\n", innerConv)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static RustBuffer lower(%s value) {\n", label)
	fmt.Fprintf(&b, "    if (value == null) {\n")
	fmt.Fprintf(&b, "      return toRustBuffer(Uint8List.fromList([0]));\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    final buf = Uint8List(allocationSize(value));\n")
	fmt.Fprintf(&b, "    write(value, buf);\n")
	fmt.Fprintf(&b, "    return toRustBuffer(buf);\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", label)
	fmt.Fprintf(&b, "    if (value == null) {\n")
	fmt.Fprintf(&b, "      buf[0] = 0;\n")
	fmt.Fprintf(&b, "      return 1;\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    buf[0] = 1;\n")
	fmt.Fprintf(&b, "    return %s.write(value, Uint8List.view(buf.buffer, buf.offsetInBytes + 1)) + 1;\n", innerConv)
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}

// renderSequence emits the list codec: 4-byte element count, then each
// element back to back.
func (h *TypeHelper) renderSequence(t model.Type) (string, error) {
	inner := *t.Inner
	if err := h.Include(inner); err != nil {
		return "", err
	}

	clName := ExceptionSafeName(ConverterName(t))
	label := ExceptionSafeName(TypeLabel(t))
	innerConv := ExceptionSafeName(ConverterName(inner))

	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\n", clName)
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buf) {\n", label)
	fmt.Fprintf(&b, "    return %s.read(buf.asUint8List()).value;\n", clName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", label)
	fmt.Fprintf(&b, "    %s res = [];\n", label)
	fmt.Fprintf(&b, "    final length = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0);\n")
	fmt.Fprintf(&b, "    int offset = buf.offsetInBytes + 4;\n")
	fmt.Fprintf(&b, "    for (var i = 0; i < length; i++) {\n")
	fmt.Fprintf(&b, "      final ret = %s.read(Uint8List.view(buf.buffer, offset));\n", innerConv)
	fmt.Fprintf(&b, "      offset += ret.bytesRead;\n")
	fmt.Fprintf(&b, "      res.add(ret.value);\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    return LiftRetVal(res, offset - buf.offsetInBytes);\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", label)
	fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, value.length);\n")
	fmt.Fprintf(&b, "    int offset = buf.offsetInBytes + 4;\n")
	fmt.Fprintf(&b, "    for (var i = 0; i < value.length; i++) {\n")
	fmt.Fprintf(&b, "      offset += %s.write(value[i], Uint8List.view(buf.buffer, offset));\n", innerConv)
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    return offset - buf.offsetInBytes;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", label)
	fmt.Fprintf(&b, "    return value.map((l) => %s.allocationSize(l)).fold(0, (a, b) => a + b) + 4;\n", innerConv)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static RustBuffer lower(%s value) {\n", label)
	fmt.Fprintf(&b, "    final buf = Uint8List(allocationSize(value));\n")
	fmt.Fprintf(&b, "    write(value, buf);\n")
	fmt.Fprintf(&b, "    return toRustBuffer(buf);\n")
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}

// renderMap emits the dictionary codec: 4-byte entry count, then key and
// value encodings alternating in the map's iteration order.
func (h *TypeHelper) renderMap(t model.Type) (string, error) {
	key, value := *t.Key, *t.Value
	if err := h.Include(key); err != nil {
		return "", err
	}
	if err := h.Include(value); err != nil {
		return "", err
	}

	clName := ExceptionSafeName(ConverterName(t))
	keyLabel := ExceptionSafeName(TypeLabel(key))
	valLabel := ExceptionSafeName(TypeLabel(value))
	mapLabel := fmt.Sprintf("Map<%s, %s>", keyLabel, valLabel)
	keyConv := ExceptionSafeName(ConverterName(key))
	valConv := ExceptionSafeName(ConverterName(value))

	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\n", clName)
	fmt.Fprintf(&b, "  static %s lift(RustBuffer buf) {\n", mapLabel)
	fmt.Fprintf(&b, "    return %s.read(buf.asUint8List()).value;\n", clName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", mapLabel)
	fmt.Fprintf(&b, "    final map = <%s, %s>{};\n", keyLabel, valLabel)
	fmt.Fprintf(&b, "    final length = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0);\n")
	fmt.Fprintf(&b, "    int offset = buf.offsetInBytes + 4;\n")
	fmt.Fprintf(&b, "    for (var i = 0; i < length; i++) {\n")
	fmt.Fprintf(&b, "      final k = %s.read(Uint8List.view(buf.buffer, offset));\n", keyConv)
	fmt.Fprintf(&b, "      offset += k.bytesRead;\n")
	fmt.Fprintf(&b, "      final v = %s.read(Uint8List.view(buf.buffer, offset));\n", valConv)
	fmt.Fprintf(&b, "      offset += v.bytesRead;\n")
	fmt.Fprintf(&b, "      map[k.value] = v.value;\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    return LiftRetVal(map, offset - buf.offsetInBytes);\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", mapLabel)
	fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, value.length);\n")
	fmt.Fprintf(&b, "    int offset = buf.offsetInBytes + 4;\n")
	fmt.Fprintf(&b, "    for (final entry in value.entries) {\n")
	fmt.Fprintf(&b, "      offset += %s.write(entry.key, Uint8List.view(buf.buffer, offset));\n", keyConv)
	fmt.Fprintf(&b, "      offset += %s.write(entry.value, Uint8List.view(buf.buffer, offset));\n", valConv)
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    return offset - buf.offsetInBytes;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", mapLabel)
	fmt.Fprintf(&b, "    return value.entries\n")
	fmt.Fprintf(&b, "        .map((e) => %s.allocationSize(e.key) + %s.allocationSize(e.value))\n", keyConv, valConv)
	fmt.Fprintf(&b, "        .fold(4, (a, b) => a + b);\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static RustBuffer lower(%s value) {\n", mapLabel)
	fmt.Fprintf(&b, "    final buf = Uint8List(allocationSize(value));\n")
	fmt.Fprintf(&b, "    write(value, buf);\n")
	fmt.Fprintf(&b, "    return toRustBuffer(buf);\n")
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}
