package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

// numericSpec is one row of the fixed-width numeric table. A row fully
// determines the emitted codec: the ByteData accessor, the byte width, the
// optional bounds check in lower, and the float byte-order argument.
type numericSpec struct {
	canonical    string
	accessor     string // ByteData get/set suffix
	dartType     string
	width        int
	min, max     string // both empty: no bounds check
	wireName     string // short name used in range error messages
	littleEndian bool
	lowerBound   bool // check only value < 0 (64-bit unsigned)
}

var numericSpecs = map[model.Kind]numericSpec{
	model.KindInt8:  {canonical: "Int8", accessor: "Int8", dartType: "int", width: 1, min: "-128", max: "127", wireName: "i8"},
	model.KindInt16: {canonical: "Int16", accessor: "Int16", dartType: "int", width: 2, min: "-32768", max: "32767", wireName: "i16"},
	model.KindInt32: {canonical: "Int32", accessor: "Int32", dartType: "int", width: 4, min: "-2147483648", max: "2147483647", wireName: "i32"},
	model.KindInt64: {canonical: "Int64", accessor: "Int64", dartType: "int", width: 8, min: "-9223372036854775808", max: "9223372036854775807", wireName: "i64"},
	model.KindUInt8:  {canonical: "UInt8", accessor: "Uint8", dartType: "int", width: 1, min: "0", max: "255", wireName: "u8"},
	model.KindUInt16: {canonical: "UInt16", accessor: "Uint16", dartType: "int", width: 2, min: "0", max: "65535", wireName: "u16"},
	model.KindUInt32: {canonical: "UInt32", accessor: "Uint32", dartType: "int", width: 4, min: "0", max: "4294967295", wireName: "u32"},
	model.KindUInt64: {canonical: "UInt64", accessor: "Uint64", dartType: "int", width: 8, wireName: "u64", lowerBound: true},
	model.KindFloat32: {canonical: "Double32", accessor: "Float32", dartType: "double", width: 4, littleEndian: true},
	model.KindFloat64: {canonical: "Double64", accessor: "Float64", dartType: "double", width: 8, littleEndian: true},
}

// renderNumeric emits a fixed-width numeric codec from its table row.
// Numerics cross the boundary by register value, so lift is the identity
// and lower only validates range where the row declares bounds.
func (h *TypeHelper) renderNumeric(t model.Type) (string, error) {
	spec, ok := numericSpecs[t.Kind]
	if !ok {
		return "", errors.Unsupported(errors.PhaseEmit, string(t.Kind))
	}

	clName := "FfiConverter" + spec.canonical
	endian := ""
	if spec.littleEndian {
		endian = ", Endian.little"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "class %s {\n", clName)
	fmt.Fprintf(&b, "  static %s lift(%s value) => value;\n\n", spec.dartType, spec.dartType)
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", spec.dartType)
	fmt.Fprintf(&b, "    return LiftRetVal(buf.buffer.asByteData(buf.offsetInBytes).get%s(0%s), %d);\n", spec.accessor, endian, spec.width)
	fmt.Fprintf(&b, "  }\n\n")

	switch {
	case spec.lowerBound:
		fmt.Fprintf(&b, "  static %s lower(%s value) {\n", spec.dartType, spec.dartType)
		fmt.Fprintf(&b, "    if (value < 0) {\n")
		fmt.Fprintf(&b, "      throw ArgumentError(\"Value out of range for %s: \" + value.toString());\n", spec.wireName)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    return value;\n")
		fmt.Fprintf(&b, "  }\n\n")
	case spec.min != "" || spec.max != "":
		fmt.Fprintf(&b, "  static %s lower(%s value) {\n", spec.dartType, spec.dartType)
		fmt.Fprintf(&b, "    if (value < %s || value > %s) {\n", spec.min, spec.max)
		fmt.Fprintf(&b, "      throw ArgumentError(\"Value out of range for %s: \" + value.toString());\n", spec.wireName)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    return value;\n")
		fmt.Fprintf(&b, "  }\n\n")
	default:
		fmt.Fprintf(&b, "  static %s lower(%s value) => value;\n\n", spec.dartType, spec.dartType)
	}

	fmt.Fprintf(&b, "  static int allocationSize([%s value = 0]) {\n", spec.dartType)
	fmt.Fprintf(&b, "    return %d;\n", spec.width)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", spec.dartType)
	if spec.min != "" || spec.lowerBound {
		fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).set%s(0, lower(value)%s);\n", spec.accessor, endian)
	} else {
		fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).set%s(0, value%s);\n", spec.accessor, endian)
	}
	fmt.Fprintf(&b, "    return %d;\n", spec.width)
	fmt.Fprintf(&b, "  }\n")
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}

// renderBoolean emits the bool codec. Booleans travel as a single byte,
// 1 for true and 0 for false.
func (h *TypeHelper) renderBoolean() (string, error) {
	return `class FfiConverterBool {
  static bool lift(int value) => value == 1;

  static int lower(bool value) => value ? 1 : 0;

  static LiftRetVal<bool> read(Uint8List buf) {
    return LiftRetVal(buf.buffer.asByteData(buf.offsetInBytes).getInt8(0) == 1, 1);
  }

  static int allocationSize([bool value = false]) {
    return 1;
  }

  static int write(bool value, Uint8List buf) {
    buf.buffer.asByteData(buf.offsetInBytes).setInt8(0, lower(value));
    return 1;
  }
}
`, nil
}

// renderString emits the string codec. Encoding results are memoized in a
// bounded insertion-order cache so repeated lowers of the same short string
// reuse one UTF-8 conversion; long strings bypass the cache entirely.
func (h *TypeHelper) renderString() (string, error) {
	return `class FfiConverterString {
  static final Map<String, Uint8List> _utf8Cache = {};
  static final List<String> _cacheKeys = [];
  static const int _maxCacheSize = 128;

  static final Uint8List _emptyUtf8 = Uint8List(0);

  static Uint8List _getCachedUtf8(String value) {
    if (value.isEmpty) return _emptyUtf8;
    if (value.length > 256) {
      UniffiMemoryProfiler.incrementStringCacheMisses();
      return utf8.encoder.convert(value);
    }

    if (_utf8Cache.containsKey(value)) {
      UniffiMemoryProfiler.incrementStringCacheHits();
      return _utf8Cache[value]!;
    }

    UniffiMemoryProfiler.incrementStringCacheMisses();
    final encoded = utf8.encoder.convert(value);

    if (_utf8Cache.length >= _maxCacheSize) {
      final oldestKey = _cacheKeys.removeAt(0);
      _utf8Cache.remove(oldestKey);
    }

    _utf8Cache[value] = encoded;
    _cacheKeys.add(value);
    return encoded;
  }

  static String lift(RustBuffer buf) {
    return utf8.decoder.convert(buf.asUint8List());
  }

  static RustBuffer lower(String value) {
    return toRustBuffer(_getCachedUtf8(value));
  }

  static LiftRetVal<String> read(Uint8List buf) {
    final end = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0) + 4;
    return LiftRetVal(utf8.decoder.convert(buf, 4, end), end);
  }

  static int allocationSize([String value = ""]) {
    return _getCachedUtf8(value).length + 4;
  }

  static int write(String value, Uint8List buf) {
    final list = _getCachedUtf8(value);
    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, list.length);
    buf.setAll(4, list);
    return list.length + 4;
  }
}
`, nil
}

// renderBytes emits the raw byte-string codec: 4-byte length prefix
// followed by the payload.
func (h *TypeHelper) renderBytes() (string, error) {
	return `class FfiConverterUint8List {
  static Uint8List lift(RustBuffer value) {
    return FfiConverterUint8List.read(value.asUint8List()).value;
  }

  static LiftRetVal<Uint8List> read(Uint8List buf) {
    final length = buf.buffer.asByteData(buf.offsetInBytes).getInt32(0);
    final bytes = Uint8List.view(buf.buffer, buf.offsetInBytes + 4, length);
    return LiftRetVal(bytes, length + 4);
  }

  static RustBuffer lower(Uint8List value) {
    final buf = Uint8List(allocationSize(value));
    write(value, buf);
    return toRustBuffer(buf);
  }

  static int allocationSize([Uint8List? value]) {
    if (value == null) {
      return 4;
    }
    return 4 + value.length;
  }

  static int write(Uint8List value, Uint8List buf) {
    buf.buffer.asByteData(buf.offsetInBytes).setInt32(0, value.length);
    int offset = buf.offsetInBytes + 4;
    buf.setRange(offset, offset + value.length, value);
    return 4 + value.length;
  }
}
`, nil
}

// renderDuration emits the elapsed-time codec: unsigned 8-byte seconds
// followed by a 4-byte nanosecond remainder.
func (h *TypeHelper) renderDuration() (string, error) {
	return `class FfiConverterDuration {
  static Duration lift(RustBuffer buf) {
    return FfiConverterDuration.read(buf.asUint8List()).value;
  }

  static LiftRetVal<Duration> read(Uint8List buf) {
    final byteData = buf.buffer.asByteData(buf.offsetInBytes);
    final seconds = byteData.getUint64(0);
    final nanos = byteData.getUint32(8);
    return LiftRetVal(
        Duration(seconds: seconds, microseconds: nanos ~/ 1000), 12);
  }

  static RustBuffer lower(Duration value) {
    final buf = Uint8List(allocationSize(value));
    write(value, buf);
    return toRustBuffer(buf);
  }

  static int allocationSize([Duration value = Duration.zero]) {
    return 12;
  }

  static int write(Duration value, Uint8List buf) {
    if (value.isNegative) {
      throw ArgumentError("Value out of range for duration: " + value.toString());
    }
    final byteData = buf.buffer.asByteData(buf.offsetInBytes);
    final seconds = value.inSeconds;
    final nanos = (value.inMicroseconds - seconds * 1000000) * 1000;
    byteData.setUint64(0, seconds);
    byteData.setUint32(8, nanos);
    return 12;
  }
}
`, nil
}

// renderTimestamp emits the wall-clock codec: signed 8-byte seconds since
// the Unix epoch followed by a 4-byte nanosecond remainder, with the
// remainder counting away from the epoch for negative seconds.
func (h *TypeHelper) renderTimestamp() (string, error) {
	return `class FfiConverterTimestamp {
  static DateTime lift(RustBuffer buf) {
    return FfiConverterTimestamp.read(buf.asUint8List()).value;
  }

  static LiftRetVal<DateTime> read(Uint8List buf) {
    final byteData = buf.buffer.asByteData(buf.offsetInBytes);
    final seconds = byteData.getInt64(0);
    final nanos = byteData.getUint32(8);
    var micros = seconds * 1000000;
    if (seconds < 0) {
      micros -= nanos ~/ 1000;
    } else {
      micros += nanos ~/ 1000;
    }
    return LiftRetVal(
        DateTime.fromMicrosecondsSinceEpoch(micros, isUtc: true), 12);
  }

  static RustBuffer lower(DateTime value) {
    final buf = Uint8List(allocationSize(value));
    write(value, buf);
    return toRustBuffer(buf);
  }

  static int allocationSize([DateTime? value]) {
    return 12;
  }

  static int write(DateTime value, Uint8List buf) {
    final byteData = buf.buffer.asByteData(buf.offsetInBytes);
    final micros = value.toUtc().microsecondsSinceEpoch;
    final seconds = micros ~/ 1000000;
    final remainder = micros.remainder(1000000);
    byteData.setInt64(0, seconds);
    byteData.setUint32(8, remainder.abs() * 1000);
    return 12;
  }
}
`, nil
}
