package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// ffiSignature is one native entry point with its dart:ffi lookup types.
type ffiSignature struct {
	symbol string
	native string
	dart   string
}

// ffiNative maps a type node to the native type it crosses the call boundary
// as. Buffered types travel as RustBuffer regardless of shape; this differs
// from the trampoline labels, where scalar views apply.
func ffiNative(t *model.Type) string {
	if t == nil {
		return "Void"
	}
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindFloat32, model.KindFloat64:
		return NativeTypeLabel(t)
	case model.KindBoolean:
		return "Int8"
	case model.KindObject, model.KindCallbackInterface:
		return "Pointer<Void>"
	default:
		return "RustBuffer"
	}
}

func ffiDart(t *model.Type) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
		model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
		model.KindFloat32, model.KindFloat64, model.KindBoolean:
		return NativeDartTypeLabel(t)
	case model.KindObject, model.KindCallbackInterface:
		return "Pointer<Void>"
	default:
		return "RustBuffer"
	}
}

// libraryClass emits _UniffiLib: the dynamic library loader and one typed
// lookup per native entry point the unit calls.
func (g *Generator) libraryClass(defs *model.Definitions) string {
	sigs := collectSymbols(defs)

	var b strings.Builder
	b.WriteString("class _UniffiLib {\n")
	b.WriteString("  _UniffiLib._();\n\n")
	b.WriteString("  static final DynamicLibrary _dylib = _open();\n\n")
	b.WriteString("  static DynamicLibrary _open() {\n")
	if g.cfg.LibraryPath != "" {
		fmt.Fprintf(&b, "    return DynamicLibrary.open(%q);\n", g.cfg.LibraryPath)
	} else {
		mod := defs.FFIModule
		fmt.Fprintf(&b, "    if (Platform.isAndroid) {\n")
		fmt.Fprintf(&b, "      return DynamicLibrary.open(\"lib%s.so\");\n", mod)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    if (Platform.isIOS) {\n")
		fmt.Fprintf(&b, "      return DynamicLibrary.executable();\n")
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    if (Platform.isLinux) {\n")
		fmt.Fprintf(&b, "      return DynamicLibrary.open(\"lib%s.so\");\n", mod)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    if (Platform.isMacOS) {\n")
		fmt.Fprintf(&b, "      return DynamicLibrary.open(\"lib%s.dylib\");\n", mod)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    if (Platform.isWindows) {\n")
		fmt.Fprintf(&b, "      return DynamicLibrary.open(\"%s.dll\");\n", mod)
		fmt.Fprintf(&b, "    }\n")
		fmt.Fprintf(&b, "    throw UnsupportedError(\"Unsupported platform: ${Platform.operatingSystem}\");\n")
	}
	b.WriteString("  }\n\n")
	b.WriteString("  static final _UniffiLib instance = _UniffiLib._();\n")

	for _, s := range sigs {
		fmt.Fprintf(&b, "\n  late final %s %s =\n", s.dart, s.symbol)
		fmt.Fprintf(&b, "      _dylib.lookupFunction<%s, %s>(\"%s\");\n", s.native, s.dart, s.symbol)
	}
	b.WriteString("}\n")
	return b.String()
}

// collectSymbols walks every callable and produces the lookup list in first
// reference order, deduplicating the shared future entry-point families.
func collectSymbols(defs *model.Definitions) []ffiSignature {
	var sigs []ffiSignature
	seen := map[string]bool{}
	add := func(s ffiSignature) {
		if s.symbol == "" || seen[s.symbol] {
			return
		}
		seen[s.symbol] = true
		sigs = append(sigs, s)
	}

	addCallable := func(selfPtr bool, args []*model.Argument, ret *model.Type,
		async bool, symbol, poll, complete, free string) {
		var natives, darts []string
		if selfPtr {
			natives = append(natives, "Pointer<Void>")
			darts = append(darts, "Pointer<Void>")
		}
		for _, a := range args {
			natives = append(natives, ffiNative(&a.Type))
			darts = append(darts, ffiDart(&a.Type))
		}
		if async {
			add(ffiSignature{
				symbol: symbol,
				native: fmt.Sprintf("Uint64 Function(%s)", strings.Join(natives, ", ")),
				dart:   fmt.Sprintf("int Function(%s)", strings.Join(darts, ", ")),
			})
			add(ffiSignature{
				symbol: poll,
				native: "Void Function(Uint64, Pointer<NativeFunction<UniffiRustFutureContinuationCallback>>, Uint64)",
				dart:   "void Function(int, Pointer<NativeFunction<UniffiRustFutureContinuationCallback>>, int)",
			})
			add(ffiSignature{
				symbol: complete,
				native: fmt.Sprintf("%s Function(Uint64, Pointer<RustCallStatus>)", ffiNative(ret)),
				dart:   fmt.Sprintf("%s Function(int, Pointer<RustCallStatus>)", ffiDart(ret)),
			})
			add(ffiSignature{
				symbol: free,
				native: "Void Function(Uint64)",
				dart:   "void Function(int)",
			})
			return
		}
		natives = append(natives, "Pointer<RustCallStatus>")
		darts = append(darts, "Pointer<RustCallStatus>")
		add(ffiSignature{
			symbol: symbol,
			native: fmt.Sprintf("%s Function(%s)", ffiNative(ret), strings.Join(natives, ", ")),
			dart:   fmt.Sprintf("%s Function(%s)", ffiDart(ret), strings.Join(darts, ", ")),
		})
	}

	mod := defs.FFIModule
	add(ffiSignature{
		symbol: "ffi_" + mod + "_rustbuffer_alloc",
		native: "RustBuffer Function(Uint64, Pointer<RustCallStatus>)",
		dart:   "RustBuffer Function(int, Pointer<RustCallStatus>)",
	})
	add(ffiSignature{
		symbol: "ffi_" + mod + "_rustbuffer_from_bytes",
		native: "RustBuffer Function(ForeignBytes, Pointer<RustCallStatus>)",
		dart:   "RustBuffer Function(ForeignBytes, Pointer<RustCallStatus>)",
	})
	add(ffiSignature{
		symbol: "ffi_" + mod + "_rustbuffer_free",
		native: "Void Function(RustBuffer, Pointer<RustCallStatus>)",
		dart:   "void Function(RustBuffer, Pointer<RustCallStatus>)",
	})

	objectPtr := func() *model.Type {
		t := model.ObjectRef("", model.ImplStruct)
		return &t
	}()

	for _, o := range defs.Objects {
		if o.HasCallbackInterface() {
			add(ffiSignature{
				symbol: o.FFIInit,
				native: fmt.Sprintf("Void Function(Pointer<%s>)", callbackVTableName(ClassName(o.Name))),
				dart:   fmt.Sprintf("void Function(Pointer<%s>)", callbackVTableName(ClassName(o.Name))),
			})
			continue
		}
		add(ffiSignature{
			symbol: o.FFIClone,
			native: "Pointer<Void> Function(Pointer<Void>, Pointer<RustCallStatus>)",
			dart:   "Pointer<Void> Function(Pointer<Void>, Pointer<RustCallStatus>)",
		})
		add(ffiSignature{
			symbol: o.FFIFree,
			native: "Void Function(Pointer<Void>, Pointer<RustCallStatus>)",
			dart:   "void Function(Pointer<Void>, Pointer<RustCallStatus>)",
		})
		for _, c := range o.Constructors {
			addCallable(false, c.Args, objectPtr, false, c.FFISymbol, "", "", "")
		}
		for _, m := range o.Methods {
			addCallable(true, m.Args, m.Return, m.Async, m.FFISymbol, m.FFIPoll, m.FFIComplete, m.FFIFreeFuture)
		}
		for _, tr := range o.Traits {
			if tr.Method != nil {
				addCallable(true, tr.Method.Args, tr.Method.Return, false, tr.Method.FFISymbol, "", "", "")
			}
		}
	}

	for _, cb := range defs.Callbacks {
		add(ffiSignature{
			symbol: cb.FFIInit,
			native: fmt.Sprintf("Void Function(Pointer<%s>)", callbackVTableName(ClassName(cb.Name))),
			dart:   fmt.Sprintf("void Function(Pointer<%s>)", callbackVTableName(ClassName(cb.Name))),
		})
	}

	for _, fn := range defs.Functions {
		addCallable(false, fn.Args, fn.Return, fn.Async, fn.FFISymbol, fn.FFIPoll, fn.FFIComplete, fn.FFIFreeFuture)
	}

	return sigs
}
