package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/errors"
	"github.com/dartffi/bindgen/model"
)

const libInstance = "_UniffiLib.instance"

// errorHandlerExpr names the handler instance for a throws-type, or the
// null literal when the callable cannot fail with a library error.
func errorHandlerExpr(throws string) string {
	if throws == "" {
		return "null"
	}
	return lowerCamel(ClassName(throws)) + "ErrorHandler"
}

// renderObject emits the unit for an object definition. Callback-trait
// objects invert direction and reuse the callback-interface machinery;
// trait-interface objects get an abstract class with a single hidden
// native-backed implementation; native-backed objects get the full class
// with lifecycle, constructors and method wrappers.
func (h *TypeHelper) renderObject(o *model.Object) (string, error) {
	if o.HasCallbackInterface() {
		initSymbol := o.FFIInit
		if initSymbol == "" {
			initSymbol = fmt.Sprintf("uniffi_%s_fn_init_callback_vtable_%s",
				h.defs.FFIModule, strings.ToLower(o.Name))
		}
		return h.renderCallbackUnit(ClassName(o.Name), o.Methods, initSymbol)
	}
	if o.IsTraitInterface() {
		return h.renderTraitObject(o)
	}
	return h.renderStructObject(o)
}

func (h *TypeHelper) includeCallableTypes(args []*model.Argument, ret *model.Type, throws string) error {
	for _, a := range args {
		if err := h.Include(a.Type); err != nil {
			return err
		}
	}
	if ret != nil {
		if err := h.Include(*ret); err != nil {
			return err
		}
	}
	return h.includeThrows(throws)
}

// includeThrows registers the declared error type so the handler instance
// a wrapper names is always defined, even when no signature mentions it.
func (h *TypeHelper) includeThrows(throws string) error {
	if throws == "" {
		return nil
	}
	if _, ok := h.defs.Enum(throws); ok {
		return h.Include(model.EnumRef(throws))
	}
	if o, ok := h.defs.Object(throws); ok {
		return h.Include(o.AsType())
	}
	return errors.NotFound(errors.PhaseEmit, "error type", throws)
}

func (h *TypeHelper) renderStructObject(o *model.Object) (string, error) {
	clsName := ClassName(o.Name)
	interfaceName := clsName + "Interface"
	finalizer := "_" + clsName + "Finalizer"
	isError := h.defs.IsErrorName(o.Name)

	for _, c := range o.Constructors {
		if err := h.includeCallableTypes(c.Args, nil, c.Throws); err != nil {
			return "", err
		}
	}
	for _, m := range o.Methods {
		if err := h.includeCallableTypes(m.Args, m.Return, m.Throws); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	h.writeObjectInterface(&b, interfaceName, o.Methods)

	fmt.Fprintf(&b, "final %s = Finalizer<Pointer<Void>>((ptr) {\n", finalizer)
	fmt.Fprintf(&b, "  rustCall((status) => %s.%s(ptr, status));\n", libInstance, o.FFIFree)
	fmt.Fprintf(&b, "});\n\n")

	implements := []string{interfaceName}
	if isError {
		implements = append(implements, "Exception")
	}
	fmt.Fprintf(&b, "class %s implements %s {\n", clsName, strings.Join(implements, ", "))
	fmt.Fprintf(&b, "  late final Pointer<Void> _ptr;\n\n")
	fmt.Fprintf(&b, "  %s._(this._ptr) {\n", clsName)
	fmt.Fprintf(&b, "    %s.attach(this, _ptr, detach: this);\n", finalizer)
	fmt.Fprintf(&b, "  }\n\n")

	for _, c := range o.Constructors {
		decl := clsName
		if c.Name != "new" {
			decl = clsName + "." + FuncName(c.Name)
		}
		var params, lowered []string
		for _, a := range c.Args {
			params = append(params, fmt.Sprintf("%s %s", ExceptionSafeName(TypeLabel(a.Type)), VarName(a.Name)))
			lowered = append(lowered, LowerExpr(a.Type, VarName(a.Name))+", ")
		}
		fmt.Fprintf(&b, "  %s(%s) : _ptr = rustCall((status) =>\n", decl, strings.Join(params, ", "))
		fmt.Fprintf(&b, "      %s.%s(\n", libInstance, c.FFISymbol)
		fmt.Fprintf(&b, "        %sstatus\n", strings.Join(lowered, ""))
		fmt.Fprintf(&b, "      ),\n")
		fmt.Fprintf(&b, "      %s\n", errorHandlerExpr(c.Throws))
		fmt.Fprintf(&b, "  ) {\n")
		fmt.Fprintf(&b, "    %s.attach(this, _ptr, detach: this);\n", finalizer)
		fmt.Fprintf(&b, "  }\n\n")
	}

	fmt.Fprintf(&b, "  factory %s.lift(Pointer<Void> ptr) {\n", clsName)
	fmt.Fprintf(&b, "    return %s._(ptr);\n", clsName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static Pointer<Void> lower(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    return value.uniffiClonePointer();\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  Pointer<Void> uniffiClonePointer() {\n")
	fmt.Fprintf(&b, "    return rustCall((status) => %s.%s(_ptr, status));\n", libInstance, o.FFIClone)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    return 8;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final handle = buf.buffer.asByteData(buf.offsetInBytes).getInt64(0);\n")
	fmt.Fprintf(&b, "    final pointer = Pointer<Void>.fromAddress(handle);\n")
	fmt.Fprintf(&b, "    return LiftRetVal(%s.lift(pointer), 8);\n", clsName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final handle = lower(value);\n")
	fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt64(0, handle.address);\n")
	fmt.Fprintf(&b, "    return 8;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  void dispose() {\n")
	fmt.Fprintf(&b, "    %s.detach(this);\n", finalizer)
	fmt.Fprintf(&b, "    rustCall((status) => %s.%s(_ptr, status));\n", libInstance, o.FFIFree)
	fmt.Fprintf(&b, "  }\n")

	hasDisplay := false
	for _, tr := range o.Traits {
		if tr.Kind == model.TraitDisplay {
			hasDisplay = true
		}
	}
	if isError && !hasDisplay {
		fmt.Fprintf(&b, "\n  @override\n")
		fmt.Fprintf(&b, "  String toString() {\n")
		fmt.Fprintf(&b, "    return \"%s\";\n", clsName)
		fmt.Fprintf(&b, "  }\n")
	}
	if err := h.writeTraitHelpers(&b, o); err != nil {
		return "", err
	}

	for _, m := range o.Methods {
		b.WriteString("\n")
		h.writeMethodWrapper(&b, m, true)
	}
	fmt.Fprintf(&b, "}\n")

	if isError {
		handler := clsName + "ErrorHandler"
		fmt.Fprintf(&b, "\nclass %s extends UniffiRustCallStatusErrorHandler {\n", handler)
		fmt.Fprintf(&b, "  @override\n")
		fmt.Fprintf(&b, "  Exception lift(RustBuffer errorBuf) {\n")
		fmt.Fprintf(&b, "    return %s.read(errorBuf.asUint8List()).value;\n", clsName)
		fmt.Fprintf(&b, "  }\n")
		fmt.Fprintf(&b, "}\n\n")
		fmt.Fprintf(&b, "final %s %sErrorHandler = %s();\n", handler, lowerCamel(clsName), handler)
	}
	return b.String(), nil
}

func (h *TypeHelper) writeObjectInterface(b *strings.Builder, interfaceName string, methods []*model.Method) {
	if len(methods) == 0 {
		fmt.Fprintf(b, "abstract class %s {}\n\n", interfaceName)
		return
	}
	fmt.Fprintf(b, "abstract class %s {\n", interfaceName)
	for _, m := range methods {
		h.writeInterfaceMethod(b, m)
	}
	fmt.Fprintf(b, "}\n\n")
}

func (h *TypeHelper) writeInterfaceMethod(b *strings.Builder, m *model.Method) {
	var args []string
	for _, a := range m.Args {
		args = append(args, fmt.Sprintf("%s %s", ExceptionSafeName(TypeLabel(a.Type)), VarName(a.Name)))
	}
	ret := "void"
	if m.Return != nil {
		ret = ExceptionSafeName(TypeLabel(*m.Return))
	}
	if m.Async {
		ret = "Future<" + ret + ">"
	}
	fmt.Fprintf(b, "  %s %s(%s);\n", ret, FuncName(m.Name), strings.Join(args, ", "))
}

// writeMethodWrapper emits the call wrapper for a method. withSelf methods
// clone the instance handle immediately before the native call so the call
// can race with a concurrent dispose.
func (h *TypeHelper) writeMethodWrapper(b *strings.Builder, m *model.Method, withSelf bool) {
	var params, lowered []string
	for _, a := range m.Args {
		params = append(params, fmt.Sprintf("%s %s", ExceptionSafeName(TypeLabel(a.Type)), VarName(a.Name)))
		lowered = append(lowered, LowerExpr(a.Type, VarName(a.Name)))
	}

	ret := "void"
	lifter := "(_) {}"
	if m.Return != nil {
		ret = ExceptionSafeName(TypeLabel(*m.Return))
		lifter = LiftRef(*m.Return)
	}
	handler := errorHandlerExpr(m.Throws)

	indent := ""
	if withSelf {
		indent = "  "
	}
	selfArg := ""
	if withSelf {
		selfArg = "uniffiClonePointer(),\n" + indent + "        "
	}
	argList := ""
	for _, l := range lowered {
		argList += l + ", "
	}

	switch {
	case m.Async:
		fmt.Fprintf(b, "%sFuture<%s> %s(%s) {\n", indent, ret, FuncName(m.Name), strings.Join(params, ", "))
		fmt.Fprintf(b, "%s  return uniffiRustCallAsync(\n", indent)
		fmt.Fprintf(b, "%s    () => %s.%s(\n", indent, libInstance, m.FFISymbol)
		fmt.Fprintf(b, "%s      %s%s\n", indent, selfArg, strings.TrimSuffix(argList, ", "))
		fmt.Fprintf(b, "%s    ),\n", indent)
		fmt.Fprintf(b, "%s    %s.%s,\n", indent, libInstance, m.FFIPoll)
		fmt.Fprintf(b, "%s    %s.%s,\n", indent, libInstance, m.FFIComplete)
		fmt.Fprintf(b, "%s    %s.%s,\n", indent, libInstance, m.FFIFreeFuture)
		fmt.Fprintf(b, "%s    %s,\n", indent, lifter)
		fmt.Fprintf(b, "%s    %s,\n", indent, handler)
		fmt.Fprintf(b, "%s  );\n", indent)
		fmt.Fprintf(b, "%s}\n", indent)
	case m.Return == nil:
		fmt.Fprintf(b, "%svoid %s(%s) {\n", indent, FuncName(m.Name), strings.Join(params, ", "))
		fmt.Fprintf(b, "%s  return rustCall((status) {\n", indent)
		fmt.Fprintf(b, "%s    %s.%s(\n", indent, libInstance, m.FFISymbol)
		fmt.Fprintf(b, "%s      %s%sstatus\n", indent, selfArg, argList)
		fmt.Fprintf(b, "%s    );\n", indent)
		fmt.Fprintf(b, "%s  }, %s);\n", indent, handler)
		fmt.Fprintf(b, "%s}\n", indent)
	default:
		fmt.Fprintf(b, "%s%s %s(%s) {\n", indent, ret, FuncName(m.Name), strings.Join(params, ", "))
		fmt.Fprintf(b, "%s  return rustCall((status) => %s(%s.%s(\n", indent, lifter, libInstance, m.FFISymbol)
		fmt.Fprintf(b, "%s    %s%sstatus\n", indent, selfArg, argList)
		fmt.Fprintf(b, "%s  )), %s);\n", indent, handler)
		fmt.Fprintf(b, "%s}\n", indent)
	}
}

// writeTraitHelpers maps built-in trait implementations to their host
// idioms: display to toString, debug to debugString, eq to operator ==,
// hash to hashCode. Each delegates to the hidden native method.
func (h *TypeHelper) writeTraitHelpers(b *strings.Builder, o *model.Object) error {
	clsName := ClassName(o.Name)
	seen := map[model.TraitKind]bool{}
	for _, tr := range o.Traits {
		if tr.Method == nil || seen[tr.Kind] {
			continue
		}
		seen[tr.Kind] = true
		if err := h.includeCallableTypes(tr.Method.Args, tr.Method.Return, tr.Method.Throws); err != nil {
			return err
		}
		switch tr.Kind {
		case model.TraitDisplay:
			fmt.Fprintf(b, "\n  @override\n")
			fmt.Fprintf(b, "  String toString() {\n")
			fmt.Fprintf(b, "    return %s;\n", h.traitMethodCall(tr.Method, nil))
			fmt.Fprintf(b, "  }\n")
		case model.TraitDebug:
			fmt.Fprintf(b, "\n  String debugString() {\n")
			fmt.Fprintf(b, "    return %s;\n", h.traitMethodCall(tr.Method, nil))
			fmt.Fprintf(b, "  }\n")
		case model.TraitEq:
			fmt.Fprintf(b, "\n  @override\n")
			fmt.Fprintf(b, "  bool operator ==(Object other) {\n")
			fmt.Fprintf(b, "    if (identical(this, other)) {\n")
			fmt.Fprintf(b, "      return true;\n")
			fmt.Fprintf(b, "    }\n")
			fmt.Fprintf(b, "    if (other is! %s) {\n", clsName)
			fmt.Fprintf(b, "      return false;\n")
			fmt.Fprintf(b, "    }\n")
			fmt.Fprintf(b, "    return %s;\n", h.traitMethodCall(tr.Method, []string{"other"}))
			fmt.Fprintf(b, "  }\n")
		case model.TraitHash:
			fmt.Fprintf(b, "\n  @override\n")
			fmt.Fprintf(b, "  int get hashCode {\n")
			fmt.Fprintf(b, "    return %s;\n", h.traitMethodCall(tr.Method, nil))
			fmt.Fprintf(b, "  }\n")
		}
	}
	return nil
}

func (h *TypeHelper) traitMethodCall(m *model.Method, argExprs []string) string {
	handler := errorHandlerExpr(m.Throws)
	var lowered string
	for i, a := range m.Args {
		if i < len(argExprs) {
			lowered += LowerExpr(a.Type, argExprs[i]) + ", "
		}
	}
	if m.Return != nil {
		return fmt.Sprintf("rustCall((status) => %s(%s.%s(\n        uniffiClonePointer(), %sstatus)), %s)",
			LiftRef(*m.Return), libInstance, m.FFISymbol, lowered, handler)
	}
	return fmt.Sprintf("rustCall((status) { %s.%s(\n        uniffiClonePointer(), %sstatus); }, %s)",
		libInstance, m.FFISymbol, lowered, handler)
}

// renderTraitObject emits a trait-interface object: an abstract class whose
// only permitted concrete implementation is the hidden native-backed one.
// Lowering a foreign implementation is a contract violation.
func (h *TypeHelper) renderTraitObject(o *model.Object) (string, error) {
	clsName := ClassName(o.Name)
	implName := "_" + clsName + "Impl"
	finalizer := "_" + clsName + "ImplFinalizer"

	for _, m := range o.Methods {
		if err := h.includeCallableTypes(m.Args, m.Return, m.Throws); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "abstract class %s {\n", clsName)
	fmt.Fprintf(&b, "  factory %s.lift(Pointer<Void> ptr) => %s._internal(ptr);\n\n", clsName, implName)
	fmt.Fprintf(&b, "  static Pointer<Void> lower(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    if (value is %s) {\n", implName)
	fmt.Fprintf(&b, "      return value.uniffiClonePointer();\n")
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    throw UnsupportedError(\"Only Rust-implemented %s values are supported.\");\n", clsName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s value) {\n", clsName)
	fmt.Fprintf(&b, "    if (value is %s) {\n", implName)
	fmt.Fprintf(&b, "      return %s.allocationSize(value);\n", implName)
	fmt.Fprintf(&b, "    }\n")
	fmt.Fprintf(&b, "    throw UnsupportedError(\"Only Rust-implemented %s values are supported.\");\n", clsName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final handle = buf.buffer.asByteData(buf.offsetInBytes).getInt64(0);\n")
	fmt.Fprintf(&b, "    final pointer = Pointer<Void>.fromAddress(handle);\n")
	fmt.Fprintf(&b, "    return LiftRetVal(%s.lift(pointer), 8);\n", clsName)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(&b, "    final handle = lower(value);\n")
	fmt.Fprintf(&b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt64(0, handle.address);\n")
	fmt.Fprintf(&b, "    return 8;\n")
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  void dispose();\n\n")
	for _, m := range o.Methods {
		h.writeInterfaceMethod(&b, m)
	}
	fmt.Fprintf(&b, "}\n\n")

	fmt.Fprintf(&b, "final class %s implements %s {\n", implName, clsName)
	fmt.Fprintf(&b, "  %s._internal(this._ptr) {\n", implName)
	fmt.Fprintf(&b, "    %s.attach(this, _ptr, detach: this);\n", finalizer)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  static final Finalizer<Pointer<Void>> %s =\n", finalizer)
	fmt.Fprintf(&b, "      Finalizer<Pointer<Void>>((ptr) {\n")
	fmt.Fprintf(&b, "    rustCall((status) => %s.%s(ptr, status));\n", libInstance, o.FFIFree)
	fmt.Fprintf(&b, "  });\n\n")
	fmt.Fprintf(&b, "  final Pointer<Void> _ptr;\n\n")
	fmt.Fprintf(&b, "  static int allocationSize(%s _) => 8;\n\n", implName)
	fmt.Fprintf(&b, "  Pointer<Void> uniffiClonePointer() {\n")
	fmt.Fprintf(&b, "    return rustCall((status) => %s.%s(_ptr, status));\n", libInstance, o.FFIClone)
	fmt.Fprintf(&b, "  }\n\n")
	fmt.Fprintf(&b, "  @override\n")
	fmt.Fprintf(&b, "  void dispose() {\n")
	fmt.Fprintf(&b, "    %s.detach(this);\n", finalizer)
	fmt.Fprintf(&b, "    rustCall((status) => %s.%s(_ptr, status));\n", libInstance, o.FFIFree)
	fmt.Fprintf(&b, "  }\n")
	for _, m := range o.Methods {
		b.WriteString("\n")
		b.WriteString("  @override\n")
		h.writeMethodWrapper(&b, m, true)
	}
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}
