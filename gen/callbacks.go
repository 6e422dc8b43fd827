package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// renderCallback emits the full unit for a host-implemented callback
// interface: the abstract contract, the handle-map converter, the native
// and Dart function-pointer typedefs, the trampolines, the vtable struct
// and the idempotent registration function.
func (h *TypeHelper) renderCallback(cb *model.CallbackInterface) (string, error) {
	return h.renderCallbackUnit(ClassName(cb.Name), cb.Methods, cb.FFIInit)
}

// renderCallbackUnit is shared between declared callback interfaces and
// callback-trait objects, which invert direction the same way.
func (h *TypeHelper) renderCallbackUnit(clsName string, methods []*model.Method, initSymbol string) (string, error) {
	convName := "FfiConverterCallbackInterface" + clsName

	for _, m := range methods {
		if err := h.includeCallableTypes(m.Args, m.Return, m.Throws); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	h.writeCallbackContract(&b, clsName, methods)
	h.writeCallbackConverter(&b, clsName, convName)
	h.writeCallbackTypedefs(&b, clsName, methods)
	h.writeCallbackVTableStruct(&b, clsName, methods)
	h.writeCallbackTrampolines(&b, clsName, convName, methods)
	h.writeCallbackVTableInit(&b, clsName, convName, methods, initSymbol)
	return b.String(), nil
}

func (h *TypeHelper) writeCallbackContract(b *strings.Builder, clsName string, methods []*model.Method) {
	fmt.Fprintf(b, "abstract class %s {\n", clsName)
	for _, m := range methods {
		var args []string
		for _, a := range m.Args {
			args = append(args, fmt.Sprintf("%s %s", ExceptionSafeName(TypeLabel(a.Type)), VarName(a.Name)))
		}
		ret := "void"
		if m.Return != nil {
			ret = ExceptionSafeName(TypeLabel(*m.Return))
		}
		fmt.Fprintf(b, "  %s %s(%s);\n", ret, FuncName(m.Name), strings.Join(args, ", "))
	}
	fmt.Fprintf(b, "}\n\n")
}

func (h *TypeHelper) writeCallbackConverter(b *strings.Builder, clsName, convName string) {
	fmt.Fprintf(b, "class %s {\n", convName)
	fmt.Fprintf(b, "  static final _handleMap = UniffiHandleMap<%s>();\n", clsName)
	fmt.Fprintf(b, "  static bool _vtableInitialized = false;\n\n")
	fmt.Fprintf(b, "  static %s lift(Pointer<Void> handle) {\n", clsName)
	fmt.Fprintf(b, "    return _handleMap.get(handle.address);\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  static Pointer<Void> lower(%s value) {\n", clsName)
	fmt.Fprintf(b, "    _ensureVTableInitialized();\n")
	fmt.Fprintf(b, "    final handle = _handleMap.insert(value);\n")
	fmt.Fprintf(b, "    return Pointer<Void>.fromAddress(handle);\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  static void _ensureVTableInitialized() {\n")
	fmt.Fprintf(b, "    if (!_vtableInitialized) {\n")
	fmt.Fprintf(b, "      %s();\n", callbackInitFn(clsName))
	fmt.Fprintf(b, "      _vtableInitialized = true;\n")
	fmt.Fprintf(b, "    }\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  static LiftRetVal<%s> read(Uint8List buf) {\n", clsName)
	fmt.Fprintf(b, "    final handle = buf.buffer.asByteData(buf.offsetInBytes).getInt64(0);\n")
	fmt.Fprintf(b, "    final pointer = Pointer<Void>.fromAddress(handle);\n")
	fmt.Fprintf(b, "    return LiftRetVal(lift(pointer), 8);\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  static int write(%s value, Uint8List buf) {\n", clsName)
	fmt.Fprintf(b, "    final handle = lower(value);\n")
	fmt.Fprintf(b, "    buf.buffer.asByteData(buf.offsetInBytes).setInt64(0, handle.address);\n")
	fmt.Fprintf(b, "    return 8;\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  static int allocationSize(%s value) {\n", clsName)
	fmt.Fprintf(b, "    return 8;\n")
	fmt.Fprintf(b, "  }\n")
	fmt.Fprintf(b, "}\n\n")
}

func (h *TypeHelper) writeCallbackTypedefs(b *strings.Builder, clsName string, methods []*model.Method) {
	for i, m := range methods {
		outType := h.callbackOutReturnType(m.Return)

		var nativeArgs, dartArgs []string
		for _, a := range m.Args {
			nativeArgs = append(nativeArgs, h.callbackNativeLabel(&a.Type))
			dartArgs = append(dartArgs, h.callbackDartLabel(&a.Type))
		}
		nativeList := strings.Join(append([]string{"Uint64"}, nativeArgs...), ", ")
		dartList := strings.Join(append([]string{"int"}, dartArgs...), ", ")

		fmt.Fprintf(b, "typedef %s = Void Function(\n", callbackMethodTypedef(clsName, i))
		fmt.Fprintf(b, "    %s, %s, Pointer<RustCallStatus>);\n", nativeList, outType)
		fmt.Fprintf(b, "typedef %sDart = void Function(\n", callbackMethodTypedef(clsName, i))
		fmt.Fprintf(b, "    %s, %s, Pointer<RustCallStatus>);\n", dartList, outType)
	}
	fmt.Fprintf(b, "typedef %s = Void Function(Uint64);\n", callbackFreeTypedef(clsName))
	fmt.Fprintf(b, "typedef %sDart = void Function(int);\n\n", callbackFreeTypedef(clsName))
}

func (h *TypeHelper) writeCallbackVTableStruct(b *strings.Builder, clsName string, methods []*model.Method) {
	fmt.Fprintf(b, "final class %s extends Struct {\n", callbackVTableName(clsName))
	for i, m := range methods {
		fmt.Fprintf(b, "  external Pointer<NativeFunction<%s>> %s;\n", callbackMethodTypedef(clsName, i), FuncName(m.Name))
	}
	fmt.Fprintf(b, "  external Pointer<NativeFunction<%s>> uniffiFree;\n", callbackFreeTypedef(clsName))
	fmt.Fprintf(b, "}\n\n")
}

// callbackNativeLabel is the native view of a value crossing a callback
// trampoline. Flat enums scalarize to their 1-based tag; payload enums and
// temporals cross as RustBuffer because their converters only speak
// buffers. Everything else follows the regular native mapping.
func (h *TypeHelper) callbackNativeLabel(t *model.Type) string {
	if t == nil {
		return "Void"
	}
	switch t.Kind {
	case model.KindEnum:
		if h.isFlatEnumType(*t) {
			return "Int32"
		}
		return "RustBuffer"
	case model.KindDuration, model.KindTimestamp:
		return "RustBuffer"
	}
	return NativeTypeLabel(t)
}

func (h *TypeHelper) callbackDartLabel(t *model.Type) string {
	if t == nil {
		return "void"
	}
	switch h.callbackNativeLabel(t) {
	case "RustBuffer":
		return "RustBuffer"
	case "Pointer<Void>":
		return "Pointer<Void>"
	case "Float", "Double":
		return "double"
	default:
		return "int"
	}
}

// callbackOutReturnType picks the typed output slot the native side hands a
// trampoline to store the method result into. It always agrees with the
// trampoline typedef's out-parameter.
func (h *TypeHelper) callbackOutReturnType(ret *model.Type) string {
	return "Pointer<" + h.callbackNativeLabel(ret) + ">"
}

func (h *TypeHelper) writeCallbackTrampolines(b *strings.Builder, clsName, convName string, methods []*model.Method) {
	for i, m := range methods {
		trampName := lowerCamel(clsName) + ClassName(m.Name)

		var params []string
		for _, a := range m.Args {
			params = append(params, fmt.Sprintf("%s %s", h.callbackDartLabel(&a.Type), VarName(a.Name)))
		}
		paramList := ""
		if len(params) > 0 {
			paramList = strings.Join(params, ", ") + ", "
		}

		fmt.Fprintf(b, "void %s(int uniffiHandle, %s%s outReturn, Pointer<RustCallStatus> callStatus) {\n",
			trampName, paramList, h.callbackOutReturnType(m.Return))
		fmt.Fprintf(b, "  final status = callStatus.ref;\n")
		fmt.Fprintf(b, "  try {\n")
		fmt.Fprintf(b, "    final obj = %s._handleMap.get(uniffiHandle);\n", convName)

		var callArgs []string
		for idx, a := range m.Args {
			argVar := fmt.Sprintf("arg%d", idx)
			switch a.Type.Kind {
			case model.KindBoolean:
				fmt.Fprintf(b, "    final bool_arg%d = %s == 1;\n", idx, VarName(a.Name))
				argVar = fmt.Sprintf("bool_arg%d", idx)
			case model.KindEnum:
				if !h.isFlatEnumType(a.Type) {
					fmt.Fprintf(b, "    final arg%d = %s.lift(%s);\n",
						idx, ExceptionSafeName(ConverterName(a.Type)), VarName(a.Name))
					break
				}
				fmt.Fprintf(b, "    final arg%d = %s.read(createUint8ListFromInt(%s)).value;\n",
					idx, ExceptionSafeName(ConverterName(a.Type)), VarName(a.Name))
			case model.KindUInt8, model.KindInt8, model.KindUInt16, model.KindInt16,
				model.KindUInt32, model.KindInt32, model.KindUInt64, model.KindInt64,
				model.KindFloat32, model.KindFloat64:
				fmt.Fprintf(b, "    final arg%d = %s;\n", idx, VarName(a.Name))
			default:
				fmt.Fprintf(b, "    final arg%d = %s.lift(%s);\n",
					idx, ExceptionSafeName(ConverterName(a.Type)), VarName(a.Name))
			}
			callArgs = append(callArgs, argVar)
		}
		call := fmt.Sprintf("obj.%s(%s)", FuncName(m.Name), strings.Join(callArgs, ", "))

		switch {
		case m.Return == nil:
			fmt.Fprintf(b, "    %s;\n", call)
			fmt.Fprintf(b, "    status.code = CALL_SUCCESS;\n")
		case m.Return.Kind == model.KindBoolean:
			fmt.Fprintf(b, "    final result = %s;\n", call)
			fmt.Fprintf(b, "    outReturn.value = result ? 1 : 0;\n")
		case m.Return.Kind == model.KindObject:
			fmt.Fprintf(b, "    final result = %s;\n", call)
			fmt.Fprintf(b, "    outReturn.value = %s.lower(result);\n", ExceptionSafeName(ConverterName(*m.Return)))
		case h.isFlatEnumType(*m.Return):
			fmt.Fprintf(b, "    final result = %s;\n", call)
			fmt.Fprintf(b, "    outReturn.value = result.index + 1;\n")
		case m.Return.IsPrimitive() && m.Return.Kind != model.KindString &&
			m.Return.Kind != model.KindBytes && m.Return.Kind != model.KindDuration &&
			m.Return.Kind != model.KindTimestamp:
			fmt.Fprintf(b, "    final result = %s;\n", call)
			fmt.Fprintf(b, "    outReturn.value = result;\n")
		default:
			fmt.Fprintf(b, "    final result = %s;\n", call)
			fmt.Fprintf(b, "    outReturn.ref = %s.lower(result);\n", ExceptionSafeName(ConverterName(*m.Return)))
		}

		fmt.Fprintf(b, "  } catch (e) {\n")
		fmt.Fprintf(b, "    status.code = CALL_UNEXPECTED_ERROR;\n")
		fmt.Fprintf(b, "    status.errorBuf = FfiConverterString.lower(e.toString());\n")
		fmt.Fprintf(b, "  }\n")
		fmt.Fprintf(b, "}\n\n")
		fmt.Fprintf(b, "final Pointer<NativeFunction<%s>> %sPointer =\n", callbackMethodTypedef(clsName, i), trampName)
		fmt.Fprintf(b, "    Pointer.fromFunction<%s>(%s);\n\n", callbackMethodTypedef(clsName, i), trampName)
	}

	freeFn := lowerCamel(clsName) + "FreeCallback"
	fmt.Fprintf(b, "void %s(int handle) {\n", freeFn)
	fmt.Fprintf(b, "  try {\n")
	fmt.Fprintf(b, "    %s._handleMap.remove(handle);\n", convName)
	fmt.Fprintf(b, "  } catch (e) {\n")
	fmt.Fprintf(b, "    // The handle is already gone; nothing to release.\n")
	fmt.Fprintf(b, "  }\n")
	fmt.Fprintf(b, "}\n\n")
	fmt.Fprintf(b, "final Pointer<NativeFunction<%s>> %sFreePointer =\n", callbackFreeTypedef(clsName), lowerCamel(clsName))
	fmt.Fprintf(b, "    Pointer.fromFunction<%s>(%s);\n\n", callbackFreeTypedef(clsName), freeFn)
}

func (h *TypeHelper) writeCallbackVTableInit(b *strings.Builder, clsName, convName string, methods []*model.Method, initSymbol string) {
	vtableName := callbackVTableName(clsName)
	instance := lowerCamel(clsName) + "VTable"

	fmt.Fprintf(b, "late final Pointer<%s> %s;\n\n", vtableName, instance)
	fmt.Fprintf(b, "void %s() {\n", callbackInitFn(clsName))
	fmt.Fprintf(b, "  if (%s._vtableInitialized) {\n", convName)
	fmt.Fprintf(b, "    return;\n")
	fmt.Fprintf(b, "  }\n\n")
	fmt.Fprintf(b, "  %s = calloc<%s>();\n", instance, vtableName)
	for _, m := range methods {
		fmt.Fprintf(b, "  %s.ref.%s = %s%sPointer;\n", instance, FuncName(m.Name), lowerCamel(clsName), ClassName(m.Name))
	}
	fmt.Fprintf(b, "  %s.ref.uniffiFree = %sFreePointer;\n\n", instance, lowerCamel(clsName))
	fmt.Fprintf(b, "  rustCall((status) {\n")
	fmt.Fprintf(b, "    _UniffiLib.instance.%s(\n", initSymbol)
	fmt.Fprintf(b, "      %s,\n", instance)
	fmt.Fprintf(b, "    );\n")
	fmt.Fprintf(b, "    checkCallStatus(NullRustCallStatusErrorHandler(), status);\n")
	fmt.Fprintf(b, "  });\n\n")
	fmt.Fprintf(b, "  %s._vtableInitialized = true;\n", convName)
	fmt.Fprintf(b, "}\n")
}
