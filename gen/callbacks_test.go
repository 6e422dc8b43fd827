package gen

import (
	"strings"
	"testing"

	"github.com/dartffi/bindgen/model"
)

func listenerDefs() *model.Definitions {
	d := todoDefs()
	d.Callbacks = []*model.CallbackInterface{
		{
			Name: "ChangeListener",
			Methods: []*model.Method{
				{Name: "on_change", Args: []*model.Argument{
					{Name: "todos", Type: model.Sequence(model.String())},
				}},
				{Name: "should_notify", Args: []*model.Argument{
					{Name: "level", Type: model.EnumRef("Level")},
					{Name: "urgent", Type: model.Bool()},
				}, Return: typePtr(model.Bool())},
				{Name: "describe", Return: typePtr(model.String())},
			},
			FFIInit: "uniffi_todolist_fn_init_callback_vtable_change_listener",
		},
	}
	return d
}

func TestRenderCallbackInterface(t *testing.T) {
	out := renderType(t, newTestHelper(t, listenerDefs()), model.CallbackRef("ChangeListener"))

	t.Run("contract and converter", func(t *testing.T) {
		for _, want := range []string{
			"abstract class ChangeListener {",
			"void onChange(List<String> todos);",
			"bool shouldNotify(Level level, bool urgent);",
			"String describe();",
			"class FfiConverterCallbackInterfaceChangeListener {",
			"static final _handleMap = UniffiHandleMap<ChangeListener>();",
			"static bool _vtableInitialized = false;",
			"_ensureVTableInitialized();",
			"initChangeListenerVTable();",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("callback unit missing %q", want)
			}
		}
	})

	t.Run("typedefs", func(t *testing.T) {
		for _, want := range []string{
			"typedef UniffiCallbackInterfaceChangeListenerMethod0 = Void Function(",
			"typedef UniffiCallbackInterfaceChangeListenerMethod0Dart = void Function(",
			"typedef UniffiCallbackInterfaceChangeListenerMethod1 = Void Function(",
			"typedef UniffiCallbackInterfaceChangeListenerFree = Void Function(Uint64);",
			"typedef UniffiCallbackInterfaceChangeListenerFreeDart = void Function(int);",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("typedef missing %q", want)
			}
		}
	})

	t.Run("vtable struct", func(t *testing.T) {
		for _, want := range []string{
			"final class UniffiVTableCallbackInterfaceChangeListener extends Struct {",
			"external Pointer<NativeFunction<UniffiCallbackInterfaceChangeListenerMethod0>> onChange;",
			"external Pointer<NativeFunction<UniffiCallbackInterfaceChangeListenerFree>> uniffiFree;",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("vtable struct missing %q", want)
			}
		}
	})

	t.Run("trampolines", func(t *testing.T) {
		for _, want := range []string{
			"void changeListenerOnChange(int uniffiHandle, RustBuffer todos, Pointer<Void> outReturn, Pointer<RustCallStatus> callStatus) {",
			"final arg0 = FfiConverterSequenceString.lift(todos);",
			"final bool_arg1 = urgent == 1;",
			"final arg0 = FfiConverterLevel.read(createUint8ListFromInt(level)).value;",
			"outReturn.value = result ? 1 : 0;",
			"outReturn.ref = FfiConverterString.lower(result);",
			"status.code = CALL_UNEXPECTED_ERROR;",
			"status.errorBuf = FfiConverterString.lower(e.toString());",
			"void changeListenerFreeCallback(int handle) {",
			"FfiConverterCallbackInterfaceChangeListener._handleMap.remove(handle);",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("trampoline missing %q", want)
			}
		}
		if !strings.Contains(out, "Pointer.fromFunction<UniffiCallbackInterfaceChangeListenerMethod1>(changeListenerShouldNotify);") {
			t.Error("trampoline pointer binding missing")
		}
	})

	t.Run("vtable init", func(t *testing.T) {
		for _, want := range []string{
			"late final Pointer<UniffiVTableCallbackInterfaceChangeListener> changeListenerVTable;",
			"void initChangeListenerVTable() {",
			"changeListenerVTable = calloc<UniffiVTableCallbackInterfaceChangeListener>();",
			"changeListenerVTable.ref.onChange = changeListenerOnChangePointer;",
			"changeListenerVTable.ref.uniffiFree = changeListenerFreePointer;",
			"_UniffiLib.instance.uniffi_todolist_fn_init_callback_vtable_change_listener(",
			"checkCallStatus(NullRustCallStatusErrorHandler(), status);",
			"FfiConverterCallbackInterfaceChangeListener._vtableInitialized = true;",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("vtable init missing %q", want)
			}
		}
	})

	t.Run("enum and temporal crossings", func(t *testing.T) {
		d := todoDefs()
		d.Callbacks = []*model.CallbackInterface{
			{
				Name: "LevelSource",
				Methods: []*model.Method{
					{Name: "current_level", Return: typePtr(model.EnumRef("Level"))},
					{Name: "on_elapsed", Args: []*model.Argument{
						{Name: "elapsed", Type: model.Duration()},
					}},
					{Name: "last_error", Return: typePtr(model.EnumRef("TodoError"))},
					{Name: "started_at", Return: typePtr(model.Timestamp())},
				},
				FFIInit: "uniffi_todolist_fn_init_callback_vtable_level_source",
			},
		}
		out := renderType(t, newTestHelper(t, d), model.CallbackRef("LevelSource"))

		// The typedef's out-parameter and the trampoline's signature must
		// name the same pointer type, or Pointer.fromFunction fails to
		// compile. Flat enums scalarize; payload enums and temporals cross
		// as RustBuffer.
		for _, want := range []string{
			"typedef UniffiCallbackInterfaceLevelSourceMethod0 = Void Function(\n" +
				"    Uint64, Pointer<Int32>, Pointer<RustCallStatus>);",
			"typedef UniffiCallbackInterfaceLevelSourceMethod0Dart = void Function(\n" +
				"    int, Pointer<Int32>, Pointer<RustCallStatus>);",
			"void levelSourceCurrentLevel(int uniffiHandle, Pointer<Int32> outReturn, Pointer<RustCallStatus> callStatus) {",
			"outReturn.value = result.index + 1;",
			"typedef UniffiCallbackInterfaceLevelSourceMethod1 = Void Function(\n" +
				"    Uint64, RustBuffer, Pointer<Void>, Pointer<RustCallStatus>);",
			"void levelSourceOnElapsed(int uniffiHandle, RustBuffer elapsed, Pointer<Void> outReturn, Pointer<RustCallStatus> callStatus) {",
			"final arg0 = FfiConverterDuration.lift(elapsed);",
			"typedef UniffiCallbackInterfaceLevelSourceMethod2 = Void Function(\n" +
				"    Uint64, Pointer<RustBuffer>, Pointer<RustCallStatus>);",
			"void levelSourceLastError(int uniffiHandle, Pointer<RustBuffer> outReturn, Pointer<RustCallStatus> callStatus) {",
			"outReturn.ref = FfiConverterTodoException.lower(result);",
			"void levelSourceStartedAt(int uniffiHandle, Pointer<RustBuffer> outReturn, Pointer<RustCallStatus> callStatus) {",
			"outReturn.ref = FfiConverterTimestamp.lower(result);",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("callback crossing missing %q", want)
			}
		}
	})

	t.Run("argument codecs included", func(t *testing.T) {
		h := newTestHelper(t, listenerDefs())
		if err := h.Include(model.CallbackRef("ChangeListener")); err != nil {
			t.Fatalf("Include: %v", err)
		}
		for _, name := range []string{"SequenceString", "String", "Level", "Bool"} {
			if !h.Emitted(name) {
				t.Errorf("dependency %s not registered", name)
			}
		}
	})
}
