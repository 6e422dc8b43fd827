package gen

import (
	"fmt"
	"strings"

	"github.com/dartffi/bindgen/model"
)

// runtimePrelude emits the fixed support layer every generated unit depends
// on: buffer types, call-status plumbing, the handle map, and the async
// driver. Only the buffer alloc/free entry points vary with the module name.
func (g *Generator) runtimePrelude(defs *model.Definitions) string {
	mod := defs.FFIModule
	var b strings.Builder

	b.WriteString(`class UniffiInternalError implements Exception {
  static const int bufferOverflow = 0;
  static const int incompleteData = 1;
  static const int unexpectedOptionalTag = 2;
  static const int unexpectedEnumCase = 3;
  static const int unexpectedNullPointer = 4;
  static const int unexpectedRustCallStatusCode = 5;
  static const int unexpectedRustCallError = 6;
  static const int unexpectedStaleHandle = 7;
  static const int rustPanic = 8;

  final int errorCode;
  final String? panicMessage;

  const UniffiInternalError(this.errorCode, this.panicMessage);

  static UniffiInternalError panicked(String message) {
    return UniffiInternalError(rustPanic, message);
  }

  @override
  String toString() {
    return "UniffiInternalError($errorCode, $panicMessage)";
  }
}

const int CALL_SUCCESS = 0;
const int CALL_ERROR = 1;
const int CALL_UNEXPECTED_ERROR = 2;

final class RustCallStatus extends Struct {
  @Int8()
  external int code;
  external RustBuffer errorBuf;
}

void checkCallStatus(
  UniffiRustCallStatusErrorHandler errorHandler,
  Pointer<RustCallStatus> status,
) {
  if (status.ref.code == CALL_SUCCESS) {
    return;
  } else if (status.ref.code == CALL_ERROR) {
    throw errorHandler.lift(status.ref.errorBuf);
  } else if (status.ref.code == CALL_UNEXPECTED_ERROR) {
    if (status.ref.errorBuf.len > 0) {
      throw UniffiInternalError.panicked(
          FfiConverterString.lift(status.ref.errorBuf));
    }
    throw UniffiInternalError.panicked("Rust panic");
  } else {
    throw UniffiInternalError(UniffiInternalError.unexpectedRustCallStatusCode,
        "Unexpected RustCallStatus code: ${status.ref.code}");
  }
}

T rustCall<T>(
  T Function(Pointer<RustCallStatus>) callback, [
  UniffiRustCallStatusErrorHandler? errorHandler,
]) {
  final status = calloc<RustCallStatus>();
  try {
    final result = callback(status);
    checkCallStatus(errorHandler ?? NullRustCallStatusErrorHandler(), status);
    return result;
  } finally {
    calloc.free(status);
  }
}

abstract class UniffiRustCallStatusErrorHandler {
  Exception lift(RustBuffer errorBuf);
}

class NullRustCallStatusErrorHandler extends UniffiRustCallStatusErrorHandler {
  @override
  Exception lift(RustBuffer errorBuf) {
    errorBuf.free();
    return UniffiInternalError.panicked("Unexpected CALL_ERROR");
  }
}

`)

	fmt.Fprintf(&b, `final class RustBuffer extends Struct {
  @Uint64()
  external int capacity;
  @Uint64()
  external int len;
  external Pointer<Uint8> data;

  static RustBuffer alloc(int size) {
    return rustCall((status) =>
        _UniffiLib.instance.ffi_%[1]s_rustbuffer_alloc(size, status));
  }

  static RustBuffer fromBytes(ForeignBytes bytes) {
    return rustCall((status) =>
        _UniffiLib.instance.ffi_%[1]s_rustbuffer_from_bytes(bytes, status));
  }

  void free() {
    rustCall((status) =>
        _UniffiLib.instance.ffi_%[1]s_rustbuffer_free(this, status));
  }

  Uint8List asUint8List() {
    return data.asTypedList(len);
  }

  @override
  String toString() {
    return "RustBuffer{capacity: $capacity, len: $len}";
  }
}

`, mod)

	b.WriteString(`final class ForeignBytes extends Struct {
  @Int32()
  external int length;
  external Pointer<Uint8> data;
}

RustBuffer toRustBuffer(Uint8List data) {
  final length = data.length;
  final frameData = calloc<Uint8>(length);
  frameData.asTypedList(length).setAll(0, data);
  final bytes = calloc<ForeignBytes>();
  bytes.ref.length = length;
  bytes.ref.data = frameData;
  final buffer = RustBuffer.fromBytes(bytes.ref);
  calloc.free(frameData);
  calloc.free(bytes);
  return buffer;
}

Uint8List createUint8ListFromInt(int value) {
  final list = Uint8List(4);
  for (var i = 3; i >= 0; i--) {
    list[i] = value & 0xFF;
    value >>= 8;
  }
  return list;
}

class LiftRetVal<T> {
  final T value;
  final int bytesRead;

  const LiftRetVal(this.value, this.bytesRead);

  LiftRetVal<T> copyWithOffset(int offset) {
    return LiftRetVal(value, bytesRead + offset);
  }
}

class UniffiHandleMap<T> {
  final Map<int, T> _map = {};
  // Handles start at 1: a lowered handle becomes a pointer address, and
  // handle 0 would cross the boundary as a null pointer.
  int _counter = 1;

  int insert(T obj) {
    final handle = _counter++;
    _map[handle] = obj;
    return handle;
  }

  T get(int handle) {
    final obj = _map[handle];
    if (obj == null) {
      throw UniffiInternalError(
          UniffiInternalError.unexpectedStaleHandle, "Handle not found");
    }
    return obj;
  }

  void remove(int handle) {
    if (_map.remove(handle) == null) {
      throw UniffiInternalError(
          UniffiInternalError.unexpectedStaleHandle, "Handle not found");
    }
  }
}

class UniffiMemoryProfiler {
  static int stringCacheHits = 0;
  static int stringCacheMisses = 0;

  static void incrementStringCacheHits() {
    stringCacheHits++;
  }

  static void incrementStringCacheMisses() {
    stringCacheMisses++;
  }

  static void reset() {
    stringCacheHits = 0;
    stringCacheMisses = 0;
  }
}

const int UNIFFI_RUST_FUTURE_POLL_READY = 0;
const int UNIFFI_RUST_FUTURE_POLL_MAYBE_READY = 1;

typedef UniffiRustFutureContinuationCallback = Void Function(Uint64, Int8);

// A future abandoned before its completer resolves keeps the native
// callable and the underlying handle alive until process exit.
Future<T> uniffiRustCallAsync<T, F>(
  int Function() rustFutureFunc,
  void Function(int, Pointer<NativeFunction<UniffiRustFutureContinuationCallback>>, int)
      pollFunc,
  F Function(int, Pointer<RustCallStatus>) completeFunc,
  void Function(int) freeFunc,
  T Function(F) liftFunc, [
  UniffiRustCallStatusErrorHandler? errorHandler,
]) async {
  final rustFuture = rustFutureFunc();
  final completer = Completer<int>();

  late final NativeCallable<UniffiRustFutureContinuationCallback> callback;

  void poll() {
    pollFunc(rustFuture, callback.nativeFunction, 0);
  }

  void onResponse(int idx, int pollResult) {
    if (pollResult == UNIFFI_RUST_FUTURE_POLL_READY) {
      completer.complete(pollResult);
    } else {
      poll();
    }
  }

  callback = NativeCallable.listener(onResponse);

  try {
    poll();
    await completer.future;
    callback.close();

    final status = calloc<RustCallStatus>();
    try {
      final result = completeFunc(rustFuture, status);
      checkCallStatus(errorHandler ?? NullRustCallStatusErrorHandler(), status);
      return liftFunc(result);
    } finally {
      calloc.free(status);
    }
  } finally {
    freeFunc(rustFuture);
  }
}

`)

	return b.String()
}
