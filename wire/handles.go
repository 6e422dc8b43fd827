package wire

import (
	"fmt"
	"sync"

	"github.com/dartffi/bindgen/errors"
)

// HandleMap assigns opaque int64 handles to live values the way the
// generated callback converter does: a counter that never reuses a handle,
// guarded for concurrent dispatch.
type HandleMap[T any] struct {
	mu      sync.Mutex
	entries map[int64]T
	next    int64
}

func NewHandleMap[T any]() *HandleMap[T] {
	// Handles start at 1; handle 0 would lower to a null pointer.
	return &HandleMap[T]{entries: make(map[int64]T), next: 1}
}

func (m *HandleMap[T]) Insert(v T) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle := m.next
	m.next++
	m.entries[handle] = v
	return handle
}

func (m *HandleMap[T]) Get(handle int64) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[handle]
	if !ok {
		var zero T
		return zero, errors.NotFound(errors.PhaseValidate, "handle", fmt.Sprintf("%d", handle))
	}
	return v, nil
}

func (m *HandleMap[T]) Remove(handle int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[handle]; !ok {
		return errors.NotFound(errors.PhaseValidate, "handle", fmt.Sprintf("%d", handle))
	}
	delete(m.entries, handle)
	return nil
}

// Len reports the number of live handles.
func (m *HandleMap[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Call status codes shared by every boundary crossing.
const (
	CallSuccess         int8 = 0
	CallError           int8 = 1
	CallUnexpectedError int8 = 2
)

// CallStatus is the out-parameter the native side inspects after invoking a
// trampoline. ErrorBuf holds an encoded error payload when Code is not
// success: a declared error value for CallError, a message string for
// CallUnexpectedError.
type CallStatus struct {
	Code     int8
	ErrorBuf []byte
}

// Method is one callback-interface method body on the host side.
type Method func(receiver any, args []any) (any, error)

// Vtable dispatches native-side calls into host implementations by handle
// and method index, translating failures into the status channel instead of
// letting them cross the boundary.
type Vtable struct {
	handles *HandleMap[any]
	methods []Method
}

func NewVtable(methods []Method) *Vtable {
	return &Vtable{handles: NewHandleMap[any](), methods: methods}
}

// Handles exposes the table so callers can lower receivers into handles.
func (t *Vtable) Handles() *HandleMap[any] { return t.handles }

// Invoke runs one method. Every failure mode lands in status as
// CallUnexpectedError with the message string encoded into ErrorBuf; the
// returned value is only meaningful when status reads success.
func (t *Vtable) Invoke(handle int64, method int, args []any, status *CallStatus) (result any) {
	defer func() {
		if r := recover(); r != nil {
			t.fail(status, fmt.Sprintf("%v", r))
			result = nil
		}
	}()

	if method < 0 || method >= len(t.methods) {
		t.fail(status, fmt.Sprintf("method index %d out of range", method))
		return nil
	}
	receiver, err := t.handles.Get(handle)
	if err != nil {
		t.fail(status, err.Error())
		return nil
	}
	out, err := t.methods[method](receiver, args)
	if err != nil {
		t.fail(status, err.Error())
		return nil
	}
	status.Code = CallSuccess
	return out
}

// Free releases a receiver handle. Releasing twice is swallowed, matching
// the generated free callback.
func (t *Vtable) Free(handle int64) {
	_ = t.handles.Remove(handle)
}

func (t *Vtable) fail(status *CallStatus, message string) {
	status.Code = CallUnexpectedError
	buf, err := Encode(stringCodec{}, message)
	if err != nil {
		buf = nil
	}
	status.ErrorBuf = buf
}
