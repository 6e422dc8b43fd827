package wire

import (
	"fmt"
	"sync"
	"testing"
)

func TestHandleMap(t *testing.T) {
	m := NewHandleMap[string]()

	h1 := m.Insert("first")
	h2 := m.Insert("second")
	if h1 == h2 {
		t.Fatal("handles must be unique")
	}
	// Handle 0 lowers to a null pointer, so it must never be issued.
	if h1 == 0 || h2 == 0 {
		t.Error("handle 0 was issued")
	}

	v, err := m.Get(h1)
	if err != nil || v != "first" {
		t.Errorf("Get(%d) = %q, %v", h1, v, err)
	}

	if err := m.Remove(h1); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Get(h1); err == nil {
		t.Error("stale handle should fail Get")
	}
	if err := m.Remove(h1); err == nil {
		t.Error("stale handle should fail Remove")
	}

	// Handles never come back, even after removal.
	h3 := m.Insert("third")
	if h3 == h1 {
		t.Error("removed handle was reused")
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}
}

func TestHandleMapConcurrent(t *testing.T) {
	m := NewHandleMap[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := m.Insert(i)
			if v, err := m.Get(h); err != nil || v != i {
				t.Errorf("Get(%d) = %d, %v", h, v, err)
			}
			if err := m.Remove(h); err != nil {
				t.Errorf("Remove(%d): %v", h, err)
			}
		}(i)
	}
	wg.Wait()
	if m.Len() != 0 {
		t.Errorf("Len = %d after all removals", m.Len())
	}
}

type greeter struct {
	name string
}

func TestVtableInvoke(t *testing.T) {
	vt := NewVtable([]Method{
		// 0: greet(prefix) -> string
		func(receiver any, args []any) (any, error) {
			return args[0].(string) + receiver.(*greeter).name, nil
		},
		// 1: always fails
		func(receiver any, args []any) (any, error) {
			return nil, fmt.Errorf("backend unavailable")
		},
		// 2: panics
		func(receiver any, args []any) (any, error) {
			panic("boom")
		},
	})
	h := vt.Handles().Insert(&greeter{name: "world"})

	t.Run("success", func(t *testing.T) {
		var status CallStatus
		out := vt.Invoke(h, 0, []any{"hello "}, &status)
		if status.Code != CallSuccess {
			t.Fatalf("status = %d", status.Code)
		}
		if out != "hello world" {
			t.Errorf("result = %v", out)
		}
	})

	t.Run("method error surfaces as unexpected", func(t *testing.T) {
		var status CallStatus
		vt.Invoke(h, 1, nil, &status)
		if status.Code != CallUnexpectedError {
			t.Fatalf("status = %d", status.Code)
		}
		msg, err := Decode(stringCodec{}, status.ErrorBuf)
		if err != nil {
			t.Fatalf("error buffer not a protocol string: %v", err)
		}
		if msg != "backend unavailable" {
			t.Errorf("message = %q", msg)
		}
	})

	t.Run("panic is contained", func(t *testing.T) {
		var status CallStatus
		out := vt.Invoke(h, 2, nil, &status)
		if out != nil {
			t.Errorf("result should be nil, got %v", out)
		}
		if status.Code != CallUnexpectedError {
			t.Fatalf("status = %d", status.Code)
		}
		msg, err := Decode(stringCodec{}, status.ErrorBuf)
		if err != nil || msg != "boom" {
			t.Errorf("message = %q, %v", msg, err)
		}
	})

	t.Run("stale handle", func(t *testing.T) {
		var status CallStatus
		vt.Invoke(99, 0, []any{"x"}, &status)
		if status.Code != CallUnexpectedError {
			t.Errorf("status = %d", status.Code)
		}
	})

	t.Run("bad method index", func(t *testing.T) {
		var status CallStatus
		vt.Invoke(h, 7, nil, &status)
		if status.Code != CallUnexpectedError {
			t.Errorf("status = %d", status.Code)
		}
	})

	t.Run("free is idempotent", func(t *testing.T) {
		vt.Free(h)
		vt.Free(h)
		var status CallStatus
		vt.Invoke(h, 0, []any{"x"}, &status)
		if status.Code != CallUnexpectedError {
			t.Error("freed receiver should not be invocable")
		}
	})
}
