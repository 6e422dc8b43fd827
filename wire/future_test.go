package wire

import (
	"testing"
	"time"
)

func TestFutureResolveBeforePoll(t *testing.T) {
	f := NewFuture()
	f.Resolve(int64(42))

	var status CallStatus
	got, err := Await(f, &status)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if got != int64(42) {
		t.Errorf("result = %v", got)
	}
	if status.Code != CallSuccess {
		t.Errorf("status = %d", status.Code)
	}
}

func TestFutureResolveWhileParked(t *testing.T) {
	f := NewFuture()
	done := make(chan any, 1)
	go func() {
		var status CallStatus
		v, err := Await(f, &status)
		if err != nil {
			done <- err
			return
		}
		done <- v
	}()

	// Let the awaiter park before resolving.
	time.Sleep(10 * time.Millisecond)
	f.Resolve("ready")

	select {
	case v := <-done:
		if v != "ready" {
			t.Errorf("result = %v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("await never woke up")
	}
}

func TestFutureFailure(t *testing.T) {
	f := NewFuture()
	f.Fail(errString("native task panicked"))

	var status CallStatus
	if _, err := Await(f, &status); err == nil {
		t.Fatal("expected Await to fail")
	}
	if status.Code != CallUnexpectedError {
		t.Fatalf("status = %d", status.Code)
	}
	msg, err := Decode(stringCodec{}, status.ErrorBuf)
	if err != nil || msg != "native task panicked" {
		t.Errorf("message = %q, %v", msg, err)
	}
}

func TestFutureFreeExactlyOnce(t *testing.T) {
	f := NewFuture()
	f.Resolve(nil)
	var status CallStatus
	if _, err := Await(f, &status); err != nil {
		t.Fatalf("Await: %v", err)
	}
	if err := f.Free(); err == nil {
		t.Error("second free should fail")
	}
}

// An awaiter that disappears mid-poll leaves its continuation parked on the
// unresolved future forever. There is no cancellation in the protocol; this
// test pins the leak so a change in behavior is a conscious decision.
func TestAbandonedPollLeaksContinuation(t *testing.T) {
	f := NewFuture()
	f.Poll(func(int) {})

	if got := f.PendingPolls(); got != 1 {
		t.Fatalf("PendingPolls = %d, want 1", got)
	}

	// The future is never resolved and never freed; the continuation stays.
	time.Sleep(10 * time.Millisecond)
	if got := f.PendingPolls(); got != 1 {
		t.Errorf("PendingPolls = %d, want 1", got)
	}
}

type errString string

func (e errString) Error() string { return string(e) }
