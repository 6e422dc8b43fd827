package wire

import (
	"sync"

	"github.com/dartffi/bindgen/errors"
)

// Poll results delivered to a future's continuation.
const (
	PollReady      = 0
	PollMaybeReady = 1
)

// Future models the native async handle the generated wrappers drive:
// poll parks a continuation until the producer resolves, complete yields the
// outcome through the status channel, and free releases the handle exactly
// once. A continuation parked on a future that never resolves stays parked;
// the protocol has no cancellation, so abandonment is observable as a
// pending poll that outlives the caller.
type Future struct {
	mu     sync.Mutex
	ready  bool
	result any
	err    error
	freed  bool
	parked []func(int)
}

func NewFuture() *Future {
	return &Future{}
}

// Resolve marks the future ready with a value and wakes parked polls.
func (f *Future) Resolve(v any) {
	f.mu.Lock()
	f.ready = true
	f.result = v
	parked := f.parked
	f.parked = nil
	f.mu.Unlock()
	for _, cont := range parked {
		cont(PollReady)
	}
}

// Fail marks the future ready with an error and wakes parked polls.
func (f *Future) Fail(err error) {
	f.mu.Lock()
	f.ready = true
	f.err = err
	parked := f.parked
	f.parked = nil
	f.mu.Unlock()
	for _, cont := range parked {
		cont(PollReady)
	}
}

// Poll delivers PollReady immediately when the future is resolved and parks
// the continuation otherwise.
func (f *Future) Poll(cont func(int)) {
	f.mu.Lock()
	if f.ready {
		f.mu.Unlock()
		cont(PollReady)
		return
	}
	f.parked = append(f.parked, cont)
	f.mu.Unlock()
}

// Complete yields the outcome. A failed future sets CallUnexpectedError
// with the message encoded, mirroring how native panics surface.
func (f *Future) Complete(status *CallStatus) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		status.Code = CallUnexpectedError
		buf, err := Encode(stringCodec{}, f.err.Error())
		if err != nil {
			buf = nil
		}
		status.ErrorBuf = buf
		return nil
	}
	status.Code = CallSuccess
	return f.result
}

// Free releases the future. The second call is an error: the generated
// wrapper frees exactly once, on leaving the call.
func (f *Future) Free() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.freed {
		return errors.InvalidData(errors.PhaseValidate, nil, "future freed twice")
	}
	f.freed = true
	return nil
}

// PendingPolls reports continuations parked on an unresolved future. A
// nonzero count after the caller has gone away is the abandonment leak.
func (f *Future) PendingPolls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.parked)
}

// Await drives the full wrapper loop synchronously: poll until ready,
// complete, then free. It is the Go rendition of the generated async call
// path and frees the future on every exit.
func Await(f *Future, status *CallStatus) (any, error) {
	done := make(chan struct{})
	var poll func(int)
	poll = func(res int) {
		if res == PollReady {
			close(done)
			return
		}
		f.Poll(poll)
	}
	f.Poll(poll)
	<-done

	result := f.Complete(status)
	if err := f.Free(); err != nil {
		return nil, err
	}
	if status.Code != CallSuccess {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "async call failed")
	}
	return result, nil
}
