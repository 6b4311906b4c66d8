package kawatrpc

import "sync"

// pendingCall is the ephemeral state of one method call: whether transport
// completion has been observed, the buffered deserializer outcome if it
// arrived first, and the single-fire guard ensuring the user callback runs
// exactly once. Signals may arrive from different goroutines in either
// order; the mutex serializes them and the completed flag makes every
// signal after the first delivery a no-op.
type pendingCall struct {
	mu            sync.Mutex
	method        string
	callback      Callback
	transportDone bool
	resultReady   bool
	value         any
	err           error
	completed     bool
}

func newPendingCall(method string, cb Callback) *pendingCall {
	return &pendingCall{method: method, callback: cb}
}

// fail finalizes the call immediately with err, suppressing all other
// signals. Used for serializer failures, transport errors and 404, which
// take precedence over any deserialization outcome.
func (p *pendingCall) fail(err error) {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	p.completed = true
	cb := p.callback
	p.mu.Unlock()
	cb(err, nil)
}

// transportCompleted records that the HTTP exchange finished with a
// deliverable status. If the deserializer outcome is already buffered the
// callback fires now; otherwise delivery waits for deserialized.
func (p *pendingCall) transportCompleted() {
	p.mu.Lock()
	if p.completed {
		p.mu.Unlock()
		return
	}
	p.transportDone = true
	if !p.resultReady {
		p.mu.Unlock()
		return
	}
	p.deliverLocked()
}

// deserialized records the deserializer outcome. The result is buffered
// until transport completion has been observed, so header processing
// (cookie rotation) always precedes the callback.
func (p *pendingCall) deserialized(value any, err error) {
	p.mu.Lock()
	if p.completed || p.resultReady {
		p.mu.Unlock()
		return
	}
	p.resultReady = true
	p.value = value
	p.err = err
	if !p.transportDone {
		p.mu.Unlock()
		return
	}
	p.deliverLocked()
}

// deliverLocked fires the callback with the buffered outcome. Called with
// p.mu held; unlocks before invoking the callback so a callback may call
// back into the client.
func (p *pendingCall) deliverLocked() {
	p.completed = true
	cb, value, err := p.callback, p.value, p.err
	p.mu.Unlock()
	if err != nil {
		cb(err, nil)
		return
	}
	cb(nil, value)
}
