package server

import (
	"fmt"
	"sync"
	"time"

	"skullking-game/internal/protocol"
)

// ReAnswerError reports a protocol violation: a message was answered twice,
// or an answer arrived for a message that was never sent.
type ReAnswerError struct {
	Id protocol.MessageId
}

func (e ReAnswerError) Error() string {
	return fmt.Sprintf("message %s was answered twice or never sent", e.Id)
}

// NotAnsweredError reports that a message was not answered within the
// configured timeout. It carries the tracker state for diagnostics.
type NotAnsweredError struct {
	Id    protocol.MessageId
	State string
}

func (e NotAnsweredError) Error() string {
	return fmt.Sprintf("message %s was not answered within the given timeout - %s", e.Id, e.State)
}

// AnswerTracker tracks outstanding (unacknowledged) message ids for one
// connection. A sent message is either accepted, rejected with a reason, or
// raises a timeout failure. The sender blocks on a condition variable; the
// goroutine processing incoming answers wakes it.
type AnswerTracker struct {
	timeout time.Duration

	mu          sync.Mutex
	cond        *sync.Cond
	outstanding map[protocol.MessageId]struct{}
	nacks       map[protocol.MessageId]string
}

// NewAnswerTracker creates a tracker with the given acknowledgement timeout.
func NewAnswerTracker(timeout time.Duration) *AnswerTracker {
	t := &AnswerTracker{
		timeout:     timeout,
		outstanding: make(map[protocol.MessageId]struct{}),
		nacks:       make(map[protocol.MessageId]string),
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// MarkAccepted records that the client processed the message and wakes the
// waiting sender.
func (t *AnswerTracker) MarkAccepted(id protocol.MessageId) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.outstanding[id]; !ok {
		return ReAnswerError{Id: id}
	}
	delete(t.outstanding, id)
	t.cond.Broadcast()
	return nil
}

// MarkRejected records that the client refused the message and wakes the
// waiting sender with the reason.
func (t *AnswerTracker) MarkRejected(id protocol.MessageId, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.outstanding[id]; !ok {
		return ReAnswerError{Id: id}
	}
	if _, ok := t.nacks[id]; ok {
		return ReAnswerError{Id: id}
	}
	delete(t.outstanding, id)
	t.nacks[id] = reason
	t.cond.Broadcast()
	return nil
}

// WaitForAnswer registers id as outstanding, invokes beforeSend (which must
// perform the actual send), then blocks until the id is accepted (returns
// ""), rejected (returns the reason) or the timeout elapses (returns a
// NotAnsweredError). Registration happens before the send so a fast answer
// cannot be missed.
func (t *AnswerTracker) WaitForAnswer(id protocol.MessageId, beforeSend func() error) (string, error) {
	backoff := t.timeout / 5

	t.mu.Lock()
	defer t.mu.Unlock()

	t.outstanding[id] = struct{}{}

	if err := beforeSend(); err != nil {
		delete(t.outstanding, id)
		return "", err
	}

	mustEndBy := time.Now().Add(t.timeout)
	for time.Now().Before(mustEndBy) {
		if reason, ok := t.nacks[id]; ok {
			return reason, nil
		}
		if _, ok := t.outstanding[id]; !ok {
			return "", nil
		}

		wakeup := time.AfterFunc(backoff, t.cond.Broadcast)
		t.cond.Wait()
		wakeup.Stop()
	}

	return "", NotAnsweredError{Id: id, State: t.stateLocked()}
}

func (t *AnswerTracker) stateLocked() string {
	outstanding := make([]protocol.MessageId, 0, len(t.outstanding))
	for id := range t.outstanding {
		outstanding = append(outstanding, id)
	}
	return fmt.Sprintf("outstanding=%v, nacks=%v", outstanding, t.nacks)
}
