package guard

import (
	"sync"
	"time"
)

// Response is a stored reply for a replayed request.
type Response struct {
	Status int
	Body   []byte
}

type idempotencyEntry struct {
	resp     Response
	done     bool
	storedAt time.Time
}

// IdempotencyGuard remembers responses by Idempotency-Key so that a client
// retrying an answer submission does not advance the session twice.
type IdempotencyGuard struct {
	mu      sync.Mutex
	entries map[string]*idempotencyEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewIdempotencyGuard creates an in-memory guard. Entries older than ttl are
// forgotten; a zero ttl keeps them until Remove.
func NewIdempotencyGuard(ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Begin claims key. If the key already completed, the stored response is
// returned with a rejected Result. A key still in flight is rejected with no
// response.
func (ig *IdempotencyGuard) Begin(key string) (Result, *Response) {
	if key == "" {
		return allow(), nil
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if e, ok := ig.entries[key]; ok && !ig.expired(e) {
		rejected := Result{Guard: "idempotency"}
		if !e.done {
			rejected.Reason = "request with this idempotency key is in progress"
			return rejected, nil
		}
		rejected.Reason = "duplicate request: replaying stored response"
		resp := e.resp
		return rejected, &resp
	}

	ig.entries[key] = &idempotencyEntry{storedAt: ig.now()}
	return allow(), nil
}

// Complete stores the response for a key claimed with Begin.
func (ig *IdempotencyGuard) Complete(key string, resp Response) {
	if key == "" {
		return
	}
	ig.mu.Lock()
	defer ig.mu.Unlock()
	ig.entries[key] = &idempotencyEntry{resp: resp, done: true, storedAt: ig.now()}
}

// Remove deletes a key so the request may be retried.
func (ig *IdempotencyGuard) Remove(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.entries, key)
}

func (ig *IdempotencyGuard) expired(e *idempotencyEntry) bool {
	return ig.ttl > 0 && ig.now().Sub(e.storedAt) > ig.ttl
}
