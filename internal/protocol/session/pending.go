package session

import (
	"errors"
	"fmt"
	"sync"
)

var ErrDuplicatePendingID = errors.New("session: duplicate pending request id")

// Result delivers the terminal outcome of one pending request.
type Result struct {
	Response Response
	Err      error
}

// PendingTable tracks outstanding requests by id. Each entry is removed
// exactly once: when its response arrives, when the caller abandons it, or
// when the table is torn down.
type PendingTable struct {
	mu    sync.Mutex
	items map[uint32]chan Result
}

func NewPendingTable() *PendingTable {
	return &PendingTable{
		items: make(map[uint32]chan Result),
	}
}

// Add registers a pending entry and returns the channel its result will be
// delivered on. The channel is buffered so resolution never blocks dispatch.
func (t *PendingTable) Add(id uint32) (<-chan Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[id]; ok {
		return nil, fmt.Errorf("%w: %d", ErrDuplicatePendingID, id)
	}
	ch := make(chan Result, 1)
	t.items[id] = ch
	return ch, nil
}

// Resolve completes the entry registered under the response id, reporting
// whether a matching entry existed.
func (t *PendingTable) Resolve(resp Response) bool {
	t.mu.Lock()
	ch, ok := t.items[resp.ID]
	if ok {
		delete(t.items, resp.ID)
	}
	t.mu.Unlock()
	if !ok {
		return false
	}
	ch <- Result{Response: resp}
	return true
}

// Remove drops an entry without completing it. Used when the waiting caller
// gives up first.
func (t *PendingTable) Remove(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.items, id)
}

// FailAll completes every outstanding entry with err and empties the table.
func (t *PendingTable) FailAll(err error) {
	t.mu.Lock()
	items := t.items
	t.items = make(map[uint32]chan Result)
	t.mu.Unlock()
	for _, ch := range items {
		ch <- Result{Err: err}
	}
}

// Len reports the number of outstanding entries.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.items)
}
