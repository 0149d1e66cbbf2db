package services

import (
	"sync"

	"github.com/checkfox/lead_engage/internal/models"
)

// conversationEntry pairs a state with the lock that serializes its updates
type conversationEntry struct {
	mu    sync.Mutex
	state *models.ConversationState
}

// ConversationTracker holds per-conversation state in memory.
// Updates to one conversation are serialized; different conversations never
// wait on each other beyond the short map lookup.
type ConversationTracker struct {
	mu      sync.Mutex
	entries map[string]*conversationEntry
}

// NewConversationTracker creates an empty tracker
func NewConversationTracker() *ConversationTracker {
	return &ConversationTracker{
		entries: make(map[string]*conversationEntry),
	}
}

// entry returns the entry for a conversation, creating it on first use
func (t *ConversationTracker) entry(conversationID string) *conversationEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[conversationID]
	if !ok {
		e = &conversationEntry{state: models.NewConversationState(conversationID)}
		t.entries[conversationID] = e
	}
	return e
}

// Update runs fn against the conversation's state while holding its lock.
// The read-compute-increment sequence inside fn cannot interleave with
// another Update for the same conversation.
func (t *ConversationTracker) Update(conversationID string, fn func(state *models.ConversationState) error) error {
	e := t.entry(conversationID)

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.state)
}

// Get returns a copy of the conversation's state, or false if it was never seen
func (t *ConversationTracker) Get(conversationID string) (*models.ConversationState, bool) {
	t.mu.Lock()
	e, ok := t.entries[conversationID]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone(), true
}

// Len returns the number of tracked conversations
func (t *ConversationTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Reset forgets a conversation; the next message starts it over at stage initial
func (t *ConversationTracker) Reset(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, conversationID)
}
