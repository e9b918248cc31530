package botservice

import (
	"context"
	"sync"
)

// StateStorage keeps the last inbound activity per sender and channel
// so a reply can be sent outside the webhook request cycle.
type StateStorage interface {
	StoreLastActivity(ctx context.Context, senderID, channelKey string, activity *Activity) error
	// LastActivity returns nil without error when nothing is stored.
	LastActivity(ctx context.Context, senderID, channelKey string) (*Activity, error)
}

// MemoryStateStorage is the in-process StateStorage used by the bundled
// binary and by tests.
type MemoryStateStorage struct {
	mu         sync.RWMutex
	activities map[string]*Activity
}

func NewMemoryStateStorage() *MemoryStateStorage {
	return &MemoryStateStorage{activities: make(map[string]*Activity)}
}

func (s *MemoryStateStorage) StoreLastActivity(_ context.Context, senderID, channelKey string, activity *Activity) error {
	s.mu.Lock()
	s.activities[senderID+"|"+channelKey] = activity
	s.mu.Unlock()
	return nil
}

func (s *MemoryStateStorage) LastActivity(_ context.Context, senderID, channelKey string) (*Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activities[senderID+"|"+channelKey], nil
}
