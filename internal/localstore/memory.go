package localstore

import (
	"context"
	"sync"
)

var _ Slot = (*MemorySlot)(nil)

// MemorySlot keeps the encoded snapshot in memory. The encoded form is stored
// so that loads go through the same serialization as the durable slots.
type MemorySlot struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Load(_ context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return Snapshot{}, ErrSlotEmpty
	}
	return Decode(s.data)
}

func (s *MemorySlot) Save(_ context.Context, snapshot Snapshot) error {
	data, err := Encode(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.saves++
	s.mu.Unlock()
	return nil
}

// Saves returns how many snapshots have been written.
func (s *MemorySlot) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
