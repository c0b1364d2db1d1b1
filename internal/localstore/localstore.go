// Package localstore holds the durable local copy of the application state:
// a single key-value slot containing the serialized snapshot.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fitcoach/internal/domain"
)

// DefaultKey is the fixed storage name of the slot.
const DefaultKey = "fitcoach-state"

// ErrSlotEmpty is returned by Load when nothing has been saved yet.
var ErrSlotEmpty = errors.New("local slot is empty")

// Snapshot is the persisted state. The two cached lists are denormalized
// views of the students' workouts and history.
type Snapshot struct {
	Students                 []domain.Student             `json:"students"`
	CachedPrescribedWorkouts []domain.Workout             `json:"cachedPrescribedWorkouts"`
	CachedExecutedWorkouts   []domain.WorkoutHistoryEntry `json:"cachedExecutedWorkouts"`
}

// Slot loads and saves a snapshot under a fixed key.
type Slot interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

// NewSnapshot builds a snapshot from the students, filling the caches.
func NewSnapshot(students []domain.Student) Snapshot {
	snap := Snapshot{Students: students}
	for _, s := range students {
		snap.CachedPrescribedWorkouts = append(snap.CachedPrescribedWorkouts, s.Workouts...)
		snap.CachedExecutedWorkouts = append(snap.CachedExecutedWorkouts, s.WorkoutHistory...)
	}
	return snap
}

func Encode(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func Decode(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}
