package store

import (
	"fitcoach/internal/domain"

	log "github.com/sirupsen/logrus"
)

// Ids of the records seeded on a fresh install.
const (
	SeedAndreID    = "fixed-andre"
	SeedMarcellyID = "fixed-marcelly"
)

// SeedStudents returns the well-known records a fresh install starts with.
func SeedStudents() []domain.Student {
	return []domain.Student{
		{
			ID:    SeedAndreID,
			Name:  "André Brito",
			Email: "britodeandrade@gmail.com",
			Sex:   domain.SexMale,
		},
		{
			ID:    SeedMarcellyID,
			Name:  "Marcelly Bispo",
			Email: "marcellybispo92@gmail.com",
			Sex:   domain.SexFemale,
		},
	}
}

// EnsureSeeded populates an empty store with SeedStudents. It is a no-op when
// the store already holds data and reports whether it seeded.
func (s *Store) EnsureSeeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.students) > 0 {
		return false
	}
	s.students = SeedStudents()
	s.mutatedLocked("seed")
	log.Infof("store seeded with %d default students", len(s.students))
	return true
}
