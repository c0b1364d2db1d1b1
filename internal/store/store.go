// Package store holds the authoritative in-process copy of every student
// aggregate and mirrors it to a durable local slot after each mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/localstore"
	"fitcoach/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound       = errors.New("student not found")
	ErrDuplicateID    = errors.New("student id already exists")
	ErrDuplicateEmail = errors.New("student email already in use")
)

const defaultPersistTimeout = 5 * time.Second

// Store is safe for concurrent use. Mutations are serialized and each one is
// persisted before the next is applied, so the slot always holds the state of
// the last mutation.
type Store struct {
	mu       sync.RWMutex
	students []domain.Student

	slot           localstore.Slot
	merge          domain.MergeFunc
	metrics        *metrics.Manager
	persistTimeout time.Duration
}

type Option func(*Store)

// WithMergeFunc replaces the default shallow merge.
func WithMergeFunc(f domain.MergeFunc) Option {
	return func(s *Store) {
		s.merge = f
	}
}

func WithMetrics(m *metrics.Manager) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithPersistTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.persistTimeout = d
	}
}

func New(slot localstore.Slot, opts ...Option) *Store {
	s := &Store{
		slot:           slot,
		merge:          domain.ShallowMerge,
		persistTimeout: defaultPersistTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewManager("fitcoach", "store", prometheus.NewRegistry())
	}
	return s
}

// Load reads the durable snapshot once at startup. An empty slot is not an
// error: the store simply starts empty.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.slot.Load(ctx)
	if err != nil {
		if errors.Is(err, localstore.ErrSlotEmpty) {
			log.Infoln("local snapshot not found, starting with an empty store")
			return nil
		}
		return fmt.Errorf("load local snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = snap.Students
	s.metrics.GaugeStudents.Set(float64(len(s.students)))
	log.Infof("local snapshot loaded [%d students]", len(s.students))
	return nil
}

// GetAll returns a copy of every student in insertion order.
func (s *Store) GetAll() []domain.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := domain.CloneStudents(s.students)
	if out == nil {
		out = []domain.Student{}
	}
	return out
}

func (s *Store) Get(id string) (domain.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return domain.Student{}, false
	}
	return s.students[i].Clone(), true
}

// FindByEmail matches the normalized email of every student against the
// normalized input.
func (s *Store) FindByEmail(email string) (domain.Student, bool) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return domain.Student{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if domain.NormalizeEmail(st.Email) == email {
			return st.Clone(), true
		}
	}
	return domain.Student{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

// ReplaceAll overwrites the whole collection. An empty collection never wipes
// a non-empty store; the call reports whether anything was replaced.
func (s *Store) ReplaceAll(students []domain.Student) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(students) == 0 && len(s.students) > 0 {
		log.Warnf("replace all with empty collection ignored, keeping %d local students", len(s.students))
		return false
	}
	s.students = domain.CloneStudents(students)
	s.mutatedLocked("replace_all")
	return true
}

// MergeStudent applies patch to the student with the given id.
func (s *Store) MergeStudent(id string, patch domain.StudentPatch) (domain.Student, error) {
	updated, _, err := s.Apply(id, func(domain.Student) (domain.StudentPatch, error) {
		return patch, nil
	})
	return updated, err
}

// Apply runs build against the current student and merges the patch it
// returns, all under the store lock. It returns the merged student and the
// applied patch, which callers forward to the remote store.
func (s *Store) Apply(id string, build func(current domain.Student) (domain.StudentPatch, error)) (domain.Student, domain.StudentPatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.Student{}, domain.StudentPatch{}, ErrNotFound
	}
	patch, err := build(s.students[i].Clone())
	if err != nil {
		return domain.Student{}, domain.StudentPatch{}, err
	}
	if patch.Email != nil && *patch.Email != "" {
		if j := s.indexOfEmail(*patch.Email); j >= 0 && j != i {
			return domain.Student{}, domain.StudentPatch{}, ErrDuplicateEmail
		}
	}

	s.students[i] = s.merge(s.students[i], patch)
	s.mutatedLocked("merge")
	return s.students[i].Clone(), patch, nil
}

// Add appends a new student, enforcing unique id and email.
func (s *Store) Add(student domain.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(student.ID) >= 0 {
		return ErrDuplicateID
	}
	if student.Email != "" && s.indexOfEmail(student.Email) >= 0 {
		return ErrDuplicateEmail
	}
	s.students = append(s.students, student.Clone())
	s.mutatedLocked("add")
	return nil
}

// Snapshot returns the state in its durable form.
func (s *Store) Snapshot() localstore.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return localstore.NewSnapshot(domain.CloneStudents(s.students))
}

func (s *Store) indexOf(id string) int {
	for i := range s.students {
		if s.students[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexOfEmail(email string) int {
	email = domain.NormalizeEmail(email)
	for i := range s.students {
		if domain.NormalizeEmail(s.students[i].Email) == email {
			return i
		}
	}
	return -1
}

// mutatedLocked records the mutation and persists. Persistence failures are
// logged and counted; in-memory state stays correct for the session.
func (s *Store) mutatedLocked(op string) {
	s.metrics.CounterStoreMutations.WithLabelValues(op).Inc()
	s.metrics.GaugeStudents.Set(float64(len(s.students)))

	ctx, cancel := context.WithTimeout(context.Background(), s.persistTimeout)
	defer cancel()
	if err := s.slot.Save(ctx, localstore.NewSnapshot(domain.CloneStudents(s.students))); err != nil {
		s.metrics.CounterPersistenceFailures.Inc()
		log.WithError(err).WithField("op", op).Errorln("persist local snapshot")
	}
}
