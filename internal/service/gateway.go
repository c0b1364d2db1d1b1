package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"
	"fitcoach/internal/repository"
	"fitcoach/internal/storage"
	"fitcoach/internal/store"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	defaultWriteTimeout = 10 * time.Second
	defaultQueueSize    = 256
)

// LocalStore is the part of the local store the gateway writes through.
type LocalStore interface {
	Get(id string) (domain.Student, bool)
	Add(student domain.Student) error
	Apply(id string, build func(current domain.Student) (domain.StudentPatch, error)) (domain.Student, domain.StudentPatch, error)
}

// StudentGateway is the single write path for student data.
type StudentGateway interface {
	SaveStudentData(ctx context.Context, studentID string, patch domain.StudentPatch) (domain.Student, error)
	RegisterStudent(ctx context.Context, student domain.Student) (domain.Student, error)
	LogWorkout(ctx context.Context, studentID string, entry domain.WorkoutHistoryEntry) (domain.Student, error)
	AddAssessment(ctx context.Context, studentID string, assessment domain.PhysicalAssessment) (domain.Student, error)
	SavePeriodization(ctx context.Context, studentID string, discipline domain.Discipline, plan domain.PeriodizationPlan) (domain.Student, error)
	SaveNutritionProfile(ctx context.Context, studentID string, profile domain.NutritionProfile) (domain.Student, error)
	AddMealLog(ctx context.Context, studentID string, meal domain.MealLog) (domain.Student, error)
	AddMealPlan(ctx context.Context, studentID string, plan domain.MealPlan) (domain.Student, error)
	UpdatePhoto(ctx context.Context, studentID string, photo string) (domain.Student, error)
}

type GatewayConfig struct {
	// Demo disables every remote write for the session.
	Demo         bool
	WriteTimeout time.Duration
	QueueSize    int
}

type remoteWrite struct {
	ctx       context.Context
	studentID string
	fields    map[string]any
}

var _ StudentGateway = (*Gateway)(nil)

// Gateway applies every mutation to the local store first and then queues a
// best-effort merge-write of the same fields to the remote store. Remote
// failures never reach the caller and never roll back the local change.
//
// Remote writes are drained by a single worker, so writes issued by this
// process land at the remote store in issue order.
type Gateway struct {
	local   LocalStore
	remote  repository.StudentRemote
	photos  storage.PhotoStorage
	metrics *metrics.Manager

	writeTimeout time.Duration
	now          func() time.Time
	newID        func() string

	// order is held from the local merge until the remote write is queued,
	// so queue order matches the order mutations hit the store.
	order sync.Mutex

	mu     sync.RWMutex
	closed bool
	queue  chan remoteWrite
	done   chan struct{}
}

// NewGateway creates the gateway. remote may be nil, which behaves like a
// demo session; photos may be nil, in which case photos are stored inline.
func NewGateway(local LocalStore, remote repository.StudentRemote, photos storage.PhotoStorage, m *metrics.Manager, cfg GatewayConfig) *Gateway {
	if m == nil {
		m = metrics.NewTestManager()
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	g := &Gateway{
		local:        local,
		photos:       photos,
		metrics:      m,
		writeTimeout: cfg.WriteTimeout,
		now:          time.Now,
		newID:        newTimeOrderedID,
	}
	if remote != nil && !cfg.Demo {
		g.remote = remote
		g.queue = make(chan remoteWrite, cfg.QueueSize)
		g.done = make(chan struct{})
		go g.drain()
	} else {
		log.Warnln("gateway running in demo session, remote writes disabled")
	}
	return g
}

// Demo reports whether remote writes are disabled.
func (g *Gateway) Demo() bool {
	return g.remote == nil
}

// SaveStudentData merges patch into the student. The local change is visible
// as soon as this returns. Only validation errors are returned; a set email
// is trimmed and must be a valid address.
func (g *Gateway) SaveStudentData(ctx context.Context, studentID string, patch domain.StudentPatch) (domain.Student, error) {
	return g.apply(ctx, studentID, func(domain.Student) (domain.StudentPatch, error) {
		return patch, nil
	})
}

// RegisterStudent adds a new student created by the onboarding flow.
func (g *Gateway) RegisterStudent(ctx context.Context, student domain.Student) (domain.Student, error) {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.Email = strings.TrimSpace(student.Email)
	if err := student.Validate(); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	for i := range student.Workouts {
		student.Workouts[i] = student.Workouts[i].WithProjection()
	}

	g.order.Lock()
	defer g.order.Unlock()
	if err := g.local.Add(student); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateEmail):
			return domain.Student{}, ErrEmailTaken
		case errors.Is(err, store.ErrDuplicateID):
			return domain.Student{}, ErrStudentExists
		}
		return domain.Student{}, err
	}
	g.enqueue(ctx, student.ID, domain.PatchFromStudent(student).Fields())
	return student, nil
}

// LogWorkout prepends an executed session to the history and refreshes the
// analytics derived from it.
func (g *Gateway) LogWorkout(ctx context.Context, studentID string, entry domain.WorkoutHistoryEntry) (domain.Student, error) {
	now := g.now()
	if entry.ID == "" {
		entry.ID = g.newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.Date == "" {
		entry.Date = entry.CreatedAt.Format(domain.DateLayout)
	}
	if err := domain.ValidateDate(entry.Date); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	return g.apply(ctx, studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		if entry.WorkoutID != "" && entry.Name == "" {
			for _, w := range cur.Workouts {
				if w.ID == entry.WorkoutID {
					entry.Name = w.Title
					break
				}
			}
		}
		history := append([]domain.WorkoutHistoryEntry{entry}, cur.WorkoutHistory...)
		analytics := domain.ComputeAnalytics(history, now)
		return domain.StudentPatch{WorkoutHistory: &history, Analytics: &analytics}, nil
	})
}

// AddAssessment prepends a physical assessment.
func (g *Gateway) AddAssessment(ctx context.Context, studentID string, assessment domain.PhysicalAssessment) (domain.Student, error) {
	if assessment.ID == "" {
		assessment.ID = g.newID()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = g.now()
	}
	if assessment.Date == "" {
		assessment.Date = assessment.CreatedAt.Format(domain.DateLayout)
	}
	if err := domain.ValidateDate(assessment.Date); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	return g.apply(ctx, studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		assessments := append([]domain.PhysicalAssessment{assessment}, cur.PhysicalAssessments...)
		return domain.StudentPatch{PhysicalAssessments: &assessments}, nil
	})
}

// SavePeriodization stores the plan in the slot of its discipline,
// replacing any previous plan for that discipline.
func (g *Gateway) SavePeriodization(ctx context.Context, studentID string, discipline domain.Discipline, plan domain.PeriodizationPlan) (domain.Student, error) {
	if _, err := domain.ParseDiscipline(string(discipline)); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	if plan.ID == "" {
		plan.ID = g.newID()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = g.now()
	}
	if plan.StartDate == "" {
		plan.StartDate = plan.CreatedAt.Format(domain.DateLayout)
	}
	if err := domain.ValidateDate(plan.StartDate); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	plan.Discipline = discipline

	return g.apply(ctx, studentID, func(domain.Student) (domain.StudentPatch, error) {
		if discipline == domain.DisciplineRunning {
			return domain.StudentPatch{RunningPlan: &plan}, nil
		}
		return domain.StudentPatch{StrengthPlan: &plan}, nil
	})
}

// SaveNutritionProfile replaces goal, restrictions and targets while keeping
// the logs and meal plans already recorded.
func (g *Gateway) SaveNutritionProfile(ctx context.Context, studentID string, profile domain.NutritionProfile) (domain.Student, error) {
	return g.apply(ctx, studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		if cur.Nutrition != nil {
			profile.Logs = cur.Nutrition.Logs
			profile.MealPlans = cur.Nutrition.MealPlans
		}
		return domain.StudentPatch{Nutrition: &profile}, nil
	})
}

// AddMealLog appends a meal to the nutrition log.
func (g *Gateway) AddMealLog(ctx context.Context, studentID string, meal domain.MealLog) (domain.Student, error) {
	if meal.ID == "" {
		meal.ID = g.newID()
	}
	if meal.CreatedAt.IsZero() {
		meal.CreatedAt = g.now()
	}
	if meal.Date == "" {
		meal.Date = meal.CreatedAt.Format(domain.DateLayout)
	}
	if err := domain.ValidateDate(meal.Date); err != nil {
		return domain.Student{}, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
	}
	return g.apply(ctx, studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		var profile domain.NutritionProfile
		if cur.Nutrition != nil {
			profile = *cur.Nutrition
		}
		profile.Logs = append(profile.Logs, meal)
		return domain.StudentPatch{Nutrition: &profile}, nil
	})
}

// AddMealPlan appends a generated meal plan. Older plans are retained.
func (g *Gateway) AddMealPlan(ctx context.Context, studentID string, plan domain.MealPlan) (domain.Student, error) {
	if plan.ID == "" {
		plan.ID = g.newID()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = g.now()
	}
	return g.apply(ctx, studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		var profile domain.NutritionProfile
		if cur.Nutrition != nil {
			profile = *cur.Nutrition
		}
		profile.MealPlans = append(profile.MealPlans, plan)
		return domain.StudentPatch{Nutrition: &profile}, nil
	})
}

// UpdatePhoto sets the profile photo. Data URIs are offloaded to photo
// storage when it is configured; if the upload fails the data URI itself is
// stored.
func (g *Gateway) UpdatePhoto(ctx context.Context, studentID string, photo string) (domain.Student, error) {
	if _, ok := g.local.Get(studentID); !ok {
		return domain.Student{}, ErrStudentNotFound
	}
	photoURL := photo
	if g.photos != nil && strings.HasPrefix(photo, "data:") {
		if uploaded, err := g.uploadPhoto(ctx, studentID, photo); err != nil {
			log.WithError(err).WithField("student_id", studentID).Warnln("photo upload failed, storing data URI")
		} else {
			photoURL = uploaded
		}
	}
	return g.apply(ctx, studentID, func(domain.Student) (domain.StudentPatch, error) {
		return domain.StudentPatch{PhotoURL: &photoURL}, nil
	})
}

func (g *Gateway) uploadPhoto(ctx context.Context, studentID, photo string) (string, error) {
	d, err := storage.ParseDataURI(photo)
	if err != nil {
		return "", err
	}
	key := path.Join("photos", studentID, fmt.Sprintf("%s.%s", uuid.NewString(), d.Extension()))
	return g.photos.UploadPhoto(ctx, key, d.ContentType, d.Data)
}

// apply is the single path every patch takes: it builds and validates the
// patch, merges it locally and queues the remote write of the patch that was
// actually merged.
func (g *Gateway) apply(ctx context.Context, studentID string, build func(domain.Student) (domain.StudentPatch, error)) (domain.Student, error) {
	g.order.Lock()
	defer g.order.Unlock()

	updated, patch, err := g.local.Apply(studentID, func(cur domain.Student) (domain.StudentPatch, error) {
		p, err := build(cur)
		if err != nil {
			return p, err
		}
		if err := p.Validate(); err != nil {
			return p, fmt.Errorf("%w: %v", ErrInvalidStudent, err)
		}
		return withProjections(p), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domain.Student{}, ErrStudentNotFound
		case errors.Is(err, store.ErrDuplicateEmail):
			return domain.Student{}, ErrEmailTaken
		}
		return domain.Student{}, err
	}
	if !patch.IsEmpty() {
		g.enqueue(ctx, studentID, patch.Fields())
	}
	return updated, nil
}

func withProjections(p domain.StudentPatch) domain.StudentPatch {
	if p.Workouts == nil {
		return p
	}
	workouts := make([]domain.Workout, len(*p.Workouts))
	for i, w := range *p.Workouts {
		workouts[i] = w.WithProjection()
	}
	p.Workouts = &workouts
	return p
}

func (g *Gateway) enqueue(ctx context.Context, studentID string, fields map[string]any) {
	if g.remote == nil {
		g.metrics.CounterRemoteWrites.WithLabelValues(metrics.ResultSkipped).Inc()
		return
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		g.metrics.CounterRemoteWrites.WithLabelValues(metrics.ResultDropped).Inc()
		log.WithField("student_id", studentID).Warnln("gateway closed, remote write dropped")
		return
	}

	// The request may finish before the write runs; keep its values only.
	w := remoteWrite{ctx: context.WithoutCancel(ctx), studentID: studentID, fields: fields}
	select {
	case g.queue <- w:
		g.metrics.GaugeRemoteQueue.Inc()
	default:
		g.metrics.CounterRemoteWrites.WithLabelValues(metrics.ResultDropped).Inc()
		log.WithField("student_id", studentID).Warnln("remote write queue full, write dropped")
	}
}

func (g *Gateway) drain() {
	defer close(g.done)
	for w := range g.queue {
		g.metrics.GaugeRemoteQueue.Dec()
		ctx, cancel := context.WithTimeout(w.ctx, g.writeTimeout)
		err := g.remote.MergeWrite(ctx, w.studentID, w.fields)
		cancel()
		if err != nil {
			g.metrics.CounterRemoteWrites.WithLabelValues(metrics.ResultFailed).Inc()
			log.WithError(err).WithField("student_id", w.studentID).Warnln("remote merge-write failed, local state kept")
			continue
		}
		g.metrics.CounterRemoteWrites.WithLabelValues(metrics.ResultOK).Inc()
	}
}

// Close stops accepting remote writes and waits for queued ones to finish.
func (g *Gateway) Close() {
	if g.remote == nil {
		return
	}
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	close(g.queue)
	g.mu.Unlock()
	<-g.done
}

// newTimeOrderedID returns a UUIDv7, whose prefix is the creation time.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
