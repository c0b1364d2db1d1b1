package mongo

import (
	"context"
	"fmt"
	"sync"

	"fitcoach/internal/domain"
	"fitcoach/internal/repository"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultStudentCollection = "students"

// mongoStudentRepository implements repository.StudentRemote using MongoDB.
// The database is the application namespace.
type mongoStudentRepository struct {
	collection *mongo.Collection
}

// NewMongoStudentRepository creates the remote student collection.
func NewMongoStudentRepository(db *mongo.Database, collectionName string) repository.StudentRemote {
	if collectionName == "" {
		collectionName = DefaultStudentCollection
	}
	return &mongoStudentRepository{
		collection: db.Collection(collectionName),
	}
}

// MergeWrite $sets the given fields on the document keyed by id (upsert).
func (r *mongoStudentRepository) MergeWrite(ctx context.Context, id string, fields map[string]any) error {
	if id == "" {
		return repository.ErrInvalidDocumentID
	}
	if len(fields) == 0 {
		return nil
	}

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M(fields)}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("merge-write student %s: %w", id, err)
	}
	return nil
}

// Subscribe opens a change stream on the collection and delivers a full
// collection snapshot first and then after every change event.
// Change streams require a replica set; on a standalone server Subscribe
// returns the error and the caller keeps serving local state.
func (r *mongoStudentRepository) Subscribe(ctx context.Context, onSnapshot repository.SnapshotHandler, onError repository.ErrorHandler) (repository.Subscription, error) {
	watchCtx, cancel := context.WithCancel(ctx)

	// Open the stream before the first read so no change between the two is lost.
	stream, err := r.collection.Watch(watchCtx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watch %s: %w", r.collection.Name(), err)
	}

	sub := &changeStreamSubscription{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(sub.done)
		defer stream.Close(context.Background())

		r.deliver(watchCtx, onSnapshot, onError)
		for stream.Next(watchCtx) {
			r.deliver(watchCtx, onSnapshot, onError)
		}
		if err := stream.Err(); err != nil && watchCtx.Err() == nil {
			onError(fmt.Errorf("change stream %s: %w", r.collection.Name(), err))
		}
		log.Debugf("change stream on %s closed", r.collection.Name())
	}()

	return sub, nil
}

func (r *mongoStudentRepository) deliver(ctx context.Context, onSnapshot repository.SnapshotHandler, onError repository.ErrorHandler) {
	students, err := r.loadAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			onError(err)
		}
		return
	}
	onSnapshot(students)
}

func (r *mongoStudentRepository) loadAll(ctx context.Context) ([]domain.Student, error) {
	var students []domain.Student
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

type changeStreamSubscription struct {
	once   sync.Once
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *changeStreamSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
	<-s.done
}

// EnsureStudentIndexes creates necessary indexes for the students collection.
// Call this once during application startup.
func EnsureStudentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true), // login key; not every student has one
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Warnf("failed to create indexes for collection %s: %s", collection.Name(), err)
	}
}
