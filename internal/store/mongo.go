package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/taskboard/internal/models"
)

const taskCounter = "tasks"

// MongoStore handles task CRUD in MongoDB. Ids are integers drawn from a
// counters collection so they stay numeric and follow insertion order.
type MongoStore struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("tasks"), counters: db.Collection("counters")}
}

// Migrate creates the author index.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "author_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": taskCounter},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongo next id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}
	doc := *t
	doc.ID = id
	doc.CreatedAt = time.Now().UTC()
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongo insert: %w", err)
	}
	return &doc, nil
}

func (s *MongoStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	docs := []models.Task{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return docs, nil
}

func (s *MongoStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	var doc models.Task
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, noDocuments(err, "mongo get task")
	}
	return &doc, nil
}

func (s *MongoStore) UpdateTask(ctx context.Context, id int64, title, body string) (*models.Task, error) {
	var doc models.Task
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"title": title, "body": body}},
		opts,
	).Decode(&doc)
	if err != nil {
		return nil, noDocuments(err, "mongo update task")
	}
	return &doc, nil
}

func (s *MongoStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("mongo delete task %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func noDocuments(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
