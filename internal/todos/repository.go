package todos

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists todos. Every operation except ListAll is scoped to the
// owning user; reads and writes against another user's todo return
// ErrNotFound. ListAll crosses tenants and is reserved for admin callers.
type Repository interface {
	List(ctx context.Context, userID int64) ([]Todo, error)
	ListAll(ctx context.Context) ([]Todo, error)
	Get(ctx context.Context, userID, id int64) (*Todo, error)
	Create(ctx context.Context, userID int64, title string) (*Todo, error)
	Update(ctx context.Context, userID, id int64, update Update) (*Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}

// MongoRepository implements Repository on MongoDB with counter-allocated
// numeric ids.
type MongoRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewMongoRepository(col, counters *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col, counters: counters}
}

func (r *MongoRepository) List(ctx context.Context, userID int64) ([]Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Todo{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) ListAll(ctx context.Context) ([]Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Todo{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepository) Get(ctx context.Context, userID, id int64) (*Todo, error) {
	var t Todo
	err := r.col.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) Create(ctx context.Context, userID int64, title string) (*Todo, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t := Todo{
		ID:        id,
		UserID:    userID,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.col.InsertOne(ctx, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) Update(ctx context.Context, userID, id int64, update Update) (*Todo, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	switch u := update.(type) {
	case FullUpdate:
		set["title"] = u.Title
		set["completed"] = u.Completed
	case PartialUpdate:
		if u.Title != nil {
			set["title"] = *u.Title
		}
		if u.Completed != nil {
			set["completed"] = *u.Completed
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var t Todo
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": set},
		opts,
	).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) nextID(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": "todos"},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}
