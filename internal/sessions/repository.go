package sessions

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository provides refresh-session persistence. Lookups return (nil, nil)
// for a missing row.
//
// MarkRotated and Revoke are conditional: they apply only while the row is
// still unrevoked. MarkRotated reports whether it actually transitioned the
// row, so two concurrent refreshes of the same token cannot both rotate it;
// the loser observes false and takes the revoked path.
type Repository interface {
	Create(ctx context.Context, s *RefreshSession) error
	GetByJTI(ctx context.Context, jti string) (*RefreshSession, error)
	MarkRotated(ctx context.Context, jti, replacedByJTI string) (bool, error)
	Revoke(ctx context.Context, jti string, reason RevokeReason) error
	RevokeFamily(ctx context.Context, familyID string, reason RevokeReason) error
}

// MongoRepository implements Repository using a Mongo collection keyed by jti.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, s *RefreshSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *MongoRepository) GetByJTI(ctx context.Context, jti string) (*RefreshSession, error) {
	var s RefreshSession
	if err := r.col.FindOne(ctx, bson.M{"_id": jti}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) MarkRotated(ctx context.Context, jti, replacedByJTI string) (bool, error) {
	// The revokedAt filter makes rotation first-wins under concurrency.
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": jti, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{
			"revokedAt":     time.Now().UTC(),
			"revokedReason": ReasonRotated,
			"replacedByJti": replacedByJTI,
		}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoRepository) Revoke(ctx context.Context, jti string, reason RevokeReason) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"_id": jti, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revokedAt": time.Now().UTC(), "revokedReason": reason}},
	)
	return err
}

func (r *MongoRepository) RevokeFamily(ctx context.Context, familyID string, reason RevokeReason) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"familyId": familyID, "revokedAt": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"revokedAt": time.Now().UTC(), "revokedReason": reason}},
	)
	return err
}
