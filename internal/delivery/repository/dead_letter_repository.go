package repository

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"

	"go.mongodb.org/mongo-driver/mongo"
)

// DeadLetterCollection mongo collection for abandoned log records
const DeadLetterCollection = "dead_letters"

// DeadLetterRepository definition dead letter store
type DeadLetterRepository interface {
	Insert(ctx context.Context, d domain.DeadLetter) error
}

type mongoDeadLetterRepository struct {
	collection *mongo.Collection
}

// NewMongoDeadLetterRepository create a DeadLetterRepository
func NewMongoDeadLetterRepository(db *mongo.Database) DeadLetterRepository {
	return &mongoDeadLetterRepository{collection: db.Collection(DeadLetterCollection)}
}

func (r *mongoDeadLetterRepository) Insert(ctx context.Context, d domain.DeadLetter) error {
	_, err := r.collection.InsertOne(ctx, d)
	return err
}
