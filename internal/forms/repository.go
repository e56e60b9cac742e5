package forms

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when a form or response does not exist.
var ErrNotFound = errors.New("forms: not found")

// Repository is the read surface of the forms collaborator used by the
// certificate pipeline.
type Repository interface {
	GetForm(ctx context.Context, id string) (*Form, error)
	GetResponse(ctx context.Context, id string) (*Response, error)
	ListResponsesBefore(ctx context.Context, formID string, cutoff time.Time) ([]Response, error)
}

type mongoRepository struct {
	forms     *mongo.Collection
	responses *mongo.Collection
}

// NewRepository creates a Mongo-backed forms repository.
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		forms:     db.Collection("forms"),
		responses: db.Collection("responses"),
	}
}

func (r *mongoRepository) GetForm(ctx context.Context, id string) (*Form, error) {
	var form Form
	err := r.forms.FindOne(ctx, bson.M{"_id": id}).Decode(&form)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *mongoRepository) GetResponse(ctx context.Context, id string) (*Response, error) {
	var resp Response
	err := r.responses.FindOne(ctx, bson.M{"_id": id}).Decode(&resp)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *mongoRepository) ListResponsesBefore(ctx context.Context, formID string, cutoff time.Time) ([]Response, error) {
	filter := bson.M{
		"form_id":    formID,
		"created_at": bson.M{"$lte": cutoff},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.responses.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}
