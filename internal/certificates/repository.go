package certificates

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists certificate templates and the delivery ledger.
type Repository interface {
	CreateTemplate(ctx context.Context, tpl *CertificateTemplate) error
	GetTemplate(ctx context.Context, id string) (*CertificateTemplate, error)
	GetTemplateByForm(ctx context.Context, formID string) (*CertificateTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *CertificateTemplate) error
	DeleteTemplate(ctx context.Context, id string) error
	ListAutoSendTemplates(ctx context.Context) ([]CertificateTemplate, error)

	// RecordSent appends a ledger entry. It returns false without error when
	// an entry for (certificate_id, recipient_email) already exists — the
	// unique index makes the check-then-record atomic under concurrent
	// sweeps.
	RecordSent(ctx context.Context, rec *SentCertificate) (bool, error)
	HasSent(ctx context.Context, certificateID, recipientEmail string) (bool, error)
	ListSent(ctx context.Context, certificateID string) ([]SentCertificate, error)
}

type mongoRepository struct {
	templates *mongo.Collection
	sent      *mongo.Collection
}

// NewRepository creates a Mongo-backed certificate repository.
func NewRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		templates: db.Collection("certificate_templates"),
		sent:      db.Collection("sent_certificates"),
	}
}

// EnsureIndexes creates the indexes the dedup and single-active invariants
// rely on. Call once at startup before serving traffic.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	sent := db.Collection("sent_certificates")
	_, err := sent.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "certificate_id", Value: 1},
			{Key: "recipient_email", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	// At most one active template per form.
	templates := db.Collection("certificate_templates")
	_, err = templates.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "form_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"is_active": true}),
	})
	return err
}

func (r *mongoRepository) CreateTemplate(ctx context.Context, tpl *CertificateTemplate) error {
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	_, err := r.templates.InsertOne(ctx, tpl)
	if mongo.IsDuplicateKeyError(err) {
		return errors.New("an active certificate template already exists for this form")
	}
	return err
}

func (r *mongoRepository) GetTemplate(ctx context.Context, id string) (*CertificateTemplate, error) {
	var tpl CertificateTemplate
	err := r.templates.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *mongoRepository) GetTemplateByForm(ctx context.Context, formID string) (*CertificateTemplate, error) {
	var tpl CertificateTemplate
	err := r.templates.FindOne(ctx, bson.M{"form_id": formID, "is_active": true}).Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}

func (r *mongoRepository) UpdateTemplate(ctx context.Context, tpl *CertificateTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	res, err := r.templates.ReplaceOne(ctx, bson.M{"_id": tpl.ID}, tpl)
	if mongo.IsDuplicateKeyError(err) {
		return errors.New("an active certificate template already exists for this form")
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteTemplate(ctx context.Context, id string) error {
	res, err := r.templates.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *mongoRepository) ListAutoSendTemplates(ctx context.Context) ([]CertificateTemplate, error) {
	cursor, err := r.templates.Find(ctx, bson.M{"auto_send": true, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []CertificateTemplate
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *mongoRepository) RecordSent(ctx context.Context, rec *SentCertificate) (bool, error) {
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}
	_, err := r.sent.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *mongoRepository) HasSent(ctx context.Context, certificateID, recipientEmail string) (bool, error) {
	err := r.sent.FindOne(ctx, bson.M{
		"certificate_id":  certificateID,
		"recipient_email": recipientEmail,
	}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *mongoRepository) ListSent(ctx context.Context, certificateID string) ([]SentCertificate, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: 1}})
	cursor, err := r.sent.Find(ctx, bson.M{"certificate_id": certificateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []SentCertificate
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}
