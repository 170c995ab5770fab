package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

const analysisCollection = "analisis"

type AnalysisRepository struct {
	coll *mongo.Collection
}

func NewAnalysisRepository(db *mongo.Database) *AnalysisRepository {
	return &AnalysisRepository{coll: db.Collection(analysisCollection)}
}

type analysisDoc struct {
	ID             string               `bson:"_id"`
	PersonID       string               `bson:"persona_id"`
	ImageURL       string               `bson:"imagen_url,omitempty"`
	Diagnosis      string               `bson:"diagnostico"`
	Confidence     float64              `bson:"confianza"`
	Probabilities  domain.Probabilities `bson:"probabilidades"`
	Comments       string               `bson:"comentarios,omitempty"`
	IdempotencyKey string               `bson:"idempotency_key,omitempty"`
	CreatedAt      int64                `bson:"fecha"`
}

func (d analysisDoc) toDomain() *domain.Analysis {
	return &domain.Analysis{
		ID:             d.ID,
		PersonID:       d.PersonID,
		ImageURL:       d.ImageURL,
		Diagnosis:      domain.Diagnosis(d.Diagnosis),
		Confidence:     d.Confidence,
		Probabilities:  d.Probabilities,
		Comments:       d.Comments,
		IdempotencyKey: d.IdempotencyKey,
		CreatedAt:      unixToTime(d.CreatedAt),
	}
}

func (r *AnalysisRepository) Create(ctx context.Context, a *domain.Analysis) error {
	doc := analysisDoc{
		ID:             a.ID,
		PersonID:       a.PersonID,
		ImageURL:       a.ImageURL,
		Diagnosis:      string(a.Diagnosis),
		Confidence:     a.Confidence,
		Probabilities:  a.Probabilities,
		Comments:       a.Comments,
		IdempotencyKey: a.IdempotencyKey,
		CreatedAt:      a.CreatedAt.Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) FindByIdempotencyKey(ctx context.Context, personID, key string) (*domain.Analysis, error) {
	var doc analysisDoc
	filter := bson.M{"persona_id": personID, "idempotency_key": key}
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAnalysisNotFound
		}
		return nil, fmt.Errorf("find analysis by idempotency key: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AnalysisRepository) ListByPerson(ctx context.Context, personID string) ([]*domain.Analysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"persona_id": personID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer cur.Close(ctx)

	var out []*domain.Analysis
	for cur.Next(ctx) {
		var doc analysisDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode analysis: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return out, nil
}
