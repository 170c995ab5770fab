package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

const personCollection = "personas"

type PersonRepository struct {
	coll *mongo.Collection
}

func NewPersonRepository(db *mongo.Database) *PersonRepository {
	return &PersonRepository{coll: db.Collection(personCollection)}
}

type personDoc struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"contrasenha"`
	FullName     string `bson:"nombre_completo"`
	Phone        string `bson:"telefono,omitempty"`
	Address      string `bson:"direccion,omitempty"`
	CreatedAt    int64  `bson:"fecha_creacion"`
	UpdatedAt    int64  `bson:"fecha_actualizacion"`
}

func toPersonDoc(p *domain.Person) personDoc {
	return personDoc{
		ID:           p.ID,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		FullName:     p.FullName,
		Phone:        p.Phone,
		Address:      p.Address,
		CreatedAt:    p.CreatedAt.Unix(),
		UpdatedAt:    p.UpdatedAt.Unix(),
	}
}

func (d personDoc) toDomain() *domain.Person {
	return &domain.Person{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		FullName:     d.FullName,
		Phone:        d.Phone,
		Address:      d.Address,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
}

func (r *PersonRepository) Create(ctx context.Context, p *domain.Person) (*domain.Person, error) {
	// Uniqueness is enforced by the unique index on email.
	if _, err := r.coll.InsertOne(ctx, toPersonDoc(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrPersonExists
		}
		return nil, fmt.Errorf("insert person: %w", err)
	}
	return p, nil
}

func (r *PersonRepository) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	var doc personDoc
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPersonNotFound
		}
		return nil, fmt.Errorf("find person by email: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PersonRepository) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	var doc personDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPersonNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *PersonRepository) Update(ctx context.Context, p *domain.Person) error {
	update := bson.M{"$set": bson.M{
		"nombre_completo":     p.FullName,
		"telefono":            p.Phone,
		"direccion":           p.Address,
		"fecha_actualizacion": p.UpdatedAt.Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, update)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func (r *PersonRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	update := bson.M{"$set": bson.M{
		"contrasenha":         passwordHash,
		"fecha_actualizacion": time.Now().UTC().Unix(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrPersonNotFound
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
