package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neumonitor/triage-api/internal/core/domain"
)

const profileCollection = "perfiles_salud"

type ProfileRepository struct {
	coll *mongo.Collection
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(profileCollection)}
}

type profileDoc struct {
	PersonID          string                 `bson:"_id"`
	BirthDate         string                 `bson:"fecha_nacimiento"`
	Zone              string                 `bson:"tipo_zona"`
	EconomicSituation string                 `bson:"situacion_economica"`
	HealthAccess      string                 `bson:"acceso_salud"`
	Covid             domain.CovidExperience `bson:"experiencias_covid"`
	Level             string                 `bson:"nivel_vulnerabilidad,omitempty"`
	Priority          string                 `bson:"prioridad_atencion,omitempty"`
	CreatedAt         int64                  `bson:"fecha_creacion"`
	UpdatedAt         int64                  `bson:"fecha_actualizacion"`
}

// birthDateLayout keeps birth dates as plain calendar dates; time-of-day is
// meaningless for age computation.
const birthDateLayout = "2006-01-02"

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.HealthProfile) error {
	doc := profileDoc{
		PersonID:          p.PersonID,
		BirthDate:         p.BirthDate.Format(birthDateLayout),
		Zone:              string(p.Zone),
		EconomicSituation: string(p.EconomicSituation),
		HealthAccess:      string(p.HealthAccess),
		Covid:             p.Covid,
		Level:             string(p.VulnerabilityLevel),
		Priority:          string(p.CarePriority),
		CreatedAt:         p.CreatedAt.Unix(),
		UpdatedAt:         p.UpdatedAt.Unix(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.PersonID}, doc, opts); err != nil {
		return fmt.Errorf("upsert health profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) FindByPersonID(ctx context.Context, personID string) (*domain.HealthProfile, error) {
	var doc profileDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": personID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find health profile: %w", err)
	}

	birth, err := time.Parse(birthDateLayout, doc.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("parse birth date %q: %w", doc.BirthDate, err)
	}

	return &domain.HealthProfile{
		PersonID:           doc.PersonID,
		BirthDate:          birth,
		Zone:               domain.ZoneType(doc.Zone),
		EconomicSituation:  domain.EconomicSituation(doc.EconomicSituation),
		HealthAccess:       domain.HealthAccess(doc.HealthAccess),
		Covid:              doc.Covid,
		VulnerabilityLevel: domain.VulnerabilityLevel(doc.Level),
		CarePriority:       domain.VulnerabilityLevel(doc.Priority),
		CreatedAt:          unixToTime(doc.CreatedAt),
		UpdatedAt:          unixToTime(doc.UpdatedAt),
	}, nil
}
