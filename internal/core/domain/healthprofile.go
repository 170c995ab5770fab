package domain

import "time"

// ZoneType classifies where the patient lives. Wire values match the intake
// form of the original deployment (Spanish-speaking population).
type ZoneType string

const (
	ZoneUrban     ZoneType = "urbana"
	ZonePeriUrban ZoneType = "periurbana"
	ZoneRural     ZoneType = "rural"
	ZoneHardReach ZoneType = "comunidad_dificil"
)

// EconomicSituation is the self-reported income bracket.
type EconomicSituation string

const (
	EconomicLimited     EconomicSituation = "ingresos_limites"
	EconomicModerate    EconomicSituation = "ingresos_moderados"
	EconomicStable      EconomicSituation = "ingresos_estables"
	EconomicUndisclosed EconomicSituation = "prefiero_no_responder"
)

// HealthAccess describes how easily the patient reaches medical care.
// Collected for display and follow-up; not an input to the scoring formula.
type HealthAccess string

const (
	AccessVeryDifficult HealthAccess = "muy_dificil"
	AccessDifficult     HealthAccess = "dificil"
	AccessModerate      HealthAccess = "acceso_moderado"
	AccessEasy          HealthAccess = "facil_acceso"
	AccessPrivateCare   HealthAccess = "atencion_privada"
)

// CovidExperience records the patient's pandemic history. The explicit None
// flag exists so "no experience" is an affirmative answer rather than an
// unfilled form.
type CovidExperience struct {
	Diagnosed           bool `json:"diagnosticado" bson:"diagnosticado"`
	Hospitalized        bool `json:"hospitalizado" bson:"hospitalizado"`
	RespiratorySequelae bool `json:"secuelas_respiratorias" bson:"secuelas_respiratorias"`
	LostEmployment      bool `json:"perdida_empleo" bson:"perdida_empleo"`
	None                bool `json:"sin_covid" bson:"sin_covid"`
}

// HasSelection reports whether at least one flag is set. Profiles without a
// selection are rejected before they reach scoring or persistence.
func (c CovidExperience) HasSelection() bool {
	return c.Diagnosed || c.Hospitalized || c.RespiratorySequelae || c.LostEmployment || c.None
}

// HealthProfile is the demographic and pandemic-experience intake attached to
// a person at registration. It is the sole input to vulnerability scoring.
type HealthProfile struct {
	PersonID          string            `json:"persona_id"`
	BirthDate         time.Time         `json:"fecha_nacimiento"`
	Zone              ZoneType          `json:"tipo_zona"`
	EconomicSituation EconomicSituation `json:"situacion_economica"`
	HealthAccess      HealthAccess      `json:"acceso_salud"`
	Covid             CovidExperience   `json:"experiencias_covid"`

	// Snapshot of the assessment computed at registration time.
	VulnerabilityLevel VulnerabilityLevel `json:"nivel_vulnerabilidad,omitempty"`
	CarePriority       VulnerabilityLevel `json:"prioridad_atencion,omitempty"`

	CreatedAt time.Time `json:"fecha_creacion"`
	UpdatedAt time.Time `json:"fecha_actualizacion"`
}

// Complete reports whether every field the scorer requires is present.
func (p HealthProfile) Complete() bool {
	return !p.BirthDate.IsZero() && p.Zone != "" && p.EconomicSituation != "" && p.Covid.HasSelection()
}
