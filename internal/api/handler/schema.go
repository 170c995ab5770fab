package handler

// envelope is the uniform response shape: clients branch only on success and
// the HTTP status, never on the shape of data.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type covidExperienceRequest struct {
	Diagnosed           bool `json:"diagnosticado"`
	Hospitalized        bool `json:"hospitalizado"`
	RespiratorySequelae bool `json:"secuelas_respiratorias"`
	LostEmployment      bool `json:"perdida_empleo"`
	None                bool `json:"sin_covid"`
}

type registerRequest struct {
	Email    string `json:"email"           validate:"required,email"`
	Password string `json:"password"        validate:"required,min=8"`
	FullName string `json:"nombre_completo" validate:"required"`
	Phone    string `json:"telefono"`
	Address  string `json:"direccion"`

	BirthDate         string                 `json:"fecha_nacimiento"    validate:"required,datetime=2006-01-02"`
	Zone              string                 `json:"tipo_zona"           validate:"required,oneof=urbana periurbana rural comunidad_dificil"`
	EconomicSituation string                 `json:"situacion_economica" validate:"required,oneof=ingresos_limites ingresos_moderados ingresos_estables prefiero_no_responder"`
	HealthAccess      string                 `json:"acceso_salud"        validate:"required,oneof=muy_dificil dificil acceso_moderado facil_acceso atencion_privada"`
	Covid             covidExperienceRequest `json:"experiencias_covid"`
}

type recoverPasswordRequest struct {
	Email           string `json:"email"               validate:"required,email"`
	NewPassword     string `json:"nueva_password"      validate:"required,min=8"`
	ConfirmPassword string `json:"confirmar_password"  validate:"required,min=8"`
}

type updatePersonRequest struct {
	FullName string `json:"nombre_completo"`
	Phone    string `json:"telefono"`
	Address  string `json:"direccion"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"password_actual" validate:"required"`
	NewPassword     string `json:"password_nueva"  validate:"required,min=8"`
}

// --- Response types ---

// Response-only types are owned by the transport layer so the JSON contract
// is not coupled to internal service changes.

type personResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"nombre_completo"`
	Phone    string `json:"telefono,omitempty"`
	Address  string `json:"direccion,omitempty"`
}

type loginResponse struct {
	Persona personResponse `json:"persona"`
	Token   string         `json:"token"`
}

type vulnerabilityResponse struct {
	Level    string   `json:"nivel_vulnerabilidad"`
	Priority string   `json:"prioridad_atencion"`
	Factors  int      `json:"factores_criticos"`
	Reasons  []string `json:"motivos"`
	AgeYears int      `json:"edad_actual"`
}

type registerResponse struct {
	Persona       personResponse        `json:"persona"`
	Vulnerability vulnerabilityResponse `json:"vulnerabilidad"`
	Token         string                `json:"token,omitempty"`
}

type probabilitiesResponse struct {
	Normal    float64 `json:"normal"`
	Pneumonia float64 `json:"neumonia"`
}

type predictionResponse struct {
	Diagnosis     string                `json:"diagnostico"`
	Confidence    float64               `json:"confianza"`
	Probabilities probabilitiesResponse `json:"probabilidades"`
}

type vulnerabilityContextResponse struct {
	Level       string `json:"nivel_vulnerabilidad"`
	Priority    string `json:"prioridad_atencion"`
	Explanation string `json:"explicacion"`
	HasProfile  bool   `json:"tiene_perfil"`
}

type analysisResponse struct {
	ID            string                `json:"id"`
	Diagnosis     string                `json:"diagnostico"`
	Confidence    float64               `json:"confianza"`
	Probabilities probabilitiesResponse `json:"probabilidades"`
	Comments      string                `json:"comentarios,omitempty"`
	Date          string                `json:"fecha"`
}

type submitAnalysisResponse struct {
	analysisResponse
	Vulnerability  vulnerabilityContextResponse `json:"vulnerabilidad"`
	Recommendation string                       `json:"recomendacion"`
}

type healthProfileResponse struct {
	BirthDate         string                 `json:"fecha_nacimiento"`
	Zone              string                 `json:"tipo_zona"`
	EconomicSituation string                 `json:"situacion_economica"`
	HealthAccess      string                 `json:"acceso_salud"`
	Covid             covidExperienceRequest `json:"experiencias_covid"`

	// Assessment is omitted while the intake is incomplete: "no assessment
	// yet" is not an error.
	Assessment *vulnerabilityResponse `json:"evaluacion,omitempty"`
}
