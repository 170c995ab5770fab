package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/neumonitor/triage-api/internal/api/metrics"
	"github.com/neumonitor/triage-api/internal/core/domain"
	"github.com/neumonitor/triage-api/internal/core/ports"
)

// maxImageBytes caps radiograph uploads at 10 MiB.
const maxImageBytes = 10 << 20

type AnalysisHandler struct {
	service ports.AnalysisService
}

func NewAnalysisHandler(service ports.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// Predict runs a quick anonymous classification. Nothing is stored.
//
// @Summary      Classify a radiograph without an account
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Param        imagen  formData  file  true  "Chest radiograph"
// @Success      200     {object}  envelope
// @Failure      400     {object}  errorResponse
// @Failure      503     {object}  errorResponse
// @Router       /predecir [post]
func (h *AnalysisHandler) Predict(c echo.Context) error {
	image, filename, err := readImage(c)
	if err != nil {
		return err
	}

	start := time.Now()
	analysis, err := h.service.Predict(c.Request().Context(), image, filename)
	if err != nil {
		metrics.InferenceDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}
	metrics.InferenceDuration.WithLabelValues(string(analysis.Diagnosis)).Observe(time.Since(start).Seconds())

	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Data:    toPredictionResponse(analysis),
	})
}

// Submit classifies a radiograph for the authenticated patient, combines the
// diagnosis with the vulnerability profile, and stores it in the history.
//
// @Summary      Submit a radiograph for analysis
// @Tags         analysis
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string  false  "Idempotency key to prevent duplicate submissions"
// @Param        imagen           formData  file    true   "Chest radiograph"
// @Param        comentarios      formData  string  false  "Optional comments"
// @Success      201              {object}  envelope
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      503              {object}  errorResponse
// @Router       /analisis/subir [post]
func (h *AnalysisHandler) Submit(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	image, filename, err := readImage(c)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := h.service.Submit(c.Request().Context(), ports.SubmitAnalysisInput{
		PersonID:       personID,
		Image:          image,
		Filename:       filename,
		Comments:       c.FormValue("comentarios"),
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		metrics.InferenceDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		return err
	}

	diagnosis := string(result.Analysis.Diagnosis)
	metrics.InferenceDuration.WithLabelValues(diagnosis).Observe(time.Since(start).Seconds())

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	} else {
		tier := "none"
		if result.Vulnerability.HasProfile {
			tier = string(result.Vulnerability.Level)
		}
		metrics.AnalysesTotal.WithLabelValues(diagnosis, tier).Inc()
	}

	return c.JSON(status, envelope{
		Success: true,
		Data:    toSubmitResponse(result),
	})
}

// History returns the patient's analyses, newest first.
//
// @Summary      List analysis history
// @Tags         analysis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Router       /analisis/historial [get]
func (h *AnalysisHandler) History(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	analyses, err := h.service.History(c.Request().Context(), personID)
	if err != nil {
		return err
	}

	out := make([]analysisResponse, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, toAnalysisResponse(a))
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: out})
}

// HealthProfile returns the intake with a freshly computed assessment.
//
// @Summary      Get the health profile and current assessment
// @Tags         analysis
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /analisis/perfil-salud [get]
func (h *AnalysisHandler) HealthProfile(c echo.Context) error {
	personID, err := ctxPersonID(c)
	if err != nil {
		return err
	}

	profile, assessment, err := h.service.HealthProfile(c.Request().Context(), personID)
	if err != nil {
		return err
	}

	resp := healthProfileResponse{
		BirthDate:         profile.BirthDate.Format("2006-01-02"),
		Zone:              string(profile.Zone),
		EconomicSituation: string(profile.EconomicSituation),
		HealthAccess:      string(profile.HealthAccess),
		Covid: covidExperienceRequest{
			Diagnosed:           profile.Covid.Diagnosed,
			Hospitalized:        profile.Covid.Hospitalized,
			RespiratorySequelae: profile.Covid.RespiratorySequelae,
			LostEmployment:      profile.Covid.LostEmployment,
			None:                profile.Covid.None,
		},
	}
	if assessment != nil {
		v := toVulnerabilityResponse(*assessment)
		resp.Assessment = &v
	}

	return c.JSON(http.StatusOK, envelope{Success: true, Data: resp})
}

// readImage extracts and size-caps the uploaded radiograph.
func readImage(c echo.Context) ([]byte, string, error) {
	fh, err := c.FormFile("imagen")
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "imagen file is required")
	}
	if fh.Size > maxImageBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB limit")
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "could not read image")
	}
	defer func() {
		_ = f.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, "", echo.NewHTTPError(http.StatusBadRequest, "could not read image")
	}
	if len(data) > maxImageBytes {
		return nil, "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image exceeds 10MB limit")
	}
	return data, fh.Filename, nil
}

func toPredictionResponse(a *domain.Analysis) predictionResponse {
	return predictionResponse{
		Diagnosis:  string(a.Diagnosis),
		Confidence: a.Confidence,
		Probabilities: probabilitiesResponse{
			Normal:    a.Probabilities.Normal,
			Pneumonia: a.Probabilities.Pneumonia,
		},
	}
}

func toAnalysisResponse(a *domain.Analysis) analysisResponse {
	return analysisResponse{
		ID:         a.ID,
		Diagnosis:  string(a.Diagnosis),
		Confidence: a.Confidence,
		Probabilities: probabilitiesResponse{
			Normal:    a.Probabilities.Normal,
			Pneumonia: a.Probabilities.Pneumonia,
		},
		Comments: a.Comments,
		Date:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toSubmitResponse(r *ports.AnalysisResult) submitAnalysisResponse {
	return submitAnalysisResponse{
		analysisResponse: toAnalysisResponse(r.Analysis),
		Vulnerability: vulnerabilityContextResponse{
			Level:       string(r.Vulnerability.Level),
			Priority:    string(r.Vulnerability.Priority),
			Explanation: r.Vulnerability.Explanation,
			HasProfile:  r.Vulnerability.HasProfile,
		},
		Recommendation: r.Recommendation,
	}
}
