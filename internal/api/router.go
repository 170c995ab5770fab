package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/neumonitor/triage-api/internal/api/handler"
	"github.com/neumonitor/triage-api/internal/api/middleware"
	"github.com/neumonitor/triage-api/internal/core/ports"
	"github.com/neumonitor/triage-api/internal/core/service"
	"github.com/neumonitor/triage-api/internal/infrastructure/config"
	mongodb "github.com/neumonitor/triage-api/internal/infrastructure/db/mongo"
	redisdb "github.com/neumonitor/triage-api/internal/infrastructure/db/redis"
	healthhandlers "github.com/neumonitor/triage-api/internal/infrastructure/http/handlers"
	"github.com/neumonitor/triage-api/pkg/session"
)

// loginRatePerSecond throttles credential guessing on /auth/login.
const loginRatePerSecond = 5

// Deps carries the external resources the router wires together.
type Deps struct {
	Mongo     *mongo.Database
	Redis     *redis.Client
	Inference ports.InferenceClient
	Config    *config.Config
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("neumonitor"))

	// --- Dependencies ---
	personRepo := mongodb.NewPersonRepository(d.Mongo)
	profileRepo := mongodb.NewProfileRepository(d.Mongo)
	analysisRepo := mongodb.NewAnalysisRepository(d.Mongo)
	sessionRepo := redisdb.NewSessionRepository(d.Redis)
	dedup := redisdb.NewDedupChecker(d.Redis)

	authService := service.NewAuthService(personRepo, profileRepo, sessionRepo, d.Config.SessionTTL, d.Logger)
	analysisService := service.NewAnalysisService(d.Inference, analysisRepo, profileRepo, dedup, d.Logger)
	personService := service.NewPersonService(personRepo, d.Logger)

	authHandler := handler.NewAuthHandler(authService)
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	personHandler := handler.NewPersonHandler(personService)
	authMiddleware := middleware.Auth(authService)

	// --- Auth routes ---
	loginLimiter := echomiddleware.RateLimiter(
		echomiddleware.NewRateLimiterMemoryStore(rate.Limit(loginRatePerSecond)),
	)
	e.POST("/auth/login", authHandler.Login, loginLimiter)
	e.POST("/auth/registro", authHandler.Register)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/verificar-sesion", authHandler.VerifySession)
	e.POST("/auth/recuperar-password", authHandler.RecoverPassword, loginLimiter)

	// --- Analysis routes ---
	e.POST("/predecir", analysisHandler.Predict) // anonymous quick check
	analisis := e.Group("/analisis", authMiddleware)
	analisis.POST("/subir", analysisHandler.Submit)
	analisis.GET("/historial", analysisHandler.History)
	analisis.GET("/perfil-salud", analysisHandler.HealthProfile)

	// --- Account routes ---
	persona := e.Group("/persona", authMiddleware)
	persona.GET("/perfil", personHandler.Profile)
	persona.PUT("/perfil", personHandler.UpdateProfile)
	persona.PUT("/cambiar-contrasena", personHandler.ChangePassword)

	// --- Health probes (no auth required) ---
	healthHandler := healthhandlers.NewHealthHandler()
	healthDepsHandler := healthhandlers.NewHealthDependenciesHandler(d.Mongo, d.Redis, d.Inference)

	e.GET("/salud", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/salud/listo", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operational endpoints ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Front-end pages behind the route gate ---
	if d.Config.StaticDir != "" {
		gate := session.NewGate(
			d.Config.Gate.AuthOnlyPrefixes,
			d.Config.Gate.ProtectedPrefixes,
			d.Config.Gate.LoginPath,
			d.Config.Gate.HomePath,
		)
		pages := e.Group("", middleware.Gate(gate))
		pages.Static("/", d.Config.StaticDir)
	}

	return e
}
