package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port       string        `env:"PORT,        default=8000"`
	Env        string        `env:"ENV,         default=development"`
	LogLevel   string        `env:"LOG_LEVEL,   default=info"`
	SessionTTL time.Duration `env:"SESSION_TTL, default=720h"`
	// StaticDir, when set, serves the built front end behind the route gate.
	StaticDir string `env:"STATIC_DIR"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Inference InferenceConfig
	Gate      GateConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=neumonitor"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type InferenceConfig struct {
	BaseURL      string `env:"INFERENCE_URL, default=http://localhost:8501"`
	SharedSecret string `env:"INFERENCE_SECRET"`
}

// GateConfig declares which page-path prefixes the route gate treats as
// auth-only (redirect away when logged in) and protected (redirect to login
// when not). This is configuration the gate consumes, not logic it computes.
type GateConfig struct {
	AuthOnlyPrefixes  []string `env:"GATE_AUTH_ONLY,  default=/login,/registro"`
	ProtectedPrefixes []string `env:"GATE_PROTECTED,  default=/dashboard,/historial,/analisis-personalizado"`
	LoginPath         string   `env:"GATE_LOGIN_PATH, default=/login"`
	HomePath          string   `env:"GATE_HOME_PATH,  default=/dashboard"`
}

// Load reads configuration from environment variables using go-envconfig.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	godotenv.Load()

	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
