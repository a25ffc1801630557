package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	ImageStoreLocal = "local"
	ImageStoreGCS   = "gcs"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StoreDriver            string `env:"STORE_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`

	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionCookie string        `env:"SESSION_COOKIE" envDefault:"session"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	AllowedOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	FirebaseProjectID string   `env:"FIREBASE_PROJECT_ID"`

	ImageStore         string `env:"IMAGE_STORE" envDefault:"local"`
	UploadDir          string `env:"UPLOAD_DIR" envDefault:"uploads"`
	PublicBaseURL      string `env:"PUBLIC_BASE_URL" envDefault:"/uploads"`
	GCSBucket          string `env:"GCS_BUCKET"`
	GCSCredentialsFile string `env:"GCS_CREDENTIALS_FILE"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	WriteRatePerMin int `env:"WRITE_RATE_PER_MIN" envDefault:"60"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMySQL:
		if c.DBUser == "" || c.DBName == "" || (c.DBHost == "" && c.InstanceConnectionName == "") {
			return errors.New("config: DB_USER, DB_NAME and DB_HOST (or INSTANCE_CONNECTION_NAME) are required for the mysql store")
		}
	case StoreMemory:
	default:
		return errors.New("config: STORE_DRIVER must be mysql or memory")
	}
	switch c.ImageStore {
	case ImageStoreLocal:
	case ImageStoreGCS:
		if c.GCSBucket == "" {
			return errors.New("config: GCS_BUCKET is required when IMAGE_STORE=gcs")
		}
	default:
		return errors.New("config: IMAGE_STORE must be local or gcs")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
