package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "STOREBUDDY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Classifier    ClassifierConfig
	Receipts      ReceiptsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREBUDDY_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREBUDDY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREBUDDY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREBUDDY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STOREBUDDY_DB_DSN" required:"true"`
	Driver string `envconfig:"STOREBUDDY_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"STOREBUDDY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREBUDDY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREBUDDY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREBUDDY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREBUDDY_REDIS_URL" required:"true"`
	Password     string        `envconfig:"STOREBUDDY_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREBUDDY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREBUDDY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREBUDDY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREBUDDY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREBUDDY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREBUDDY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOREBUDDY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREBUDDY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOREBUDDY_JWT_EXPIRATION_MINUTES" default:"720"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREBUDDY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREBUDDY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREBUDDY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREBUDDY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREBUDDY_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"STOREBUDDY_PASSWORD_MIN_LENGTH" default:"6"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREBUDDY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREBUDDY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREBUDDY_AUTO_MIGRATE" default:"false"`
}

// ClassifierConfig points at the product-recognition model service.
type ClassifierConfig struct {
	BaseURL   string        `envconfig:"STOREBUDDY_CLASSIFIER_BASE_URL"`
	ModelName string        `envconfig:"STOREBUDDY_CLASSIFIER_MODEL_NAME" default:"storebuddy-products"`
	Threshold float64       `envconfig:"STOREBUDDY_CLASSIFIER_THRESHOLD" default:"0.6"`
	Timeout   time.Duration `envconfig:"STOREBUDDY_CLASSIFIER_TIMEOUT" default:"15s"`
}

type ReceiptsConfig struct {
	OutputDir    string `envconfig:"STOREBUDDY_RECEIPTS_DIR" default:"receipts"`
	LinesPerPage int    `envconfig:"STOREBUDDY_RECEIPTS_LINES_PER_PAGE" default:"40"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREBUDDY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	ReceiptsTopic        string `envconfig:"STOREBUDDY_PUBSUB_RECEIPTS_TOPIC"`
	ReceiptsSubscription string `envconfig:"STOREBUDDY_PUBSUB_RECEIPTS_SUBSCRIPTION"`
}

// Enabled reports whether checkout should publish receipt events instead of
// rendering in-process.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.ReceiptsTopic) != ""
}
