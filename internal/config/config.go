package config

import (
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every configuration value of the service. Nothing else
// should read the environment directly.
type Config struct {
	AppEnv  string `env:"APP_ENV,default=dev"`
	AppName string `env:"APP_NAME,default=parcel_shipping"`

	HttpListenAddr         string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpServerReadTimeout  time.Duration `env:"HTTP_SERVER_READ_TIMEOUT,default=2500ms"`
	HttpServerWriteTimeout time.Duration `env:"HTTP_SERVER_WRITE_TIMEOUT,default=2500ms"`
	HttpRequestTimeout     time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT,default=5432"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT,default=5432"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=parcel:"`

	PromNamespace  string `env:"PROM_NAMESPACE,default=parcel_shipping"`
	PromListenAddr string `env:"PROM_LISTEN_ADDR,default=:9100"`

	SessionTTL time.Duration `env:"SESSION_TTL,default=168h"`

	// 0 disables the bound
	RatesMaxWeightKg     float64 `env:"RATES_MAX_WEIGHT_KG,default=1000"`
	RatesMaxPackageCount int     `env:"RATES_MAX_PACKAGE_COUNT,default=100"`

	TrackingNumberPrefix string `env:"TRACKING_NUMBER_PREFIX,default=ANT"`
	OperatorAPIKey       string `env:"OPERATOR_API_KEY"`

	EventsStream       string        `env:"EVENTS_STREAM,default=shipment-events"`
	EventsGroup        string        `env:"EVENTS_CONSUMER_GROUP,default=notifier"`
	EventsConsumer     string        `env:"EVENTS_CONSUMER_NAME"`
	EventsMaxRetries   int           `env:"EVENTS_MAX_RETRIES,default=5"`
	EventsVisibility   time.Duration `env:"EVENTS_VISIBILITY_TIMEOUT,default=30s"`
	EventsPollInterval time.Duration `env:"EVENTS_POLL_INTERVAL,default=1s"`
	EventsBatchSize    int64         `env:"EVENTS_BATCH_SIZE,default=10"`
	EventsMaxLen       int64         `env:"EVENTS_MAX_LEN,default=100000"`
	EventsEnableDLQ    bool          `env:"EVENTS_ENABLE_DLQ,default=true"`
	ProcessorWorkers   int           `env:"PROCESSOR_WORKERS,default=8"`

	NotifierURL     string        `env:"NOTIFIER_URL,default=http://localhost:8090/notifications"`
	NotifierTimeout time.Duration `env:"NOTIFIER_TIMEOUT,default=5s"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Config")
	}

	config = c
	return nil
}

// Set replaces the loaded configuration, tests use it to avoid the environment.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

// EnvPathFromArgs returns the value of a --env=path flag if the file exists.
func EnvPathFromArgs(args []string) string {
	for _, v := range args {
		if !strings.HasPrefix(v, "--env=") {
			continue
		}
		p := strings.TrimPrefix(v, "--env=")
		if _, err := os.Stat(p); err != nil {
			logger.Error("failed to open the passed env file", "path", p, "error", err)
			return ""
		}
		return p
	}
	return ""
}
