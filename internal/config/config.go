package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Addr            string        `mapstructure:"HTTP_ADDR"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

type MongoConfig struct {
	URI    string `mapstructure:"MONGO_URI"`
	DBName string `mapstructure:"MONGO_DB_NAME"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"REDIS_ADDR"`
	Password string `mapstructure:"REDIS_PASSWORD"`
}

type AuthConfig struct {
	TokenSecret string        `mapstructure:"TOKEN_SECRET"`
	TokenTTL    time.Duration `mapstructure:"TOKEN_TTL"`
}

type CartConfig struct {
	MaxRetries  int  `mapstructure:"CART_MAX_RETRIES"`
	StrictStock bool `mapstructure:"CART_STRICT_STOCK"`
}

type KafkaConfig struct {
	Brokers      string `mapstructure:"KAFKA_BROKERS"`
	AccountTopic string `mapstructure:"KAFKA_ACCOUNT_TOPIC"`
	GroupID      string `mapstructure:"KAFKA_GROUP_ID"`
}

// BrokerList splits the comma separated broker addresses.
func (k KafkaConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (k KafkaConfig) Enabled() bool {
	return len(k.BrokerList()) > 0
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"MINIO_ENDPOINT"`
	AccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	SecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	Bucket    string `mapstructure:"MINIO_BUCKET"`
	UseSSL    bool   `mapstructure:"MINIO_USE_SSL"`
	PublicURL string `mapstructure:"MINIO_PUBLIC_URL"`
}

func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type LogConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

type Config struct {
	HTTP  HTTPConfig  `mapstructure:",squash"`
	Mongo MongoConfig `mapstructure:",squash"`
	Redis RedisConfig `mapstructure:",squash"`
	Auth  AuthConfig  `mapstructure:",squash"`
	Cart  CartConfig  `mapstructure:",squash"`
	Kafka KafkaConfig `mapstructure:",squash"`
	Minio MinioConfig `mapstructure:",squash"`
	Log   LogConfig   `mapstructure:",squash"`

	// MigrateOnly applies index migrations and exits.
	MigrateOnly bool `mapstructure:"MIGRATE_ONLY"`
}

var defaults = map[string]any{
	"HTTP_ADDR":           ":8080",
	"REQUEST_TIMEOUT":     "30s",
	"SHUTDOWN_TIMEOUT":    "10s",
	"MONGO_URI":           "",
	"MONGO_DB_NAME":       "storefront",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"TOKEN_SECRET":        "",
	"TOKEN_TTL":           "720h",
	"CART_MAX_RETRIES":    3,
	"CART_STRICT_STOCK":   false,
	"KAFKA_BROKERS":       "",
	"KAFKA_ACCOUNT_TOPIC": "account-closed",
	"KAFKA_GROUP_ID":      "storefront-service",
	"MINIO_ENDPOINT":      "",
	"MINIO_ACCESS_KEY":    "",
	"MINIO_SECRET_KEY":    "",
	"MINIO_BUCKET":        "product-images",
	"MINIO_USE_SSL":       false,
	"MINIO_PUBLIC_URL":    "",
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "json",
	"MIGRATE_ONLY":        false,
}

// Load reads envFile if it exists, then the environment, then command line
// flags in args. Later sources win.
func Load(envFile string, args []string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
			log.WithField("file", envFile).Debug("no env file found, using process environment")
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("storefront", pflag.ContinueOnError)
	fs.String("http-addr", "", "HTTP listen address")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.Bool("migrate-only", false, "apply index migrations and exit")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	for key, flag := range map[string]string{
		"HTTP_ADDR":    "http-addr",
		"LOG_LEVEL":    "log-level",
		"MIGRATE_ONLY": "migrate-only",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.Mongo.DBName == "" {
		errs = append(errs, errors.New("MONGO_DB_NAME is required"))
	}
	if c.Auth.TokenSecret == "" && !c.MigrateOnly {
		errs = append(errs, errors.New("TOKEN_SECRET is required"))
	}
	if c.HTTP.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Cart.MaxRetries < 0 {
		errs = append(errs, errors.New("CART_MAX_RETRIES must not be negative"))
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Log.Format))
	}
	if c.Minio.Enabled() && c.Minio.Bucket == "" {
		errs = append(errs, errors.New("MINIO_BUCKET is required when MINIO_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}
