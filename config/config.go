// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"corsOrigins"`
}

// StoreConfig picks the primary backend: "mongo" or "sqlite".
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type MongoConfig struct {
	URI          string `mapstructure:"uri"`
	DBName       string `mapstructure:"dbName"`
	Transactions bool   `mapstructure:"transactions"` // needs a replica set
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// MirrorConfig controls the local ticket copy kept next to a mongo primary.
type MirrorConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Path              string        `mapstructure:"path"`
	ReconcileInterval time.Duration `mapstructure:"reconcileInterval"`
}

type SweepConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	Expiration string `mapstructure:"expiration"`
}

type S3Config struct {
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyID"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	CloudFrontDomain string `mapstructure:"cloudFrontDomain"`
}

type TelegramConfig struct {
	Token   string `mapstructure:"token"`
	Debug   bool   `mapstructure:"debug"`
	Timeout int    `mapstructure:"timeout"` // long-poll seconds
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SeedConfig struct {
	AdminEmail    string `mapstructure:"adminEmail"`
	AdminPassword string `mapstructure:"adminPassword"`
	Demo          bool   `mapstructure:"demo"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Sweep    SweepConfig    `mapstructure:"sweep"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	S3       S3Config       `mapstructure:"s3"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

var envKeys = map[string]string{
	"server.port":              "SERVER_PORT",
	"store.driver":             "STORE_DRIVER",
	"mongo.uri":                "MONGO_URI",
	"mongo.dbName":             "MONGO_DBNAME",
	"mongo.transactions":       "MONGO_TRANSACTIONS",
	"sqlite.path":              "SQLITE_PATH",
	"mirror.enabled":           "MIRROR_ENABLED",
	"mirror.path":              "MIRROR_PATH",
	"mirror.reconcileInterval": "MIRROR_RECONCILE_INTERVAL",
	"sweep.interval":           "SWEEP_INTERVAL",
	"jwt.secret":               "JWT_SECRET",
	"jwt.expiration":           "JWT_EXPIRATION",
	"s3.bucket":                "S3_BUCKET",
	"s3.region":                "S3_REGION",
	"s3.accessKeyID":           "S3_ACCESS_KEY_ID",
	"s3.secretAccessKey":       "S3_SECRET_ACCESS_KEY",
	"s3.cloudFrontDomain":      "S3_CLOUDFRONT_DOMAIN",
	"telegram.token":           "TELEGRAM_TOKEN",
	"telegram.debug":           "TELEGRAM_DEBUG",
	"log.level":                "LOG_LEVEL",
	"log.format":               "LOG_FORMAT",
	"seed.adminEmail":          "SEED_ADMIN_EMAIL",
	"seed.adminPassword":       "SEED_ADMIN_PASSWORD",
	"seed.demo":                "SEED_DEMO",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.corsOrigins", []string{"*"})
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("mongo.dbName", "giving_hand")
	v.SetDefault("sqlite.path", "giving-hand.db")
	v.SetDefault("mirror.path", "giving-hand-mirror.db")
	v.SetDefault("mirror.reconcileInterval", 5*time.Minute)
	v.SetDefault("sweep.interval", time.Minute)
	v.SetDefault("jwt.expiration", "24h")
	v.SetDefault("telegram.timeout", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("seed.adminEmail", "admin@givinghand.local")
}

// LoadConfig reads config.yaml from path and overrides it with environment
// variables. A .env file in path or the working directory is loaded first;
// variables already set win over it. A missing config.yaml is not an error.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load(filepath.Join(path, ".env"))
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	for key, env := range envKeys {
		if err = v.BindEnv(key, env); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, config.Validate()
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case "mongo":
		if c.Mongo.URI == "" || c.Mongo.DBName == "" {
			return errors.New("mongo.uri and mongo.dbName are required")
		}
	default:
		return fmt.Errorf("store.driver must be mongo or sqlite, got %q", c.Store.Driver)
	}
	if c.Mirror.Enabled && c.Mirror.ReconcileInterval <= 0 {
		return errors.New("mirror.reconcileInterval must be positive")
	}
	if c.Sweep.Interval <= 0 {
		return errors.New("sweep.interval must be positive")
	}
	if _, err := time.ParseDuration(c.JWT.Expiration); err != nil {
		return fmt.Errorf("jwt.expiration: %w", err)
	}
	return nil
}

// JWTSecret returns the signing secret, or the JWT_SECRET environment value
// when the config left it empty.
func (c Config) JWTSecret() []byte {
	if c.JWT.Secret != "" {
		return []byte(c.JWT.Secret)
	}
	return []byte(os.Getenv("JWT_SECRET"))
}
