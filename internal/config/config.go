package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Persistence drivers for the durable local slot.
const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

var (
	ErrUnknownDriver = errors.New("unknown persistence driver")
	ErrMissingSecret = errors.New("jwt secret must be set")
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Remote      RemoteConfig      `mapstructure:"remote"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Redis       RedisConfig       `mapstructure:"redis"`
	S3          S3Config          `mapstructure:"s3"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// RemoteConfig points at the remote document store. Namespace is the
// database the students collection lives in.
type RemoteConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	URI          string        `mapstructure:"uri"`
	Namespace    string        `mapstructure:"namespace"`
	Collection   string        `mapstructure:"collection"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	QueueSize    int           `mapstructure:"queue_size"`
}

type PersistenceConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	Key    string `mapstructure:"key"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type S3Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoint        string        `mapstructure:"endpoint"`
	Region          string        `mapstructure:"region"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	BucketName      string        `mapstructure:"bucket_name"`
	PhotoURLExpiry  time.Duration `mapstructure:"photo_url_expiry"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Stdout bool   `mapstructure:"stdout"`
	JSON   bool   `mapstructure:"json"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// nested keys map to env vars, e.g. remote.uri -> REMOTE_URI
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	setDefaults(v)

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// no file, rely on defaults and env vars
		err = nil
	} else if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}

	// duration strings ("10s", "1h") decode straight into time.Duration
	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unmarshal config: %w", err)
	}

	return config, config.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")

	v.SetDefault("remote.enabled", true)
	v.SetDefault("remote.uri", "mongodb://localhost:27017")
	v.SetDefault("remote.namespace", "fitcoach")
	v.SetDefault("remote.collection", "students")
	v.SetDefault("remote.write_timeout", "10s")
	v.SetDefault("remote.queue_size", 256)

	v.SetDefault("persistence.driver", DriverFile)
	v.SetDefault("persistence.path", "./data")
	v.SetDefault("persistence.key", "fitcoach-state")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("s3.enabled", false)
	v.SetDefault("s3.photo_url_expiry", "168h") // SigV4 presign maximum

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "24h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.stdout", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "fitcoach")
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.Persistence.Driver {
	case DriverFile, DriverRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.Persistence.Driver)
	}
	if c.JWT.Secret == "" {
		return ErrMissingSecret
	}
	return nil
}
