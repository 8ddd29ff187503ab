package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type ForestConfig struct {
	NTrees          int     `mapstructure:"n_trees"`
	MaxDepth        int     `mapstructure:"max_depth"`
	MinSamplesSplit int     `mapstructure:"min_samples_split"`
	Seed            int64   `mapstructure:"seed"`
	TestFraction    float64 `mapstructure:"test_fraction"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
}

type Config struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	DatasetSource string `mapstructure:"dataset_source"` // csv, parquet or postgres
	DatasetPath   string `mapstructure:"dataset_path"`
	ModelPath     string `mapstructure:"model_path"`

	Forest                  ForestConfig `mapstructure:"forest"`
	PredictionStoreCapacity int          `mapstructure:"prediction_store_capacity"` // 0 keeps every record

	ReloadSchedule string `mapstructure:"reload_schedule"`
	ExportSchedule string `mapstructure:"export_schedule"`
	ExportPath     string `mapstructure:"export_path"`
	ExportFolder   string `mapstructure:"export_folder"`

	Log                LogConfig `mapstructure:"log"`
	CORSOrigins        []string  `mapstructure:"cors_origins"`
	RateLimitPerMinute int       `mapstructure:"rate_limit_per_minute"`

	// where prediction events go: none, console, kafka or postgres
	OutputDestination     string `mapstructure:"output_destination"`
	KafkaBrokerList       string `mapstructure:"kafka_broker_list"`
	KafkaUseLocal         bool   `mapstructure:"kafka_use_local"`
	KafkaTopic            string `mapstructure:"kafka_topic"`
	KafkaSecurityProtocol string `mapstructure:"kafka_security_protocol"`
	KafkaSaslMechanism    string `mapstructure:"kafka_sasl_mechanism"`
	KafkaSaslUsername     string `mapstructure:"kafka_sasl_username"`
	KafkaSaslPassword     string `mapstructure:"kafka_sasl_password"`
	SessionTimeoutMs      int    `mapstructure:"session_timeout_ms"`

	PostgresDSN  string             `mapstructure:"postgres_dsn"`
	CloudStorage CloudStorageConfig `mapstructure:"cloud_storage"`
}

// Addr returns the listen address of the HTTP server.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("read_timeout", 15*time.Second)
	v.SetDefault("write_timeout", 30*time.Second)
	v.SetDefault("shutdown_timeout", 10*time.Second)

	v.SetDefault("dataset_source", "csv")
	v.SetDefault("dataset_path", "data/dataset.csv")
	v.SetDefault("model_path", "data/food_delivery_model.json")

	v.SetDefault("forest.n_trees", 100)
	v.SetDefault("forest.max_depth", 12)
	v.SetDefault("forest.min_samples_split", 2)
	v.SetDefault("forest.seed", 42)
	v.SetDefault("forest.test_fraction", 0.2)
	v.SetDefault("prediction_store_capacity", 0)

	v.SetDefault("reload_schedule", "")
	v.SetDefault("export_schedule", "")
	v.SetDefault("export_path", "output")
	v.SetDefault("export_folder", "predictions")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("rate_limit_per_minute", 600)

	v.SetDefault("output_destination", "none")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_use_local", true)
	v.SetDefault("kafka_topic", "prediction_events")
	v.SetDefault("kafka_security_protocol", "SASL_SSL")
	v.SetDefault("kafka_sasl_mechanism", "PLAIN")
	v.SetDefault("kafka_sasl_username", "")
	v.SetDefault("kafka_sasl_password", "")
	v.SetDefault("session_timeout_ms", 45000)

	v.SetDefault("postgres_dsn", "")
	v.SetDefault("cloud_storage.provider", "")
	v.SetDefault("cloud_storage.bucket_name", "")
	v.SetDefault("cloud_storage.region", "us-east-1")
}

// LoadConfig initializes and reads the configuration using Viper. An empty
// cfgFile falls back to ./orderly.{yaml,json} and then to defaults plus the
// environment.
func LoadConfig(cfgFile string) (*Config, error) {
	return LoadConfigFrom(viper.GetViper(), cfgFile)
}

func LoadConfigFrom(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("config")
		v.SetConfigName("orderly")
	}

	setDefaults(v)

	v.SetEnvPrefix("orderly")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv() // Read in environment variables that match
	if err := v.BindEnv("port", "ORDERLY_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("error binding PORT: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			mapstructure.StringToSliceHookFunc(","),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the server cannot start with.
func (cfg *Config) Validate() error {
	switch cfg.DatasetSource {
	case "csv", "parquet":
		if cfg.DatasetPath == "" {
			return fmt.Errorf("dataset_path is required for %s datasets", cfg.DatasetSource)
		}
	case "postgres":
		if cfg.PostgresDSN == "" {
			return errors.New("postgres_dsn is required for postgres datasets")
		}
	default:
		return fmt.Errorf("unsupported dataset_source: %s", cfg.DatasetSource)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.Forest.NTrees <= 0 {
		return fmt.Errorf("forest.n_trees must be positive, got %d", cfg.Forest.NTrees)
	}
	if cfg.PredictionStoreCapacity < 0 {
		return fmt.Errorf("prediction_store_capacity must not be negative, got %d", cfg.PredictionStoreCapacity)
	}
	return nil
}
