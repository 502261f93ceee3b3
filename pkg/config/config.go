package config

import "time"

// Gateway definition gateway YAML structure
type Gateway struct {
	Port      string `mapstructure:"port"`
	Pprof     bool   `mapstructure:"pprof"`
	Debug     bool   `mapstructure:"debug"`
	LogDriver string `mapstructure:"log_driver"` // kafka | rabbitmq

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	MinIO      MinIOConfig    `mapstructure:"minio"`
	Announce   AnnounceConfig `mapstructure:"announce"`
	Presence   PresenceConfig `mapstructure:"presence"`
}

// DeliveryWorker definition delivery_worker YAML structure
type DeliveryWorker struct {
	Debug     bool   `mapstructure:"debug"`
	LogDriver string `mapstructure:"log_driver"`

	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	MongoDB    DatabaseConfig `mapstructure:"mongo"`
	Redis      RedisConfig    `mapstructure:"redis"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	RabbitMQ   RabbitMQConfig `mapstructure:"rabbitmq"`
	Announce   AnnounceConfig `mapstructure:"announce"`
}

// RedisConfig definition redis setting
// Addr 為空時走 .env 的 sentinel 設定
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka log setting
type KafkaConfig struct {
	Brokers       []string      `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic"`
	GroupID       string        `mapstructure:"group_id"`
	MaxInterval   time.Duration `mapstructure:"max_interval"`
	RetryInterval int           `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// RabbitMQConfig definition rabbitmq log setting
type RabbitMQConfig struct {
	URL           string        `mapstructure:"url"`
	Queue         string        `mapstructure:"queue"`
	RequeueDelay  time.Duration `mapstructure:"requeue_delay"`
	RetryInterval int           `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	Bucket        string        `mapstructure:"bucket"`
	UseSSL        bool          `mapstructure:"use_ssl"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	RetryInterval int           `mapstructure:"retry_interval"`
	RetryCount    int           `mapstructure:"retry_count"`
}

// AnnounceConfig definition worker -> gateway announce transport
type AnnounceConfig struct {
	Transport string        `mapstructure:"transport"` // grpc | redis
	GRPCPort  string        `mapstructure:"grpc_port"` // gateway listen port
	Target    string        `mapstructure:"target"`    // worker dial target
	Channel   string        `mapstructure:"channel"`
	Timeout   time.Duration `mapstructure:"timeout"`
	DedupSize int           `mapstructure:"dedup_size"`
}

// PresenceConfig definition presence setting
type PresenceConfig struct {
	CacheTTL              time.Duration `mapstructure:"cache_ttl"`
	AllowUnverifiedBeacon bool          `mapstructure:"allow_unverified_beacon"`
}
