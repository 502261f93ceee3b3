package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvInfo 集合服務設定 from .env
type EnvInfo struct {
	// service name
	Gateway        string
	DeliveryWorker string

	// service yaml path
	GatewayYAMLPath        string
	DeliveryWorkerYAMLPath string

	// service log path
	GatewayLogPath        string
	DeliveryWorkerLogPath string

	// JWT secret, shared by gateway handshake and beacon
	JWTSecret string
}

// EnvConfig 集合服務設定
var (
	EnvConfig = initEnv()
	envConfig EnvInfo
	once      sync.Once
	env       string
)

func initEnv() EnvInfo {
	once.Do(func() {
		path, err := GetPath(".env", 5)
		if err != nil {
			log.Printf("Warning: Could not get .env path: %v", err)
		}

		if err := godotenv.Load(path); err != nil {
			log.Printf("Warning: Could not load .env file: %v", err)
		}

		env = os.Getenv("ENV")

		envConfig = EnvInfo{
			Gateway:        getEnv("GATEWAY", "gateway"),
			DeliveryWorker: getEnv("DELIVERY_WORKER", "delivery_worker"),

			GatewayYAMLPath:        getEnv("GATEWAY_YAML", "./config"),
			DeliveryWorkerYAMLPath: getEnv("DELIVERY_WORKER_YAML", "./config"),

			GatewayLogPath:        getEnv("GATEWAY_LOG", "./log/gateway"),
			DeliveryWorkerLogPath: getEnv("DELIVERY_WORKER_LOG", "./log/delivery_worker"),

			JWTSecret: os.Getenv("JWT_SECRET"),
		}
	})

	return envConfig
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// IsProduction check run env
func IsProduction() bool {
	return env == "production"
}

// IsLocal check run env
func IsLocal() bool {
	return env == "local"
}

// LoadConfig 加載配置, ${VAR} 以環境變數替換
func LoadConfig[T any](serviceName string, configPath string) T {
	cfg, err := ReadConfig[T](serviceName, configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	return cfg
}

// ReadConfig same as LoadConfig but return the error
func ReadConfig[T any](serviceName string, configPath string) (T, error) {
	var cfg T

	v := viper.New()
	v.SetConfigName(serviceName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	rawConfig, err := os.ReadFile(v.ConfigFileUsed())
	if err != nil {
		return cfg, fmt.Errorf("read raw config file: %w", err)
	}

	expandedConfig := os.ExpandEnv(string(rawConfig))

	if err := v.ReadConfig(bytes.NewBufferString(expandedConfig)); err != nil {
		return cfg, fmt.Errorf("read expanded config: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// GetRedisSetting get redis sentinel setting from .env
func GetRedisSetting() (string, []string) {
	var sentinelAddrs []string

	for _, e := range os.Environ() {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, value := parts[0], parts[1]

		// REDIS_SENTINEL*_IP + REDIS_SENTINEL*_PORT
		if strings.HasPrefix(key, "REDIS_SENTINEL") && strings.HasSuffix(key, "_IP") {
			portKey := strings.Replace(key, "_IP", "_PORT", 1)
			port := os.Getenv(portKey)
			if port != "" {
				sentinelAddrs = append(sentinelAddrs, fmt.Sprintf("%s:%s", value, port))
			}
		}
	}

	return getEnv("REDIS_MASTER_NAME", "mymaster"), sentinelAddrs
}

// GetPath use fileName loop maxCount find file path
func GetPath(fileName string, maxCount int) (string, error) {
	path := "./" + fileName

	for i := 0; i < maxCount; i++ {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		path = "../" + path
	}
	return "", errors.New(fileName + " can't find path")
}
