package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServicePort    string
	MetricsPort    string
	Environment    string
	LogLevel       string
	MongoDBConfig  MongoDBConfig
	PaystackConfig PaystackConfig
	JWTConfig      JWTConfig
	KafkaConfig    KafkaConfig
	SMTPConfig     SMTPConfig
	TracingConfig  TracingConfig
	SweeperConfig  SweeperConfig
	ClaimLease     time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

type JWTConfig struct {
	JWTSecret  string
	JWTKid     string
	SessionTTL time.Duration
}

type KafkaConfig struct {
	BrokerAddress string
	BrokerTopic   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type TracingConfig struct {
	CollectorHost string
}

type SweeperConfig struct {
	Interval time.Duration
	MinAge   time.Duration
	MaxAge   time.Duration
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	conf := Config{
		ServicePort: getEnv("SERVICE_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9090"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		MongoDBConfig: MongoDBConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: getEnv("MONGODB_DATABASE", "crispy_cravings"),
		},
		PaystackConfig: PaystackConfig{
			SecretKey: os.Getenv("PAYSTACK_SECRET_KEY"),
			BaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
			Timeout:   getDuration("PAYSTACK_TIMEOUT", 10*time.Second),
		},
		JWTConfig: JWTConfig{
			JWTSecret:  os.Getenv("JWT_SECRET"),
			JWTKid:     os.Getenv("JWT_KID"),
			SessionTTL: getDuration("SESSION_TTL", time.Hour),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress: os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:   getEnv("BROKER_TOPIC", "order_events"),
		},
		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Sender:   os.Getenv("SMTP_SENDER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
		},
		SweeperConfig: SweeperConfig{
			Interval: getDuration("SWEEPER_INTERVAL", 5*time.Minute),
			MinAge:   getDuration("SWEEPER_MIN_AGE", 10*time.Minute),
			MaxAge:   getDuration("SWEEPER_MAX_AGE", 48*time.Hour),
		},
		ClaimLease: getDuration("CLAIM_LEASE", 2*time.Minute),
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587
	}
	conf.SMTPConfig.Port = smtpPort

	return &conf
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}

	return d
}
