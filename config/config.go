package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	aws_pkg "github.com/Jacob59569/Fast-Api-Stripe/pkg/aws"
	"github.com/joho/godotenv"
)

// Event bus selectors for EVENT_BUS.
const (
	EventBusNone  = ""
	EventBusSNS   = "sns"
	EventBusKafka = "kafka"
)

type Config struct {
	Port string
	Env  string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutCurrency    string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	RedisURL string
	CartTTL  time.Duration

	EventBus                string
	PaymentSNSTopicARN      string
	KafkaBrokers            []string
	KafkaTopic              string
	CheckoutRequestQueueURL string

	AllowedOrigins     string
	CloudWatchEnabled  bool
	CloudWatchLogGroup string
	AWSUseSecrets      bool
}

// SecretLoader is satisfied by aws_pkg.SecretsClient.
type SecretLoader interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// Secret names read when AWS_USE_SECRETS=true.
const (
	StripeSecretName = "checkout/STRIPE"
	DBSecretName     = "checkout/DB_CREDENTIALS"
)

// LoadConfig reads configuration from the environment, after loading an
// optional .env file. With AWS_USE_SECRETS=true, Stripe keys and database
// credentials are overridden from Secrets Manager.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if cfg.AWSUseSecrets {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplySecrets(context.Background(), aws_pkg.NewSecretsClient(awsCfg)); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() (*Config, error) {
	cartTTL, err := time.ParseDuration(getEnv("CART_TTL", "168h"))
	if err != nil {
		return nil, fmt.Errorf("invalid CART_TTL: %w", err)
	}

	port := getEnv("PORT", "8000")
	cfg := &Config{
		Port:                    port,
		Env:                     getEnv("APP_ENV", "development"),
		PostgresUser:            os.Getenv("POSTGRES_USER"),
		PostgresPassword:        os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:              os.Getenv("POSTGRES_DB"),
		PostgresHost:            os.Getenv("POSTGRES_HOST"),
		PostgresPort:            getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:         getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:        getEnv("POSTGRES_TIMEZONE", "UTC"),
		StripeSecretKey:         os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:     os.Getenv("STRIPE_WEBHOOK_SECRET"),
		CheckoutCurrency:        strings.ToLower(getEnv("CHECKOUT_CURRENCY", "usd")),
		CheckoutSuccessURL:      getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:"+port+"/success"),
		CheckoutCancelURL:       getEnv("CHECKOUT_CANCEL_URL", "http://localhost:"+port+"/cancel"),
		RedisURL:                getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:                 cartTTL,
		EventBus:                strings.ToLower(os.Getenv("EVENT_BUS")),
		PaymentSNSTopicARN:      os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		KafkaBrokers:            splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:              getEnv("KAFKA_TOPIC", "payment.events"),
		CheckoutRequestQueueURL: os.Getenv("CHECKOUT_REQUEST_QUEUE_URL"),
		AllowedOrigins:          getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		CloudWatchEnabled:       os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup:      getEnv("CLOUDWATCH_LOG_GROUP", "/ecommerce/services"),
		AWSUseSecrets:           os.Getenv("AWS_USE_SECRETS") == "true",
	}
	return cfg, nil
}

// ApplySecrets overrides Stripe keys and database credentials with the
// non-empty values found in Secrets Manager.
func (c *Config) ApplySecrets(ctx context.Context, sm SecretLoader) error {
	stripeSecrets, err := sm.GetSecretMap(ctx, StripeSecretName)
	if err != nil {
		return err
	}
	override(&c.StripeSecretKey, stripeSecrets["STRIPE_SECRET_KEY"])
	override(&c.StripeWebhookSecret, stripeSecrets["STRIPE_WEBHOOK_SECRET"])

	db, err := sm.GetSecretMap(ctx, DBSecretName)
	if err != nil {
		return err
	}
	override(&c.PostgresUser, db["POSTGRES_USER"])
	override(&c.PostgresPassword, db["POSTGRES_PASSWORD"])
	override(&c.PostgresDB, db["POSTGRES_DB"])
	override(&c.PostgresHost, db["POSTGRES_HOST"])
	override(&c.PostgresPort, db["POSTGRES_PORT"])
	return nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var missing []string
	required := map[string]string{
		"STRIPE_SECRET_KEY":     c.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": c.StripeWebhookSecret,
		"POSTGRES_USER":         c.PostgresUser,
		"POSTGRES_PASSWORD":     c.PostgresPassword,
		"POSTGRES_DB":           c.PostgresDB,
		"POSTGRES_HOST":         c.PostgresHost,
	}
	for _, key := range []string{"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST"} {
		if required[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	switch c.EventBus {
	case EventBusNone:
	case EventBusSNS:
		if c.PaymentSNSTopicARN == "" {
			return fmt.Errorf("EVENT_BUS=sns requires PAYMENT_SNS_TOPIC_ARN")
		}
	case EventBusKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("EVENT_BUS=kafka requires KAFKA_BROKERS")
		}
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.EventBus)
	}
	return nil
}

// PostgresDSN builds the lib/pq style DSN understood by the gorm postgres driver.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

// NeedsAWS reports whether any AWS client has to be built.
func (c *Config) NeedsAWS() bool {
	return c.EventBus == EventBusSNS || c.CheckoutRequestQueueURL != "" || c.CloudWatchEnabled
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
