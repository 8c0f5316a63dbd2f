package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"donasi-be/internal/payment"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const defaultGateways = "midtrans,xendit,ipaymu,flip,manual"

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	RedisAddr     string
	RedisPassword string
	NatsURL       string

	JWTSecret      string
	ServiceKeyHash string

	// PaymentProduction is the raw PAYMENT_PRODUCTION value. It has no default.
	PaymentProduction  string
	PaymentGateways    string
	PaymentRedirectURL string
	SnowflakeNode      int64

	MidtransServerKey   string
	MidtransClientKey   string
	XenditSecretKey     string
	XenditCallbackToken string
	IpaymuVA            string
	IpaymuAPIKey        string
	IpaymuNotifyURL     string
	FlipSecretKey       string
	FlipValidationToken string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		NatsURL:       os.Getenv("NATS_URL"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServiceKeyHash: os.Getenv("SERVICE_KEY_HASH"),

		PaymentProduction:  os.Getenv("PAYMENT_PRODUCTION"),
		PaymentGateways:    os.Getenv("PAYMENT_GATEWAYS"),
		PaymentRedirectURL: os.Getenv("PAYMENT_REDIRECT_URL"),
		SnowflakeNode:      cast.ToInt64(os.Getenv("SNOWFLAKE_NODE")),

		MidtransServerKey:   os.Getenv("MIDTRANS_SERVER_KEY"),
		MidtransClientKey:   os.Getenv("MIDTRANS_CLIENT_KEY"),
		XenditSecretKey:     os.Getenv("XENDIT_SECRET_KEY"),
		XenditCallbackToken: os.Getenv("XENDIT_CALLBACK_TOKEN"),
		IpaymuVA:            os.Getenv("IPAYMU_VA"),
		IpaymuAPIKey:        os.Getenv("IPAYMU_API_KEY"),
		IpaymuNotifyURL:     os.Getenv("IPAYMU_NOTIFY_URL"),
		FlipSecretKey:       os.Getenv("FLIP_SECRET_KEY"),
		FlipValidationToken: os.Getenv("FLIP_VALIDATION_TOKEN"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// PaymentEnvironment parses PAYMENT_PRODUCTION. A missing or unparsable value
// is an error: the process must not guess between sandbox and live money.
func (c *Config) PaymentEnvironment() (payment.Environment, error) {
	if strings.TrimSpace(c.PaymentProduction) == "" {
		return 0, fmt.Errorf("PAYMENT_PRODUCTION: %w", payment.ErrEnvironmentMissing)
	}

	production, err := cast.ToBoolE(strings.TrimSpace(c.PaymentProduction))
	if err != nil {
		return 0, fmt.Errorf("PAYMENT_PRODUCTION: %w", payment.ErrEnvironmentMissing)
	}

	if production {
		return payment.EnvProduction, nil
	}
	return payment.EnvSandbox, nil
}

// Gateways lists the enabled gateway codes.
func (c *Config) Gateways() []string {
	raw := c.PaymentGateways
	if strings.TrimSpace(raw) == "" {
		raw = defaultGateways
	}

	var out []string
	for _, code := range strings.Split(raw, ",") {
		if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func (c *Config) GatewayCredentials() payment.Credentials {
	return payment.Credentials{
		Midtrans: payment.MidtransCredentials{
			ServerKey: c.MidtransServerKey,
			ClientKey: c.MidtransClientKey,
		},
		Xendit: payment.XenditCredentials{
			SecretKey:     c.XenditSecretKey,
			CallbackToken: c.XenditCallbackToken,
		},
		Ipaymu: payment.IpaymuCredentials{
			VirtualAccount: c.IpaymuVA,
			APIKey:         c.IpaymuAPIKey,
			NotifyURL:      c.IpaymuNotifyURL,
		},
		Flip: payment.FlipCredentials{
			SecretKey:       c.FlipSecretKey,
			ValidationToken: c.FlipValidationToken,
		},
	}
}
