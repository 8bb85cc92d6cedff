package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config stores service-dispatch settings.
type Config struct {
	Port      int
	Dispatch  Dispatch
	OTP       OTP
	Presence  Presence
	Chat      Chat
	Call      Call
	WS        WS
	Kafka     Kafka
	Orders    Orders
	RateLimit RateLimit
	Twilio    Twilio
	Pprof     Pprof
}

// Dispatch stores assignment broadcast settings.
type Dispatch struct {
	BroadcastWindow time.Duration
}

// OTP stores one-time-code settings.
type OTP struct {
	TTL         time.Duration
	Digits      int
	MaxAttempts int
}

// Presence stores presence registry settings.
type Presence struct {
	OfflineGrace time.Duration
}

// Chat stores negotiation channel settings.
type Chat struct {
	TypingTimeout time.Duration
}

// Call stores call signaling settings.
type Call struct {
	RingTimeout time.Duration
}

// WS stores per-connection transport settings.
type WS struct {
	SendBuffer int
}

// Kafka stores consumer/producer settings. Empty brokers disable Kafka.
type Kafka struct {
	Brokers   []string
	Topic     string
	GroupID   string
	ChatTopic string
}

// Orders stores the orders gateway endpoint and retry behavior.
type Orders struct {
	BaseURL     string
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RateLimit stores HTTP rate limiter settings.
type RateLimit struct {
	Enabled    bool
	Rate       float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Twilio stores notification sender credentials. Empty SID disables Twilio
// and the nop sender is used instead.
type Twilio struct {
	AccountSID string
	AuthToken  string
	From       string
}

// Pprof stores profiling endpoint settings. Disabled unless explicitly
// enabled; non-loopback access requires basic auth.
type Pprof struct {
	Enabled bool
	User    string
	Pass    string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: .env not loaded: %v", err)
	}

	cfg := &Config{
		Port:      envInt("PORT", defaultPort),
		Dispatch:  Dispatch{BroadcastWindow: envDuration("DISPATCH_BROADCAST_WINDOW", defaultDispatch.BroadcastWindow)},
		OTP:       loadOTP(),
		Presence:  Presence{OfflineGrace: envDuration("PRESENCE_OFFLINE_GRACE", defaultPresence.OfflineGrace)},
		Chat:      Chat{TypingTimeout: envDuration("CHAT_TYPING_TIMEOUT", defaultChat.TypingTimeout)},
		Call:      Call{RingTimeout: envDuration("CALL_RING_TIMEOUT", defaultCall.RingTimeout)},
		WS:        WS{SendBuffer: envInt("WS_SEND_BUFFER", defaultWS.SendBuffer)},
		Kafka:     loadKafka(),
		Orders:    loadOrders(),
		RateLimit: loadRateLimit(),
		Twilio: Twilio{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			From:       os.Getenv("TWILIO_FROM"),
		},
		Pprof: Pprof{
			Enabled: envBool("PPROF_ENABLED", false),
			User:    os.Getenv("PPROF_USER"),
			Pass:    os.Getenv("PPROF_PASS"),
		},
	}

	pflag.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	pflag.Parse()

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if cfg.OTP.Digits < 4 || cfg.OTP.Digits > 6 {
		return nil, fmt.Errorf("invalid otp digits: %d", cfg.OTP.Digits)
	}
	return cfg, nil
}

func loadOTP() OTP {
	return OTP{
		TTL:         envDuration("OTP_TTL", defaultOTP.TTL),
		Digits:      envInt("OTP_DIGITS", defaultOTP.Digits),
		MaxAttempts: envInt("OTP_MAX_ATTEMPTS", defaultOTP.MaxAttempts),
	}
}

func loadKafka() Kafka {
	return Kafka{
		Brokers:   envList("KAFKA_BROKERS"),
		Topic:     os.Getenv("KAFKA_ORDERS_TOPIC"),
		GroupID:   os.Getenv("KAFKA_GROUP_ID"),
		ChatTopic: os.Getenv("KAFKA_CHAT_TOPIC"),
	}
}

func loadOrders() Orders {
	return Orders{
		BaseURL:     envString("ORDERS_BASE_URL", defaultOrders.BaseURL),
		MaxAttempts: envInt("ORDERS_MAX_ATTEMPTS", defaultOrders.MaxAttempts),
		BaseDelay:   envDuration("ORDERS_BASE_DELAY", defaultOrders.BaseDelay),
		MaxDelay:    envDuration("ORDERS_MAX_DELAY", defaultOrders.MaxDelay),
	}
}

func loadRateLimit() RateLimit {
	return RateLimit{
		Enabled:    envBool("RATE_LIMIT_ENABLED", defaultRateLimit.Enabled),
		Rate:       envFloat("RATE_LIMIT_RATE", defaultRateLimit.Rate),
		Burst:      envInt("RATE_LIMIT_BURST", defaultRateLimit.Burst),
		TTL:        envDuration("RATE_LIMIT_TTL", defaultRateLimit.TTL),
		MaxBuckets: envInt("RATE_LIMIT_MAX_BUCKETS", defaultRateLimit.MaxBuckets),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
