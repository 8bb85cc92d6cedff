package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"service-dispatch/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	old := pflag.CommandLine
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	oldArgs := os.Args
	os.Args = oldArgs[:1]
	t.Cleanup(func() {
		pflag.CommandLine = old
		os.Args = oldArgs
	})
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)

	for _, key := range []string{
		"PORT", "DISPATCH_BROADCAST_WINDOW", "OTP_TTL", "OTP_DIGITS", "OTP_MAX_ATTEMPTS",
		"PRESENCE_OFFLINE_GRACE", "CHAT_TYPING_TIMEOUT", "CALL_RING_TIMEOUT", "WS_SEND_BUFFER",
		"KAFKA_BROKERS", "ORDERS_BASE_URL", "RATE_LIMIT_ENABLED", "TWILIO_ACCOUNT_SID",
		"PPROF_ENABLED",
	} {
		t.Setenv(key, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, config.DefaultPort(), cfg.Port)
	require.Equal(t, config.DefaultDispatch(), cfg.Dispatch)
	require.Equal(t, config.DefaultOTP(), cfg.OTP)
	require.Equal(t, config.DefaultOrders(), cfg.Orders)
	require.Nil(t, cfg.Kafka.Brokers)
	require.False(t, cfg.RateLimit.Enabled)
	require.False(t, cfg.Pprof.Enabled)
	require.Empty(t, cfg.Twilio.AccountSID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "9090")
	t.Setenv("DISPATCH_BROADCAST_WINDOW", "45s")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("OTP_DIGITS", "4")
	t.Setenv("OTP_MAX_ATTEMPTS", "3")
	t.Setenv("PRESENCE_OFFLINE_GRACE", "7s")
	t.Setenv("CHAT_TYPING_TIMEOUT", "1s")
	t.Setenv("CALL_RING_TIMEOUT", "20s")
	t.Setenv("WS_SEND_BUFFER", "128")
	t.Setenv("KAFKA_BROKERS", " broker-1:9092 , ,broker-2:9092 ")
	t.Setenv("KAFKA_ORDERS_TOPIC", "orders.events")
	t.Setenv("KAFKA_GROUP_ID", "dispatch")
	t.Setenv("ORDERS_BASE_URL", "http://orders:8090")
	t.Setenv("ORDERS_MAX_ATTEMPTS", "2")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RATE", "12.5")
	t.Setenv("RATE_LIMIT_BURST", "25")
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_USER", "ops")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 45*time.Second, cfg.Dispatch.BroadcastWindow)
	require.Equal(t, 2*time.Minute, cfg.OTP.TTL)
	require.Equal(t, 4, cfg.OTP.Digits)
	require.Equal(t, 3, cfg.OTP.MaxAttempts)
	require.Equal(t, 7*time.Second, cfg.Presence.OfflineGrace)
	require.Equal(t, time.Second, cfg.Chat.TypingTimeout)
	require.Equal(t, 20*time.Second, cfg.Call.RingTimeout)
	require.Equal(t, 128, cfg.WS.SendBuffer)
	require.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "orders.events", cfg.Kafka.Topic)
	require.Equal(t, "dispatch", cfg.Kafka.GroupID)
	require.Equal(t, "http://orders:8090", cfg.Orders.BaseURL)
	require.Equal(t, 2, cfg.Orders.MaxAttempts)
	require.True(t, cfg.RateLimit.Enabled)
	require.Equal(t, 12.5, cfg.RateLimit.Rate)
	require.Equal(t, 25, cfg.RateLimit.Burst)
	require.True(t, cfg.Pprof.Enabled)
	require.Equal(t, "ops", cfg.Pprof.User)
}

func TestLoad_MalformedEnvFallsBackToDefaults(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "not-a-number")
	t.Setenv("DISPATCH_BROADCAST_WINDOW", "soon")
	t.Setenv("RATE_LIMIT_RATE", "fast")
	t.Setenv("OTP_DIGITS", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DefaultPort(), cfg.Port)
	require.Equal(t, config.DefaultDispatch().BroadcastWindow, cfg.Dispatch.BroadcastWindow)
	require.Equal(t, float64(50), cfg.RateLimit.Rate)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "70000")
	t.Setenv("OTP_DIGITS", "")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_InvalidOTPDigits(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "")
	t.Setenv("OTP_DIGITS", "9")

	cfg, err := config.Load()
	require.Error(t, err)
	require.Nil(t, cfg)
}

func TestLoad_PortFlagOverride(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "8080")
	t.Setenv("OTP_DIGITS", "")
	os.Args = append(os.Args, "--port=9191")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.Port)
}
