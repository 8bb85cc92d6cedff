package config

import "time"

const defaultPort = 8080

var defaultDispatch = Dispatch{
	BroadcastWindow: 90 * time.Second,
}

var defaultOTP = OTP{
	TTL:         10 * time.Minute,
	Digits:      6,
	MaxAttempts: 5,
}

var defaultPresence = Presence{
	OfflineGrace: 5 * time.Second,
}

var defaultChat = Chat{
	TypingTimeout: 2500 * time.Millisecond,
}

var defaultCall = Call{
	RingTimeout: 30 * time.Second,
}

var defaultWS = WS{
	SendBuffer: 64,
}

var defaultOrders = Orders{
	BaseURL:     "http://localhost:8090",
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       50,
	Burst:      100,
	TTL:        10 * time.Minute,
	MaxBuckets: 10000,
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDispatch returns the default dispatch settings.
func DefaultDispatch() Dispatch {
	return defaultDispatch
}

// DefaultOTP returns the default one-time-code settings.
func DefaultOTP() OTP {
	return defaultOTP
}

// DefaultOrders returns the default orders gateway settings.
func DefaultOrders() Orders {
	return defaultOrders
}
