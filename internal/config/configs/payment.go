package configs

import "time"

// Payment configures the outbound payment gateway client.
type Payment struct {
	// Sandbox replaces the HTTP gateway with an in-process one that approves
	// every call. Useful for local runs and demos.
	Sandbox bool   `env:"SANDBOX" envDefault:"true"`
	BaseURL string `env:"BASE_URL"`
	Channel string `env:"CHANNEL"`
	Secret  string `env:"SECRET"`

	// Timeout applies to a single attempt.
	Timeout       time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxAttempts   uint          `env:"MAX_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"200ms"`

	// Rate limits outbound calls per second; 0 disables limiting.
	Rate  float64 `env:"RATE" envDefault:"0"`
	Burst int     `env:"BURST" envDefault:"1"`
}
