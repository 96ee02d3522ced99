package configs

import "time"

// HTTP defines configuration for the HTTP server. The Port specifies
// which port the server will bind to.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`
	// ReadTimeout bounds reading a whole request including the body.
	ReadTimeout time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	// WriteTimeout bounds writing the response. Ad requests may wait on the
	// payment gateway, so keep it above PAYMENT_TIMEOUT.
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	// ShutdownTimeout is how long in-flight requests get on SIGTERM.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}
