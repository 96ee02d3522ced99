package configs

import "time"

// Redis configures the targeting criteria cache. An empty Addr disables the
// cache and criteria are read from the store on every request.
type Redis struct {
	Addr     string `env:"ADDRESS"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	// CriteriaTTL bounds how long a cached criteria list may be served.
	CriteriaTTL time.Duration `env:"CRITERIA_TTL" envDefault:"1m"`
}

// Enabled reports whether a redis address was configured.
func (c Redis) Enabled() bool {
	return c.Addr != ""
}
