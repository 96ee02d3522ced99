package configs

import "fmt"

// Store drivers.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Store selects the persistence backend.
type Store struct {
	// Driver is either "postgres" or "memory". The memory store loses all
	// data on restart.
	Driver string `env:"DRIVER" envDefault:"postgres"`
}

// Validate rejects unknown drivers.
func (c Store) Validate() error {
	switch c.Driver {
	case StorePostgres, StoreMemory:
		return nil
	default:
		return fmt.Errorf("unknown store driver %q", c.Driver)
	}
}
