package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_BADGER runs the scenarios on an on-disk Badger store instead of memory
	Badger bool `envconfig:"E2E_BADGER" default:"true"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_SPAM_WINDOW keeps the window expiry scenario short
	SpamWindow    time.Duration `envconfig:"E2E_SPAM_WINDOW" default:"1500ms"`
	SpamThreshold int           `envconfig:"E2E_SPAM_THRESHOLD" default:"3"`
	// E2E_WAIT bounds every wait for an asynchronous snapshot
	Wait time.Duration `envconfig:"E2E_WAIT" default:"3s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
