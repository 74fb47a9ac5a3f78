package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SERVER_ADDR points at a running instance, e.g. http://localhost:8080.
	// Leaving it empty skips the e2e suite.
	ServerAddr string `envconfig:"SERVER_ADDR"`
	// E2E_DEBUG_JSON allows dumping full request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours       bool   `envconfig:"E2E_COLOURS" default:"true"`
	AdminUsername string `envconfig:"E2E_ADMIN_USERNAME" default:"super"`
	AdminPassword string `envconfig:"E2E_ADMIN_PASSWORD" default:"123"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
