// Package config reads the environment toggles shared by the commands.
// Flags still win: commands seed their flag defaults from Env.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Env holds the process-wide toggles.
type Env struct {
	DeployEnv string `env:"DEPLOY_ENV"`

	DataDir    string `env:"TERRANIA_DATA_DIR"   envDefault:"./data"`
	ConfigDir  string `env:"TERRANIA_CONFIG_DIR"`
	TuningPath string `env:"TERRANIA_TUNING"`
	Seed       int64  `env:"TERRANIA_SEED"`

	ObserveAddr  string `env:"TERRANIA_OBSERVE_ADDR"`
	DisableIndex bool   `env:"TERRANIA_DISABLE_INDEX"`

	// AdminHTTP unset means "on unless staging or production".
	AdminHTTP *bool `env:"TERRANIA_ENABLE_ADMIN_HTTP"`
	PprofHTTP bool  `env:"TERRANIA_ENABLE_PPROF_HTTP"`
}

func Load() (Env, error) {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// AdminEnabled reports whether the loopback admin endpoints are served.
func (e Env) AdminEnabled() bool {
	if e.AdminHTTP != nil {
		return *e.AdminHTTP
	}
	switch strings.ToLower(strings.TrimSpace(e.DeployEnv)) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
