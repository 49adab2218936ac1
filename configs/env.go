package configs

import (
	"fmt"
	"os"
)

type Envs struct {
	FRONTEND_ORIGIN string
	JWT_KEY         []byte
	POSTGRES_URL    string
	GIN_MODE        string
	LISTEN_ADDR     string
}

// Load reads the process environment. Call after any .env file has been
// loaded; required variables missing is a startup error, not a default.
func Load() (Envs, error) {
	envs := Envs{
		FRONTEND_ORIGIN: os.Getenv("FRONTEND_ORIGIN"),
		JWT_KEY:         []byte(os.Getenv("JWT_KEY")),
		POSTGRES_URL:    os.Getenv("POSTGRES_URL"),
		GIN_MODE:        os.Getenv("GIN_MODE"),
		LISTEN_ADDR:     os.Getenv("LISTEN_ADDR"),
	}

	if envs.FRONTEND_ORIGIN == "" {
		return Envs{}, fmt.Errorf("missing FRONTEND_ORIGIN")
	}
	if len(envs.JWT_KEY) == 0 {
		return Envs{}, fmt.Errorf("missing JWT_KEY")
	}
	if envs.POSTGRES_URL == "" {
		return Envs{}, fmt.Errorf("missing POSTGRES_URL")
	}
	if envs.LISTEN_ADDR == "" {
		envs.LISTEN_ADDR = ":5000"
	}
	return envs, nil
}
