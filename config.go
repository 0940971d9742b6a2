package innout

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// EndpointEnv is the environment variable holding the base URL of the in-n-out service.
	EndpointEnv = "IN_N_OUT_URL"

	defaultEndpoint = "http://localhost:8000"
)

// Config defines the configuration for the client.
type Config struct {
	// Endpoint is the base URL of the in-n-out service.
	Endpoint string `json:"endpoint"`
}

// LoadConfig loads the configuration from environment variables.
//
// A .env file in the working directory is read first if present; variables
// already set in the environment take precedence over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	endpoint := defaultEndpoint
	if v, ok := os.LookupEnv(EndpointEnv); ok && v != "" {
		endpoint = v
	}
	return &Config{
		Endpoint: strings.TrimRight(endpoint, "/"),
	}, nil
}
