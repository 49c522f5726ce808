package config

import (
	"errors"
	"os"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/flagx"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// EnvConfig mirrors the environment variables understood by the server.
// Unset variables leave the current value untouched.
type EnvConfig struct {
	EndpointAddrHTTP             string        `env:"ADDRESS"`
	Port                         string        `env:"PORT"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"JWT_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"JWT_EXPIRE"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_EXPIRE"`
	BcryptCost                   int           `env:"BCRYPT_COST"`
	CORSAllowedOrigins           string        `env:"CORS_ALLOWED_ORIGINS"`
	AuthRateLimitPerMinute       int           `env:"AUTH_RATE_LIMIT"`
	S3RootUser                   string        `env:"S3_ROOT_USER"`
	S3RootPassword               string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                     string        `env:"S3_BUCKET"`
	S3Region                     string        `env:"S3_REGION"`
	S3BaseEndpoint               string        `env:"S3_BASE_ENDPOINT"`
	LogLevel                     string        `env:"LOG_LEVEL"`
	Environment                  string        `env:"APP_ENV"`
}

// parseEnv overlays environment variables onto config. A dotenv file named
// by -env-file is loaded first; without the flag ./.env is tried and its
// absence is ignored. Existing process variables are never overwritten by
// the file. A file that exists but cannot be parsed panics.
func parseEnv(config *Config) {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			panic(err)
		}
	}

	e := &EnvConfig{}
	if err := envdecode.Decode(e); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return
		}
		panic(err)
	}

	applyEnv(config, e)
}

func applyEnv(config *Config, e *EnvConfig) {
	if e.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = e.EndpointAddrHTTP
	} else if e.Port != "" {
		config.EndpointAddrHTTP = ":" + e.Port
	}
	if e.DatabaseDSN != "" {
		config.DatabaseDSN = e.DatabaseDSN
	}
	if e.SecretKey != "" {
		config.SecretKey = e.SecretKey
	}
	if e.AccessTokenValidityDuration > 0 {
		config.AccessTokenValidityDuration = e.AccessTokenValidityDuration
	}
	if e.RefreshTokenValidityDuration > 0 {
		config.RefreshTokenValidityDuration = e.RefreshTokenValidityDuration
	}
	if e.BcryptCost > 0 {
		config.BcryptCost = e.BcryptCost
	}
	if e.CORSAllowedOrigins != "" {
		config.CORSAllowedOrigins = splitList(e.CORSAllowedOrigins)
	}
	if e.AuthRateLimitPerMinute > 0 {
		config.AuthRateLimitPerMinute = e.AuthRateLimitPerMinute
	}
	if e.S3RootUser != "" {
		config.S3RootUser = e.S3RootUser
	}
	if e.S3RootPassword != "" {
		config.S3RootPassword = e.S3RootPassword
	}
	if e.S3Bucket != "" {
		config.S3Bucket = e.S3Bucket
	}
	if e.S3Region != "" {
		config.S3Region = e.S3Region
	}
	if e.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = e.S3BaseEndpoint
	}
	if e.LogLevel != "" {
		config.LogLevel = e.LogLevel
	}
	if e.Environment != "" {
		config.Production = e.Environment == "production"
	}
}
