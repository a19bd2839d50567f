package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAddr            = "NOTESYNC_ADDR"
	EnvDatabaseDSN     = "NOTESYNC_DATABASE_DSN"
	EnvSecretKey       = "NOTESYNC_SECRET_KEY"
	EnvAccessTokenTTL  = "NOTESYNC_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL = "NOTESYNC_REFRESH_TOKEN_TTL"
	EnvRateLimitRPS    = "NOTESYNC_RATE_LIMIT_RPS"
	EnvRateLimitBurst  = "NOTESYNC_RATE_LIMIT_BURST"
	EnvLogLevel        = "NOTESYNC_LOG_LEVEL"
)

// parseEnv overlays cfg with variables from the given dotenv files
// (".env" when none is given) and the process environment. The process
// environment wins over the files; missing files are skipped.
// Malformed files or values panic, like the other stages.
func parseEnv(cfg *Config, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}

	vars := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			panic(err)
		}
		for k, v := range m {
			vars[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	applyEnv(cfg, lookup)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, key string) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(key + ": " + err.Error())
			}
			*dst = d
		}
	}

	str(&cfg.EndpointAddr, EnvAddr)
	str(&cfg.DatabaseDSN, EnvDatabaseDSN)
	str(&cfg.SecretKey, EnvSecretKey)
	str(&cfg.LogLevel, EnvLogLevel)
	dur(&cfg.AccessTokenValidityDuration, EnvAccessTokenTTL)
	dur(&cfg.RefreshTokenValidityDuration, EnvRefreshTokenTTL)

	if v, ok := lookup(EnvRateLimitRPS); ok && v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(EnvRateLimitRPS + ": " + err.Error())
		}
		cfg.RateLimitRPS = rps
	}
	if v, ok := lookup(EnvRateLimitBurst); ok && v != "" {
		burst, err := strconv.Atoi(v)
		if err != nil {
			panic(EnvRateLimitBurst + ": " + err.Error())
		}
		cfg.RateLimitBurst = burst
	}
}
