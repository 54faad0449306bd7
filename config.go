package api

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvConfig is an environment-backed Config. LoadConfig reads a local .env
// file when present; real environment variables always win.
type EnvConfig struct {
	SigningKey          string
	Issuer              string
	AccessTokenMinutes  int
	RefreshTokenMinutes int
	MaxChallengeAge     time.Duration
	PageSize            int
	DatabaseDSN         string
	ChainRPCURL         string
	ENSCacheCapacity    int
	ENSCacheTTL         time.Duration
}

func LoadConfig() (*EnvConfig, error) {
	// Missing .env is fine; the process environment may carry everything.
	_ = godotenv.Load()

	return &EnvConfig{
		SigningKey:          getEnv("JWT_SECRET_KEY", ""),
		Issuer:              getEnv("JWT_ISSUER", "api"),
		AccessTokenMinutes:  getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRE_MINUTES", DefaultAccessTokenMinutes),
		RefreshTokenMinutes: getEnvAsInt("JWT_REFRESH_TOKEN_EXPIRE_MINUTES", DefaultRefreshTokenMinutes),
		MaxChallengeAge:     getEnvAsDuration("AUTH_MAX_CHALLENGE_AGE", 5*time.Minute),
		PageSize:            getEnvAsInt("API_PAGE_SIZE", 10),
		DatabaseDSN:         getEnv("DATABASE_DSN", "file::memory:?cache=shared"),
		ChainRPCURL:         getEnv("CHAIN_RPC_URL", ""),
		ENSCacheCapacity:    getEnvAsInt("ENS_CACHE_CAPACITY", 1024),
		ENSCacheTTL:         getEnvAsDuration("ENS_CACHE_TTL", time.Hour),
	}, nil
}

func (c *EnvConfig) GetSigningKey() string             { return c.SigningKey }
func (c *EnvConfig) GetIssuer() string                 { return c.Issuer }
func (c *EnvConfig) GetAccessTokenMinutes() int        { return c.AccessTokenMinutes }
func (c *EnvConfig) GetRefreshTokenMinutes() int       { return c.RefreshTokenMinutes }
func (c *EnvConfig) GetMaxChallengeAge() time.Duration { return c.MaxChallengeAge }
func (c *EnvConfig) GetPageSize() int                  { return c.PageSize }
func (c *EnvConfig) GetDatabaseDSN() string            { return c.DatabaseDSN }
func (c *EnvConfig) GetChainRPCURL() string            { return c.ChainRPCURL }
func (c *EnvConfig) GetENSCacheCapacity() int          { return c.ENSCacheCapacity }
func (c *EnvConfig) GetENSCacheTTL() time.Duration     { return c.ENSCacheTTL }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
