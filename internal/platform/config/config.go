package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration: listen address,
// credentials, and backend connection strings. Policy parameters live
// in the policy config package.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string

	PostgresURL string
	RedisURL    string

	KafkaBrokers []string
	AuditTopic   string

	PolicyCacheTTL time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("PASSGATE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("PASSGATE_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	cacheTTL := 5 * time.Minute
	if v := os.Getenv("PASSGATE_POLICY_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cacheTTL = parsed
		}
	}

	var brokers []string
	if v := os.Getenv("PASSGATE_KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	return Server{
		Addr:           addr,
		JWTSigningKey:  jwtSigningKey,
		AdminToken:     os.Getenv("PASSGATE_ADMIN_TOKEN"),
		PostgresURL:    os.Getenv("PASSGATE_POSTGRES_URL"),
		RedisURL:       os.Getenv("PASSGATE_REDIS_URL"),
		KafkaBrokers:   brokers,
		AuditTopic:     os.Getenv("PASSGATE_AUDIT_TOPIC"),
		PolicyCacheTTL: cacheTTL,
	}
}
