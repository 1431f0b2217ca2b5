package storage

import "time"

// Backend selects where usage counters live.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendRedis    Backend = "redis"
	BackendPostgres Backend = "postgres"
)

// Config selects and configures the usage store backend.
// Only the section of the selected backend is validated.
type Config struct {
	Backend  Backend `env:"ENTITLEMENTS_STORE" envDefault:"memory"`
	Redis    RedisConfig
	Postgres PostgresConfig
}

type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL"`                                  // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`        // connection attempts before giving up
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`       // pause between attempts
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`     // overall budget for connecting
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"entitlements:"` // namespace for usage keys
	KeyTTL         time.Duration `env:"REDIS_KEY_TTL" envDefault:"0s"`              // 0 keeps counters forever
}

type PostgresConfig struct {
	ConnectionString  string        `env:"PG_CONN_URL"`
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`

	AutoMigrate     bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`                        // apply usage migrations on Open
	MigrationsTable string `env:"PG_MIGRATIONS_TABLE" envDefault:"entitlements_migrations"` // goose version table
}
