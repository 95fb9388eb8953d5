package config

import (
	"fmt"
	"strings"
)

// StorageDriver selects the durable key/value backend for the token.
type StorageDriver string

const (
	// StorageSQLite keeps the token in a local sqlite file.
	StorageSQLite StorageDriver = "sqlite"
	// StorageRedis shares the token between console replicas through Redis.
	StorageRedis StorageDriver = "redis"
)

// StorageConfig configures where the token and redirect target are persisted.
type StorageConfig struct {
	Driver     StorageDriver `env:"STORAGE_DRIVER"      envDefault:"sqlite"`
	SQLitePath string        `env:"STORAGE_SQLITE_PATH" envDefault:"adify-console.db"`
	// Namespace prefixes storage keys. Empty means "derive from API_BASE_URL".
	Namespace   string `env:"STORAGE_NAMESPACE"`
	RedisPrefix string `env:"STORAGE_REDIS_PREFIX" envDefault:"adify:"`
}

// Sanitize normalises the driver name and fills empty values.
func (s *StorageConfig) Sanitize() {
	s.Driver = StorageDriver(strings.ToLower(strings.TrimSpace(string(s.Driver))))
	if s.Driver == "" {
		s.Driver = StorageSQLite
	}
	s.SQLitePath = strings.TrimSpace(s.SQLitePath)
	if s.SQLitePath == "" {
		s.SQLitePath = "adify-console.db"
	}
	s.Namespace = strings.TrimSpace(s.Namespace)
}

// Validate rejects unknown drivers.
func (s *StorageConfig) Validate() error {
	switch s.Driver {
	case StorageSQLite, StorageRedis:
		return nil
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q (valid options: sqlite, redis)", s.Driver)
	}
}

// RedisConfig contains Redis connection settings for the redis storage driver.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}
