package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TODOSYNC"

const (
	RepositoryInMemory  = "inmemory"
	RepositoryPostgres  = "postgres"
	RepositoryDatastore = "datastore"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Datastore  DatastoreConfig  `mapstructure:"datastore"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

type DatastoreConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // inmemory, postgres или datastore
}

type CacheConfig struct {
	// пустой путь - кэш в памяти процесса
	Path string `mapstructure:"path"`
}

type SyncConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type WorkerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type RateLimitConfig struct {
	RPM int `mapstructure:"rpm"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("datastore.project_id", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("cache.path", "data/cache.db")
	v.SetDefault("sync.timeout", 15*time.Second)
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", time.Minute)
	v.SetDefault("rate_limit.rpm", 100)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load читает файл конфигурации (если он есть) и переменные окружения TODOSYNC_*.
// Пустой path означает config.yml в рабочей директории.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфигурации: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case RepositoryInMemory:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			return errors.New("для postgres нужен database.url")
		}
	case RepositoryDatastore:
		if c.Datastore.ProjectID == "" {
			return errors.New("для datastore нужен datastore.project_id")
		}
	default:
		return fmt.Errorf("неизвестный тип хранилища: %q", c.Repository.Type)
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
