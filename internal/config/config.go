package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Значения по умолчанию совпадают с классическими лимитами чанк-аплоада:
// часть 1 MiB, файл не больше 100 MiB.
const (
	DefaultChunkSize       = 1 << 20
	DefaultMaxFileSize     = 100 << 20
	DefaultSessionTTLHours = 24
	DefaultGCIntervalMin   = 30
)

type Config struct {
	ListenAddr      string `yaml:"listen_addr" json:"listen_addr"`
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	RegistryDSN     string `yaml:"registry_dsn" json:"registry_dsn"`
	ChunkSize       int64  `yaml:"chunk_size" json:"chunk_size"`
	MaxFileSize     int64  `yaml:"max_file_size" json:"max_file_size"`
	SessionTTLHours int    `yaml:"session_ttl_hours" json:"session_ttl_hours"`
	GCIntervalMin   int    `yaml:"gc_interval_min" json:"gc_interval_min"`
}

// Load читает YAML-конфигурацию, применяет ENV-переопределения и возвращает актуальную структуру.
func Load() (*Config, error) {
	path := getenv("CONFIG_PATH", "./config.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// ENV override
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("REGISTRY_DSN"); v != "" {
		c.RegistryDSN = v
	}
	if v := envInt64("CHUNK_SIZE"); v > 0 {
		c.ChunkSize = v
	}
	if v := envInt64("MAX_FILE_SIZE"); v > 0 {
		c.MaxFileSize = v
	}

	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = DefaultSessionTTLHours
	}
	if c.GCIntervalMin <= 0 {
		c.GCIntervalMin = DefaultGCIntervalMin
	}
	if c.RegistryDSN == "" {
		c.RegistryDSN = "memory://"
	}
}

func envInt64(key string) int64 {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}

	return def
}
