package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Library  LibraryConfig  `yaml:"library"`
	Database DatabaseConfig `yaml:"database"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Player   PlayerConfig   `yaml:"player"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Presence     bool          `yaml:"presence"`
}

type LibraryConfig struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type SnapshotConfig struct {
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"`
}

type PlayerConfig struct {
	TickInterval       time.Duration `yaml:"tick_interval"`
	DurableEveryTicks  int           `yaml:"durable_every_ticks"`
	AudiobookSaveAfter time.Duration `yaml:"audiobook_save_after"`
}

// ProviderConfig selects how tree-handle (URI mode) folders are traversed.
// Type is "sftp" or "smb"; an empty type disables remote providers.
type ProviderConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Domain   string `yaml:"domain"`
	Share    string `yaml:"share"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         6541,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0,
			Presence:     true,
		},
		Library: LibraryConfig{
			Path: "",
			Name: "Media Library",
		},
		Database: DatabaseConfig{
			Path: "data/resona.db",
		},
		Snapshot: SnapshotConfig{
			Path:     "data/positions.json",
			Capacity: 512,
		},
		Player: PlayerConfig{
			TickInterval:       300 * time.Millisecond,
			DurableEveryTicks:  10,
			AudiobookSaveAfter: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
