package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type API struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type Realtime struct {
	Transport   string        `yaml:"transport"` // amqp | websocket | none
	URL         string        `yaml:"url"`       // websocket endpoint
	Exchange    string        `yaml:"exchange"`  // amqp fanout exchange
	MaxAttempts int           `yaml:"max_attempts"`
	Delay       time.Duration `yaml:"delay"`
}

type Storage struct {
	Driver string `yaml:"driver"` // sqlite | pgx | memory
	Path   string `yaml:"path"`
}

type DB struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	User       string        `yaml:"user"`
	Pass       string        `yaml:"password"`
	Name       string        `yaml:"database"`
	SSLMode    string        `yaml:"sslmode"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type MQ struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Pass   string `yaml:"password"`
	VHost  string `yaml:"vhost"`
	UseTLS bool   `yaml:"tls"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Checkout struct {
	DefaultCountryCode string `yaml:"default_country_code"`
}

type App struct {
	API      API      `yaml:"api"`
	Realtime Realtime `yaml:"realtime"`
	Storage  Storage  `yaml:"storage"`
	Database DB       `yaml:"database"`
	Rabbit   MQ       `yaml:"rabbitmq"`
	Logging  Logging  `yaml:"logging"`
	Checkout Checkout `yaml:"checkout"`
}

func DefaultConfig() App {
	return App{
		API:      API{BaseURL: "http://localhost:5000", Timeout: 15 * time.Second},
		Realtime: Realtime{Transport: "websocket", URL: "ws://localhost:5000/events", Exchange: "menu_events", MaxAttempts: 5, Delay: time.Second},
		Storage:  Storage{Driver: "sqlite", Path: "foodcourt.db"},
		Database: DB{Port: 5432, SSLMode: "disable", MaxRetries: 10, RetryDelay: 2 * time.Second},
		Rabbit:   MQ{Port: 5672, VHost: "/"},
		Logging:  Logging{Level: "info"},
		Checkout: Checkout{DefaultCountryCode: "+91"},
	}
}

// Load reads the YAML file over the defaults and then applies environment overrides.
func Load(path string) (App, error) {
	a := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return App{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &a); err != nil {
		return App{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	a.applyEnvOverrides()
	if err := a.Validate(); err != nil {
		return App{}, err
	}
	return a, nil
}

// LoadOrDefault falls back to defaults when no config file can be found.
func LoadOrDefault(path string) (App, error) {
	if path == "" {
		p, err := FindConfig()
		if errors.Is(err, fs.ErrNotExist) {
			a := DefaultConfig()
			a.applyEnvOverrides()
			return a, a.Validate()
		}
		path = p
	}
	return Load(path)
}

func (a *App) applyEnvOverrides() {
	if v := os.Getenv("FOODCOURT_API_URL"); v != "" {
		a.API.BaseURL = v
	}
	if v := os.Getenv("FOODCOURT_DB_PASSWORD"); v != "" {
		a.Database.Pass = v
	}
	if v := os.Getenv("FOODCOURT_RABBITMQ_PASSWORD"); v != "" {
		a.Rabbit.Pass = v
	}
	if v := os.Getenv("FOODCOURT_LOG_LEVEL"); v != "" {
		a.Logging.Level = v
	}
}

func (a App) Validate() error {
	if strings.TrimSpace(a.API.BaseURL) == "" {
		return errors.New("invalid config: api.base_url is required")
	}
	switch a.Storage.Driver {
	case "memory":
	case "sqlite":
		if a.Storage.Path == "" {
			return errors.New("invalid config: storage.path is required for sqlite")
		}
	case "pgx":
		if a.Database.Host == "" || a.Database.User == "" || a.Database.Name == "" {
			return errors.New("invalid config: database host/user/database are required for pgx storage")
		}
	default:
		return fmt.Errorf("invalid config: unknown storage driver %q", a.Storage.Driver)
	}
	switch a.Realtime.Transport {
	case "none":
	case "websocket":
		if a.Realtime.URL == "" {
			return errors.New("invalid config: realtime.url is required for websocket transport")
		}
	case "amqp":
		if a.Rabbit.Host == "" || a.Rabbit.User == "" {
			return errors.New("invalid config: rabbitmq host/user are required for amqp transport")
		}
	default:
		return fmt.Errorf("invalid config: unknown realtime transport %q", a.Realtime.Transport)
	}
	if a.Realtime.MaxAttempts < 0 {
		return errors.New("invalid config: realtime.max_attempts must not be negative")
	}
	if !strings.HasPrefix(a.Checkout.DefaultCountryCode, "+") {
		return errors.New("invalid config: checkout.default_country_code must start with +")
	}
	return nil
}

func FindConfig() (string, error) {
	candidates := []string{"config.yaml", "config.yml", "deploy/config.example.yaml"}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fs.ErrNotExist
}
