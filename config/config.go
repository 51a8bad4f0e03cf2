package config

import (
	"fmt"
	"os"
	"time"

	"github.com/alejandrodnm/kalshibot/internal/domain"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del agente.
type Config struct {
	Agent      AgentConfig             `yaml:"agent"`
	API        APIConfig               `yaml:"api"`
	Storage    StorageConfig           `yaml:"storage"`
	Log        LogConfig               `yaml:"log"`
	Strategies []domain.StrategyConfig `yaml:"strategies"`
}

// AgentConfig controla el comportamiento del loop principal.
type AgentConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxMarkets      int `yaml:"max_markets"` // mercados analizados por ciclo
}

// APIConfig contiene las credenciales y el entorno de la API de Kalshi.
type APIConfig struct {
	BaseURL  string `yaml:"base_url"` // vacío = entorno demo
	Demo     bool   `yaml:"demo"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// StorageConfig controla dónde se persiste el histórico de ejecución.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
// Las estrategias se validan aquí: una config inválida no arranca el agente.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if len(cfg.Strategies) == 0 {
		return nil, fmt.Errorf("config.Load: no strategies configured")
	}
	for _, strat := range cfg.Strategies {
		if err := strat.Validate(); err != nil {
			return nil, fmt.Errorf("config.Load: %w", err)
		}
	}
	if cfg.API.Email == "" || cfg.API.Password == "" {
		return nil, fmt.Errorf("config.Load: api credentials are required (KALSHI_EMAIL / KALSHI_PASSWORD)")
	}

	return &cfg, nil
}

// CheckInterval devuelve el intervalo del loop como time.Duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Agent.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("KALSHI_EMAIL"); v != "" {
		cfg.API.Email = v
	}
	if v := os.Getenv("KALSHI_PASSWORD"); v != "" {
		cfg.API.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Agent.IntervalSeconds <= 0 {
		cfg.Agent.IntervalSeconds = 60
	}
	if cfg.Agent.MaxMarkets <= 0 {
		cfg.Agent.MaxMarkets = 10
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "kalshibot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
