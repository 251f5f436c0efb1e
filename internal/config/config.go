// Package config carrega a configuração do servidor: valores padrão, depois o
// arquivo YAML (opcional), depois variáveis de ambiente.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// Constantes de Configuração Padrão
// ============================================================================
const (
	defaultServiceName   = "pingpong-server"
	defaultPort          = 3001
	defaultConsulAddr    = "consul:8500"
	defaultTickRate      = 60
	defaultSubjectPrefix = "pong"
)

// Config armazena todas as configurações da aplicação.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Match struct {
		TickRate int    `yaml:"tick_rate"`
		Seed     uint64 `yaml:"seed"` // 0 usa o relógio
	} `yaml:"match"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Consul struct {
		Enabled       bool   `yaml:"enabled"`
		Addr          string `yaml:"addr"` // lista separada por vírgula
		ServiceName   string `yaml:"service_name"`
		AdvertiseHost string `yaml:"advertise_host"`
	} `yaml:"consul"`

	NATS struct {
		URL           string `yaml:"url"` // vazio desliga a publicação de eventos
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

// Default devolve a configuração usada quando nada é informado.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = fmt.Sprintf(":%d", defaultPort)
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Match.TickRate = defaultTickRate
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Consul.Addr = defaultConsulAddr
	cfg.Consul.ServiceName = defaultServiceName
	cfg.NATS.SubjectPrefix = defaultSubjectPrefix
	return cfg
}

// Load lê o arquivo em path (se não for vazio), aplica o ambiente e valida.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv segue os nomes de variáveis que os containers já usam.
func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT format: %w", err)
		}
		c.Server.Addr = fmt.Sprintf(":%d", n)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	if name := os.Getenv("SERVICE_NAME"); name != "" {
		c.Consul.ServiceName = name
	}
	if addr := os.Getenv("CONSUL_HTTP_ADDR"); addr != "" {
		c.Consul.Addr = addr
		c.Consul.Enabled = true
	}
	if host := os.Getenv("SERVICE_ADVERTISED_HOSTNAME"); host != "" {
		c.Consul.AdvertiseHost = host
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		c.Log.Format = format
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Match.TickRate <= 0 || c.Match.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("match.tick_rate must be in 1..1000, got %d", c.Match.TickRate))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Consul.Enabled && c.Consul.Addr == "" {
		errs = append(errs, errors.New("consul.addr is required when consul is enabled"))
	}
	return errors.Join(errs...)
}

// TickPeriod converte a taxa em intervalo entre ticks.
func (c *Config) TickPeriod() time.Duration {
	return time.Second / time.Duration(c.Match.TickRate)
}

// Port extrai a porta de Server.Addr (":3001", "0.0.0.0:3001").
func (c *Config) Port() (int, error) {
	idx := strings.LastIndex(c.Server.Addr, ":")
	if idx < 0 {
		return 0, fmt.Errorf("server.addr %q has no port", c.Server.Addr)
	}
	return strconv.Atoi(c.Server.Addr[idx+1:])
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
