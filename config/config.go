package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/sgoldberg/nocogo/export"
	"github.com/sgoldberg/nocogo/nocodb"
	"go.yaml.in/yaml/v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logger  LoggerConfig  `yaml:"logger"`
	Gateway GatewayConfig `yaml:"gateway"`
	Export  ExportConfig  `yaml:"export"`
}

type ServerConfig struct {
	URL           string `yaml:"url"`
	APIToken      string `yaml:"api_token"`
	JWTToken      string `yaml:"jwt_token"`
	RetryAttempts uint   `yaml:"retry_attempts"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Type  string `yaml:"type"`
}

type GatewayConfig struct {
	Addr           string   `yaml:"addr"`
	CertFile       string   `yaml:"cert_file"`
	KeyFile        string   `yaml:"key_file"`
	BaseID         string   `yaml:"base_id"`
	TrustedOrigins []string `yaml:"trusted_origins"`
}

type ExportConfig struct {
	// Transform is an optional path to a Lua transform script.
	Transform string     `yaml:"transform"`
	Sink      SinkConfig `yaml:"sink"`
}

type SinkConfig struct {
	Type   string `yaml:"type"`
	Config any    `yaml:"config"`
}

type FileSinkConfig struct {
	Path string `yaml:"path"`
}

func Load(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("cannot parse config file: %w", err)
	}

	return cfg, nil
}

func (cfg Config) BuildLogger() (*slog.Logger, error) {
	var handler slog.Handler

	var level slog.Level
	switch cfg.Logger.Level {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", cfg.Logger.Level)
	}

	w := os.Stdout
	switch cfg.Logger.Type {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	case "", "colored-text":
		handler = tint.NewHandler(w, &tint.Options{Level: level})
	default:
		return nil, fmt.Errorf("invalid log type: %s", cfg.Logger.Type)
	}

	return slog.New(handler), nil
}

// BuildClient constructs the API client. tokenOverride, when non-empty,
// wins over every configured credential source; see ResolveAuth for the
// full resolution order.
func (cfg Config) BuildClient(logger *slog.Logger, tokenOverride string) (*nocodb.Client, error) {
	auth, err := ResolveAuth(tokenOverride, cfg.Server)
	if err != nil {
		return nil, err
	}

	return nocodb.New(nocodb.Config{
		BaseURL:       cfg.Server.URL,
		Auth:          auth,
		Logger:        logger,
		RetryAttempts: cfg.Server.RetryAttempts,
	})
}

// BuildSink constructs the configured export sink. ClickHouse sinks are
// connected before they are returned.
func (cfg SinkConfig) BuildSink(ctx context.Context) (export.Sink, error) {
	switch cfg.Type {
	case "jsonl":
		var fileCfg FileSinkConfig
		if err := remarshal(cfg.Config, &fileCfg); err != nil {
			return nil, fmt.Errorf("cannot parse jsonl sink config: %w", err)
		}

		f, err := os.Create(fileCfg.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot create jsonl output file: %w", err)
		}

		return export.NewJSONLinesSink(f), nil

	case "csv":
		var fileCfg FileSinkConfig
		if err := remarshal(cfg.Config, &fileCfg); err != nil {
			return nil, fmt.Errorf("cannot parse csv sink config: %w", err)
		}

		f, err := os.Create(fileCfg.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot create csv output file: %w", err)
		}

		return export.NewCSVSink(f), nil

	case "clickhouse":
		var chCfg export.ClickHouseSinkConfig
		if err := remarshal(cfg.Config, &chCfg); err != nil {
			return nil, fmt.Errorf("cannot parse clickhouse sink config: %w", err)
		}

		sink, err := export.NewClickHouseSink(chCfg)
		if err != nil {
			return nil, fmt.Errorf("cannot create clickhouse sink: %w", err)
		}

		if err := sink.Connect(ctx); err != nil {
			return nil, fmt.Errorf("cannot connect clickhouse sink: %w", err)
		}

		return sink, nil

	default:
		return nil, fmt.Errorf("invalid sink type: %s", cfg.Type)
	}
}

// remarshal takes an input value, marshals it to YAML, and then unmarshals it into a new value of the same type.
// This is useful for converting generic interfaces (like map[string]any) into concrete struct types.
// The output parameter must be a pointer to the target type.
func remarshal(input any, output any) error {
	yamlBytes, err := yaml.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}

	if err := yaml.Unmarshal(yamlBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal from YAML: %w", err)
	}

	return nil
}
