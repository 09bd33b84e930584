package logs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/brewandbeans/kaizen/internal/config"
)

// Log level constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	// AccessLogFilename receives one line per HTTP request when file logging is on
	AccessLogFilename = "http.log"
)

// DefaultLogConfig returns default logging configuration
func DefaultLogConfig() *config.LogConfig {
	return &config.LogConfig{
		Level:         LogLevelInfo,
		EnableFile:    false,
		EnableConsole: true,
		Filename:      "main.log",
		MaxSize:       10, // 10MB
		MaxBackups:    5,
		MaxAge:        30, // days
		Compress:      true,
		JSONFormat:    false,
	}
}

// ParseLevel maps a configured level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case LogLevelDebug, "trace":
		return zap.DebugLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// SetupLogger creates a logger with file and console outputs based on configuration.
// Every core is wrapped in a SecretSanitizer; the sanitizer is returned so
// callers can register credential values loaded at runtime.
func SetupLogger(cfg *config.LogConfig) (*zap.Logger, *SecretSanitizer, error) {
	if cfg == nil {
		cfg = DefaultLogConfig()
	}
	level := ParseLevel(cfg.Level)

	var cores []zapcore.Core

	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(getConsoleEncoder(), zapcore.AddSync(os.Stderr), level))
	}

	if cfg.EnableFile {
		fileCore, err := createFileCore(cfg, cfg.Filename, level)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create file core: %w", err)
		}
		cores = append(cores, fileCore)
	}

	if len(cores) == 0 {
		return nil, nil, fmt.Errorf("no log outputs configured")
	}

	sanitizer := NewSecretSanitizer(zapcore.NewTee(cores...))
	logger := zap.New(sanitizer, zap.AddCaller())
	return logger, sanitizer, nil
}

// SetupCommandLogger creates a logger for CLI commands. The server command
// defaults to info, everything else to warn.
func SetupCommandLogger(serverCommand bool, logLevel string, logToFile bool, logDir string) (*zap.Logger, *SecretSanitizer, error) {
	level := LogLevelWarn
	if serverCommand {
		level = LogLevelInfo
	}
	if logLevel != "" {
		level = logLevel
	}

	cfg := DefaultLogConfig()
	cfg.Level = level
	cfg.EnableFile = logToFile
	cfg.LogDir = logDir
	return SetupLogger(cfg)
}

// SetupAccessLogger creates the HTTP access logger. Without file logging it
// shares the main logger under the "http" name.
func SetupAccessLogger(cfg *config.LogConfig, main *zap.Logger) (*zap.Logger, error) {
	if cfg == nil || !cfg.EnableFile {
		return main.Named("http"), nil
	}
	accessCfg := *cfg
	accessCfg.JSONFormat = true
	core, err := createFileCore(&accessCfg, AccessLogFilename, zap.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create access log: %w", err)
	}
	return zap.New(core).Named("http"), nil
}

func createFileCore(cfg *config.LogConfig, filename string, level zapcore.Level) (zapcore.Core, error) {
	logFilePath, err := LogFilePath(cfg.LogDir, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get log file path: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoder := getFileEncoder()
	if cfg.JSONFormat {
		encoder = getJSONEncoder()
	}
	return zapcore.NewCore(encoder, zapcore.AddSync(rotator), level), nil
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getFileEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.ConsoleSeparator = " | "
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJSONEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// RegisterConfigSecrets masks every credential held by cfg in subsequent log output
func RegisterConfigSecrets(s *SecretSanitizer, cfg *config.Config) {
	if s == nil || cfg == nil {
		return
	}
	svc := cfg.Services
	var secrets []string
	if svc.Clerk != nil {
		secrets = append(secrets, svc.Clerk.SecretKey)
	}
	if svc.Polar != nil {
		secrets = append(secrets, svc.Polar.AccessToken, svc.Polar.WebhookSecret)
	}
	if svc.Resend != nil {
		secrets = append(secrets, svc.Resend.APIKey, svc.Resend.WebhookSecret)
	}
	if svc.OpenAI != nil {
		secrets = append(secrets, svc.OpenAI.APIKey)
	}
	if svc.OpenStatus != nil {
		secrets = append(secrets, svc.OpenStatus.APIKey)
	}
	for _, secret := range secrets {
		s.RegisterResolvedSecret(secret)
	}
}
