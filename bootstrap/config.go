package bootstrap

import (
	"fmt"
	"os"

	"argus/config"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger creates the application logger with colored console output.
func InitLogger(level string) (*zap.Logger, *zap.SugaredLogger, error) {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	zapLevel := zapcore.InfoLevel
	if level != "" {
		if err := zapLevel.Set(level); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
	}

	core := zapcore.NewCore(
		consoleEncoder,
		zapcore.AddSync(os.Stdout),
		zapLevel,
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return logger, logger.Sugar(), nil
}

// InitConfig loads the application configuration.
func InitConfig(sugar *zap.SugaredLogger) (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load config: %v\n", err)
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if viper.ConfigFileUsed() == "" {
		sugar.Info("No config file found, using defaults and env vars")
	}

	sugar.Infow("Config loaded",
		"server_port", cfg.Server.Port,
		"mongodb_enabled", cfg.MongoDB.Enabled,
		"mongodb_database", cfg.MongoDB.Database,
		"ai_configured", cfg.AI.APIKey != "",
		"ai_models", len(cfg.AI.Models),
		"system_fallback", cfg.Auth.AllowSystemFallback)

	return cfg, nil
}
