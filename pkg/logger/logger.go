// Package logger wraps zap construction for the solve pipeline.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vaniila/timetable-solver/pkg/config"
)

// New builds a zap logger configured the way cfg.Env/cfg.Log dictate.
func New(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Log.Format {
	case "console":
		zapCfg.Encoding = "console"
	default:
		zapCfg.Encoding = "json"
	}

	if cfg.Log.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// RunFields returns the fields every log line for one solve run should
// carry, the same role the teacher's GinMiddleware played for one HTTP
// request.
func RunFields(runID string, seed int64) []zap.Field {
	return []zap.Field{
		zap.String("run_id", runID),
		zap.Int64("seed", seed),
	}
}

// GenerationFields augments RunFields with per-generation context.
func GenerationFields(generation int, bestFitness float64, elapsed time.Duration) []zap.Field {
	return []zap.Field{
		zap.Int("generation", generation),
		zap.Float64("best_fitness", bestFitness),
		zap.Duration("elapsed", elapsed),
	}
}

// DayFields augments RunFields with per-day context.
func DayFields(day int, status string, objective int, elapsed time.Duration) []zap.Field {
	return []zap.Field{
		zap.Int("day", day),
		zap.String("status", status),
		zap.Int("objective", objective),
		zap.Duration("elapsed", elapsed),
	}
}
