// Package config loads solver configuration the way the teacher loads
// application configuration: godotenv + viper + typed defaults, with
// validator enforcing the invariants before a solve ever starts.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	appErrors "github.com/vaniila/timetable-solver/pkg/errors"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// FitnessShape selects between the normative quadratic reward and the
// alternative Gaussian reward left open by spec §9.
type FitnessShape string

const (
	ShapeQuadratic FitnessShape = "quadratic"
	ShapeGaussian  FitnessShape = "gaussian"
)

// LogConfig governs logger construction.
type LogConfig struct {
	Level  string
	Format string
}

// Alphas holds the three fitness weights (teacher-day, class-day, border).
type Alphas struct {
	Teacher float64 `validate:"gte=0"`
	Class   float64 `validate:"gte=0"`
	Border  float64 `validate:"gte=0"`
}

// Config holds every recognized solver option from spec §6.
type Config struct {
	Env string
	Log LogConfig

	Generations     int          `validate:"required,min=1"`
	PopulationSize  int          `validate:"required,min=2"`
	MutationRate    float64      `validate:"gte=0,lte=1"`
	Alphas          Alphas       `validate:"required"`
	Horizon         int          `validate:"required,min=1,max=24"`
	DayTimeBudgetMs int          `validate:"required,min=1"`
	Seed            int64
	ElitismCount    int          `validate:"gte=0"`
	RelativeGap     float64      `validate:"gte=0,lt=1"`
	FitnessShape    FitnessShape `validate:"required,oneof=quadratic gaussian"`

	MetricsEnabled bool
}

// Load reads .env / the process environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		Env: v.GetString("ENV"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Generations:     v.GetInt("SOLVER_GENERATIONS"),
		PopulationSize:  v.GetInt("SOLVER_POPULATION_SIZE"),
		MutationRate:    v.GetFloat64("SOLVER_MUTATION_RATE"),
		Horizon:         v.GetInt("SOLVER_HORIZON"),
		DayTimeBudgetMs: v.GetInt("SOLVER_DAY_TIME_BUDGET_MS"),
		Seed:            v.GetInt64("SOLVER_SEED"),
		ElitismCount:    v.GetInt("SOLVER_ELITISM_COUNT"),
		RelativeGap:     v.GetFloat64("SOLVER_RELATIVE_GAP"),
		FitnessShape:    FitnessShape(v.GetString("SOLVER_FITNESS_SHAPE")),
		MetricsEnabled:  v.GetBool("SOLVER_METRICS_ENABLED"),
		Alphas: Alphas{
			Teacher: v.GetFloat64("SOLVER_ALPHA_TEACHER"),
			Class:   v.GetFloat64("SOLVER_ALPHA_CLASS"),
			Border:  v.GetFloat64("SOLVER_ALPHA_BORDER"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate runs struct-tag validation and translates the first failure
// into the spec's invalid_configuration error kind.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return appErrors.InvalidConfiguration(fe.Namespace(), fe.Tag())
		}
		return appErrors.Wrap(err, appErrors.KindInvalidConfiguration, "configuration validation failed")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SOLVER_GENERATIONS", 200)
	v.SetDefault("SOLVER_POPULATION_SIZE", 1000)
	v.SetDefault("SOLVER_MUTATION_RATE", 0.2)
	v.SetDefault("SOLVER_HORIZON", 12)
	v.SetDefault("SOLVER_DAY_TIME_BUDGET_MS", int(5*time.Second/time.Millisecond))
	v.SetDefault("SOLVER_SEED", 1)
	v.SetDefault("SOLVER_ELITISM_COUNT", 1)
	v.SetDefault("SOLVER_RELATIVE_GAP", 0.1)
	v.SetDefault("SOLVER_FITNESS_SHAPE", string(ShapeQuadratic))
	v.SetDefault("SOLVER_METRICS_ENABLED", false)

	v.SetDefault("SOLVER_ALPHA_TEACHER", 1.0)
	v.SetDefault("SOLVER_ALPHA_CLASS", 1.0)
	v.SetDefault("SOLVER_ALPHA_BORDER", 0.5)
}
