package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	JWTSecret string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Notifications (optional companion bot channel)
	BotToken string

	// Rate Limiting
	RateLimitPerUser int

	// Battle
	BattleDurationHours  int
	InitialDefense       int64
	DamageEnergyCost     int64
	CritMagnitude        float64
	RankScoreWinReward   int64
	RankScoreLossPenalty int64

	// Rebellion
	SupportRatio             float64
	AgitationWindowHours     int
	PersonalMoraleGate       int64
	CommunityMoraleGate      int64
	ExileCooldownHours       int
	FailureCooldownHours     int
	NegotiationCooldownHours int
	NeutralMorale            int64
	ExileMoralePenalty       int64
	SupporterMoraleBonus     int64
	BystanderMoralePenalty   int64

	// Modifiers
	DisarrayCeiling       float64
	DisarrayDurationHours int
	MomentumMoraleBonus   int64
	MomentumDurationHours int
	ExhaustionThreshold   int
	ExhaustionWindowHours int
	ExhaustionIdleHours   int
	RageCeiling           int64
	RageHourlyDecay       int64
	WinnerMoraleBonus     int64
	LoserMoralePenalty    int64

	// Scheduler
	BattleSweepSeconds int
	DecaySweepMinutes  int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "dominion"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "dominion_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BotToken: getEnv("BOT_TOKEN", ""),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 30),

		BattleDurationHours:  getEnvInt("BATTLE_DURATION_HOURS", 24),
		InitialDefense:       getEnvInt64("INITIAL_DEFENSE", 10000),
		DamageEnergyCost:     getEnvInt64("DAMAGE_ENERGY_COST", 10),
		CritMagnitude:        getEnvFloat("CRIT_MAGNITUDE", 2.0),
		RankScoreWinReward:   getEnvInt64("RANK_SCORE_WIN_REWARD", 25),
		RankScoreLossPenalty: getEnvInt64("RANK_SCORE_LOSS_PENALTY", 10),

		SupportRatio:             getEnvFloat("SUPPORT_RATIO", 0.2),
		AgitationWindowHours:     getEnvInt("AGITATION_WINDOW_HOURS", 48),
		PersonalMoraleGate:       getEnvInt64("PERSONAL_MORALE_GATE", 30),
		CommunityMoraleGate:      getEnvInt64("COMMUNITY_MORALE_GATE", 20),
		ExileCooldownHours:       getEnvInt("EXILE_COOLDOWN_HOURS", 24),
		FailureCooldownHours:     getEnvInt("FAILURE_COOLDOWN_HOURS", 72),
		NegotiationCooldownHours: getEnvInt("NEGOTIATION_COOLDOWN_HOURS", 168),
		NeutralMorale:            getEnvInt64("NEUTRAL_MORALE", 50),
		ExileMoralePenalty:       getEnvInt64("EXILE_MORALE_PENALTY", 15),
		SupporterMoraleBonus:     getEnvInt64("SUPPORTER_MORALE_BONUS", 15),
		BystanderMoralePenalty:   getEnvInt64("BYSTANDER_MORALE_PENALTY", 10),

		DisarrayCeiling:       getEnvFloat("DISARRAY_CEILING", 1.5),
		DisarrayDurationHours: getEnvInt("DISARRAY_DURATION_HOURS", 24),
		MomentumMoraleBonus:   getEnvInt64("MOMENTUM_MORALE_BONUS", 10),
		MomentumDurationHours: getEnvInt("MOMENTUM_DURATION_HOURS", 12),
		ExhaustionThreshold:   getEnvInt("EXHAUSTION_THRESHOLD", 3),
		ExhaustionWindowHours: getEnvInt("EXHAUSTION_WINDOW_HOURS", 24),
		ExhaustionIdleHours:   getEnvInt("EXHAUSTION_IDLE_HOURS", 12),
		RageCeiling:           getEnvInt64("RAGE_CEILING", 100),
		RageHourlyDecay:       getEnvInt64("RAGE_HOURLY_DECAY", 5),
		WinnerMoraleBonus:     getEnvInt64("WINNER_MORALE_BONUS", 10),
		LoserMoralePenalty:    getEnvInt64("LOSER_MORALE_PENALTY", 10),

		BattleSweepSeconds: getEnvInt("BATTLE_SWEEP_SECONDS", 60),
		DecaySweepMinutes:  getEnvInt("DECAY_SWEEP_MINUTES", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	if c.SupportRatio <= 0 || c.SupportRatio > 1 {
		return fmt.Errorf("SUPPORT_RATIO must be in (0, 1]")
	}
	if c.DisarrayCeiling < 1.0 {
		return fmt.Errorf("DISARRAY_CEILING must be >= 1.0")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) BattleDuration() time.Duration {
	return time.Duration(c.BattleDurationHours) * time.Hour
}

func (c *Config) AgitationWindow() time.Duration {
	return time.Duration(c.AgitationWindowHours) * time.Hour
}

func (c *Config) ExileCooldown() time.Duration {
	return time.Duration(c.ExileCooldownHours) * time.Hour
}

func (c *Config) FailureCooldown() time.Duration {
	return time.Duration(c.FailureCooldownHours) * time.Hour
}

func (c *Config) NegotiationCooldown() time.Duration {
	return time.Duration(c.NegotiationCooldownHours) * time.Hour
}

func (c *Config) MomentumDuration() time.Duration {
	return time.Duration(c.MomentumDurationHours) * time.Hour
}

func (c *Config) BattleSweepInterval() time.Duration {
	return time.Duration(c.BattleSweepSeconds) * time.Second
}

func (c *Config) DecaySweepInterval() time.Duration {
	return time.Duration(c.DecaySweepMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
