package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test_password")
	os.Setenv("JWT_SECRET_KEY", "this_is_a_test_secret_key_with_32_chars_minimum")
	defer func() {
		os.Unsetenv("DB_PASSWORD")
		os.Unsetenv("JWT_SECRET_KEY")
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DBPassword != "test_password" {
		t.Errorf("DBPassword = %q, want %q", cfg.DBPassword, "test_password")
	}
	if cfg.BattleDurationHours != 24 {
		t.Errorf("BattleDurationHours = %d, want 24", cfg.BattleDurationHours)
	}
	if cfg.InitialDefense != 10000 {
		t.Errorf("InitialDefense = %d, want 10000", cfg.InitialDefense)
	}
	if cfg.SupportRatio != 0.2 {
		t.Errorf("SupportRatio = %v, want 0.2", cfg.SupportRatio)
	}
	if cfg.RageCeiling != 100 {
		t.Errorf("RageCeiling = %d, want 100", cfg.RageCeiling)
	}
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name: "Missing DB_PASSWORD",
			envVars: map[string]string{
				"JWT_SECRET_KEY": "this_is_a_test_secret_key_with_32_chars_minimum",
			},
		},
		{
			name: "Missing JWT_SECRET_KEY",
			envVars: map[string]string{
				"DB_PASSWORD": "password",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			_, err := LoadConfig()
			if err == nil {
				t.Error("LoadConfig() expected error for missing required field, got nil")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DBPassword:      "password",
			JWTSecret:       "this_is_a_test_secret_key_with_32_chars_minimum",
			SupportRatio:    0.2,
			DisarrayCeiling: 1.5,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "Valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "JWT secret too short",
			mutate:  func(c *Config) { c.JWTSecret = "short" },
			wantErr: true,
		},
		{
			name:    "Support ratio zero",
			mutate:  func(c *Config) { c.SupportRatio = 0 },
			wantErr: true,
		},
		{
			name:    "Support ratio above one",
			mutate:  func(c *Config) { c.SupportRatio = 1.1 },
			wantErr: true,
		},
		{
			name:    "Disarray ceiling below one",
			mutate:  func(c *Config) { c.DisarrayCeiling = 0.9 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProductionSecurity(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "Valid production config",
			cfg: &Config{
				AppEnv:    "production",
				DBSSLMode: "require",
				JWTSecret: "production_secret_key_different_from_default",
			},
			shouldErr: false,
		},
		{
			name: "Development mode - no validation",
			cfg: &Config{
				AppEnv:    "development",
				DBSSLMode: "disable",
			},
			shouldErr: false,
		},
		{
			name: "Production without SSL",
			cfg: &Config{
				AppEnv:    "production",
				DBSSLMode: "disable",
				JWTSecret: "production_secret",
			},
			shouldErr: true,
		},
		{
			name: "Production with default JWT secret",
			cfg: &Config{
				AppEnv:    "production",
				DBSSLMode: "require",
				JWTSecret: "your_jwt_secret_minimum_32_chars_here_change_this",
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateProductionSecurity()
			if tt.shouldErr && err == nil {
				t.Error("ValidateProductionSecurity() expected error, got nil")
			}
			if !tt.shouldErr && err != nil {
				t.Errorf("ValidateProductionSecurity() unexpected error = %v", err)
			}
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "testuser",
		DBPassword: "testpass",
		DBName:     "testdb",
		DBSSLMode:  "disable",
	}

	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	dsn := cfg.GetDSN()

	if dsn != expected {
		t.Errorf("GetDSN() = %q, want %q", dsn, expected)
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := &Config{
		BattleDurationHours:      24,
		AgitationWindowHours:     48,
		ExileCooldownHours:       24,
		FailureCooldownHours:     72,
		NegotiationCooldownHours: 168,
		MomentumDurationHours:    12,
		BattleSweepSeconds:       60,
		DecaySweepMinutes:        60,
	}

	if got := cfg.BattleDuration(); got != 24*time.Hour {
		t.Errorf("BattleDuration() = %v, want 24h", got)
	}
	if got := cfg.AgitationWindow(); got != 48*time.Hour {
		t.Errorf("AgitationWindow() = %v, want 48h", got)
	}
	if got := cfg.NegotiationCooldown(); got != 168*time.Hour {
		t.Errorf("NegotiationCooldown() = %v, want 168h", got)
	}
	if got := cfg.BattleSweepInterval(); got != time.Minute {
		t.Errorf("BattleSweepInterval() = %v, want 1m", got)
	}
	if got := cfg.DecaySweepInterval(); got != time.Hour {
		t.Errorf("DecaySweepInterval() = %v, want 1h", got)
	}
}
