package config

import (
	"os"
	"testing"
	"time"
)

func setRequiredEnv() {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!!")
	os.Setenv("DB_PASSWORD", "test")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want error for missing JWT_SECRET")
	}
}

func TestLoad_RejectsWeakJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "changeme")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want error for weak JWT_SECRET")
	}
}

func TestLoad_RejectsShortSecretInProduction(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_SECRET", "twenty-char-secret!!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() = nil error, want error for short production JWT_SECRET")
	}
}

func TestLoad_AuthDefaults(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.RefreshTokenExpiry != 7*24*time.Hour {
		t.Errorf("RefreshTokenExpiry: got %v, want %v", cfg.Auth.RefreshTokenExpiry, 7*24*time.Hour)
	}
	if cfg.Auth.TOTPIssuer != "CondoEvents" {
		t.Errorf("TOTPIssuer: got %q, want %q", cfg.Auth.TOTPIssuer, "CondoEvents")
	}
	if cfg.Auth.RevocationFailClosed {
		t.Error("RevocationFailClosed should be false outside production")
	}
}

func TestLoad_ProductionFailsClosed(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if !cfg.Auth.RevocationFailClosed {
		t.Error("RevocationFailClosed should be true in production")
	}
}

func TestLoad_CustomRefreshExpiry(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("REFRESH_TOKEN_EXPIRY", "720h")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.RefreshTokenExpiry != 720*time.Hour {
		t.Errorf("RefreshTokenExpiry: got %v, want %v", cfg.Auth.RefreshTokenExpiry, 720*time.Hour)
	}
}

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestServerConfig_Timeouts_InvalidDurationFallsBack(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("SERVER_READ_TIMEOUT", "not-a-duration")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout with invalid value: got %v, want %v", cfg.Server.ReadTimeout, 15*time.Second)
	}
}

func TestServerConfig_TrustedProxies(t *testing.T) {
	os.Clearenv()
	setRequiredEnv()
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "172.16.0.0/12" {
		t.Errorf("TrustedProxies: got %v", cfg.Server.TrustedProxies)
	}
}
