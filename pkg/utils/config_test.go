package utils

import (
	"slices"
	"testing"
)

func TestLoadConfig_CORSOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"default", "", []string{"*"}},
		{"list", "http://pizza.test, https://admin.pizza.test ,", []string{"http://pizza.test", "https://admin.pizza.test"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "secret")
			t.Setenv("FACTORY_URL", "http://factory.test")
			if tt.raw != "" {
				t.Setenv("CORS_ORIGINS", tt.raw)
			}

			config, err := LoadConfig()
			if err != nil {
				t.Fatalf("load config: %v", err)
			}
			if !slices.Equal(config.App.CORSOrigins, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, config.App.CORSOrigins)
			}
		})
	}
}

func TestValidate_RequiresCORSOrigin(t *testing.T) {
	config := &Config{
		Storage: StorageConfig{Driver: DriverMemory, TokenLedger: LedgerStore},
		JWT:     JWTConfig{Secret: "secret"},
		Factory: FactoryConfig{URL: "http://factory.test", TimeoutSeconds: 1},
		App:     AppConfig{CORSOrigins: splitList(" , ")},
	}
	if err := config.Validate(); err == nil {
		t.Fatal("expected an empty origin list to be rejected")
	}
}
