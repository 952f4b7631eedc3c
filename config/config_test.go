package config

import (
	"strings"
	"testing"
	"time"
)

func validCore() CoreConfig {
	return CoreConfig{
		Env:               "dev",
		LogLevel:          "info",
		HTTP:              HTTPConfig{HTTPPort: 8080, HTTPSPort: 443},
		EnableCompression: true,
		CompressionLevel:  5,
	}
}

func TestValidateCoreConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CoreConfig)
		wantErr string
	}{
		{"defaults ok", func(c *CoreConfig) {}, ""},
		{"bad env", func(c *CoreConfig) { c.Env = "staging" }, `env must be "dev" or "prod"`},
		{"bad port", func(c *CoreConfig) { c.HTTP.HTTPPort = 0 }, "http_port must be in 1..65535"},
		{"lets encrypt without https", func(c *CoreConfig) {
			c.TLS.UseLetsEncrypt = true
			c.TLS.Domain = "example.com"
			c.TLS.LetsEncryptEmail = "ops@example.com"
		}, "use_lets_encrypt=true requires use_https=true"},
		{"manual tls missing files", func(c *CoreConfig) { c.HTTP.UseHTTPS = true }, "CALIGBEN_CERT_FILE"},
		{"compression level", func(c *CoreConfig) { c.CompressionLevel = 12 }, "compression_level must be in 1..9"},
		{"compression disabled ignores level", func(c *CoreConfig) {
			c.EnableCompression = false
			c.CompressionLevel = 0
		}, ""},
		{"cors wildcard with credentials", func(c *CoreConfig) {
			c.CORS.EnableCORS = true
			c.CORS.CORSAllowedOrigins = []string{"*"}
			c.CORS.CORSAllowCredentials = true
		}, `cannot use "*"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validCore()
			tt.mutate(&cfg)
			err := validateCoreConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDurationFlexible(t *testing.T) {
	def := 10 * time.Second
	tests := []struct {
		name    string
		raw     any
		want    time.Duration
		wantErr bool
	}{
		{"duration string", "90s", 90 * time.Second, false},
		{"plain seconds string", "120", 120 * time.Second, false},
		{"int seconds", 30, 30 * time.Second, false},
		{"float seconds", 1.5, 1500 * time.Millisecond, false},
		{"empty", "", def, false},
		{"nil", nil, def, false},
		{"garbage", "soon", def, true},
		{"negative", "-5s", def, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDurationFlexible(tt.raw, def)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppConfigValues(t *testing.T) {
	vals := AppConfigValues{
		"site_name":   "Caligben",
		"redis_db":    int64(2),
		"rate":        6.5,
		"debug":       true,
		"session_ttl": "30m",
	}
	if got := vals.String("site_name"); got != "Caligben" {
		t.Errorf("String = %q", got)
	}
	if got := vals.Int("redis_db"); got != 2 {
		t.Errorf("Int = %d", got)
	}
	if got := vals.Float64("rate"); got != 6.5 {
		t.Errorf("Float64 = %v", got)
	}
	if !vals.Bool("debug") {
		t.Error("Bool = false")
	}
	if got := vals.Duration("session_ttl", time.Hour); got != 30*time.Minute {
		t.Errorf("Duration = %v", got)
	}
	if got := vals.Duration("missing", time.Hour); got != time.Hour {
		t.Errorf("Duration(missing) = %v", got)
	}
	if got := vals.String("missing"); got != "" {
		t.Errorf("String(missing) = %q", got)
	}
}
