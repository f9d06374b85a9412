package config

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
}

func TestLoadConfig_MemoryDriverDefaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("ENCRYPTION_KEY", testKey())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "0 0 1 * *", cfg.MonthlyResetSchedule)
	assert.Equal(t, "0 0 * * *", cfg.RenewalSchedule)
	assert.Equal(t, 30*24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.JobsEnabled)
}

func TestLoadConfig_OverridesFromEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORE_DRIVER", StoreDriverMemory)
	t.Setenv("ENCRYPTION_KEY", testKey())
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_IDLE_TIMEOUT", "15m")
	t.Setenv("JOBS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTimeout)
	assert.False(t, cfg.JobsEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "firestore needs project",
			cfg:     Config{StoreDriver: StoreDriverFirestore, FirebaseAPIKey: "k", EncryptionKey: testKey(), SessionTTL: time.Hour},
			wantErr: "FIREBASE_PROJECT_ID",
		},
		{
			name:    "firestore needs api key",
			cfg:     Config{StoreDriver: StoreDriverFirestore, FirebaseProjectID: "p", EncryptionKey: testKey(), SessionTTL: time.Hour},
			wantErr: "FIREBASE_API_KEY",
		},
		{
			name:    "unknown driver",
			cfg:     Config{StoreDriver: "postgres", EncryptionKey: testKey(), SessionTTL: time.Hour},
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "short key",
			cfg:     Config{StoreDriver: StoreDriverMemory, EncryptionKey: base64.StdEncoding.EncodeToString([]byte("short")), SessionTTL: time.Hour},
			wantErr: "32 bytes",
		},
		{
			name: "valid firestore",
			cfg:  Config{StoreDriver: StoreDriverFirestore, FirebaseProjectID: "p", FirebaseAPIKey: "k", EncryptionKey: testKey(), SessionTTL: time.Hour},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := Config{ClientURL: "http://localhost:5173, https://quillpost.app ,"}
	assert.Equal(t, []string{"http://localhost:5173", "https://quillpost.app"}, cfg.AllowedOrigins())
}
