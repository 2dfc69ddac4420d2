package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     Config{Password: "test", MaxConns: 10, MinConns: 2},
			wantErr: false,
		},
		{
			name:    "missing password",
			cfg:     Config{Password: "", MaxConns: 10, MinConns: 2},
			wantErr: true,
		},
		{
			name:    "min exceeds max",
			cfg:     Config{Password: "test", MaxConns: 2, MinConns: 10},
			wantErr: true,
		},
		{
			name:    "zero max conns",
			cfg:     Config{Password: "test", MaxConns: 0, MinConns: 0},
			wantErr: true,
		},
		{
			name:    "negative min conns",
			cfg:     Config{Password: "test", MaxConns: 10, MinConns: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
