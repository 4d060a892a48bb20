package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openfin/connect-manager/internal/config"
)

func TestMakeConnStr(t *testing.T) {
	t.Setenv("CONNSTR_TEST_PASSWORD", "s3cret")

	tests := []struct {
		name      string
		db        config.Database
		want      string
		errAssert assert.ErrorAssertionFunc
	}{
		{
			name: "inline values",
			db: config.Database{
				Name:     "connect_manager",
				Port:     "5432",
				Host:     config.SourceRef{Value: "localhost"},
				User:     config.SourceRef{Value: "postgres"},
				Password: config.SourceRef{Value: "secret"},
			},
			want:      "host=localhost user=postgres password=secret dbname=connect_manager port=5432",
			errAssert: assert.NoError,
		},
		{
			name: "password from environment",
			db: config.Database{
				Name:     "connect_manager",
				Port:     "5432",
				Host:     config.SourceRef{Value: "db.internal"},
				User:     config.SourceRef{Value: "app"},
				Password: config.SourceRef{Env: "CONNSTR_TEST_PASSWORD"},
			},
			want:      "host=db.internal user=app password=s3cret dbname=connect_manager port=5432",
			errAssert: assert.NoError,
		},
		{
			name: "unresolvable password",
			db: config.Database{
				Name:     "connect_manager",
				Port:     "5432",
				Host:     config.SourceRef{Value: "localhost"},
				User:     config.SourceRef{Value: "postgres"},
				Password: config.SourceRef{Env: "CONNSTR_TEST_UNSET"},
			},
			errAssert: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.MakeConnStr(tt.db)
			tt.errAssert(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
