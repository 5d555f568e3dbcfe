package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casbinder/internal/binder/models"
	"casbinder/internal/platform/config"
)

func testConfig() config.Server {
	return config.Server{
		CAS: config.CASConfig{
			CreateUser:         true,
			SyncAttributes:     []string{"email"},
			UsernameTriesLimit: 10,
		},
	}
}

func TestBuildInMemory(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := Build(ctx, testConfig(), logger, prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	assert.Nil(t, a.DB)
	assert.Nil(t, a.CAS)
	assert.Nil(t, a.Authenticator)
	assert.Error(t, a.RequireProvider())
	assert.Empty(t, a.HealthChecks())

	schema, err := a.Migrate(ctx)
	require.NoError(t, err)
	assert.False(t, schema.Changed)

	result, err := a.Binder.Bind(ctx, models.BindRequest{
		UniversalID: "U-1",
		Attributes:  map[string]string{"username": "jdoe", "email": "jdoe@example.edu"},
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "jdoe", result.Account.Username)

	accounts, err := a.Admin.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "jdoe@example.edu", accounts[0].Email)
	assert.Equal(t, "jdoe", accounts[0].Username)
}

func TestBuildWithProvider(t *testing.T) {
	cfg := testConfig()
	cfg.CAS.ServerURL = "https://cas.example.edu/"
	cfg.CAS.ProtocolVersion = 3

	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	require.NoError(t, a.RequireProvider())
	assert.NotNil(t, a.Authenticator)
	assert.Equal(t, "https://cas.example.edu/login?service=https%3A%2F%2Fapp.example.edu%2Flogin",
		a.CAS.LoginURL("https://app.example.edu/login"))
}
