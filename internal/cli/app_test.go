package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cablebill/internal/config"
	"cablebill/internal/core"
	"cablebill/internal/log"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:             "3000",
		LogLevel:         "info",
		DataBackend:      config.BackendJSON,
		DataFile:         filepath.Join(t.TempDir(), "data.json"),
		AutosaveInterval: 30 * time.Second,
		RemoteTimeout:    time.Second,
	}
}

func TestBootstrap_PersistsAcrossRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	app, err := Bootstrap(ctx, log.Discard(), cfg)
	require.NoError(t, err)
	require.Nil(t, app.Remote)
	require.Nil(t, app.Syncer)
	require.Nil(t, app.Events)
	require.NotNil(t, app.Notifier)

	c := app.Ledger.AddCustomer(ctx, core.Customer{Name: "Ravi", Amount: core.Rupees(300)})
	require.Equal(t, "CUST000001", c.ID)
	require.NoError(t, app.Close(ctx))

	again, err := Bootstrap(ctx, log.Discard(), cfg)
	require.NoError(t, err)
	defer again.Close(ctx)

	got, ok := again.Ledger.Customer("CUST000001")
	require.True(t, ok)
	require.Equal(t, "Ravi", got.Name)
	require.Equal(t, "CUST000002", again.Ledger.GenerateCustomerID())
}

func TestBootstrap_RemoteConfigured(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.RemoteURL = "http://127.0.0.1:1"

	app, err := Bootstrap(ctx, log.Discard(), cfg)
	require.NoError(t, err)
	defer app.Close(ctx)

	require.NotNil(t, app.Remote)
	require.NotNil(t, app.Syncer)
	require.Equal(t, "http://127.0.0.1:1/api", app.Remote.BaseURL())
}

func TestBootstrap_InvalidBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataBackend = "mongo"
	_, err := Bootstrap(context.Background(), log.Discard(), cfg)
	require.Error(t, err)
}
