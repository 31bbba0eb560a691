package ada

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/odit-bit/ada/ada/config"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/session"
	"github.com/odit-bit/ada/ada/store"
)

func TestRunChannel_InitObservability(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	app := &App{
		Config: &config.Config{
			Observe: config.ObsConfig{Enable: true, Metrics: "stdout"},
		},
		Store:    store.New(sqlx.NewDb(db, "postgres")),
		Sessions: session.NewManager(session.Config{}, dialogue.VariantBasic),
	}

	stopped := errors.New("poller stopped")
	ran := false
	err = RunChannel(context.Background(), "ada-bot", app, func(ctx context.Context) error {
		ran = true
		_, ok := otel.GetMeterProvider().(*sdkmetric.MeterProvider)
		assert.True(t, ok, "channel counters reach a real meter provider")
		return stopped
	})

	require.ErrorIs(t, err, stopped)
	assert.True(t, ran)
	assert.NoError(t, mock.ExpectationsWereMet())
}
