package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ud28188-create/codonyx.org/internal/database/testutil"
)

type fixedCounter int

func (c fixedCounter) Connections() int { return int(c) }

func TestHealthManager_WorstStatusWins(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	manager := NewHealthManager(time.Second,
		Database(db),
		Realtime(fixedCounter(3)),
		Redis(nil),
	)
	report := manager.Evaluate(context.Background())
	require.Equal(t, StatusUp, report.Status)
	require.True(t, report.Healthy())
	require.Len(t, report.Checks, 3)
	require.Equal(t, "database", report.Checks[0].Component)
	require.Equal(t, "3 connections", report.Checks[1].Details)
	require.Equal(t, "redis disabled", report.Checks[2].Details)

	manager.Register(Redis(func(context.Context) error { return errors.New("connection refused") }))
	report = manager.Evaluate(context.Background())
	require.Equal(t, StatusDegraded, report.Status)
	require.True(t, report.Healthy())

	manager.Register(Database(nil))
	report = manager.Evaluate(context.Background())
	require.Equal(t, StatusDown, report.Status)
	require.False(t, report.Healthy())
}

func TestHealthManager_RecoversPanicsAndTimesOut(t *testing.T) {
	manager := NewHealthManager(20*time.Millisecond,
		NewCheck("panics", func(context.Context) ProbeResult { panic("boom") }),
		NewCheck("slow", func(ctx context.Context) ProbeResult {
			<-ctx.Done()
			return ResultFromError(ctx.Err())
		}),
		NewCheck("", func(context.Context) ProbeResult { return ProbeResult{Status: StatusUp} }),
	)

	report := manager.Evaluate(context.Background())
	require.Len(t, report.Checks, 2)
	require.Equal(t, ProbeResult{Component: "panics", Status: StatusDown, Details: "boom", Duration: report.Checks[0].Duration}, report.Checks[0])
	require.Equal(t, StatusDegraded, report.Checks[1].Status)
	require.Equal(t, StatusDown, report.Status)
}

func TestNewCheckWithoutProbe(t *testing.T) {
	result := runCheck(context.Background(), NewCheck("empty", nil))
	require.Equal(t, StatusDown, result.Status)
	require.Equal(t, "empty", result.Component)
}
