package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedSize struct {
	size int
	err  error
}

func (f fixedSize) Size() (int, error) { return f.size, f.err }

func TestRefreshReflectsProbes(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("refused") }

	m := newMonitor(ok, down, fixedSize{size: 4}, 0, nil)
	m.refresh()

	status := m.GetStatus()
	require.True(t, status.PostgreSQL)
	require.False(t, status.Redis)
	require.True(t, status.Journal)
	require.Equal(t, 4, status.JournalSize)
	require.False(t, status.Healthy())
	require.True(t, m.IsOnline())
}

func TestRefreshWithoutDependencies(t *testing.T) {
	m := newMonitor(nil, nil, fixedSize{err: errors.New("closed")}, 0, nil)
	m.refresh()

	status := m.GetStatus()
	require.False(t, status.PostgreSQL)
	require.False(t, status.Journal)
	require.False(t, m.IsOnline())
	require.False(t, status.LastCheck.IsZero())
}

func TestStopIsIdempotent(t *testing.T) {
	m := newMonitor(nil, nil, nil, 0, nil)
	m.Start()
	m.Stop()
	m.Stop()
}
