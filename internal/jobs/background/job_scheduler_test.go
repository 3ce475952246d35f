package background

import (
	"context"
	"testing"
	"time"

	"simledger/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type signalingOrphanSource struct {
	called chan int
}

func (s *signalingOrphanSource) OrphanedReassignments(_ context.Context, limit int) ([]string, error) {
	s.called <- limit
	return []string{}, nil
}

func TestJobScheduler_RegistersOnlyConfiguredJobs(t *testing.T) {
	source := &signalingOrphanSource{called: make(chan int, 1)}
	consistency := jobs.NewConsistencyCheckService(source, zap.NewNop())

	js, err := NewJobScheduler(nil, consistency, nil, DefaultIntervals, time.UTC, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop() //nolint:errcheck

	statuses := js.GetJobStatus()
	require.Len(t, statuses, 1)
	assert.Equal(t, "ledger-consistency-check", statuses[0].Name)
}

func TestJobScheduler_RunNow(t *testing.T) {
	source := &signalingOrphanSource{called: make(chan int, 1)}
	consistency := jobs.NewConsistencyCheckService(source, zap.NewNop())

	js, err := NewJobScheduler(nil, consistency, nil, DefaultIntervals, time.UTC, zap.NewNop())
	require.NoError(t, err)
	js.Start()
	defer js.Stop() //nolint:errcheck

	require.NoError(t, js.RunNow("ledger-consistency-check"))
	select {
	case limit := <-source.called:
		assert.Equal(t, jobs.DefaultOrphanLimit, limit)
	case <-time.After(5 * time.Second):
		t.Fatal("consistency check did not run")
	}

	assert.ErrorIs(t, js.RunNow("missing"), ErrUnknownJob)
}

func TestJobScheduler_RemoveJob(t *testing.T) {
	consistency := jobs.NewConsistencyCheckService(&signalingOrphanSource{called: make(chan int, 1)}, zap.NewNop())

	js, err := NewJobScheduler(nil, consistency, nil, DefaultIntervals, time.UTC, zap.NewNop())
	require.NoError(t, err)
	defer js.Stop() //nolint:errcheck

	require.NoError(t, js.RemoveJob("ledger-consistency-check"))
	assert.Empty(t, js.GetJobStatus())
}
