package jobs

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoices struct {
	swept     int
	generated int
	result    service.MonthlyRunResult
	err       error
	deadline  bool
}

func (f *fakeInvoices) SweepOverdue(ctx context.Context) (int64, error) {
	f.swept++
	_, f.deadline = ctx.Deadline()
	return 2, f.err
}

func (f *fakeInvoices) GenerateMonthly(ctx context.Context) (*service.MonthlyRunResult, error) {
	f.generated++
	if f.err != nil {
		return nil, f.err
	}
	result := f.result
	return &result, nil
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Stockholm")
	require.NoError(t, err)
	return NewScheduler(zap.NewNop(), loc, time.Minute)
}

func TestScheduler_AddRemove(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddJob("a", "0 5 0 * * *", noop))
	require.NoError(t, s.AddJob("b", "@every 1h", noop))

	assert.Error(t, s.AddJob("a", "@hourly", noop), "duplicate name")
	assert.Error(t, s.AddJob("c", "every now and then", noop), "bad expression")
	assert.Error(t, s.AddJob("d", "5 0 * * *", noop), "five fields without seconds")

	names := s.JobNames()
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.JobNames())
}

func TestRegisterInvoiceJobs(t *testing.T) {
	s := newTestScheduler(t)
	invoices := &fakeInvoices{result: service.MonthlyRunResult{Year: 2024, Month: time.May, Created: 3}}

	err := RegisterInvoiceJobs(s, invoices, &config.JobsConfig{
		OverdueCron:        "0 5 0 * * *",
		MonthlyInvoiceCron: "0 0 6 1 * *",
	}, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.RunNow(OverdueSweepJobName))
	assert.Equal(t, 1, invoices.swept)
	assert.True(t, invoices.deadline, "runs carry the job timeout")

	require.NoError(t, s.RunNow(MonthlyInvoicesJobName))
	assert.Equal(t, 1, invoices.generated)

	assert.Error(t, s.RunNow("unknown"))
}

func TestRegisterInvoiceJobs_EmptyScheduleSkipsJob(t *testing.T) {
	s := newTestScheduler(t)
	err := RegisterInvoiceJobs(s, &fakeInvoices{}, &config.JobsConfig{OverdueCron: "0 5 0 * * *"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{OverdueSweepJobName}, s.JobNames())
}

func TestMonthlyInvoicesJob(t *testing.T) {
	t.Run("partial failure is reported", func(t *testing.T) {
		job := MonthlyInvoicesJob(&fakeInvoices{result: service.MonthlyRunResult{Created: 4, Skipped: 1, Failed: 1}}, zap.NewNop())
		err := job(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 6")
	})

	t.Run("service error", func(t *testing.T) {
		boom := errors.New("db down")
		job := MonthlyInvoicesJob(&fakeInvoices{err: boom}, zap.NewNop())
		assert.ErrorIs(t, job(context.Background()), boom)
	})

	t.Run("clean run", func(t *testing.T) {
		job := MonthlyInvoicesJob(&fakeInvoices{result: service.MonthlyRunResult{Created: 2, Skipped: 3}}, zap.NewNop())
		assert.NoError(t, job(context.Background()))
	})
}
