package jobs

import (
	"context"
	"fmt"

	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

const (
	// OverdueSweepJobName moves unpaid invoices past their due date to OVERDUE
	OverdueSweepJobName = "overdue_sweep"
	// MonthlyInvoicesJobName bills every active lease for the current month
	MonthlyInvoicesJobName = "monthly_invoices"
)

// InvoiceRunner is the slice of the invoice service the jobs drive
type InvoiceRunner interface {
	SweepOverdue(ctx context.Context) (int64, error)
	GenerateMonthly(ctx context.Context) (*service.MonthlyRunResult, error)
}

// OverdueSweepJob wraps InvoiceRunner.SweepOverdue
func OverdueSweepJob(invoices InvoiceRunner, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		n, err := invoices.SweepOverdue(ctx)
		if err != nil {
			return err
		}
		logger.Info("overdue sweep finished", zap.Int64("marked", n))
		return nil
	}
}

// MonthlyInvoicesJob wraps InvoiceRunner.GenerateMonthly. Per-lease failures
// are reported as an error after the run so the scheduler logs them.
func MonthlyInvoicesJob(invoices InvoiceRunner, logger *zap.Logger) Job {
	return func(ctx context.Context) error {
		result, err := invoices.GenerateMonthly(ctx)
		if err != nil {
			return err
		}
		logger.Info("monthly invoice run finished",
			zap.Int("year", result.Year),
			zap.Int("month", int(result.Month)),
			zap.Int("created", result.Created),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
		if result.Failed > 0 {
			return fmt.Errorf("%d of %d leases failed", result.Failed, result.Created+result.Skipped+result.Failed)
		}
		return nil
	}
}

// RegisterInvoiceJobs adds both invoice jobs on their configured schedules.
// An empty cron expression leaves that job out.
func RegisterInvoiceJobs(s *Scheduler, invoices InvoiceRunner, cfg *config.JobsConfig, logger *zap.Logger) error {
	if cfg.OverdueCron != "" {
		if err := s.AddJob(OverdueSweepJobName, cfg.OverdueCron, OverdueSweepJob(invoices, logger)); err != nil {
			return err
		}
	}
	if cfg.MonthlyInvoiceCron != "" {
		if err := s.AddJob(MonthlyInvoicesJobName, cfg.MonthlyInvoiceCron, MonthlyInvoicesJob(invoices, logger)); err != nil {
			return err
		}
	}
	return nil
}
