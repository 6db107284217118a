package datagen

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/snaptrust/internal/adapters/dataset"
	"github.com/okian/snaptrust/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Target selects which datasets a run writes.
type Target string

// Supported targets.
const (
	TargetPayments  Target = "payments"
	TargetMerchants Target = "merchants"
	TargetAll       Target = "all"
)

// Result describes one completed run.
type Result struct {
	RunID     string
	Files     []string
	Payments  int
	Merchants int
	Duration  time.Duration
}

// Run generates the selected datasets into cfg.OutDir.
func Run(ctx context.Context, cfg Config, target Target) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{RunID: uuid.NewString()}
	start := time.Now()
	log := logger.Get().Named("datagen")

	log.Info(ctx, "starting dataset generation",
		logger.String("runID", res.RunID),
		logger.String("target", string(target)),
		logger.String("outDir", cfg.OutDir),
		logger.Any("seed", cfg.Seed))

	if err := os.MkdirAll(cfg.OutDir, directoryPermission); err != nil {
		return Result{}, fmt.Errorf("%w: create %s: %w", ErrWrite, cfg.OutDir, err)
	}

	gen := NewGenerator(cfg)
	if target == TargetPayments || target == TargetAll {
		payments := gen.Payments()
		path := filepath.Join(cfg.OutDir, PaymentsFile)
		if err := writeFile(path, func(w io.Writer) error { return dataset.WritePayments(w, payments) }); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, path)
		res.Payments = len(payments)
	}
	if target == TargetMerchants || target == TargetAll {
		merchants := gen.Merchants()
		path := filepath.Join(cfg.OutDir, MerchantsFile)
		if err := writeFile(path, func(w io.Writer) error { return dataset.WriteMerchants(w, merchants) }); err != nil {
			return Result{}, err
		}
		res.Files = append(res.Files, path)
		res.Merchants = len(merchants)
	}
	if len(res.Files) == 0 {
		return Result{}, fmt.Errorf("%w: unknown target %q", ErrInvalidConfig, target)
	}

	res.Duration = time.Since(start)
	log.Info(ctx, "dataset generation finished",
		logger.String("runID", res.RunID),
		logger.Int("payments", res.Payments),
		logger.Int("merchants", res.Merchants),
		logger.Duration("duration", res.Duration))
	return res, nil
}

// writeFile writes to a temporary file and renames it into place so readers
// never observe a partially written dataset.
func writeFile(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = write(tmp); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	return nil
}
