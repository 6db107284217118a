package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/okian/snaptrust/pkg/logger"
)

// LoaderOption applies a configuration option to the Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for load warnings.
func WithLogger(l logger.Logger) LoaderOption {
	return func(ld *Loader) {
		if l != nil {
			ld.log = l
		}
	}
}

// Loader reads both dataset files into a Dataset.
type Loader struct {
	paymentsPath  string
	merchantsPath string
	log           logger.Logger
}

// NewLoader creates a Loader for the given file paths.
func NewLoader(paymentsPath, merchantsPath string, opts ...LoaderOption) *Loader {
	l := &Loader{
		paymentsPath:  paymentsPath,
		merchantsPath: merchantsPath,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads both files concurrently. A file that does not exist loads as an
// empty population and is listed in Dataset.Missing; any other failure aborts
// the load.
func (l *Loader) Load(ctx context.Context) (*Dataset, error) {
	var (
		payments         []Payment
		merchants        []Merchant
		paySkip, merSkip int
		payMiss, merMiss bool
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payMiss, err = readFile(l.paymentsPath, func(f *os.File) (err error) {
			payments, paySkip, err = ReadPayments(f)
			return err
		})
		return err
	})
	g.Go(func() error {
		var err error
		merMiss, err = readFile(l.merchantsPath, func(f *os.File) (err error) {
			merchants, merSkip, err = ReadMerchants(f)
			return err
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		Customers: AggregateCustomers(payments),
		Merchants: merchants,
		Payments:  len(payments),
		Skipped: map[string]int{
			filepath.Base(l.paymentsPath):  paySkip,
			filepath.Base(l.merchantsPath): merSkip,
		},
	}
	if payMiss {
		ds.Missing = append(ds.Missing, l.paymentsPath)
	}
	if merMiss {
		ds.Missing = append(ds.Missing, l.merchantsPath)
	}

	for _, path := range ds.Missing {
		l.log.Warn(ctx, "dataset file not found, loading empty population", logger.String("path", path))
	}
	for file, n := range ds.Skipped {
		if n > 0 {
			l.log.Warn(ctx, "skipped malformed dataset rows", logger.String("file", file), logger.Int("rows", n))
		}
	}
	return ds, nil
}

// readFile opens path and hands it to parse. It reports missing files
// instead of failing.
func readFile(path string, parse func(*os.File) error) (missing bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrRead, path, err)
	}
	defer func() { _ = f.Close() }()

	if err := parse(f); err != nil {
		return false, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return false, nil
}
