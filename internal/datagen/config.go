package datagen

import (
	"fmt"
	"time"
)

// Default generation constants.
const (
	DefaultSeed             = 42
	DefaultPayments         = 1000
	DefaultCustomers        = 50
	DefaultPaymentMerchants = 20
	DefaultMerchants        = 100
	DefaultYear             = 2024

	PaymentsFile  = "payments.csv"
	MerchantsFile = "merchants_loyalty.csv"
)

// Config holds configuration for one generation run.
type Config struct {
	OutDir string // Directory the CSV files are written to
	Seed   uint64 // Seed of the random source; equal seeds give equal files

	Payments         int // Number of payment rows
	Customers        int // Distinct customers referenced by payments
	PaymentMerchants int // Distinct merchants referenced by payments
	Year             int // Calendar year payment dates fall in

	Merchants int // Number of merchant loyalty rows
}

// DefaultConfig returns the configuration of the reference dataset.
func DefaultConfig() Config {
	return Config{
		OutDir:           ".",
		Seed:             DefaultSeed,
		Payments:         DefaultPayments,
		Customers:        DefaultCustomers,
		PaymentMerchants: DefaultPaymentMerchants,
		Year:             DefaultYear,
		Merchants:        DefaultMerchants,
	}
}

// Validate checks counts and the year.
func (c Config) Validate() error {
	switch {
	case c.Payments < 0 || c.Merchants < 0:
		return fmt.Errorf("%w: row counts must not be negative", ErrInvalidConfig)
	case c.Payments > 0 && (c.Customers < 1 || c.PaymentMerchants < 1):
		return fmt.Errorf("%w: payments need at least one customer and one merchant", ErrInvalidConfig)
	case c.Year < 1 || c.Year > 9999:
		return fmt.Errorf("%w: year %d out of range", ErrInvalidConfig, c.Year)
	}
	return nil
}

func (c Config) yearBounds() (time.Time, int) {
	start := time.Date(c.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(start.AddDate(1, 0, 0).Sub(start).Hours() / 24)
	return start, days
}
