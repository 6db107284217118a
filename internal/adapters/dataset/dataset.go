// Package dataset reads the payments and merchant-loyalty CSV datasets and
// aggregates per-customer payment behaviour.
package dataset

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Payment statuses.
const (
	StatusPaid   = "PAID"
	StatusFailed = "FAILED"
)

// Payment is one row of payments.csv.
type Payment struct {
	PaymentID    string
	CustomerID   string
	CustomerName string
	MerchantID   string
	MerchantName string
	PaymentDate  string
	Amount       float64
	Status       string
	Disputed     bool
	Defaulted    bool
}

// Paid reports whether the payment was collected.
func (p Payment) Paid() bool { return strings.EqualFold(p.Status, StatusPaid) }

// Customer is the payment behaviour of one customer, aggregated from payments.
type Customer struct {
	ID                string
	Name              string
	RepaymentRate     float64
	DisputeCount      int
	DefaultRate       float64
	TransactionVolume int64
	Payments          int
	// FirstPayment is the earliest payment date, used as the creation date.
	FirstPayment string
	// Active is true when at least one payment was collected.
	Active bool
}

// Merchant is one row of merchants_loyalty.csv. Rates and scores are 0..1,
// rounded to two decimals.
type Merchant struct {
	ID                  string
	Name                string
	RepaymentRate       float64
	DisputeRate         float64
	DefaultRate         float64
	TransactionVolume   float64
	TenureMonths        int
	EngagementScore     float64
	ComplianceScore     float64
	ResponsivenessScore float64
	Exclusive           bool
}

// Dataset is one consistent load of both files.
type Dataset struct {
	Customers []Customer
	Merchants []Merchant
	Payments  int

	// Skipped counts malformed rows per file name.
	Skipped map[string]int

	// Missing lists dataset files that did not exist.
	Missing []string
}

type customerAcc struct {
	c      Customer
	paid   int
	failed int
	volume decimal.Decimal
}

// AggregateCustomers folds payments into customers, in order of first
// appearance.
func AggregateCustomers(payments []Payment) []Customer {
	index := make(map[string]int)
	accs := make([]*customerAcc, 0)

	for _, p := range payments {
		i, ok := index[p.CustomerID]
		if !ok {
			i = len(accs)
			index[p.CustomerID] = i
			accs = append(accs, &customerAcc{c: Customer{ID: p.CustomerID, Name: p.CustomerName}})
		}
		a := accs[i]
		a.c.Payments++
		if p.Paid() {
			a.paid++
		}
		if p.Defaulted {
			a.failed++
		}
		if p.Disputed {
			a.c.DisputeCount++
		}
		a.volume = a.volume.Add(decimal.NewFromFloat(p.Amount))
		if p.PaymentDate != "" && (a.c.FirstPayment == "" || p.PaymentDate < a.c.FirstPayment) {
			a.c.FirstPayment = p.PaymentDate
		}
	}

	out := make([]Customer, len(accs))
	for i, a := range accs {
		n := float64(a.c.Payments)
		a.c.RepaymentRate = round2(float64(a.paid) / n)
		a.c.DefaultRate = round2(float64(a.failed) / n)
		a.c.TransactionVolume = a.volume.Round(0).IntPart()
		a.c.Active = a.paid > 0
		out[i] = a.c
	}
	return out
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
