// Package datagen generates reproducible synthetic payments and merchant
// loyalty datasets in the CSV layouts the dataset loader reads.
package datagen

import (
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"

	"github.com/okian/snaptrust/internal/adapters/dataset"
)

// Value ranges of generated rows.
const (
	minAmount = 50.0
	maxAmount = 500.0

	paidProbability    = 0.9
	disputeProbability = 0.05

	minRepayment      = 0.7
	maxRepayment      = 0.98
	minDispute        = 0.01
	maxDispute        = 0.15
	minDefault        = 0.01
	maxDefault        = 0.22
	minVolume         = 2000
	maxVolume         = 10000
	minTenure         = 1
	maxTenure         = 36
	minEngagement     = 0.3
	maxEngagement     = 1.0
	minCompliance     = 0.6
	maxCompliance     = 1.0
	minResponsiveness = 0.4
	maxResponsiveness = 1.0

	exclusiveProbability = 0.5
	places               = 2
)

var (
	firstNames = []string{
		"Amara", "Ben", "Chloe", "Dev", "Elena", "Farid", "Grace", "Hugo", "Ines", "Jonas",
		"Kira", "Liam", "Maya", "Noah", "Olga", "Priya", "Quinn", "Rosa", "Sami", "Tara",
	}
	lastNames = []string{
		"Adler", "Brooks", "Costa", "Diaz", "Evans", "Fischer", "Garcia", "Hansen", "Ito", "Jensen",
		"Khan", "Lopez", "Meyer", "Nowak", "Okafor", "Patel", "Rossi", "Silva", "Tanaka", "Weber",
	}
	companyWords = []string{
		"Apex", "Blue", "Cedar", "Delta", "Ember", "Fern", "Granite", "Harbor", "Iris", "Juniper",
		"Kestrel", "Lumen", "Maple", "Nova", "Orbit", "Pine", "Quartz", "River", "Summit", "Tidal",
	}
	companySuffixes = []string{"Traders", "Goods", "Market", "Supply", "Outfitters", "Co", "Group", "Labs"}
)

// Generator produces dataset rows from a seeded source. It is not safe for
// concurrent use.
type Generator struct {
	cfg Config
	rnd *rand.Rand
}

// NewGenerator creates a generator seeded from cfg.Seed.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rnd: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}
}

type party struct{ id, name string }

// Payments generates payment rows. A payment defaults exactly when it failed.
func (g *Generator) Payments() []dataset.Payment {
	if g.cfg.Payments == 0 {
		return []dataset.Payment{}
	}
	customers := make([]party, g.cfg.Customers)
	for i := range customers {
		customers[i] = party{id: fmt.Sprintf("C%03d", i+1), name: g.personName()}
	}
	merchants := make([]party, g.cfg.PaymentMerchants)
	for i := range merchants {
		merchants[i] = party{id: fmt.Sprintf("M%03d", i+1), name: g.companyName()}
	}
	start, days := g.cfg.yearBounds()

	out := make([]dataset.Payment, g.cfg.Payments)
	for i := range out {
		c := customers[g.rnd.IntN(len(customers))]
		m := merchants[g.rnd.IntN(len(merchants))]
		status := dataset.StatusPaid
		if g.rnd.Float64() >= paidProbability {
			status = dataset.StatusFailed
		}
		out[i] = dataset.Payment{
			PaymentID:    fmt.Sprintf("P%04d", i+1),
			CustomerID:   c.id,
			CustomerName: c.name,
			MerchantID:   m.id,
			MerchantName: m.name,
			PaymentDate:  start.AddDate(0, 0, g.rnd.IntN(days)).Format("2006-01-02"),
			Amount:       g.uniform(minAmount, maxAmount),
			Status:       status,
			Disputed:     g.rnd.Float64() < disputeProbability,
			Defaulted:    status == dataset.StatusFailed,
		}
	}
	return out
}

// Merchants generates merchant loyalty rows named "Merchant A1", "Merchant B2", ...
func (g *Generator) Merchants() []dataset.Merchant {
	out := make([]dataset.Merchant, g.cfg.Merchants)
	for i := range out {
		out[i] = dataset.Merchant{
			ID:                  fmt.Sprintf("M%03d", i+1),
			Name:                fmt.Sprintf("Merchant %c%d", 'A'+rune(i%26), i+1),
			RepaymentRate:       g.uniform(minRepayment, maxRepayment),
			DisputeRate:         g.uniform(minDispute, maxDispute),
			DefaultRate:         g.uniform(minDefault, maxDefault),
			TransactionVolume:   float64(minVolume + g.rnd.IntN(maxVolume-minVolume)),
			TenureMonths:        minTenure + g.rnd.IntN(maxTenure-minTenure),
			EngagementScore:     g.uniform(minEngagement, maxEngagement),
			ComplianceScore:     g.uniform(minCompliance, maxCompliance),
			ResponsivenessScore: g.uniform(minResponsiveness, maxResponsiveness),
			Exclusive:           g.rnd.Float64() < exclusiveProbability,
		}
	}
	return out
}

// uniform draws from [lo, hi) rounded to two decimals.
func (g *Generator) uniform(lo, hi float64) float64 {
	v := lo + g.rnd.Float64()*(hi-lo)
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func (g *Generator) personName() string {
	return firstNames[g.rnd.IntN(len(firstNames))] + " " + lastNames[g.rnd.IntN(len(lastNames))]
}

func (g *Generator) companyName() string {
	return companyWords[g.rnd.IntN(len(companyWords))] + " " + companySuffixes[g.rnd.IntN(len(companySuffixes))]
}
