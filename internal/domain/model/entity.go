// Package model contains domain models passed between layers.
package model

// Kind identifies one of the two entity populations.
type Kind string

// Supported entity populations.
const (
	KindCustomer Kind = "customer"
	KindMerchant Kind = "merchant"
)

// Kinds lists every supported population in display order.
var Kinds = []Kind{KindCustomer, KindMerchant}

// ParseKind maps a route or config token ("customers", "merchant", ...) to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "customer", "customers":
		return KindCustomer, true
	case "merchant", "merchants":
		return KindMerchant, true
	}
	return "", false
}

// Plural returns the collection name used in routes and file names.
func (k Kind) Plural() string { return string(k) + "s" }

// Entity is one customer or merchant record as received from an entity source.
// Entities are immutable snapshots; nothing in the aggregation layer mutates them.
type Entity struct {
	Kind Kind
	ID   string
	Name string

	// TrustScore may carry a non-numeric payload; it then reads as zero.
	TrustScore Numeric

	// LoyaltyTier is nil when the source did not report a tier.
	LoyaltyTier *string

	// Exclusive is the merchant exclusivity flag.
	Exclusive Flag

	// CreatedAt is the raw creation date text (customers). It may be empty or unparseable.
	CreatedAt string

	// TenureMonths is the merchant tenure (merchants).
	TenureMonths Numeric

	// Active is nil when the source reports no status.
	Active *bool
}

// Tier returns the loyalty tier and whether one was reported.
func (e Entity) Tier() (string, bool) {
	if e.LoyaltyTier == nil {
		return "", false
	}
	return *e.LoyaltyTier, true
}

// StringPtr is a small helper for optional string fields.
func StringPtr(s string) *string { return &s }

// BoolPtr is a small helper for optional bool fields.
func BoolPtr(b bool) *bool { return &b }
