package model

import "strings"

// Order is the trust-score sort direction of a listing.
type Order string

// Supported sort orders.
const (
	OrderDesc Order = "desc"
	OrderAsc  Order = "asc"
)

// ParseOrder maps a query value to an Order. Empty means descending.
func ParseOrder(s string) (Order, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(OrderDesc):
		return OrderDesc, true
	case string(OrderAsc):
		return OrderAsc, true
	}
	return "", false
}
