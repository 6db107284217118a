package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// WritePayments writes payments in the payments.csv layout.
func WritePayments(w io.Writer, payments []Payment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(paymentColumns); err != nil {
		return fmt.Errorf("write payments header: %w", err)
	}
	for _, p := range payments {
		rec := []string{
			p.PaymentID, p.CustomerID, p.CustomerName, p.MerchantID, p.MerchantName,
			p.PaymentDate, formatFloat(p.Amount), p.Status, flagText(p.Disputed), flagText(p.Defaulted),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write payment %s: %w", p.PaymentID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush payments: %w", err)
	}
	return nil
}

// WriteMerchants writes merchants in the merchants_loyalty.csv layout.
func WriteMerchants(w io.Writer, merchants []Merchant) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(merchantColumns); err != nil {
		return fmt.Errorf("write merchants header: %w", err)
	}
	for _, m := range merchants {
		rec := []string{
			m.ID, m.Name,
			formatFloat(m.RepaymentRate), formatFloat(m.DisputeRate), formatFloat(m.DefaultRate),
			formatFloat(m.TransactionVolume), strconv.Itoa(m.TenureMonths),
			formatFloat(m.EngagementScore), formatFloat(m.ComplianceScore), formatFloat(m.ResponsivenessScore),
			flagText(m.Exclusive),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write merchant %s: %w", m.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush merchants: %w", err)
	}
	return nil
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func flagText(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
