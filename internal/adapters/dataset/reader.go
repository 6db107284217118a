package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names of payments.csv.
var paymentColumns = []string{
	"PaymentID", "CustomerID", "CustomerName", "MerchantID", "MerchantName",
	"PaymentDate", "PaymentAmount", "PaymentStatus", "DisputeFlag", "DefaultFlag",
}

// Column names of merchants_loyalty.csv.
var merchantColumns = []string{
	"MerchantID", "MerchantName", "RepaymentRate", "DisputeRate", "DefaultRate",
	"TransactionVolume", "TenureMonths", "EngagementScore", "ComplianceScore",
	"ResponsivenessScore", "ExclusivityFlag",
}

// table maps header names to column positions and reads rows by name.
type table struct {
	reader *csv.Reader
	cols   map[string]int
}

func openTable(r io.Reader, required []string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyHeader
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrRead, err)
	}

	cols := make(map[string]int, len(headers))
	for i, h := range headers {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return &table{reader: reader, cols: cols}, nil
}

// next returns the next row, or io.EOF. Rows the CSV reader cannot split are
// reported as ErrMalformedRow so callers can skip them.
func (t *table) next() (row, error) {
	rec, err := t.reader.Read()
	if errors.Is(err, io.EOF) {
		return row{}, io.EOF
	}
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return row{}, ErrMalformedRow
	}
	if err != nil {
		return row{}, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return row{rec: rec, cols: t.cols}, nil
}


type row struct {
	rec  []string
	cols map[string]int
	bad  bool
}

func (r *row) str(name string) string {
	i := r.cols[name]
	if i >= len(r.rec) {
		r.bad = true
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r *row) float(name string) float64 {
	s := r.str(name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.bad = true
		return 0
	}
	return v
}

// flag accepts 1/0, true/false and any number (non-zero is true).
func (r *row) flag(name string) bool {
	s := r.str(name)
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		r.bad = true
		return false
	}
	return v != 0
}

// ReadPayments parses payments.csv. It returns the parsed payments and the
// number of malformed rows skipped.
func ReadPayments(r io.Reader) ([]Payment, int, error) {
	t, err := openTable(r, paymentColumns)
	if err != nil {
		return nil, 0, err
	}

	var out []Payment
	skipped := 0
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrMalformedRow) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, err
		}

		p := Payment{
			PaymentID:    rw.str("PaymentID"),
			CustomerID:   rw.str("CustomerID"),
			CustomerName: rw.str("CustomerName"),
			MerchantID:   rw.str("MerchantID"),
			MerchantName: rw.str("MerchantName"),
			PaymentDate:  rw.str("PaymentDate"),
			Amount:       rw.float("PaymentAmount"),
			Status:       strings.ToUpper(rw.str("PaymentStatus")),
			Disputed:     rw.flag("DisputeFlag"),
			Defaulted:    rw.flag("DefaultFlag"),
		}
		if rw.bad || p.CustomerID == "" {
			skipped++
			continue
		}
		out = append(out, p)
	}
	return out, skipped, nil
}

// ReadMerchants parses merchants_loyalty.csv. Numeric columns are rounded to
// two decimals.
func ReadMerchants(r io.Reader) ([]Merchant, int, error) {
	t, err := openTable(r, merchantColumns)
	if err != nil {
		return nil, 0, err
	}

	var out []Merchant
	skipped := 0
	for {
		rw, err := t.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrMalformedRow) {
			skipped++
			continue
		}
		if err != nil {
			return nil, skipped, err
		}

		m := Merchant{
			ID:                  rw.str("MerchantID"),
			Name:                rw.str("MerchantName"),
			RepaymentRate:       round2(rw.float("RepaymentRate")),
			DisputeRate:         round2(rw.float("DisputeRate")),
			DefaultRate:         round2(rw.float("DefaultRate")),
			TransactionVolume:   round2(rw.float("TransactionVolume")),
			TenureMonths:        int(rw.float("TenureMonths")),
			EngagementScore:     round2(rw.float("EngagementScore")),
			ComplianceScore:     round2(rw.float("ComplianceScore")),
			ResponsivenessScore: round2(rw.float("ResponsivenessScore")),
			Exclusive:           rw.flag("ExclusivityFlag"),
		}
		if rw.bad || m.ID == "" {
			skipped++
			continue
		}
		out = append(out, m)
	}
	return out, skipped, nil
}
