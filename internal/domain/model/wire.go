package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IDKey is the wire name of the id field ("CustomerID", "MerchantID").
func (k Kind) IDKey() string { return title(k) + "ID" }

// NameKey is the wire name of the display name field.
func (k Kind) NameKey() string { return title(k) + "Name" }

func title(k Kind) string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Text is an identifier or label decoded from either a JSON string or number.
type Text string

// UnmarshalJSON keeps strings as-is and numbers in their literal form.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	*t = Text(b)
	return nil
}

type customerWire struct {
	CustomerID   Text    `json:"CustomerID"`
	CustomerName Text    `json:"CustomerName"`
	TrustScore   Numeric `json:"TrustScore"`
	LoyaltyTier  *string `json:"LoyaltyTier"`
	CreatedDate  string  `json:"CreatedDate,omitempty"`
	Active       *Flag   `json:"Active,omitempty"`

	// Aliases used by other producers; decode only.
	CreatedAt string  `json:"createdAt,omitempty"`
	IsActive  *Flag   `json:"IsActive,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// created prefers createdAt over CreatedDate.
func (w customerWire) created() string {
	if w.CreatedAt != "" {
		return w.CreatedAt
	}
	return w.CreatedDate
}

// active resolves the activity flag. Active wins; otherwise IsActive or a
// status of "active" marks the customer active. Nil means not reported.
func (w customerWire) active() *bool {
	if w.Active != nil {
		return BoolPtr(bool(*w.Active))
	}
	if w.IsActive == nil && w.Status == nil {
		return nil
	}
	on := w.IsActive != nil && bool(*w.IsActive)
	if w.Status != nil && strings.EqualFold(strings.TrimSpace(*w.Status), "active") {
		on = true
	}
	return BoolPtr(on)
}

type merchantWire struct {
	MerchantID      Text    `json:"MerchantID"`
	MerchantName    Text    `json:"MerchantName"`
	ExclusivityFlag Flag    `json:"ExclusivityFlag"`
	TenureMonths    Numeric `json:"TenureMonths"`
	TrustScore      Numeric `json:"TrustScore"`
	LoyaltyTier     *string `json:"LoyaltyTier"`
}

// MarshalJSON writes the entity in its kind's wire shape.
func (e Entity) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case KindCustomer:
		w := customerWire{
			CustomerID:   Text(e.ID),
			CustomerName: Text(e.Name),
			TrustScore:   e.TrustScore,
			LoyaltyTier:  e.LoyaltyTier,
			CreatedDate:  e.CreatedAt,
		}
		if e.Active != nil {
			f := Flag(*e.Active)
			w.Active = &f
		}
		return json.Marshal(w)
	case KindMerchant:
		return json.Marshal(merchantWire{
			MerchantID:      Text(e.ID),
			MerchantName:    Text(e.Name),
			ExclusivityFlag: e.Exclusive,
			TenureMonths:    e.TenureMonths,
			TrustScore:      e.TrustScore,
			LoyaltyTier:     e.LoyaltyTier,
		})
	}
	return nil, fmt.Errorf("marshal entity: unknown kind %q", e.Kind)
}

// DecodeEntities decodes a JSON array of wire records of the given kind.
// Field values of the wrong type degrade per field; only a payload that is
// not an array of objects is an error.
func DecodeEntities(kind Kind, data []byte) ([]Entity, error) {
	switch kind {
	case KindCustomer:
		var ws []customerWire
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("decode customers: %w", err)
		}
		out := make([]Entity, 0, len(ws))
		for _, w := range ws {
			e := Entity{
				Kind:        KindCustomer,
				ID:          string(w.CustomerID),
				Name:        string(w.CustomerName),
				TrustScore:  w.TrustScore,
				LoyaltyTier: w.LoyaltyTier,
				CreatedAt:   w.created(),
				Active:      w.active(),
			}
			out = append(out, e)
		}
		return out, nil
	case KindMerchant:
		var ws []merchantWire
		if err := json.Unmarshal(data, &ws); err != nil {
			return nil, fmt.Errorf("decode merchants: %w", err)
		}
		out := make([]Entity, 0, len(ws))
		for _, w := range ws {
			out = append(out, Entity{
				Kind:         KindMerchant,
				ID:           string(w.MerchantID),
				Name:         string(w.MerchantName),
				TrustScore:   w.TrustScore,
				LoyaltyTier:  w.LoyaltyTier,
				Exclusive:    w.ExclusivityFlag,
				TenureMonths: w.TenureMonths,
			})
		}
		return out, nil
	}
	return nil, fmt.Errorf("decode entities: unknown kind %q", kind)
}

// Detail is the full per-entity record, including the AI insight content.
// Summary and Recommendations are kept raw: their shape is decided by the
// insight producer and normalized later.
type Detail struct {
	Kind            Kind
	ID              string
	Name            string
	TrustScore      Numeric
	LoyaltyTier     string
	Fields          map[string]float64
	Summary         json.RawMessage
	Recommendations json.RawMessage
}

// MarshalJSON writes the detail as one flat object keyed by wire names.
func (d Detail) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(d.Fields)+6)
	for k, v := range d.Fields {
		m[k] = v
	}
	m[d.Kind.IDKey()] = d.ID
	m[d.Kind.NameKey()] = d.Name
	m["TrustScore"] = d.TrustScore
	m["LoyaltyTier"] = d.LoyaltyTier
	if len(d.Summary) > 0 {
		m["Summary"] = d.Summary
	}
	if len(d.Recommendations) > 0 {
		m["Recommendations"] = d.Recommendations
	}
	return json.Marshal(m)
}

// DecodeDetail decodes a flat detail object of the given kind. Numeric
// members other than the trust score are collected into Fields.
func DecodeDetail(kind Kind, data []byte) (Detail, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Detail{}, fmt.Errorf("decode %s detail: %w", kind, err)
	}

	d := Detail{Kind: kind, Fields: make(map[string]float64)}
	for key, val := range raw {
		switch key {
		case kind.IDKey():
			var t Text
			_ = json.Unmarshal(val, &t)
			d.ID = string(t)
		case kind.NameKey():
			var t Text
			_ = json.Unmarshal(val, &t)
			d.Name = string(t)
		case "TrustScore":
			_ = json.Unmarshal(val, &d.TrustScore)
		case "LoyaltyTier":
			var t Text
			_ = json.Unmarshal(val, &t)
			d.LoyaltyTier = string(t)
		case "Summary":
			d.Summary = val
		case "Recommendations":
			d.Recommendations = val
		default:
			var n Numeric
			_ = json.Unmarshal(val, &n)
			if n.Valid() {
				d.Fields[key] = n.Float()
			}
		}
	}
	return d, nil
}
