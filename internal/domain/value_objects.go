package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentReference is the serializable handle a host keeps to find its
// payment handler again, including after a process restart.
type PaymentReference struct {
	uuid uuid.UUID
}

func NewPaymentReference(id uuid.UUID) PaymentReference {
	return PaymentReference{uuid: id}
}

func ParsePaymentReference(s string) (PaymentReference, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return PaymentReference{}, fmt.Errorf("invalid payment reference %q: %w", s, err)
	}
	return PaymentReference{uuid: id}, nil
}

func (r PaymentReference) UUID() uuid.UUID {
	return r.uuid
}

func (r PaymentReference) String() string {
	return r.uuid.String()
}

func (r PaymentReference) IsZero() bool {
	return r.uuid == uuid.Nil
}

func (r PaymentReference) MarshalText() ([]byte, error) {
	return []byte(r.uuid.String()), nil
}

func (r *PaymentReference) UnmarshalText(text []byte) error {
	parsed, err := ParsePaymentReference(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Amount is a value in minor units of Currency.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency" validate:"required"`
}

func NewAmount(value int64, currency string) (Amount, error) {
	if value < 0 {
		return Amount{}, errors.New("amount cannot be negative")
	}
	if currency == "" {
		return Amount{}, errors.New("currency is required")
	}
	return Amount{Value: value, Currency: strings.ToUpper(currency)}, nil
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(a.Value, -currencyExponent(a.Currency))
}

func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.Decimal().StringFixed(currencyExponent(a.Currency)), strings.ToUpper(a.Currency))
}

func currencyExponent(currency string) int32 {
	switch strings.ToUpper(currency) {
	case "BIF", "CLP", "DJF", "GNF", "ISK", "JPY", "KMF", "KRW", "PYG", "RWF", "UGX", "VND", "VUV", "XAF", "XOF", "XPF":
		return 0
	case "BHD", "IQD", "JOD", "KWD", "LYD", "OMR", "TND":
		return 3
	default:
		return 2
	}
}
