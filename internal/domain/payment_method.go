package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyIssuerSearchURL is the configuration entry holding the issuer lookup
// endpoint of a payment method.
const KeyIssuerSearchURL = "issuerSearchUrl"

type InputDetailItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InputDetail describes one field the backend expects in a details request.
type InputDetail struct {
	Key           string            `json:"key"`
	Type          string            `json:"type"`
	Optional      bool              `json:"optional,omitempty"`
	Value         string            `json:"value,omitempty"`
	Items         []InputDetailItem `json:"items,omitempty"`
	Configuration json.RawMessage   `json:"configuration,omitempty"`
}

type StoredCard struct {
	ExpiryMonth string `json:"expiryMonth,omitempty"`
	ExpiryYear  string `json:"expiryYear,omitempty"`
	HolderName  string `json:"holderName,omitempty"`
	Number      string `json:"number,omitempty"`
}

type StoredDetails struct {
	Card         *StoredCard `json:"card,omitempty"`
	EmailAddress string      `json:"emailAddress,omitempty"`
}

// PaymentMethod keeps the exact JSON it was decoded from, so it can be sent
// back to the backend and compared without losing unknown members.
type PaymentMethod struct {
	Type              string          `json:"type"`
	Name              string          `json:"name,omitempty"`
	InputDetails      []InputDetail   `json:"details,omitempty"`
	Configuration     json.RawMessage `json:"configuration,omitempty"`
	Group             *PaymentMethod  `json:"group,omitempty"`
	StoredDetails     *StoredDetails  `json:"storedDetails,omitempty"`
	PaymentMethodData string          `json:"paymentMethodData,omitempty"`

	raw json.RawMessage
}

type paymentMethodAlias PaymentMethod

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var compacted bytes.Buffer
	if err := json.Compact(&compacted, data); err != nil {
		return err
	}

	var alias paymentMethodAlias
	if err := json.Unmarshal(compacted.Bytes(), &alias); err != nil {
		return err
	}
	if alias.Type == "" {
		return fmt.Errorf("payment method: type is required")
	}

	*m = PaymentMethod(alias)
	m.raw = compacted.Bytes()
	return nil
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	if m.raw != nil {
		return m.raw, nil
	}
	return json.Marshal(paymentMethodAlias(m))
}

// Raw returns the compacted serialized form.
func (m PaymentMethod) Raw() (json.RawMessage, error) {
	return m.MarshalJSON()
}

// IsType reports whether the method or any group it belongs to has type t.
func (m *PaymentMethod) IsType(t string) bool {
	for current := m; current != nil; current = current.Group {
		if current.Type == t {
			return true
		}
	}
	return false
}

// Equal compares payment methods by their serialized form.
func (m PaymentMethod) Equal(other PaymentMethod) bool {
	a, err := m.Raw()
	if err != nil {
		return false
	}
	b, err := other.Raw()
	if err != nil {
		return false
	}
	return rawEqual(a, b)
}

// ConfigurationValue returns the string value of key in the method
// configuration, or "" when absent.
func (m *PaymentMethod) ConfigurationValue(key string) string {
	if len(m.Configuration) == 0 {
		return ""
	}
	var values map[string]json.RawMessage
	if err := json.Unmarshal(m.Configuration, &values); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(values[key], &s); err != nil {
		return ""
	}
	return s
}

func (m *PaymentMethod) IssuerSearchURL() string {
	return m.ConfigurationValue(KeyIssuerSearchURL)
}

func rawEqual(a, b []byte) bool {
	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return false
	}
	if err := json.Compact(&cb, b); err != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
