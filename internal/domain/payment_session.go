package domain

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator"
)

const (
	GenerationTimeLayout = "2006-01-02T15:04:05Z"

	keyOneClickPaymentMethods = "oneClickPaymentMethods"
	logoHostMarker            = "checkoutshopper"
)

var validate = validator.New()

type Payment struct {
	Amount           Amount `json:"amount"`
	CountryCode      string `json:"countryCode,omitempty"`
	Reference        string `json:"reference,omitempty"`
	ReturnURL        string `json:"returnUrl,omitempty"`
	ShopperLocale    string `json:"shopperLocale,omitempty"`
	ShopperReference string `json:"shopperReference,omitempty"`
	SessionValidity  string `json:"sessionValidity,omitempty"`
}

// PaymentSession is an immutable snapshot of what the backend allows for one
// checkout. Updates produce a new session.
type PaymentSession struct {
	GenerationTime            time.Time
	CheckoutShopperBaseURL    string
	InitiationURL             string
	DisableRecurringDetailURL string
	PaymentData               string
	Payment                   Payment
	Environment               string
	PublicKey                 string
	PaymentMethods            []PaymentMethod
	OneClickPaymentMethods    []PaymentMethod

	raw map[string]json.RawMessage
}

type paymentSessionWire struct {
	GenerationTime            string          `json:"generationtime" validate:"required"`
	CheckoutShopperBaseURL    string          `json:"checkoutshopperBaseUrl" validate:"required"`
	InitiationURL             string          `json:"initiationUrl" validate:"required"`
	DisableRecurringDetailURL string          `json:"disableRecurringDetailUrl" validate:"required"`
	PaymentData               string          `json:"paymentData" validate:"required"`
	Payment                   Payment         `json:"payment"`
	Environment               string          `json:"environment"`
	PublicKey                 string          `json:"publicKey"`
	PaymentMethods            []PaymentMethod `json:"paymentMethods" validate:"required"`
	OneClickPaymentMethods    []PaymentMethod `json:"oneClickPaymentMethods"`
}

// DecodePaymentSession accepts either {"paymentSession": "<base64>"} or the
// bare Base64 string. Failure is a fatal configuration error.
func DecodePaymentSession(encoded string) (*PaymentSession, error) {
	var wrapper struct {
		PaymentSession string `json:"paymentSession"`
	}
	if err := json.Unmarshal([]byte(encoded), &wrapper); err == nil && wrapper.PaymentSession != "" {
		if session, err := decodeBase64Session(wrapper.PaymentSession); err == nil {
			return session, nil
		}
	}

	session, err := decodeBase64Session(encoded)
	if err != nil {
		return nil, NewSessionDecodeError(err)
	}
	return session, nil
}

// EncodePaymentSession returns the Base64 form accepted by DecodePaymentSession.
func EncodePaymentSession(s *PaymentSession) (string, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ParsePaymentSession parses the plain JSON form of a session.
func ParsePaymentSession(data []byte) (*PaymentSession, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse payment session: %w", err)
	}

	var wire paymentSessionWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parse payment session: %w", err)
	}
	if err := validate.Struct(wire); err != nil {
		return nil, fmt.Errorf("invalid payment session: %w", err)
	}

	generated, err := time.Parse(GenerationTimeLayout, wire.GenerationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid generation time %q: %w", wire.GenerationTime, err)
	}

	compacted := make(map[string]json.RawMessage, len(raw))
	for key, value := range raw {
		c, err := compact(value)
		if err != nil {
			return nil, fmt.Errorf("parse payment session member %s: %w", key, err)
		}
		compacted[key] = c
	}

	return &PaymentSession{
		GenerationTime:            generated.UTC(),
		CheckoutShopperBaseURL:    wire.CheckoutShopperBaseURL,
		InitiationURL:             wire.InitiationURL,
		DisableRecurringDetailURL: wire.DisableRecurringDetailURL,
		PaymentData:               wire.PaymentData,
		Payment:                   wire.Payment,
		Environment:               wire.Environment,
		PublicKey:                 wire.PublicKey,
		PaymentMethods:            wire.PaymentMethods,
		OneClickPaymentMethods:    wire.OneClickPaymentMethods,
		raw:                       compacted,
	}, nil
}

func (s *PaymentSession) MarshalJSON() ([]byte, error) {
	if s.raw == nil {
		return nil, errors.New("payment session was not decoded from backend data")
	}
	return json.Marshal(s.raw)
}

// CopyByRemovingOneClickPaymentMethod returns a new session without m in the
// one-click list. Every other member, known or not, is carried over as is.
func (s *PaymentSession) CopyByRemovingOneClickPaymentMethod(m PaymentMethod) (*PaymentSession, error) {
	target, err := m.Raw()
	if err != nil {
		return nil, err
	}

	raw := make(map[string]json.RawMessage, len(s.raw))
	for key, value := range s.raw {
		if key != keyOneClickPaymentMethods {
			raw[key] = value
			continue
		}

		var methods []json.RawMessage
		if err := json.Unmarshal(value, &methods); err != nil {
			return nil, fmt.Errorf("parse one click payment methods: %w", err)
		}
		kept := make([]json.RawMessage, 0, len(methods))
		for _, method := range methods {
			if !rawEqual(method, target) {
				kept = append(kept, method)
			}
		}
		filtered, err := json.Marshal(kept)
		if err != nil {
			return nil, err
		}
		raw[key] = filtered
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return ParsePaymentSession(data)
}

// FindOneClickPaymentMethod returns the index of m among the one-click
// methods, or -1.
func (s *PaymentSession) FindOneClickPaymentMethod(m PaymentMethod) int {
	for i, candidate := range s.OneClickPaymentMethods {
		if candidate.Equal(m) {
			return i
		}
	}
	return -1
}

// LogoBaseURL is the host part of the checkoutshopper URL that payment method
// logos are served from.
func (s *PaymentSession) LogoBaseURL() string {
	idx := strings.LastIndex(s.CheckoutShopperBaseURL, logoHostMarker)
	if idx < 0 {
		return s.CheckoutShopperBaseURL
	}
	return s.CheckoutShopperBaseURL[:idx]
}

func decodeBase64Session(encoded string) (*PaymentSession, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, encoded)
	cleaned = strings.TrimRight(cleaned, "=")

	data, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("decode base64 payment session: %w", err)
		}
	}
	return ParsePaymentSession(data)
}

func compact(value json.RawMessage) (json.RawMessage, error) {
	var out bytes.Buffer
	if err := json.Compact(&out, value); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
