package domain

import (
	"encoding/json"
	"fmt"
	"maps"
)

const KeyPaymentMethodReturnData = "paymentMethodReturnData"

// PaymentInitiation is the body posted to the session's initiation URL.
type PaymentInitiation struct {
	PaymentData       string               `json:"paymentData" validate:"required"`
	PaymentMethodData string               `json:"paymentMethodData" validate:"required"`
	PaymentDetails    PaymentMethodDetails `json:"paymentDetails,omitempty"`
}

func NewPaymentInitiation(session *PaymentSession, method PaymentMethod, details PaymentMethodDetails) (*PaymentInitiation, error) {
	req := &PaymentInitiation{
		PaymentData:       session.PaymentData,
		PaymentMethodData: method.PaymentMethodData,
		PaymentDetails:    details,
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid payment initiation: %w", err)
	}
	return req, nil
}

// PaymentMethodDetails is the shopper input sent along with a payment method.
// The set of implementations is closed.
type PaymentMethodDetails interface {
	paymentMethodDetails()
}

// Finalizer is implemented by details that must be completed with data from
// the pending details context before they are submitted.
type Finalizer interface {
	Finalize(ctx AdditionalDetails) error
}

// FinalizeDetails completes a copy of details against the pending step and
// returns it. Value and pointer forms of the finalizable types are treated
// alike; other details are returned unchanged.
func FinalizeDetails(details PaymentMethodDetails, ctx AdditionalDetails) (PaymentMethodDetails, error) {
	var finalizer interface {
		Finalizer
		PaymentMethodDetails
	}
	switch d := details.(type) {
	case AdditionalPaymentMethodDetails:
		finalizer = &d
	case *AdditionalPaymentMethodDetails:
		c := *d
		finalizer = &c
	case ThreeDS2FingerprintDetails:
		finalizer = &d
	case *ThreeDS2FingerprintDetails:
		c := *d
		finalizer = &c
	case ThreeDS2ChallengeDetails:
		finalizer = &d
	case *ThreeDS2ChallengeDetails:
		c := *d
		finalizer = &c
	default:
		return details, nil
	}

	if err := finalizer.Finalize(ctx); err != nil {
		return nil, err
	}
	return finalizer, nil
}

// CardDetails carries card data that was encrypted by the card collaborator.
type CardDetails struct {
	EncryptedCardNumber   string `json:"encryptedCardNumber,omitempty"`
	EncryptedExpiryMonth  string `json:"encryptedExpiryMonth,omitempty"`
	EncryptedExpiryYear   string `json:"encryptedExpiryYear,omitempty"`
	EncryptedSecurityCode string `json:"encryptedSecurityCode,omitempty"`
	HolderName            string `json:"holderName,omitempty"`
	TelephoneNumber       string `json:"telephoneNumber,omitempty"`
	StoreDetails          *bool  `json:"storeDetails,omitempty"`
	Installments          *int   `json:"installments,omitempty"`
}

func (CardDetails) paymentMethodDetails() {}

type IssuerDetails struct {
	Issuer string `json:"issuer"`
}

func (IssuerDetails) paymentMethodDetails() {}

// AppResponseDetails returns the raw query of a redirect back to the backend.
type AppResponseDetails struct {
	ReturnURLQueryString string `json:"returnUrlQueryString"`
}

func (AppResponseDetails) paymentMethodDetails() {}

// GenericDetails is a free-form key/value set for methods without a
// dedicated type.
type GenericDetails map[string]string

func (GenericDetails) paymentMethodDetails() {}

// AdditionalPaymentMethodDetails answers the responseDetails of a DETAILS
// response.
type AdditionalPaymentMethodDetails struct {
	Values map[string]string
}

func (AdditionalPaymentMethodDetails) paymentMethodDetails() {}

func (d AdditionalPaymentMethodDetails) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Values)
}

// Finalize copies the return data of the pending step and checks that every
// non-optional detail has a value.
func (d *AdditionalPaymentMethodDetails) Finalize(ctx AdditionalDetails) error {
	values := make(map[string]string, len(d.Values)+1)
	maps.Copy(values, d.Values)
	if fields, ok := ctx.(*DetailFields); ok && fields.PaymentMethodReturnData != "" {
		values[KeyPaymentMethodReturnData] = fields.PaymentMethodReturnData
	}
	d.Values = values

	for _, detail := range ctx.RequiredDetails() {
		if detail.Optional {
			continue
		}
		if d.Values[detail.Key] == "" {
			return NewMissingDetailError(detail.Key)
		}
	}
	return nil
}

// ThreeDS2FingerprintDetails answers an identifyShopper step.
type ThreeDS2FingerprintDetails struct {
	Fingerprint string `json:"threeds2.fingerprint"`
	PaymentData string `json:"paymentData,omitempty"`
}

func (ThreeDS2FingerprintDetails) paymentMethodDetails() {}

func (d *ThreeDS2FingerprintDetails) Finalize(ctx AdditionalDetails) error {
	return finalizeAuthentication(ctx, ResponseTypeIdentifyShopper, &d.PaymentData)
}

// ThreeDS2ChallengeDetails answers a challengeShopper step.
type ThreeDS2ChallengeDetails struct {
	ChallengeResult string `json:"threeds2.challengeResult"`
	PaymentData     string `json:"paymentData,omitempty"`
}

func (ThreeDS2ChallengeDetails) paymentMethodDetails() {}

func (d *ThreeDS2ChallengeDetails) Finalize(ctx AdditionalDetails) error {
	return finalizeAuthentication(ctx, ResponseTypeChallengeShopper, &d.PaymentData)
}

func finalizeAuthentication(ctx AdditionalDetails, expected ResponseType, paymentData *string) error {
	fields, ok := ctx.(*AuthenticationFields)
	if !ok || fields.Type != expected {
		return NewProtocolError(
			ErrCodeMissingContext,
			fmt.Sprintf("Cannot submit %s details for a %s step.", expected, ctx.ResponseType()),
			nil,
		)
	}
	*paymentData = fields.PaymentData
	return nil
}
