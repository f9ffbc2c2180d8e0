package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type ResponseType string

const (
	ResponseTypeComplete         ResponseType = "complete"
	ResponseTypeDetails          ResponseType = "details"
	ResponseTypeRedirect         ResponseType = "redirect"
	ResponseTypeIdentifyShopper  ResponseType = "identifyShopper"
	ResponseTypeChallengeShopper ResponseType = "challengeShopper"
	ResponseTypeError            ResponseType = "error"
	ResponseTypeValidation       ResponseType = "validation"
)

var responseTypeNames = map[ResponseType]string{
	ResponseTypeComplete:         "COMPLETE",
	ResponseTypeDetails:          "DETAILS",
	ResponseTypeRedirect:         "REDIRECT",
	ResponseTypeIdentifyShopper:  "IDENTIFY_SHOPPER",
	ResponseTypeChallengeShopper: "CHALLENGE_SHOPPER",
	ResponseTypeError:            "ERROR",
	ResponseTypeValidation:       "VALIDATION",
}

// ParseResponseType matches either the wire value or the constant name,
// ignoring case.
func ParseResponseType(s string) (ResponseType, error) {
	for t, name := range responseTypeNames {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownResponseType, s)
}

type ResultCode string

const (
	ResultCodeAuthorised ResultCode = "authorised"
	ResultCodeRefused    ResultCode = "refused"
	ResultCodeReceived   ResultCode = "received"
	ResultCodeCancelled  ResultCode = "cancelled"
	ResultCodePending    ResultCode = "pending"
	ResultCodeError      ResultCode = "error"

	ResultCodeIdentifyShopper  ResultCode = "identifyShopper"
	ResultCodeChallengeShopper ResultCode = "challengeShopper"
)

func (c *ResultCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, known := range []ResultCode{
		ResultCodeAuthorised, ResultCodeRefused, ResultCodeReceived, ResultCodeCancelled,
		ResultCodePending, ResultCodeError, ResultCodeIdentifyShopper, ResultCodeChallengeShopper,
	} {
		if strings.EqualFold(s, string(known)) {
			*c = known
			return nil
		}
	}
	return fmt.Errorf("unknown result code %q", s)
}

type ErrorCode string

const (
	ErrorCodeEmptyRequest                 ErrorCode = "PI001"
	ErrorCodePayloadNotProvided           ErrorCode = "PI002"
	ErrorCodeInvalidPayload               ErrorCode = "PI003"
	ErrorCodePaymentMethodDataNotProvided ErrorCode = "PI004"
	ErrorCodeInvalidPaymentMethodData     ErrorCode = "PI005"
	ErrorCodeInvalidPaymentMethodDetails  ErrorCode = "PI006"
	ErrorCodePaymentSessionExpired        ErrorCode = "PI007"
	ErrorCodeNotAllowed                   ErrorCode = "PI008"
	ErrorCodeIncompletePaymentsRequest    ErrorCode = "PI009"
	ErrorCodeInvalidExpiryDate            ErrorCode = "PI010"
	ErrorCodeInvalidSecurityCodeLength    ErrorCode = "PI011"
	ErrorCodeInvalidBIC                   ErrorCode = "PI012"
	ErrorCodeIssuerNotProvided            ErrorCode = "PI013"
	ErrorCodeInternalError                ErrorCode = "PI101"
	ErrorCodePaymentError                 ErrorCode = "PI102"
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCodeEmptyRequest:                 "EMPTY_REQUEST",
	ErrorCodePayloadNotProvided:           "PAYLOAD_NOT_PROVIDED",
	ErrorCodeInvalidPayload:               "INVALID_PAYLOAD",
	ErrorCodePaymentMethodDataNotProvided: "PAYMENT_METHOD_DATA_NOT_PROVIDED",
	ErrorCodeInvalidPaymentMethodData:     "INVALID_PAYMENT_METHOD_DATA",
	ErrorCodeInvalidPaymentMethodDetails:  "INVALID_PAYMENT_METHOD_DETAILS",
	ErrorCodePaymentSessionExpired:        "PAYMENT_SESSION_EXPIRED",
	ErrorCodeNotAllowed:                   "NOT_ALLOWED",
	ErrorCodeIncompletePaymentsRequest:    "INCOMPLETE_PAYMENTS_REQUEST",
	ErrorCodeInvalidExpiryDate:            "INVALID_EXPIRY_DATE",
	ErrorCodeInvalidSecurityCodeLength:    "INVALID_SECURITY_CODE_LENGTH",
	ErrorCodeInvalidBIC:                   "INVALID_BIC",
	ErrorCodeIssuerNotProvided:            "ISSUER_NOT_PROVIDED",
	ErrorCodeInternalError:                "INTERNAL_ERROR",
	ErrorCodePaymentError:                 "PAYMENT_ERROR",
}

func (c ErrorCode) Name() string {
	return errorCodeNames[c]
}

// UnmarshalJSON accepts "PI007" as well as "PAYMENT_SESSION_EXPIRED".
func (c *ErrorCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for code, name := range errorCodeNames {
		if strings.EqualFold(s, string(code)) || strings.EqualFold(s, name) {
			*c = code
			return nil
		}
	}
	return fmt.Errorf("unknown error code %q", s)
}

// AdditionalDetails is the context for a details submission: either
// DetailFields or AuthenticationFields.
type AdditionalDetails interface {
	ResponseType() ResponseType
	DetailsPaymentMethod() PaymentMethod
	RequiredDetails() []InputDetail
}

type CompleteFields struct {
	ResultCode    ResultCode     `json:"resultCode"`
	Payload       string         `json:"payload"`
	PaymentMethod *PaymentMethod `json:"paymentMethod,omitempty"`
}

// Result returns the terminal outcome carried by a COMPLETE response.
func (f *CompleteFields) Result() PaymentResult {
	return PaymentResult{ResultCode: f.ResultCode, Payload: f.Payload}
}

// PaymentResult is what a host receives once a payment is complete.
type PaymentResult struct {
	ResultCode ResultCode `json:"resultCode"`
	Payload    string     `json:"payload"`
}

type DetailFields struct {
	PaymentMethod           PaymentMethod   `json:"paymentMethod"`
	PaymentMethodReturnData string          `json:"paymentMethodReturnData,omitempty"`
	RedirectData            json.RawMessage `json:"redirectData"`
	ResponseDetails         []InputDetail   `json:"responseDetails"`
}

func (f *DetailFields) ResponseType() ResponseType          { return ResponseTypeDetails }
func (f *DetailFields) DetailsPaymentMethod() PaymentMethod { return f.PaymentMethod }

// RequiredDetails drops details already answered by the redirect data and
// the return data, which is filled in automatically.
func (f *DetailFields) RequiredDetails() []InputDetail {
	var provided map[string]json.RawMessage
	if len(f.RedirectData) > 0 {
		_ = json.Unmarshal(f.RedirectData, &provided)
	}

	var details []InputDetail
	for _, detail := range f.ResponseDetails {
		if _, ok := provided[detail.Key]; ok {
			continue
		}
		if detail.Key == KeyPaymentMethodReturnData {
			continue
		}
		details = append(details, detail)
	}
	return details
}

type RedirectFields struct {
	PaymentMethod                 PaymentMethod `json:"paymentMethod"`
	URL                           string        `json:"url"`
	SubmitPaymentMethodReturnData bool          `json:"submitPaymentMethodReturnData,omitempty"`
}

// AuthenticationFields drive a 3-D Secure 2 fingerprint or challenge step.
type AuthenticationFields struct {
	Type            ResponseType    `json:"-"`
	Authentication  json.RawMessage `json:"authentication"`
	PaymentData     string          `json:"paymentData"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	ResponseDetails []InputDetail   `json:"responseDetails"`
	ResultCode      ResultCode      `json:"resultCode"`
}

func (f *AuthenticationFields) ResponseType() ResponseType          { return f.Type }
func (f *AuthenticationFields) DetailsPaymentMethod() PaymentMethod { return f.PaymentMethod }
func (f *AuthenticationFields) RequiredDetails() []InputDetail      { return f.ResponseDetails }

type ErrorFields struct {
	ErrorCode    ErrorCode `json:"errorCode"`
	ErrorMessage string    `json:"errorMessage"`
	Payload      string    `json:"payload,omitempty"`
}

// PaymentInitiationResponse is a tagged union; exactly one of the field
// pointers matching Type is set.
type PaymentInitiationResponse struct {
	Type ResponseType

	Complete       *CompleteFields
	Details        *DetailFields
	Redirect       *RedirectFields
	Authentication *AuthenticationFields
	Error          *ErrorFields
}

// ParsePaymentInitiationResponse decodes a flat response object. An unknown
// type yields an error wrapping ErrUnknownResponseType.
func ParsePaymentInitiationResponse(data []byte) (*PaymentInitiationResponse, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse payment initiation response: %w", err)
	}

	responseType, err := ParseResponseType(head.Type)
	if err != nil {
		return nil, err
	}

	resp := &PaymentInitiationResponse{Type: responseType}
	switch responseType {
	case ResponseTypeComplete:
		resp.Complete = &CompleteFields{}
		err = json.Unmarshal(data, resp.Complete)
	case ResponseTypeDetails:
		resp.Details = &DetailFields{}
		err = json.Unmarshal(data, resp.Details)
	case ResponseTypeRedirect:
		resp.Redirect = &RedirectFields{}
		err = json.Unmarshal(data, resp.Redirect)
	case ResponseTypeIdentifyShopper, ResponseTypeChallengeShopper:
		resp.Authentication = &AuthenticationFields{Type: responseType}
		err = json.Unmarshal(data, resp.Authentication)
	case ResponseTypeError, ResponseTypeValidation:
		resp.Error = &ErrorFields{}
		err = json.Unmarshal(data, resp.Error)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", responseType, err)
	}

	if err := resp.validate(); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *PaymentInitiationResponse) validate() error {
	switch r.Type {
	case ResponseTypeComplete:
		if r.Complete.Payload == "" {
			return fmt.Errorf("complete response: payload is required")
		}
	case ResponseTypeRedirect:
		if r.Redirect.URL == "" {
			return fmt.Errorf("redirect response: url is required")
		}
	case ResponseTypeError, ResponseTypeValidation:
		if r.Error.ErrorCode == "" {
			return fmt.Errorf("%s response: errorCode is required", r.Type)
		}
	}
	return nil
}

func (r *PaymentInitiationResponse) MarshalJSON() ([]byte, error) {
	var payload any
	switch r.Type {
	case ResponseTypeComplete:
		payload = r.Complete
	case ResponseTypeDetails:
		payload = r.Details
	case ResponseTypeRedirect:
		payload = r.Redirect
	case ResponseTypeIdentifyShopper, ResponseTypeChallengeShopper:
		payload = r.Authentication
	case ResponseTypeError, ResponseTypeValidation:
		payload = r.Error
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResponseType, r.Type)
	}

	fields, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(fields, &members); err != nil {
		return nil, err
	}
	typeValue, err := json.Marshal(string(r.Type))
	if err != nil {
		return nil, err
	}
	members["type"] = typeValue
	return json.Marshal(members)
}

func (r *PaymentInitiationResponse) UnmarshalJSON(data []byte) error {
	parsed, err := ParsePaymentInitiationResponse(data)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// AdditionalDetails returns the details context for DETAILS and 3-D Secure
// responses, or nil.
func (r *PaymentInitiationResponse) AdditionalDetails() AdditionalDetails {
	switch {
	case r.Details != nil:
		return r.Details
	case r.Authentication != nil:
		return r.Authentication
	default:
		return nil
	}
}
