package application

import "github.com/DanielPopoola/ficmart-checkout/internal/domain"

// RedirectHandler sends the shopper to an external page.
type RedirectHandler interface {
	OnRedirectRequired(fields *domain.RedirectFields)
}

// AdditionalDetailsHandler collects more input, including 3-D Secure 2
// fingerprint and challenge results.
type AdditionalDetailsHandler interface {
	OnAdditionalDetailsRequired(details domain.AdditionalDetails)
}

type ErrorHandler interface {
	OnError(err *domain.CheckoutError)
}

type RedirectHandlerFunc func(fields *domain.RedirectFields)

func (f RedirectHandlerFunc) OnRedirectRequired(fields *domain.RedirectFields) { f(fields) }

type AdditionalDetailsHandlerFunc func(details domain.AdditionalDetails)

func (f AdditionalDetailsHandlerFunc) OnAdditionalDetailsRequired(details domain.AdditionalDetails) {
	f(details)
}

type ErrorHandlerFunc func(err *domain.CheckoutError)

func (f ErrorHandlerFunc) OnError(err *domain.CheckoutError) { f(err) }
