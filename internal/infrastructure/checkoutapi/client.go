package checkoutapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/ficmart-checkout/internal/application"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
)

// Client speaks the checkout JSON protocol over a Poster.
type Client struct {
	poster Poster
	logger *slog.Logger
}

var _ application.CheckoutAPI = (*Client)(nil)

func NewClient(poster Poster, logger *slog.Logger) *Client {
	return &Client{
		poster: poster,
		logger: logger,
	}
}

func (c *Client) InitiatePayment(ctx context.Context, session *domain.PaymentSession, req *domain.PaymentInitiation) (*domain.PaymentInitiationResponse, error) {
	return sendRequest[domain.PaymentInitiation, domain.PaymentInitiationResponse](c, ctx, session.InitiationURL, req)
}

func (c *Client) DeletePaymentMethod(ctx context.Context, session *domain.PaymentSession, method domain.PaymentMethod) (*application.PaymentMethodDeletionResponse, error) {
	req := &application.PaymentMethodDeletionRequest{
		PaymentData:       session.PaymentData,
		PaymentMethodData: method.PaymentMethodData,
	}
	return sendRequest[application.PaymentMethodDeletionRequest, application.PaymentMethodDeletionResponse](c, ctx, session.DisableRecurringDetailURL, req)
}

func (c *Client) SearchIssuers(ctx context.Context, method domain.PaymentMethod, searchString string) ([]domain.Issuer, error) {
	url := method.IssuerSearchURL()
	if url == "" {
		return nil, fmt.Errorf("payment method %s has no %s", method.Type, domain.KeyIssuerSearchURL)
	}

	req := &application.IssuerSearchRequest{
		PaymentMethodData: method.PaymentMethodData,
		SearchString:      searchString,
	}
	resp, err := sendRequest[application.IssuerSearchRequest, application.IssuerSearchResponse](c, ctx, url, req)
	if err != nil {
		return nil, err
	}
	return resp.Issuers, nil
}

func sendRequest[Req any, Resp any](c *Client, ctx context.Context, url string, reqBody *Req) (*Resp, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	body, err := c.poster.Post(ctx, url, nil, jsonData)
	if err != nil {
		c.logger.Debug("checkout api call failed", "url", url, "error", err)
		return nil, err
	}

	var resp Resp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &resp, nil
}
