package main

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-checkout/internal/application/services"
	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/spf13/cobra"
)

var issuersCmd = &cobra.Command{
	Use:   "issuers [reference] [query]",
	Short: "Search the issuers of a payment method with an issuer lookup",
	Args:  cobra.ExactArgs(2),
	RunE:  runIssuers,
}

func init() {
	issuersCmd.Flags().String("method", "giropay", "Payment method type to search issuers for")
}

func runIssuers(cmd *cobra.Command, args []string) error {
	methodType, _ := cmd.Flags().GetString("method")
	query := args[1]

	if len([]rune(query)) < services.MinIssuerSearchLength {
		return fmt.Errorf("search string must be at least %d characters", services.MinIssuerSearchLength)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		var session *domain.PaymentSession
		if err := a.loop.Do(ctx, func() { session, _ = h.PaymentSession().Value() }); err != nil {
			return err
		}
		method, err := findPaymentMethod(session, methodType, "")
		if err != nil {
			return err
		}

		search, err := h.NewIssuerSearchHandler(method)
		if err != nil {
			return err
		}
		defer search.Close()

		results := make(chan []domain.Issuer, 1)
		failures := make(chan *domain.CheckoutError, 1)
		err = a.loop.Do(ctx, func() {
			search.Results().ObserveForever(func(issuers []domain.Issuer) {
				select {
				case results <- issuers:
				default:
				}
			})
			search.Errors().ObserveForever(func(err *domain.CheckoutError) {
				select {
				case failures <- err:
				default:
				}
			})
			search.SetSearchString(query)
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(ctx, outcomeTimeout)
		defer cancel()

		select {
		case issuers := <-results:
			printIssuers(cmd, issuers)
			return nil
		case failure := <-failures:
			return fmt.Errorf("%s [%s]", failure.Message, failure.Code)
		case <-ctx.Done():
			return fmt.Errorf("no response from the backend: %w", ctx.Err())
		}
	})
}

func printIssuers(cmd *cobra.Command, issuers []domain.Issuer) {
	out := cmd.OutOrStdout()
	if len(issuers) == 0 {
		fmt.Fprintln(out, "No issuers found.")
		return
	}
	for _, issuer := range issuers {
		fmt.Fprintf(out, "  %-12s %-10s %s\n", issuer.BIC, issuer.BLZ, issuer.BankName)
	}
}
