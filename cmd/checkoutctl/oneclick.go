package main

import (
	"context"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/spf13/cobra"
)

var oneClickCmd = &cobra.Command{
	Use:   "one-click",
	Short: "Manage stored one-click payment methods",
}

var oneClickDeleteCmd = &cobra.Command{
	Use:   "delete [reference] [payment-method-data]",
	Short: "Remove a stored payment method from the shopper's account",
	Args:  cobra.ExactArgs(2),
	RunE:  runOneClickDelete,
}

func init() {
	oneClickCmd.AddCommand(oneClickDeleteCmd)
}

func runOneClickDelete(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		var session *domain.PaymentSession
		if err := a.loop.Do(ctx, func() { session, _ = h.PaymentSession().Value() }); err != nil {
			return err
		}

		// An unknown method is still handed to the handler, which reports it.
		method, err := findPaymentMethod(session, "", args[1])
		if err != nil {
			method = domain.PaymentMethod{PaymentMethodData: args[1]}
		}

		o, err := awaitOutcome(ctx, a.loop, h, func() error {
			h.DeleteOneClickPaymentMethod(method)
			return nil
		})
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), h.Reference(), o)
	})
}
