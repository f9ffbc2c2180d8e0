package main

import (
	"context"
	"fmt"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay [reference]",
	Short: "Initiate a payment with one of the session's payment methods",
	Args:  cobra.ExactArgs(1),
	RunE:  runPay,
}

var detailsCmd = &cobra.Command{
	Use:   "details [reference]",
	Short: "Answer the pending additional details or 3-D Secure step",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetails,
}

var redirectCmd = &cobra.Command{
	Use:   "redirect [reference] [return-url]",
	Short: "Continue after the shopper came back from a redirect",
	Args:  cobra.ExactArgs(2),
	RunE:  runRedirect,
}

func init() {
	payCmd.Flags().String("method", "", "Payment method type, e.g. ideal")
	payCmd.Flags().String("one-click", "", "paymentMethodData of a stored one-click method")
	payCmd.Flags().String("issuer", "", "Issuer id for issuer based methods")
	payCmd.Flags().StringToString("detail", nil, "Payment details as key=value")
	payCmd.MarkFlagsMutuallyExclusive("method", "one-click")
	payCmd.MarkFlagsOneRequired("method", "one-click")

	detailsCmd.Flags().StringToString("detail", nil, "Requested details as key=value")
	detailsCmd.Flags().String("fingerprint", "", "3-D Secure 2 fingerprint result")
	detailsCmd.Flags().String("challenge-result", "", "3-D Secure 2 challenge result")
	detailsCmd.MarkFlagsMutuallyExclusive("detail", "fingerprint", "challenge-result")
}

func runPay(cmd *cobra.Command, args []string) error {
	methodType, _ := cmd.Flags().GetString("method")
	oneClick, _ := cmd.Flags().GetString("one-click")
	issuer, _ := cmd.Flags().GetString("issuer")
	values, _ := cmd.Flags().GetStringToString("detail")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		var session *domain.PaymentSession
		if err := a.loop.Do(ctx, func() { session, _ = h.PaymentSession().Value() }); err != nil {
			return err
		}

		method, err := findPaymentMethod(session, methodType, oneClick)
		if err != nil {
			return err
		}
		details := paymentDetails(issuer, values)

		o, err := awaitOutcome(ctx, a.loop, h, func() error {
			h.InitiatePayment(method, details)
			return nil
		})
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), h.Reference(), o)
	})
}

func runDetails(cmd *cobra.Command, args []string) error {
	values, _ := cmd.Flags().GetStringToString("detail")
	fingerprint, _ := cmd.Flags().GetString("fingerprint")
	challengeResult, _ := cmd.Flags().GetString("challenge-result")

	var details domain.PaymentMethodDetails
	switch {
	case fingerprint != "":
		details = &domain.ThreeDS2FingerprintDetails{Fingerprint: fingerprint}
	case challengeResult != "":
		details = &domain.ThreeDS2ChallengeDetails{ChallengeResult: challengeResult}
	default:
		details = &domain.AdditionalPaymentMethodDetails{Values: values}
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		o, err := awaitOutcome(ctx, a.loop, h, func() error {
			return h.SubmitAdditionalDetails(details)
		})
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), h.Reference(), o)
	})
}

func runRedirect(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		o, err := awaitOutcome(ctx, a.loop, h, func() error {
			return h.HandleRedirectResult(args[1])
		})
		if err != nil {
			return err
		}
		return printOutcome(cmd.OutOrStdout(), h.Reference(), o)
	})
}

// findPaymentMethod picks a one-click method by its paymentMethodData, or the
// first regular method of the given type.
func findPaymentMethod(session *domain.PaymentSession, methodType, oneClickData string) (domain.PaymentMethod, error) {
	if oneClickData != "" {
		for _, m := range session.OneClickPaymentMethods {
			if m.PaymentMethodData == oneClickData {
				return m, nil
			}
		}
		return domain.PaymentMethod{}, fmt.Errorf("no one-click payment method %q in session", oneClickData)
	}

	for _, m := range session.PaymentMethods {
		if m.IsType(methodType) {
			return m, nil
		}
	}
	return domain.PaymentMethod{}, fmt.Errorf("no payment method of type %q in session", methodType)
}

func paymentDetails(issuer string, values map[string]string) domain.PaymentMethodDetails {
	switch {
	case issuer != "":
		return domain.IssuerDetails{Issuer: issuer}
	case len(values) > 0:
		return domain.GenericDetails(values)
	default:
		return nil
	}
}
