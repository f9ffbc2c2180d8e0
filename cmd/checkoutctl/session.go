package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage payment sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start [encoded-session]",
	Short: "Store a session from the merchant backend and print its reference",
	Long: `Store a Base64 encoded payment session, or a {"paymentSession": "..."} object,
and print the payment reference used by every other command. Reads standard input
when the argument is missing or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionStart,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [reference]",
	Short: "Show a stored session and any step waiting for the shopper",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionShow,
}

func init() {
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionShowCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) error {
	encoded, err := readSessionArg(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		ref, err := a.registry.CreatePaymentReference(ctx, encoded)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ref)
		return nil
	})
}

func readSessionArg(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return strings.TrimSpace(args[0]), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read session from stdin: %w", err)
	}
	encoded := strings.TrimSpace(string(data))
	if encoded == "" {
		return "", fmt.Errorf("no payment session given")
	}
	return encoded, nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		h, err := a.handler(ctx, args[0])
		if err != nil {
			return err
		}

		var session *domain.PaymentSession
		if err := a.loop.Do(ctx, func() { session, _ = h.PaymentSession().Value() }); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printSession(out, h.Reference(), session)

		pending, ok, err := pendingOutcome(ctx, a.loop, h)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintln(out)
			return printOutcome(out, h.Reference(), pending)
		}
		return nil
	})
}

func printSession(out io.Writer, ref domain.PaymentReference, s *domain.PaymentSession) {
	fmt.Fprintf(out, "Reference:   %s\n", ref)
	fmt.Fprintf(out, "Order:       %s\n", s.Payment.Reference)
	fmt.Fprintf(out, "Amount:      %s\n", s.Payment.Amount)
	fmt.Fprintf(out, "Generated:   %s\n", s.GenerationTime.Format(domain.GenerationTimeLayout))
	fmt.Fprintf(out, "Environment: %s\n", s.Environment)
	fmt.Fprintf(out, "Logos:       %s\n", s.LogoBaseURL())

	fmt.Fprintf(out, "\nPayment methods (%d):\n", len(s.PaymentMethods))
	for _, m := range s.PaymentMethods {
		suffix := ""
		if m.IssuerSearchURL() != "" {
			suffix = "  [issuer search]"
		}
		fmt.Fprintf(out, "  %-14s %s%s\n", m.Type, m.Name, suffix)
	}

	if len(s.OneClickPaymentMethods) == 0 {
		return
	}
	fmt.Fprintf(out, "\nOne-click payment methods (%d):\n", len(s.OneClickPaymentMethods))
	for _, m := range s.OneClickPaymentMethods {
		fmt.Fprintf(out, "  %-14s %-20s %s\n", m.Type, m.PaymentMethodData, storedDetailsSummary(m))
	}
}

func storedDetailsSummary(m domain.PaymentMethod) string {
	switch {
	case m.StoredDetails == nil:
		return ""
	case m.StoredDetails.Card != nil:
		c := m.StoredDetails.Card
		return fmt.Sprintf("**** %s  %s/%s", c.Number, c.ExpiryMonth, c.ExpiryYear)
	default:
		return m.StoredDetails.EmailAddress
	}
}
