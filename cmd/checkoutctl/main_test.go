package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DanielPopoola/ficmart-checkout/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInitiationURL = "https://checkout-test.example.com/services/PaymentInitiation/v1/initiate"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PaymentMethodData string            `json:"paymentMethodData"`
			PaymentDetails    map[string]string `json:"paymentDetails"`
		}
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "/initiate", r.URL.Path)
		assert.Equal(t, "pmd-ideal", req.PaymentMethodData)
		assert.Equal(t, "1121", req.PaymentDetails["issuer"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"complete","resultCode":"authorised","payload":"p-cli"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func encodedTestSession(t *testing.T, initiationURL string) string {
	t.Helper()
	data, err := os.ReadFile("../../internal/domain/testdata/session.json")
	require.NoError(t, err)
	data = bytes.ReplaceAll(data, []byte(testInitiationURL), []byte(initiationURL))
	return base64.StdEncoding.EncodeToString(data)
}

func TestCheckoutctl_PaymentFlow(t *testing.T) {
	t.Setenv("CHECKOUT_STORE__DRIVER", "sqlite")
	t.Setenv("CHECKOUT_STORE__SQLITE_PATH", filepath.Join(t.TempDir(), "checkout.db"))
	t.Setenv("CHECKOUT_LOGGER__LEVEL", "error")
	backend := newBackend(t)

	out, err := execute(t, "session", "start", encodedTestSession(t, backend.URL+"/initiate"))
	require.NoError(t, err)
	ref := strings.TrimSpace(out)
	_, err = domain.ParsePaymentReference(ref)
	require.NoError(t, err)

	out, err = execute(t, "pay", ref, "--method", "ideal", "--issuer", "1121")
	require.NoError(t, err)
	assert.Contains(t, out, "Payment complete: authorised")
	assert.Contains(t, out, "Payload: p-cli")

	out, err = execute(t, "session", "show", ref)
	require.NoError(t, err)
	assert.Contains(t, out, "order-1001")
	assert.Contains(t, out, "12.50 EUR")
	assert.Contains(t, out, "Logos:       https://checkoutshopper-test.example.com/")
	assert.Contains(t, out, "giropay")
	assert.Contains(t, out, "pmd-oneclick-1")
	assert.Contains(t, out, "Payment complete: authorised")
}

func TestCheckoutctl_UnknownReference(t *testing.T) {
	t.Setenv("CHECKOUT_STORE__DRIVER", "sqlite")
	t.Setenv("CHECKOUT_STORE__SQLITE_PATH", filepath.Join(t.TempDir(), "checkout.db"))
	t.Setenv("CHECKOUT_LOGGER__LEVEL", "error")

	_, err := execute(t, "session", "show", uuid.NewString())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payment session")
}

func TestFindPaymentMethod(t *testing.T) {
	data, err := os.ReadFile("../../internal/domain/testdata/session.json")
	require.NoError(t, err)
	session, err := domain.ParsePaymentSession(data)
	require.NoError(t, err)

	method, err := findPaymentMethod(session, "giropay", "")
	require.NoError(t, err)
	assert.Equal(t, "pmd-giropay", method.PaymentMethodData)

	method, err = findPaymentMethod(session, "", "pmd-oneclick-2")
	require.NoError(t, err)
	assert.Equal(t, "paypal", method.Type)

	_, err = findPaymentMethod(session, "bogus", "")
	assert.Error(t, err)

	_, err = findPaymentMethod(session, "", "pmd-missing")
	assert.Error(t, err)
}

func TestPaymentDetails(t *testing.T) {
	assert.Equal(t, domain.IssuerDetails{Issuer: "1121"}, paymentDetails("1121", map[string]string{"a": "b"}))
	assert.Equal(t, domain.GenericDetails{"a": "b"}, paymentDetails("", map[string]string{"a": "b"}))
	assert.Nil(t, paymentDetails("", nil))
}

func TestReadSessionArg(t *testing.T) {
	encoded, err := readSessionArg(strings.NewReader("ignored"), []string{" abc \n"})
	require.NoError(t, err)
	assert.Equal(t, "abc", encoded)

	encoded, err = readSessionArg(strings.NewReader("from-stdin\n"), []string{"-"})
	require.NoError(t, err)
	assert.Equal(t, "from-stdin", encoded)

	_, err = readSessionArg(strings.NewReader("  "), nil)
	assert.Error(t, err)
}

func TestPrintOutcome(t *testing.T) {
	ref := domain.NewPaymentReference(uuid.New())

	t.Run("redirect", func(t *testing.T) {
		var out bytes.Buffer
		err := printOutcome(&out, ref, outcome{redirect: &domain.RedirectFields{URL: "https://bank.example/auth"}})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "https://bank.example/auth")
		assert.Contains(t, out.String(), "checkoutctl redirect "+ref.String())
	})

	t.Run("details", func(t *testing.T) {
		var out bytes.Buffer
		details := &domain.DetailFields{
			PaymentMethod:   domain.PaymentMethod{Type: "ideal"},
			ResponseDetails: []domain.InputDetail{{Key: "otp", Type: "text"}, {Key: "note", Type: "text", Optional: true}},
		}

		err := printOutcome(&out, ref, outcome{details: details})

		require.NoError(t, err)
		assert.Contains(t, out.String(), "otp")
		assert.Contains(t, out.String(), "note")
		assert.Contains(t, out.String(), "(optional)")
	})

	t.Run("fatal error", func(t *testing.T) {
		var out bytes.Buffer
		err := printOutcome(&out, ref, outcome{err: &domain.CheckoutError{
			Code:    "PI007",
			Message: "Payment session expired.",
			Fatal:   true,
		}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "PI007")
		assert.Contains(t, err.Error(), "can no longer be used")
	})
}
