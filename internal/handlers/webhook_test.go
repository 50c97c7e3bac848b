package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"strategiz/internal/models"
	"strategiz/internal/repositories/memory"
	"strategiz/internal/services/ledger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the verifier accepts.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newWebhookApp(t *testing.T) (*fiber.App, ledger.Service) {
	t.Helper()
	svc := ledger.NewService(memory.NewStore(), nil, ledger.Config{}, nil)
	h := NewWebhookHandler(svc, testSigningSecret)
	app := fiber.New()
	app.Post("/api/webhooks/stripe", h.HandleStripeEvent)
	return app, svc
}

func postEvent(t *testing.T, app *fiber.App, payload []byte, signature string) int {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", signature)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode
}

func checkoutCompletedPayload(sessionID, userID, amount string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": %q,
				"metadata": {"user_id": %q, "strat_amount": %q}
			}
		}
	}`, sessionID, userID, amount))
}

func TestStripeWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("credits the purchase", func(t *testing.T) {
		app, svc := newWebhookApp(t)
		payload := checkoutCompletedPayload("cs_123", "user-1", "500")

		status := postEvent(t, app, payload, signPayload(payload, testSigningSecret))
		assert.Equal(t, fiber.StatusOK, status)

		w, err := svc.GetWalletByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(500), w.Balance)
		assert.Equal(t, int64(500), w.TotalPurchased)
	})

	t.Run("redelivery is acknowledged without a second credit", func(t *testing.T) {
		app, svc := newWebhookApp(t)
		payload := checkoutCompletedPayload("cs_123", "user-1", "500")

		for i := 0; i < 3; i++ {
			status := postEvent(t, app, payload, signPayload(payload, testSigningSecret))
			assert.Equal(t, fiber.StatusOK, status)
		}

		w, err := svc.GetWalletByUserID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(500), w.Balance)

		txs, err := svc.GetTransactionsByReference(ctx, models.RefStripe, "cs_123")
		require.NoError(t, err)
		assert.Len(t, txs, 1)
	})

	t.Run("rejects a bad signature", func(t *testing.T) {
		app, svc := newWebhookApp(t)
		payload := checkoutCompletedPayload("cs_123", "user-1", "500")

		status := postEvent(t, app, payload, signPayload(payload, "whsec_wrong"))
		assert.Equal(t, fiber.StatusBadRequest, status)

		_, err := svc.GetWalletByUserID(ctx, "user-1")
		assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
	})

	t.Run("ignores unrelated event types", func(t *testing.T) {
		app, svc := newWebhookApp(t)
		payload := []byte(`{"id": "evt_2", "type": "invoice.paid", "data": {"object": {}}}`)

		status := postEvent(t, app, payload, signPayload(payload, testSigningSecret))
		assert.Equal(t, fiber.StatusOK, status)

		_, err := svc.GetWalletByUserID(ctx, "user-1")
		assert.ErrorIs(t, err, ledger.ErrWalletNotFound)
	})

	t.Run("acknowledges sessions without purchase metadata", func(t *testing.T) {
		app, _ := newWebhookApp(t)
		payload := []byte(`{
			"id": "evt_3",
			"type": "checkout.session.completed",
			"data": {"object": {"id": "cs_sub", "metadata": {}}}
		}`)

		status := postEvent(t, app, payload, signPayload(payload, testSigningSecret))
		assert.Equal(t, fiber.StatusOK, status)
	})
}
