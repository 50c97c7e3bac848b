package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"strategiz/internal/models"
	"strategiz/internal/services/ledger"
	"strategiz/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

// WebhookHandler processes Stripe events. Only checkout.session.completed is
// acted on; everything else is acknowledged and ignored so Stripe stops
// retrying it.
type WebhookHandler struct {
	ledger        ledger.Service
	signingSecret string
}

func NewWebhookHandler(ledgerService ledger.Service, signingSecret string) *WebhookHandler {
	return &WebhookHandler{
		ledger:        ledgerService,
		signingSecret: signingSecret,
	}
}

// HandleStripeEvent verifies the event signature and credits purchased
// tokens. Crediting is keyed by the checkout session id, so Stripe's
// at-least-once delivery is safe: a redelivered event returns 200 without a
// second credit.
func (h *WebhookHandler) HandleStripeEvent(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.signingSecret)
	if err != nil {
		log.Printf("stripe signature verification failed: %v", err)
		return utils.BadRequest(c, "invalid signature")
	}

	if event.Type != "checkout.session.completed" {
		return utils.Success(c, fiber.Map{"received": true})
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Printf("failed to parse checkout session: %v", err)
		return utils.BadRequest(c, "malformed event payload")
	}

	userID := session.Metadata["user_id"]
	amount, err := strconv.ParseInt(session.Metadata["strat_amount"], 10, 64)
	if err != nil || userID == "" {
		// Not a token purchase session. Acknowledge so it is not redelivered.
		log.Printf("checkout session %s missing purchase metadata", session.ID)
		return utils.Success(c, fiber.Map{"received": true})
	}

	_, err = h.ledger.CreditPurchase(c.Context(), userID, amount,
		ledger.Reference{Type: models.RefStripe, ID: session.ID},
		fmt.Sprintf("STRAT purchase (%d tokens)", amount))
	if err != nil {
		log.Printf("failed to credit purchase for session %s: %v", session.ID, err)
		// Non-200 makes Stripe redeliver; the credit is idempotent, so a
		// retry after a transient failure is safe.
		return utils.InternalError(c, "credit failed")
	}

	return utils.Success(c, fiber.Map{"received": true})
}
