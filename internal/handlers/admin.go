package handlers

import (
	"strategiz/internal/models"
	"strategiz/internal/services/ledger"
	"strategiz/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler exposes back-office wallet operations. All routes sit behind
// the admin key middleware.
type AdminHandler struct {
	ledger ledger.Service
}

func NewAdminHandler(ledgerService ledger.Service) *AdminHandler {
	return &AdminHandler{
		ledger: ledgerService,
	}
}

// CreditUser grants tokens to a user, e.g. promotional rewards or support
// adjustments. A reference id makes the grant idempotent.
func (h *AdminHandler) CreditUser(c *fiber.Ctx) error {
	var input struct {
		UserID      string `json:"user_id"`
		Amount      int64  `json:"amount"`
		ReferenceID string `json:"reference_id"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.UserID == "" {
		return utils.BadRequest(c, "user_id is required")
	}

	ref := ledger.Reference{Type: models.RefReward, ID: input.ReferenceID}
	var wallet *models.Wallet
	var err error
	if input.ReferenceID != "" {
		wallet, err = h.ledger.CreditOnce(c.Context(), input.UserID, input.Amount, ref, input.Description)
	} else {
		wallet, err = h.ledger.Credit(c.Context(), input.UserID, input.Amount, ref, input.Description)
	}
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "credit applied",
		"wallet":  wallet,
	})
}

func (h *AdminHandler) SuspendWallet(c *fiber.Ctx) error {
	wallet, err := h.ledger.SuspendWallet(c.Context(), c.Params("userId"))
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

func (h *AdminHandler) ReactivateWallet(c *fiber.Ctx) error {
	wallet, err := h.ledger.ReactivateWallet(c.Context(), c.Params("userId"))
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, fiber.Map{"wallet": wallet})
}

// DeleteWallet removes the wallet row. History stays unless purge=true.
func (h *AdminHandler) DeleteWallet(c *fiber.Ctx) error {
	userID := c.Params("userId")
	if err := h.ledger.DeleteWallet(c.Context(), userID); err != nil {
		return ledgerError(c, err)
	}
	if c.QueryBool("purge") {
		if err := h.ledger.PurgeTransactions(c.Context(), userID); err != nil {
			return ledgerError(c, err)
		}
	}
	return utils.Success(c, fiber.Map{"message": "wallet deleted"})
}

// GetUserTransactions lets support inspect any user's history.
func (h *AdminHandler) GetUserTransactions(c *fiber.Ctx) error {
	txs, err := h.ledger.GetTransactions(c.Context(), c.Params("userId"), c.QueryInt("limit"))
	if err != nil {
		return ledgerError(c, err)
	}
	return utils.Success(c, fiber.Map{
		"transactions": txs,
		"count":        len(txs),
	})
}
