package handlers

import (
	"errors"

	"strategiz/internal/models"
	"strategiz/internal/services/ledger"
	"strategiz/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct {
	ledger ledger.Service
}

func NewWalletHandler(ledgerService ledger.Service) *WalletHandler {
	return &WalletHandler{
		ledger: ledgerService,
	}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

// ledgerError maps service errors onto HTTP responses. Anything not
// explicitly mapped is a 500 without leaking internals.
func ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidUserID),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrReferenceRequired):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientAvailableBalance):
		return utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, ledger.ErrWalletNotFound):
		return utils.NotFound(c, "wallet not found")
	case errors.Is(err, ledger.ErrWalletSuspended):
		return utils.Forbidden(c, "wallet suspended")
	case errors.Is(err, ledger.ErrConcurrencyExhausted):
		return utils.Conflict(c, "wallet busy, please retry")
	default:
		return utils.InternalError(c, "operation failed")
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	wallet, err := h.ledger.GetOrCreateWallet(c.Context(), claims.UserID)
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"wallet":            wallet,
		"available_balance": wallet.AvailableBalance(),
	})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	limit := c.QueryInt("limit")

	var txs []models.Transaction
	switch {
	case c.QueryBool("pending"):
		txs, err = h.ledger.GetPendingTransactions(c.Context(), claims.UserID)
	case c.Query("type") != "":
		txs, err = h.ledger.GetTransactionsByType(c.Context(), claims.UserID, c.Query("type"), limit)
	default:
		txs, err = h.ledger.GetTransactions(c.Context(), claims.UserID, limit)
	}
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"transactions": txs,
		"count":        len(txs),
	})
}

func (h *WalletHandler) Transfer(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		ToUserID    string `json:"to_user_id"`
		Amount      int64  `json:"amount"`
		PlatformFee int64  `json:"platform_fee"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.ToUserID == "" {
		return utils.BadRequest(c, "to_user_id is required")
	}

	from, to, err := h.ledger.Transfer(c.Context(), claims.UserID, input.ToUserID,
		input.Amount, input.PlatformFee, input.Description)
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":           "transfer completed",
		"amount":            input.Amount,
		"platform_fee":      input.PlatformFee,
		"new_balance":       from.Balance,
		"recipient_balance": to.Balance,
	})
}

type lockInput struct {
	Amount        int64  `json:"amount"`
	ReferenceType string `json:"reference_type"`
	ReferenceID   string `json:"reference_id"`
}

func (h *WalletHandler) LockFunds(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input lockInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	wallet, err := h.ledger.LockFunds(c.Context(), claims.UserID, input.Amount,
		ledger.Reference{Type: input.ReferenceType, ID: input.ReferenceID})
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":           "funds locked",
		"locked_balance":    wallet.LockedBalance,
		"available_balance": wallet.AvailableBalance(),
	})
}

func (h *WalletHandler) UnlockFunds(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input lockInput
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}

	wallet, err := h.ledger.UnlockFunds(c.Context(), claims.UserID, input.Amount,
		ledger.Reference{Type: input.ReferenceType, ID: input.ReferenceID})
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message":           "funds unlocked",
		"locked_balance":    wallet.LockedBalance,
		"available_balance": wallet.AvailableBalance(),
	})
}

func (h *WalletHandler) SetExternalAddress(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Address string `json:"address"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "invalid request format")
	}
	if input.Address == "" {
		return utils.BadRequest(c, "address is required")
	}

	wallet, err := h.ledger.SetExternalAddress(c.Context(), claims.UserID, input.Address)
	if err != nil {
		return ledgerError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"message": "external address updated",
		"wallet":  wallet,
	})
}
