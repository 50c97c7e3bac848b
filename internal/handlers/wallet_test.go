package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"strategiz/internal/middleware"
	"strategiz/internal/models"
	"strategiz/internal/repositories/memory"
	"strategiz/internal/services/ledger"
	"strategiz/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWalletApp(t *testing.T) (*fiber.App, ledger.Service) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")

	svc := ledger.NewService(memory.NewStore(), nil, ledger.Config{}, nil)
	h := NewWalletHandler(svc)

	app := fiber.New()
	api := app.Group("/api", middleware.AuthMiddleware)
	api.Get("/wallet", h.GetWallet)
	api.Get("/wallet/transactions", h.GetTransactions)
	api.Post("/wallet/transfer", h.Transfer)
	api.Post("/wallet/lock", h.LockFunds)
	api.Post("/wallet/unlock", h.UnlockFunds)
	return app, svc
}

func userToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := utils.GenerateToken(&models.UserClaims{
		UserID: userID,
		Role:   "user",
		Permissions: []string{
			models.PermissionWalletRead,
			models.PermissionWalletWrite,
			models.PermissionTransactionRead,
		},
	}, time.Hour)
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*fiber.Map, int) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out fiber.Map
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return &out, resp.StatusCode
}

func TestWalletRoutes(t *testing.T) {
	t.Run("requires a token", func(t *testing.T) {
		app, _ := newWalletApp(t)
		_, status := doJSON(t, app, "GET", "/api/wallet", "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	})

	t.Run("get wallet creates on first access", func(t *testing.T) {
		app, _ := newWalletApp(t)
		body, status := doJSON(t, app, "GET", "/api/wallet", userToken(t, "user-1"), nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.Contains(t, *body, "wallet")
	})

	t.Run("transfer between users", func(t *testing.T) {
		app, svc := newWalletApp(t)
		_, err := svc.Credit(context.Background(), "alice", 105, ledger.Reference{}, "")
		require.NoError(t, err)

		body, status := doJSON(t, app, "POST", "/api/wallet/transfer", userToken(t, "alice"), fiber.Map{
			"to_user_id":   "bob",
			"amount":       100,
			"platform_fee": 5,
			"description":  "strategy purchase",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 0, (*body)["new_balance"])
		assert.EqualValues(t, 100, (*body)["recipient_balance"])
	})

	t.Run("insufficient balance maps to 422", func(t *testing.T) {
		app, _ := newWalletApp(t)
		_, status := doJSON(t, app, "POST", "/api/wallet/transfer", userToken(t, "alice"), fiber.Map{
			"to_user_id": "bob",
			"amount":     100,
		})
		assert.Equal(t, fiber.StatusNotFound, status, "no wallet yet")

		app2, svc := newWalletApp(t)
		_, err := svc.Credit(context.Background(), "alice", 50, ledger.Reference{}, "")
		require.NoError(t, err)
		_, status = doJSON(t, app2, "POST", "/api/wallet/transfer", userToken(t, "alice"), fiber.Map{
			"to_user_id": "bob",
			"amount":     100,
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	})

	t.Run("lock and unlock", func(t *testing.T) {
		app, svc := newWalletApp(t)
		_, err := svc.Credit(context.Background(), "user-1", 100, ledger.Reference{}, "")
		require.NoError(t, err)
		token := userToken(t, "user-1")

		body, status := doJSON(t, app, "POST", "/api/wallet/lock", token, fiber.Map{
			"amount":         40,
			"reference_type": models.RefEscrow,
			"reference_id":   "trade-1",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 40, (*body)["locked_balance"])
		assert.EqualValues(t, 60, (*body)["available_balance"])

		body, status = doJSON(t, app, "POST", "/api/wallet/unlock", token, fiber.Map{
			"amount":         40,
			"reference_type": models.RefEscrow,
			"reference_id":   "trade-1",
		})
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 0, (*body)["locked_balance"])
	})

	t.Run("transaction history with type filter", func(t *testing.T) {
		app, svc := newWalletApp(t)
		_, err := svc.Credit(context.Background(), "user-1", 100, ledger.Reference{}, "")
		require.NoError(t, err)
		_, err = svc.Debit(context.Background(), "user-1", 30, ledger.Reference{}, "")
		require.NoError(t, err)

		body, status := doJSON(t, app, "GET", "/api/wallet/transactions?type=DEBIT", userToken(t, "user-1"), nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, (*body)["count"])
	})
}
