// Command seed grants an initial STRAT balance to a user and prints a
// development token for exercising the API locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"strategiz/internal/config"
	"strategiz/internal/models"
	"strategiz/internal/repositories"
	"strategiz/internal/services/ledger"
	"strategiz/internal/utils"
)

func main() {
	userID := flag.String("user", "", "user id to credit (required)")
	amount := flag.Int64("amount", 1000*models.MicroUnits, "amount in micro-units")
	refID := flag.String("ref", "", "reference id; set to make the grant idempotent")
	description := flag.String("desc", "Initial token grant", "transaction description")
	token := flag.Bool("token", false, "also print a development JWT for the user")
	flag.Parse()

	if *userID == "" {
		log.Fatal("-user is required")
	}

	config.LoadEnv()

	db, err := repositories.InitDB(repositories.DefaultDBConfig())
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	svc := ledger.NewService(repositories.NewLedgerStore(db), nil, ledger.Config{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ref := ledger.Reference{Type: models.RefReward, ID: *refID}
	var wallet *models.Wallet
	if *refID != "" {
		wallet, err = svc.CreditOnce(ctx, *userID, *amount, ref, *description)
	} else {
		wallet, err = svc.Credit(ctx, *userID, *amount, ref, *description)
	}
	if err != nil {
		log.Fatalf("failed to credit user: %v", err)
	}

	fmt.Printf("wallet %s: balance=%d earned=%d\n", wallet.ID, wallet.Balance, wallet.TotalEarned)

	if *token {
		devToken, err := utils.GenerateToken(&models.UserClaims{
			UserID: *userID,
			Role:   "user",
			Permissions: []string{
				models.PermissionWalletRead,
				models.PermissionWalletWrite,
				models.PermissionTransactionRead,
			},
		}, 24*time.Hour)
		if err != nil {
			log.Fatalf("failed to generate token: %v", err)
		}
		fmt.Printf("dev token: %s\n", devToken)
	}
}
