/*
Package ledger implements the STRAT token wallet ledger.

It owns wallet lifecycle and every balance-affecting operation:

  - Wallet management (get-or-create, suspend, delete)
  - Credit / debit / lock / unlock
  - Two-wallet transfers with platform fees and compensation
  - Idempotent crediting from external payment events
  - Read-only transaction history projections

Every operation executes as a single atomic unit against one wallet: read a
versioned snapshot, validate, compute the new snapshot, then commit the
wallet update together with exactly one immutable transaction record. Commits
are conditioned on the wallet version being unchanged; conflicts retry with
bounded exponential backoff. Concurrent operations on different wallets never
contend.

Usage:

	store := repositories.NewLedgerStore(db)
	svc := ledger.NewService(store, cache, ledger.Config{}, nil)

	wallet, err := svc.GetOrCreateWallet(ctx, userID)
	wallet, err = svc.Credit(ctx, userID, amount, ledger.Reference{Type: models.RefReward, ID: "signup"}, "Signup bonus")
	wallet, err = svc.Debit(ctx, userID, amount, ledger.Reference{Type: models.RefAIUsage, ID: sessionID}, "AI usage")

Amounts are int64 micro-units (models.MicroUnits per STRAT); the ledger never
touches floating point.
*/
package ledger
