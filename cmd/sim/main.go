// Package main runs a scripted demonstration of the ledger against
// in-memory storage: taxed transfers, rate-limit rejections, allowance
// spending, and a liquidity deposit into the stub pool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"meme-token-ledger/internal/domain"
	"meme-token-ledger/internal/pool/stub"
	"meme-token-ledger/internal/storage/memory"
	"meme-token-ledger/internal/token"
)

func main() {
	// Parse flags
	taxRate := flag.Uint64("tax-rate", 5, "Transfer tax rate, integer percent 0..100")
	maxTxAmount := flag.Uint64("max-tx-amount", 1000, "Maximum single-transfer amount")
	dailyTxLimit := flag.Uint64("daily-tx-limit", 2500, "Per-address daily cumulative limit")
	initialSupply := flag.Uint64("initial-supply", 1_000_000, "Initial supply minted to the owner")
	outputJSON := flag.Bool("json", false, "Output balances as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[sim] ", log.LstdFlags)

	ctx := context.Background()

	owner := domain.NewWalletAddress("sim-owner")
	alice := domain.NewWalletAddress("sim-alice")
	bob := domain.NewWalletAddress("sim-bob")
	collector := domain.NewWalletAddress("sim-tax-wallet")
	counter := domain.NewWalletAddress("sim-counter-asset")

	cfg := domain.TokenConfig{
		Name:          "Meme Token",
		Symbol:        "MEME",
		TaxRate:       *taxRate,
		TaxWallet:     collector,
		MaxTxAmount:   *maxTxAmount,
		DailyTxLimit:  *dailyTxLimit,
		TokenAddress:  domain.NewWalletAddress("sim-token"),
		Owner:         owner,
		InitialSupply: *initialSupply,
	}

	accounts := memory.NewAccountStore()
	transferEvents := memory.NewTransferEventStore()
	ammPool := stub.New(counter)

	tok, err := token.New(ctx, cfg, token.Options{
		Accounts:        accounts,
		Pairs:           memory.NewPairLiquidityStore(),
		TransferEvents:  transferEvents,
		LiquidityEvents: memory.NewLiquidityEventStore(),
		Pool:            ammPool,
	})
	if err != nil {
		logger.Fatalf("create token: %v", err)
	}

	logger.Printf("Token %s (%s): supply %d, tax %d%%, max tx %d, daily limit %d",
		cfg.Name, cfg.Symbol, cfg.InitialSupply, cfg.TaxRate, cfg.MaxTxAmount, cfg.DailyTxLimit)

	// Scripted activity: successes and expected rejections. With default
	// limits the owner ends the script exactly at the daily limit.
	steps := []struct {
		desc string
		run  func() error
	}{
		{"owner -> alice 1000", func() error {
			_, err := tok.Transfer(ctx, owner, alice, 1000)
			return err
		}},
		{"owner -> bob 500", func() error {
			_, err := tok.Transfer(ctx, owner, bob, 500)
			return err
		}},
		{"owner -> alice above max tx", func() error {
			_, err := tok.Transfer(ctx, owner, alice, *maxTxAmount+1)
			return err
		}},
		{"owner -> alice 1000 (reaches the daily limit)", func() error {
			_, err := tok.Transfer(ctx, owner, alice, 1000)
			return err
		}},
		{"owner -> bob 100 above daily limit", func() error {
			_, err := tok.Transfer(ctx, owner, bob, 100)
			return err
		}},
		{"alice approves bob 300", func() error {
			return tok.Approve(ctx, alice, bob, 300)
		}},
		{"bob spends 200 of alice's allowance", func() error {
			_, err := tok.TransferFrom(ctx, bob, alice, bob, 200)
			return err
		}},
		{"owner deposits 1000 tokens + 10 base (limits do not apply)", func() error {
			event, err := tok.AddLiquidityForBaseAsset(ctx, owner, 1000, 0, 0, 10)
			if err != nil {
				return err
			}
			logger.Printf("  minted %d liquidity units (pair %s/%s)",
				event.LiquidityUnits, event.PairToken, event.PairCounter)
			return nil
		}},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			logger.Printf("%s: rejected: %v", step.desc, err)
			continue
		}
		logger.Printf("%s: ok", step.desc)
	}

	total := printLedger(ctx, tok, logger, *outputJSON, map[string]domain.Address{
		"owner":      owner,
		"alice":      alice,
		"bob":        bob,
		"tax-wallet": collector,
	})

	// Tokens leave wallets only into the pool, so wallets plus pool
	// reserves must equal the supply.
	poolToken, _, _ := ammPool.Reserves()
	if total+poolToken != tok.TotalSupply() {
		logger.Printf("WARNING: wallets (%d) + pool (%d) != supply (%d)",
			total, poolToken, tok.TotalSupply())
	}

	events, err := transferEvents.GetSince(ctx, 0)
	if err != nil {
		logger.Fatalf("load events: %v", err)
	}
	logger.Printf("%d transfer events recorded", len(events))

	units, err := tok.PairLiquidity(ctx, cfg.TokenAddress, counter)
	if err != nil {
		logger.Fatalf("pair liquidity: %v", err)
	}
	logger.Printf("pair liquidity: %d units", units)
}

func printLedger(ctx context.Context, tok *token.Token, logger *log.Logger, asJSON bool, wallets map[string]domain.Address) uint64 {
	balances := make(map[string]uint64, len(wallets))
	var total uint64
	for name, addr := range wallets {
		balance, err := tok.BalanceOf(ctx, addr)
		if err != nil {
			logger.Fatalf("balance of %s: %v", name, err)
		}
		balances[name] = balance
		total += balance
	}

	if asJSON {
		json.NewEncoder(os.Stdout).Encode(balances)
	} else {
		for name, balance := range balances {
			fmt.Printf("%-12s %d\n", name, balance)
		}
	}

	return total
}
