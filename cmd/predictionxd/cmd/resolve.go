package cmd

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/outcomeledger"
	"github.com/openalpha/predictionx/internal/resolver"
	"github.com/openalpha/predictionx/internal/store"
)

func newResolveMarketCmd() *cobra.Command {
	var dsn, winningAssetType, settlementAccountID, usdPerToken string

	cmd := &cobra.Command{
		Use:   "resolve-market",
		Short: "Admin path: settle a market by aggregating outcome-asset holders (spec §4.T)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := log.NewNopLogger()

			pool, err := store.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("resolve-market: connecting to postgres: %w", err)
			}
			defer pool.Close()

			settlementID, err := uuid.Parse(settlementAccountID)
			if err != nil {
				return fmt.Errorf("resolve-market: invalid --settlement-account-id: %w", err)
			}
			amount, err := money.Parse(usdPerToken)
			if err != nil {
				return fmt.Errorf("resolve-market: invalid --usd-per-token: %w", err)
			}

			ol := outcomeledger.New(store.NewOutcomeLedgerRepository(pool))
			res := resolver.New(ol, logger)

			result, err := res.ResolveMarket(ctx, winningAssetType, settlementID, amount)
			if err != nil {
				return err
			}
			fmt.Printf("accountsSettled=%d totalUsdPaidOut=%s\n", result.AccountsSettled, result.TotalUSDPaidOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	cmd.Flags().StringVar(&winningAssetType, "winning-asset-type", "", "winning outcome asset type, e.g. DRAKE_WIN")
	cmd.Flags().StringVar(&settlementAccountID, "settlement-account-id", "", "settlement account id")
	cmd.Flags().StringVar(&usdPerToken, "usd-per-token", "1.00", "USD paid per winning token")
	_ = cmd.MarkFlagRequired("dsn")
	_ = cmd.MarkFlagRequired("winning-asset-type")
	_ = cmd.MarkFlagRequired("settlement-account-id")
	return cmd
}
