package cmd

import (
	"context"
	"fmt"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/openalpha/predictionx/internal/app"
	"github.com/openalpha/predictionx/internal/store"
)

// newAdminCmd is the `predictionxd admin` subcommand group: thin wrappers
// around CopyTradingEngine/AutoSettlement/Ledger for operational triage
// out-of-band from the HTTP surface (SPEC_FULL.md §4.CLI).
func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operational triage commands: clearing lookups, balances, settlement",
	}
	cmd.AddCommand(newAdminListClearingCmd())
	cmd.AddCommand(newAdminBalancesCmd())
	cmd.AddCommand(newAdminSettleCmd())
	return cmd
}

func newAdminListClearingCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "list-clearing <outcomeId>",
		Short: "List the Clearing transaction ids CopyTradingEngine posted for an outcome",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := store.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("admin list-clearing: connecting to postgres: %w", err)
			}
			defer pool.Close()

			wired := app.New(pool, log.NewNopLogger())
			ids := wired.CopyTrading.GetClearingTransactionIdsForOutcome(args[0])
			if len(ids) == 0 {
				fmt.Println("no clearing transactions for outcome", args[0])
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func newAdminBalancesCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "balances <operatorId>",
		Short: "Show every account balance (all phases) for an operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := store.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("admin balances: connecting to postgres: %w", err)
			}
			defer pool.Close()

			wired := app.New(pool, log.NewNopLogger())
			balances, err := wired.Ledger.GetOperatorBalances(ctx, args[0])
			if err != nil {
				return fmt.Errorf("admin balances: %w", err)
			}
			if len(balances) == 0 {
				fmt.Println("no accounts for operator", args[0])
				return nil
			}
			for accountID, balance := range balances {
				fmt.Printf("%s  %s\n", accountID, balance)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}

func newAdminSettleCmd() *cobra.Command {
	var dsn string

	cmd := &cobra.Command{
		Use:   "settle <outcomeId>",
		Short: "Run AutoSettlement.SettleOutcome for an outcome (idempotent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pool, err := store.NewPool(ctx, dsn)
			if err != nil {
				return fmt.Errorf("admin settle: connecting to postgres: %w", err)
			}
			defer pool.Close()

			wired := app.New(pool, log.NewNopLogger())
			result, err := wired.Settlement.SettleOutcome(ctx, args[0], nil, nil)
			if err != nil {
				return fmt.Errorf("admin settle: %w", err)
			}
			fmt.Println(result.Message)
			fmt.Printf("new=%v alreadySettled=%v\n", result.New, result.AlreadySettled)
			return nil
		},
	}

	cmd.Flags().StringVar(&dsn, "dsn", "", "Postgres connection string")
	_ = cmd.MarkFlagRequired("dsn")
	return cmd
}
