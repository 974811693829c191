package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobapply/internal/common"
	"github.com/joseph-ayodele/jobapply/internal/credits"
)

func newCreditsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Args:  cobra.NoArgs,
		Short: "Inspect and adjust credit balances",
	}
	cmd.AddCommand(newGrantCommand(), newBalanceCommand())
	return cmd
}

func newGrantCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Args:  cobra.ExactArgs(2),
		Short: "Add (or with a negative amount, deduct) credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := common.ParseUUID("user-id", args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			ledger := credits.NewLedger(e.db, e.repos.Users, e.logger)
			balance, err := ledger.Adjust(cmd.Context(), userID, amount, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s balance %d\n", userID, balance)
			return nil
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "manual grant", "reason recorded in the log")
	return cmd
}

func newBalanceCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <user-id>",
		Args:  cobra.ExactArgs(1),
		Short: "Print a user's credit balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := common.ParseUUID("user-id", args[0])
			if err != nil {
				return err
			}
			e, err := openEnv(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.close()

			balance, err := credits.NewLedger(e.db, e.repos.Users, e.logger).Balance(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), balance)
			return nil
		},
	}
}
