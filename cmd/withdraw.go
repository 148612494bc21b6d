package cmd

import (
	"lending/handler/views"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var queueWithdrawalCmd = &cobra.Command{
	Use:   "queue <market> [amount]",
	Short: "queue a withdrawal, the whole balance when amount is omitted",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		m := openMarket(cmd, args[0])
		defer m.close()

		var (
			expiry uint32
			err    error
		)

		if len(args) == 1 {
			expiry, err = m.engine.QueueFullWithdrawal(ctx, m.caller)
		} else {
			expiry, err = m.engine.QueueWithdrawal(ctx, m.caller, m.amount(cmd, args[1]))
		}
		checkErr(cmd, err)

		cmd.Println("queued in batch", expiry)
	},
}

var executeWithdrawalCmd = &cobra.Command{
	Use:   "execute <market> <expiry> [account]...",
	Short: "pay out expired withdrawals",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		m := openMarket(cmd, args[0])
		defer m.close()

		expiry, err := cast.ToUint32E(args[1])
		checkErr(cmd, err)

		accounts := args[2:]
		if len(accounts) == 0 {
			accounts = []string{m.caller}
		}

		expiries := make([]uint32, len(accounts))
		for i := range expiries {
			expiries[i] = expiry
		}

		amounts, err := m.engine.ExecuteWithdrawals(ctx, accounts, expiries)
		checkErr(cmd, err)

		for i, account := range accounts {
			cmd.Println(account, m.humanize(amounts[i]), m.asset.Symbol)
		}
	},
}

var processUnpaidCmd = &cobra.Command{
	Use:   "process-unpaid <market> [max-batches]",
	Short: "pay unpaid withdrawal batches from available liquidity",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		maxBatches := 10
		if len(args) > 1 {
			maxBatches = cast.ToInt(args[1])
		}

		checkErr(cmd, m.engine.ProcessUnpaidWithdrawalBatches(cmd.Context(), maxBatches))

		expiries, err := m.engine.UnpaidBatchExpiries(cmd.Context())
		checkErr(cmd, err)
		cmd.Println("unpaid batches left:", expiries)
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <market> <expiry> [account]",
	Short: "show a withdrawal batch, or an account's share of it",
	Args:  cobra.RangeArgs(2, 3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		m := openMarket(cmd, args[0])
		defer m.close()

		expiry, err := cast.ToUint32E(args[1])
		checkErr(cmd, err)

		if len(args) == 2 {
			batch, err := m.engine.WithdrawalBatch(ctx, expiry)
			checkErr(cmd, err)

			state, err := m.engine.CurrentState(ctx)
			checkErr(cmd, err)

			printStruct(cmd, views.BatchView(batch, state.LastInterestAccruedTimestamp, m.asset.Decimals))
			return
		}

		status, err := m.engine.AccountWithdrawalStatus(ctx, args[2], expiry)
		checkErr(cmd, err)

		available, _ := m.engine.AvailableWithdrawalAmount(ctx, args[2], expiry)
		printStruct(cmd, views.WithdrawalStatusView(status, available, m.asset.Decimals))
	},
}

func init() {
	marketCmd.AddCommand(queueWithdrawalCmd)
	marketCmd.AddCommand(executeWithdrawalCmd)
	marketCmd.AddCommand(processUnpaidCmd)
	marketCmd.AddCommand(batchCmd)
}
