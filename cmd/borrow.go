package cmd

import (
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var borrowCmd = &cobra.Command{
	Use:   "borrow <market> <amount>",
	Short: "borrow assets out of the market",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.Borrow(cmd.Context(), m.caller, m.amount(cmd, args[1])))
		cmd.Println("borrowed", args[1], m.asset.Symbol)
	},
}

var repayCmd = &cobra.Command{
	Use:   "repay <market> <amount>",
	Short: "repay debt",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		m := openMarket(cmd, args[0])
		defer m.close()

		amount := m.amount(cmd, args[1])
		if maxBatches, _ := cmd.Flags().GetInt("process"); maxBatches > 0 {
			checkErr(cmd, m.engine.RepayAndProcessUnpaidWithdrawalBatches(ctx, m.caller, amount, maxBatches))
		} else {
			checkErr(cmd, m.engine.Repay(ctx, m.caller, amount))
		}

		cmd.Println("repaid", args[1], m.asset.Symbol)
	},
}

var closeMarketCmd = &cobra.Command{
	Use:   "close <market>",
	Short: "close the market, settling every withdrawal",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.CloseMarket(cmd.Context(), m.caller))
		cmd.Println("closed")
	},
}

var setMaxSupplyCmd = &cobra.Command{
	Use:   "set-max-supply <market> <amount>",
	Short: "set max total supply",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.SetMaxTotalSupply(cmd.Context(), m.caller, m.amount(cmd, args[1])))
		cmd.Println("max supply set to", args[1])
	},
}

var setAprCmd = &cobra.Command{
	Use:   "set-apr <market> <annual-interest-bips> <reserve-ratio-bips>",
	Short: "set annual interest and reserve ratio",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		apr, err := cast.ToUint16E(args[1])
		checkErr(cmd, err)

		reserve, err := cast.ToUint16E(args[2])
		checkErr(cmd, err)

		checkErr(cmd, m.engine.SetAnnualInterestAndReserveRatioBips(cmd.Context(), m.caller, apr, reserve))

		state, err := m.engine.CurrentState(cmd.Context())
		checkErr(cmd, err)
		cmd.Println("annual interest bips", state.AnnualInterestBips, "reserve ratio bips", state.ReserveRatioBips)
	},
}

func init() {
	marketCmd.AddCommand(borrowCmd)

	marketCmd.AddCommand(repayCmd)
	repayCmd.Flags().Int("process", 0, "also process up to n unpaid batches")

	marketCmd.AddCommand(closeMarketCmd)
	marketCmd.AddCommand(setMaxSupplyCmd)
	marketCmd.AddCommand(setAprCmd)
}
