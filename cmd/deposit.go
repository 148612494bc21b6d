package cmd

import (
	"lending/handler/views"

	"github.com/spf13/cobra"
)

var depositCmd = &cobra.Command{
	Use:   "deposit <market> <amount>",
	Short: "deposit assets and mint market tokens",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		amount := m.amount(cmd, args[1])
		if upTo, _ := cmd.Flags().GetBool("up-to"); upTo {
			deposited, err := m.engine.DepositUpTo(cmd.Context(), m.caller, amount)
			checkErr(cmd, err)
			cmd.Println("deposited", m.humanize(deposited), m.asset.Symbol)
			return
		}

		checkErr(cmd, m.engine.Deposit(cmd.Context(), m.caller, amount))
		cmd.Println("deposited", m.humanize(amount), m.asset.Symbol)
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer <market> <to> <amount>",
	Short: "transfer market tokens to another lender",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.Transfer(cmd.Context(), m.caller, args[1], m.amount(cmd, args[2])))
		cmd.Println("transferred")
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance <market> [account]",
	Short: "show the market token balance of account",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		m := openMarket(cmd, args[0])
		defer m.close()

		account := m.caller
		if len(args) > 1 {
			account = args[1]
		}

		scaled, err := m.engine.ScaledBalanceOf(ctx, account)
		checkErr(cmd, err)

		normalized, err := m.engine.BalanceOf(ctx, account)
		checkErr(cmd, err)

		printStruct(cmd, views.AccountView(account, scaled, normalized, m.asset.Decimals))
	},
}

func init() {
	marketCmd.AddCommand(depositCmd)
	depositCmd.Flags().Bool("up-to", false, "deposit at most amount, clamped to the room under max supply")

	marketCmd.AddCommand(transferCmd)
	marketCmd.AddCommand(balanceCmd)
}
