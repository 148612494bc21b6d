package cmd

import (
	"lending/core"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

func ensureAdmin(cmd *cobra.Command) string {
	caller, _ := cmd.Flags().GetString("as")
	if !provideConfig().IsAdmin(caller) {
		checkErr(cmd, core.ErrNotAdmin)
	}

	return caller
}

var setProtocolFeeCmd = &cobra.Command{
	Use:   "set-protocol-fee <market> <bips>",
	Short: "set the protocol fee, admin only",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ensureAdmin(cmd)

		bips, err := cast.ToUint16E(args[1])
		checkErr(cmd, err)

		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.SetProtocolFeeBips(cmd.Context(), bips))
		cmd.Println("protocol fee bips set to", bips)
	},
}

var collectFeesCmd = &cobra.Command{
	Use:   "collect-fees <market>",
	Short: "send withdrawable protocol fees to the fee recipient",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		amount, err := m.engine.CollectFees(cmd.Context())
		checkErr(cmd, err)
		cmd.Println("collected", m.humanize(amount), m.asset.Symbol, "to", m.engine.Market().FeeRecipient)
	},
}

var blockAccountCmd = &cobra.Command{
	Use:   "block <market> <account>",
	Short: "queue the whole balance of a sanctioned account",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.BlockSanctionedAccount(cmd.Context(), args[1]))
		cmd.Println("blocked", args[1])
	},
}

var sanctionCmd = &cobra.Command{
	Use:   "sanction",
	Short: "manage the sanctions list",
}

var flagAccountCmd = &cobra.Command{
	Use:   "flag <account>",
	Short: "flag account, admin only",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureAdmin(cmd)

		database := provideDatabase()
		defer database.Close()

		remove, _ := cmd.Flags().GetBool("remove")
		sanctions := provideSanctionStore(database)
		if remove {
			checkErr(cmd, sanctions.Unflag(cmd.Context(), args[0]))
			cmd.Println("unflagged", args[0])
			return
		}

		checkErr(cmd, sanctions.Flag(cmd.Context(), args[0]))
		cmd.Println("flagged", args[0])
	},
}

var overrideCmd = &cobra.Command{
	Use:   "override <account>",
	Short: "let a flagged account use the caller's markets",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		borrower, _ := cmd.Flags().GetString("as")
		remove, _ := cmd.Flags().GetBool("remove")
		sanctions := provideSanctionStore(database)
		if remove {
			checkErr(cmd, sanctions.RemoveOverride(cmd.Context(), borrower, args[0]))
			cmd.Println("override removed", args[0])
			return
		}

		checkErr(cmd, sanctions.Override(cmd.Context(), borrower, args[0]))
		cmd.Println("overridden", args[0])
	},
}

func init() {
	marketCmd.AddCommand(setProtocolFeeCmd)
	marketCmd.AddCommand(collectFeesCmd)
	marketCmd.AddCommand(blockAccountCmd)

	rootCmd.AddCommand(sanctionCmd)
	sanctionCmd.AddCommand(flagAccountCmd)
	flagAccountCmd.Flags().Bool("remove", false, "remove the flag")
	sanctionCmd.AddCommand(overrideCmd)
	overrideCmd.Flags().Bool("remove", false, "remove the override")
}
