package cmd

import (
	"lending/core"

	"github.com/fox-one/pkg/store/db"
	"github.com/spf13/cobra"
)

var lenderCmd = &cobra.Command{
	Use:   "lender",
	Short: "manage approved lenders of restricted markets",
}

func borrowerMarket(cmd *cobra.Command, database *db.DB, address string) *core.Market {
	market, err := provideMarketService(database).Find(cmd.Context(), address)
	checkErr(cmd, err)

	if caller, _ := cmd.Flags().GetString("as"); caller != market.Borrower {
		checkErr(cmd, core.ErrNotBorrower)
	}

	return market
}

var approveLenderCmd = &cobra.Command{
	Use:   "approve <market> <lender>",
	Short: "approve lender, borrower only",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		market := borrowerMarket(cmd, database, args[0])

		lenders := provideLenderStore(database)
		if revoke, _ := cmd.Flags().GetBool("revoke"); revoke {
			checkErr(cmd, lenders.Revoke(cmd.Context(), market.Address, args[1]))
			cmd.Println("revoked", args[1])
			return
		}

		checkErr(cmd, lenders.Approve(cmd.Context(), market.Address, args[1]))
		cmd.Println("approved", args[1])
	},
}

var listLendersCmd = &cobra.Command{
	Use:   "list <market>",
	Short: "list approved lenders",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database := provideDatabase()
		defer database.Close()

		lenders, err := provideLenderStore(database).List(cmd.Context(), args[0])
		checkErr(cmd, err)

		for _, l := range lenders {
			cmd.Println(l.Address, l.CreatedAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	rootCmd.AddCommand(lenderCmd)
	lenderCmd.AddCommand(approveLenderCmd)
	approveLenderCmd.Flags().Bool("revoke", false, "revoke the approval")
	lenderCmd.AddCommand(listLendersCmd)
}
