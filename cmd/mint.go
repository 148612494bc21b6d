package cmd

import (
	"lending/core"
	"lending/pkg/number"

	"github.com/asaskevich/govalidator"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "manage underlying assets",
}

var addAssetCmd = &cobra.Command{
	Use:   "add <asset-id> <symbol> <decimals>",
	Short: "register an asset, admin only",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ensureAdmin(cmd)

		if !govalidator.IsUUID(args[0]) {
			checkErr(cmd, core.ErrInvalidMarketParameters)
		}

		decimals, err := cast.ToUint8E(args[2])
		checkErr(cmd, err)

		database := provideDatabase()
		defer database.Close()

		name, _ := cmd.Flags().GetString("name")
		asset := &core.Asset{
			ID:       args[0],
			Name:     name,
			Symbol:   args[1],
			Decimals: decimals,
		}
		checkErr(cmd, provideAssetStore(database).Save(cmd.Context(), asset))
		cmd.Println("asset", asset.Symbol, "saved")
	},
}

var mintCmd = &cobra.Command{
	Use:   "mint <asset-id> <owner> <amount>",
	Short: "credit owner with asset, admin only",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ensureAdmin(cmd)
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		asset, err := provideAssetStore(database).Find(ctx, args[0])
		checkErr(cmd, err)
		if asset.ID == "" {
			checkErr(cmd, core.ErrInvalidAmount)
		}

		amount, err := number.ParseAmount(args[2], asset.Decimals)
		checkErr(cmd, err)

		balances := provideBalanceStore(database)
		checkErr(cmd, balances.Mint(ctx, asset.ID, args[1], amount))

		balance, err := balances.BalanceOf(ctx, asset.ID, args[1])
		checkErr(cmd, err)
		cmd.Println(args[1], "balance", number.Humanize(balance, asset.Decimals), asset.Symbol)
	},
}

func init() {
	rootCmd.AddCommand(assetCmd)
	assetCmd.AddCommand(addAssetCmd)
	addAssetCmd.Flags().String("name", "", "asset name")
	assetCmd.AddCommand(mintCmd)
}
