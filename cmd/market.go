package cmd

import (
	"os"
	"strings"

	"lending/core"
	"lending/handler/views"
	"lending/pkg/number"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/yiplee/structs"
)

var marketCmd = &cobra.Command{
	Use:     "market",
	Aliases: []string{"m"},
	Short:   "open and operate markets",
}

// marketEnv one market opened from the command line
type marketEnv struct {
	markets core.IMarketService
	engine  core.IMarketEngine
	asset   *core.Asset
	caller  string
	close   func()
}

func openMarket(cmd *cobra.Command, address string) *marketEnv {
	ctx := cmd.Context()
	database := provideDatabase()

	markets := provideMarketService(database)
	engine, err := markets.Engine(ctx, address)
	checkErr(cmd, err)

	asset, err := provideAssetStore(database).Find(ctx, engine.Market().AssetID)
	checkErr(cmd, err)

	caller, _ := cmd.Flags().GetString("as")
	return &marketEnv{
		markets: markets,
		engine:  engine,
		asset:   asset,
		caller:  caller,
		close:   func() { database.Close() },
	}
}

// amount parses an amount in asset units
func (m *marketEnv) amount(cmd *cobra.Command, s string) *uint256.Int {
	v, err := number.ParseAmount(s, m.asset.Decimals)
	checkErr(cmd, err)
	return v
}

func (m *marketEnv) humanize(v *uint256.Int) decimal.Decimal {
	return number.Humanize(v, m.asset.Decimals)
}

func checkErr(cmd *cobra.Command, err error) {
	if err != nil {
		cmd.PrintErrln("error:", err)
		os.Exit(1)
	}
}

// printStruct prints the json named fields of v, one per line
func printStruct(cmd *cobra.Command, v interface{}) {
	for _, f := range structs.New(v).Fields() {
		name := strings.Split(f.Tag(structs.DefaultTagName), ",")[0]
		if name == "" || name == "-" {
			name = f.Name()
		}

		cmd.Printf("%-28s %+v\n", name, f.Value())
	}
}

var createMarketCmd = &cobra.Command{
	Use:   "create",
	Short: "open a new market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		database := provideDatabase()
		defer database.Close()

		flags := cmd.Flags()
		params := &core.MarketParameters{}
		params.Name, _ = flags.GetString("name")
		params.Symbol, _ = flags.GetString("symbol")
		params.AssetID, _ = flags.GetString("asset")
		params.Borrower, _ = flags.GetString("as")
		params.FeeRecipient, _ = flags.GetString("fee-recipient")
		params.AnnualInterestBips, _ = flags.GetUint16("apr")
		params.ReserveRatioBips, _ = flags.GetUint16("reserve")
		params.ProtocolFeeBips, _ = flags.GetUint16(core.ParamProtocolFeeBips)
		params.DelinquencyFeeBips, _ = flags.GetUint16(core.ParamDelinquencyFeeBips)
		params.DelinquencyGracePeriod, _ = flags.GetUint32(core.ParamDelinquencyGracePeriod)
		params.WithdrawalBatchDuration, _ = flags.GetUint32(core.ParamWithdrawalBatchDuration)
		provideConfig().Defaults.Apply(params, flags.Changed)

		asset, err := provideAssetStore(database).Find(ctx, params.AssetID)
		checkErr(cmd, err)
		if asset.ID == "" {
			checkErr(cmd, core.ErrInvalidMarketParameters)
		}

		maxSupply, _ := flags.GetString("max-supply")
		v, err := number.ParseAmount(maxSupply, asset.Decimals)
		checkErr(cmd, err)
		params.MaxTotalSupply.Set(v)

		h := &params.Hooks
		h.RestrictedDeposits, _ = flags.GetBool("restricted")
		h.TransfersDisabled, _ = flags.GetBool("no-transfers")
		h.FixedTermEndTime, _ = flags.GetUint32("fixed-term-end")
		h.AllowClosureBeforeTerm, _ = flags.GetBool("allow-early-close")
		h.MinimumAnnualInterestBips, _ = flags.GetUint16("min-apr")
		h.MaximumAnnualInterestBips, _ = flags.GetUint16("max-apr")
		if s, _ := flags.GetString("min-deposit"); s != "" {
			minimum, err := number.ParseAmount(s, asset.Decimals)
			checkErr(cmd, err)
			h.MinimumDeposit = number.FromUint256(minimum)
		}

		market, err := provideMarketService(database).Create(ctx, params)
		checkErr(cmd, err)

		printStruct(cmd, views.MarketView(market, asset))
	},
}

var listMarketsCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "list markets",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		database := provideDatabase()
		defer database.Close()

		markets, err := provideMarketService(database).All(ctx)
		checkErr(cmd, err)

		for _, m := range markets {
			cmd.Printf("%s  %-8s  borrower %s\n", m.Address, m.Symbol, m.Borrower)
		}
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <market>",
	Short: "show market state as of now",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		summary, err := m.engine.Summary(cmd.Context())
		checkErr(cmd, err)

		printStruct(cmd, views.SummaryView(args[0], summary, m.asset.Decimals))
	},
}

var updateStateCmd = &cobra.Command{
	Use:   "update <market>",
	Short: "accrue interest and persist the market state",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m := openMarket(cmd, args[0])
		defer m.close()

		checkErr(cmd, m.engine.UpdateState(cmd.Context()))
		cmd.Println("updated")
	},
}

func init() {
	rootCmd.AddCommand(marketCmd)

	marketCmd.AddCommand(createMarketCmd)
	flags := createMarketCmd.Flags()
	flags.String("name", "", "market name")
	flags.String("symbol", "", "market token symbol")
	flags.String("asset", "", "underlying asset id")
	flags.String("fee-recipient", "", "protocol fee recipient, config default if empty")
	flags.String("max-supply", "0", "max total supply in asset units")
	flags.Uint16("apr", 0, "annual interest bips")
	flags.Uint16("reserve", 0, "reserve ratio bips")
	flags.Uint16(core.ParamProtocolFeeBips, 0, "protocol fee bips, config default if not given")
	flags.Uint16(core.ParamDelinquencyFeeBips, 0, "delinquency fee bips, config default if not given")
	flags.Uint32(core.ParamDelinquencyGracePeriod, 0, "delinquency grace period in seconds, config default if not given")
	flags.Uint32(core.ParamWithdrawalBatchDuration, 0, "withdrawal batch duration in seconds, config default if not given")
	flags.Bool("restricted", false, "only approved lenders can deposit")
	flags.String("min-deposit", "", "minimum deposit in asset units")
	flags.Bool("no-transfers", false, "disable market token transfers")
	flags.Uint32("fixed-term-end", 0, "fixed term end timestamp")
	flags.Bool("allow-early-close", false, "allow closing before the fixed term ends")
	flags.Uint16("min-apr", 0, "lowest annual interest bips the borrower can set")
	flags.Uint16("max-apr", 0, "highest annual interest bips the borrower can set")

	marketCmd.AddCommand(listMarketsCmd)
	marketCmd.AddCommand(summaryCmd)
	marketCmd.AddCommand(updateStateCmd)
}
