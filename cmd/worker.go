package cmd

import (
	"lending/worker/market"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "settle market states on a schedule",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		database := provideDatabase()
		defer database.Close()

		job := market.New(
			cfg.Worker,
			cfg.App.Location,
			provideMarketService(database),
			providePropertyStore(database),
		)

		ctx = signal.WithContext(ctx)
		if err := job.Start(); err != nil {
			log.WithError(err).Fatalln("start market worker")
		}

		log.Infoln("market worker started, schedule", cfg.Worker.Schedule)
		<-ctx.Done()

		_ = job.Stop()
		log.Infoln("market worker stopped")
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
