package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ccmeter/ccmeter/internal/core/pricing"
	"github.com/ccmeter/ccmeter/internal/daemon"
	"github.com/ccmeter/ccmeter/internal/server"
)

var (
	serveAddr     string
	serveInterval time.Duration
	serveWorkers  int

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the metrics daemon with an HTTP API",
		Long: `Performs a full scan of the usage logs at startup, then keeps the
aggregate fresh by tailing only the newly appended bytes of each log file,
triggered by file events and a poll interval.

The latest snapshot is served over HTTP:
  GET  /api/v1/metrics   current aggregate
  GET  /api/v1/health    scan health and freshness
  POST /api/v1/rescan    force a full rescan`,
		RunE: runServe,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8787",
		"HTTP listen address")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 5*time.Second,
		"Tail poll interval")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0,
		"Parse worker count (0 = 4x CPU count)")

	viper.BindPFlag("addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("interval", serveCmd.Flags().Lookup("interval"))
	viper.BindPFlag("workers", serveCmd.Flags().Lookup("workers"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := daemon.New(daemon.Config{
		DataDir:      resolvedDataDir(),
		Workers:      viper.GetInt("workers"),
		PollInterval: viper.GetDuration("interval"),
	}, pricing.CostFunc(), logger)

	api := server.NewWebAPI(logger, server.Config{
		Addr: viper.GetString("addr"),
	}, d)

	daemonErr := make(chan error, 1)
	go func() {
		daemonErr <- d.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- api.Start(ctx)
	}()

	select {
	case err := <-daemonErr:
		stop()
		<-serverErr
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	case err := <-serverErr:
		stop()
		if derr := <-daemonErr; derr != nil && !errors.Is(derr, context.Canceled) && err == nil {
			err = derr
		}
		return err
	}
}
