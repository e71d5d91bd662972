package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auctionsvc "auction-house/internal/auctionService"
	"auction-house/internal/config"
	"auction-house/internal/registry"
	"auction-house/internal/repository"
	"auction-house/internal/scheduler"
	"auction-house/internal/seed"
	"auction-house/internal/server"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		utils.Fatal("auction-house exited", map[string]any{"error": err.Error()})
	}
}

// newRootCmd builds the command tree. Running it without a subcommand serves HTTP.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var (
		cfgFile string
		cfg     *config.Config
	)

	cmd := &cobra.Command{
		Use:           "auction-house",
		Short:         "In-memory online auction house",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if err := utils.SetLevel(loaded.Log.Level); err != nil {
				return fmt.Errorf("config: log.level: %w", err)
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	flags.String("host", "0.0.0.0", "listen host")
	flags.Int("port", 8080, "listen port")
	flags.String("log-level", "info", `log level ("debug", "info", "warn", "error")`)
	flags.String("deadline-policy", "fixed", `how auction end times are chosen ("fixed", "random")`)
	flags.Bool("seed", false, "populate demo users, auctions and bids on startup")
	flags.Int64("seed-random", 0, "random seed for demo data and the random deadline policy (0 = time based)")

	// Bind flags to viper
	_ = v.BindPFlag("server.host", flags.Lookup("host"))
	_ = v.BindPFlag("server.port", flags.Lookup("port"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("auction.deadline_policy", flags.Lookup("deadline-policy"))
	_ = v.BindPFlag("seed.enabled", flags.Lookup("seed"))
	_ = v.BindPFlag("seed.random_seed", flags.Lookup("seed-random"))

	cmd.AddCommand(newSeedCmd(func() *config.Config { return cfg }))
	return cmd
}

// newSeedCmd seeds a fresh in-memory house and prints a summary
func newSeedCmd(cfg func() *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate demo data and print the first page of active auctions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			svc, err := buildService(c)
			if err != nil {
				return err
			}
			sum, err := seed.Seed(svc, seedOptions(c))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sum.String())
			for i, view := range svc.ListActive() {
				if i >= limit {
					break
				}
				fmt.Fprintf(out, "%4d  %-24s %-20s %12.2f  %s\n",
					view.AuctionID, view.Title, view.Owner.DisplayName, view.CurrentPrice, view.EndsAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of auctions to print")
	return cmd
}

func seedOptions(c *config.Config) seed.Options {
	return seed.Options{
		Auctions:   c.Seed.Auctions,
		Bids:       c.Seed.Bids,
		RandomSeed: c.Seed.RandomSeed,
	}
}

func buildService(c *config.Config) (*auctionsvc.AuctionService, error) {
	policy, err := auctionsvc.ParseDeadlinePolicy(c.Auction.DeadlinePolicy, c.Seed.RandomSeed)
	if err != nil {
		return nil, fmt.Errorf("config: auction.deadline_policy: %w", err)
	}
	return auctionsvc.NewAuctionService(
		registry.NewRegistry(),
		repository.NewMemoryRepo(),
		auctionsvc.WithDeadlinePolicy(policy),
	), nil
}

func runServe(ctx context.Context, c *config.Config) error {
	svc, err := buildService(c)
	if err != nil {
		return err
	}
	if c.Seed.Enabled {
		if _, err := seed.Seed(svc, seedOptions(c)); err != nil {
			return err
		}
	}

	if c.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              c.Addr(),
		Handler:           server.SetupRouter(svc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sweeper := scheduler.NewExpiryScheduler(svc, c.Auction.SweepInterval)
	if err := sweeper.Start(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr, "config": c.String()})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sweeper.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Server.ShutdownTimeout)
		defer cancel()
		utils.Info("shutting down auction server", map[string]any{"timeout": c.Server.ShutdownTimeout.String()})
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
