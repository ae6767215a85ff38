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

	"dbdhistory/internal/config"
	"dbdhistory/internal/metrics"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr string
	hostPage   string
)

var rootCmd = &cobra.Command{
	Use:   "dbd-history",
	Short: "Augments the Dead by Daylight match history page with full match tables",
	Long: `Loads the match history page, captures the match-history data the page
requests, and replaces each match card with a table of every player's loadout,
scores, bloodpoints and time in match.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the augmented match history page",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = listenAddr
		}
		if cmd.Flags().Changed("page") {
			cfg.HostPage = hostPage
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		level, _ := log.ParseLevel(cfg.LogLevel)
		log.SetLevel(level)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Address to serve the page on (overrides DBD_LISTEN_ADDR)")
	serveCmd.Flags().StringVar(&hostPage, "page", "", "Host page file or URL (overrides DBD_HOST_PAGE)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	state, closer, err := openState(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	doc, err := loadPage(ctx, cfg, http.DefaultTransport)
	if err != nil {
		return err
	}

	app := NewApp(cfg, doc, state, metrics.NewService(), http.DefaultTransport)
	if err := app.connectSocket(ctx); err != nil {
		return err
	}
	defer app.shutdown()
	app.Install(ctx)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           app.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := app.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("Serving match history", "addr", "http://"+cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		// A failed host request is not fatal; the fallback covers it
		if err := app.requestHistory(ctx); err != nil {
			log.Warn("Host match-history request failed", "err", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
