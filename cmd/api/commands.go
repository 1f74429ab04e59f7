package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xavierca1/sales-operator/internal/config"
	"github.com/xavierca1/sales-operator/internal/infra/http/handlers"
	"github.com/xavierca1/sales-operator/internal/infra/queue"
	"github.com/xavierca1/sales-operator/internal/infra/worker"
	"github.com/xavierca1/sales-operator/internal/usecase"
)

func newRootCmd() *cobra.Command {
	var driver string

	root := &cobra.Command{
		Use:          "sales-operator",
		Short:        "Leads and follow-up tasks for a sales team",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&driver, "driver", "", "storage driver: postgres, sqlite or memory (overrides DB_DRIVER)")

	loadConfig := func() (config.Config, error) {
		cfg := config.Load()
		if driver != "" {
			cfg.DBDriver = config.NormalizeDriver(driver)
		}
		return cfg, cfg.Validate()
	}

	root.AddCommand(newServeCmd(loadConfig), newInitDBCmd(loadConfig), newSeedCmd(loadConfig))
	return root
}

type configLoader func() (config.Config, error)

func newServeCmd(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the lead intake worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func newInitDBCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the leads and tasks tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func newSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample leads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := seedLeads(cmd.Context(), st.Leads)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d sample leads\n", n)
			return nil
		},
	}
}

func serve(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	var events usecase.EventPublisher = queue.NoopPublisher{}
	var rabbit *queue.RabbitMQ
	if cfg.RabbitMQURL != "" {
		rabbit, err = queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer rabbit.Close()
		events = queue.NewProducer(rabbit.Ch)
	} else {
		log.Printf("⚠️ [SERVER] RABBITMQ_URL not set, events are dropped and intake is disabled")
	}

	leadService := usecase.NewLeadService(st.Leads, events)
	taskService := usecase.NewTaskService(st.Tasks, events)

	if rabbit != nil {
		// The worker gets its own channel so consuming never blocks publishing.
		ch, err := rabbit.Conn.Channel()
		if err != nil {
			return fmt.Errorf("open intake channel: %w", err)
		}
		intake := queue.NewLeadIntakeWorker(ch, leadService)
		go func() {
			if err := intake.Start(ctx); err != nil {
				log.Printf("❌ [INTAKE] worker stopped: %v", err)
			}
		}()
	}

	if cfg.FollowupSweep > 0 {
		go worker.NewFollowupWorker(taskService, cfg.FollowupSweep).Start(ctx)
	}

	health := handlers.NewHealthHandler(st.DB, nil, cfg.DBDriver)
	if rabbit != nil {
		health.RabbitMQ = rabbit.Conn
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: handlers.NewRouter(handlers.RouterConfig{
			Leads:           leadService,
			Tasks:           taskService,
			Health:          health,
			AllowedOrigins:  cfg.AllowedOrigins,
			IntakeRateLimit: cfg.IntakeRateLimit,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🔥 [SERVER] listening on %s (storage: %s)", cfg.HTTPAddr, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("⚠️ [SERVER] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
