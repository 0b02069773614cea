package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lingocast/internal/backend"
	"lingocast/internal/daemon"
	"lingocast/internal/ipc"
	"lingocast/internal/jobstore"
	"lingocast/internal/logging"
	"lingocast/internal/playback"
)

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lingocast daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := logging.NewForDir(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := jobstore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}

			client := backend.NewClient(cfg.Backend, logger)
			engine := playback.NewLogEngine(logger)

			d, err := daemon.New(cfg, store, client, engine, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			ipcServer, err := ipc.NewServer(ctx, cmdCtx.socketPath(), d, logger)
			if err != nil {
				return fmt.Errorf("start IPC server: %w", err)
			}
			defer ipcServer.Close()
			ipcServer.Serve()

			if err := d.Start(ctx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}

			<-ctx.Done()
			logger.Info("lingocast shutting down")
			return nil
		},
	}
}
