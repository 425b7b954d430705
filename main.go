package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-ged/cmd"
	"github.com/mattsolo1/grove-ged/cmd/config"
	"github.com/mattsolo1/grove-ged/pkg/service"
)

func main() {
	rootCmd, closeService := newRootCmd()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		closeService()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The returned func closes the service
// when a command failed before PersistentPostRunE could.
func newRootCmd() (*cobra.Command, func()) {
	var svc *service.Service

	rootCmd := &cobra.Command{
		Use:           "ged",
		Short:         "Browse and manage a hierarchical document store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.AddGlobalFlags(rootCmd)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		config.InitConfig()
		if !cmd.NeedsService(c) {
			return nil
		}

		var err error
		svc, err = config.InitService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		err := svc.Close()
		svc = nil
		return err
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewListCmd(&svc))
	rootCmd.AddCommand(cmd.NewShowCmd(&svc))
	rootCmd.AddCommand(cmd.NewTreeCmd(&svc))
	rootCmd.AddCommand(cmd.NewSearchCmd(&svc))
	rootCmd.AddCommand(cmd.NewCreateCmd(&svc))
	rootCmd.AddCommand(cmd.NewRenameCmd(&svc))
	rootCmd.AddCommand(cmd.NewMoveCmd(&svc))
	rootCmd.AddCommand(cmd.NewRemoveCmd(&svc))
	rootCmd.AddCommand(cmd.NewUploadCmd(&svc))
	rootCmd.AddCommand(cmd.NewTagsCmd(&svc))
	rootCmd.AddCommand(cmd.NewFavoritesCmd(&svc))
	rootCmd.AddCommand(cmd.NewEndpointsCmd(&svc))
	rootCmd.AddCommand(cmd.NewStatsCmd(&svc))
	rootCmd.AddCommand(cmd.NewDoctorCmd(&svc))
	rootCmd.AddCommand(cmd.NewURLCmd(&svc))
	rootCmd.AddCommand(cmd.NewTuiCmd(&svc))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	return rootCmd, func() {
		if svc != nil {
			svc.Close()
			svc = nil
		}
	}
}
