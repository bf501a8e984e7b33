// Presenz records attendance submissions for one time-boxed session: the
// operator starts it with a course, batch and capacity, shares the printed
// session code with students, and types "terminate" (or sends SIGINT) to
// close the session and export the report.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"presenz/internal/app"
	"presenz/internal/config"
	"presenz/internal/killswitch"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		course     string
		batch      string
		capacity   int
		dbFilename string
		configPath string
	)

	cmd := &cobra.Command{
		Use:           "presenz",
		Short:         "Time-boxed attendance collection server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return run(cfg, app.StartOptions{
				Course:     course,
				Batch:      batch,
				Capacity:   capacity,
				DBFilename: dbFilename,
			})
		},
	}

	cmd.Flags().StringVar(&course, "course", "", "course name")
	cmd.Flags().StringVar(&batch, "batch", "", "batch identifier")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "maximum number of submissions")
	cmd.Flags().StringVar(&dbFilename, "db", "", "sqlite filename under the configured base path")
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("PRESENZ_CONFIG_FILE"), "path to config file")
	_ = cmd.MarkFlagRequired("course")
	_ = cmd.MarkFlagRequired("batch")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}

func run(cfg *config.Config, opts app.StartOptions) error {
	application, err := app.NewApplication(cfg, opts)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	printSessionBanner(application)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	// Route OS signals into the kill switch so SIGINT, the terminate keyword
	// and the inactivity monitor all share one shutdown path.
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Received signal %v", sig)
			application.KillSwitch().Trigger()
		case <-application.KillSwitch().Done():
		}
	}()

	if err := application.KillSwitch().Wait(ctx); err != nil {
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return application.Stop(shutdownCtx)
}

func printSessionBanner(application *app.Application) {
	fmt.Println("+------------------------------------------------------------------+")
	fmt.Printf("| Session table: %-49s |\n", application.TableName())
	fmt.Printf("| Session code (share with students): %-28s |\n", application.SessionCode())
	fmt.Printf("| Listening on: %-50s |\n", application.Addr())
	fmt.Printf("| Type %q to end the session.%-24s |\n", killswitch.TerminateKeyword, "")
	fmt.Println("+------------------------------------------------------------------+")
}
