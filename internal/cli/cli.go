package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jgivc/harmonyfest/internal/app"
	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/config"
	"github.com/jgivc/harmonyfest/internal/countdown"
	"github.com/jgivc/harmonyfest/internal/logging"
	scountdown "github.com/jgivc/harmonyfest/internal/service/countdown"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type options struct {
	cfgPath  string
	logLevel string
	fs       afero.Fs
	clock    clock.Clock
}

func (o *options) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.fs, o.cfgPath)
	if err != nil {
		return nil, nil, err
	}

	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	log, err := logging.New(stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	return cfg, log, nil
}

// NewRootCmd builds the harmonyfest command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{fs: afero.NewOsFs(), clock: clock.NewSystem()})
}

func newRootCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "harmonyfest",
		Short:         "HarmonyFest festival site",
		Long:          "Serves the HarmonyFest landing page with a live countdown to the festival start.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&o.cfgPath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		newServeCmd(o),
		newBuildCmd(o),
		newCountdownCmd(o),
		newSubscribersCmd(o),
	)

	return cmd
}

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build the page and serve it. SIGUSR1 rebuilds, SIGUSR2 dumps subscribers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := o.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGUSR1, syscall.SIGUSR2)
			defer signal.Stop(sig)

			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case s := <-sig:
						switch s {
						case syscall.SIGUSR1:
							go a.Build()
						case syscall.SIGUSR2:
							go a.Dump()
						}
					}
				}
			}()

			return a.Run(ctx)
		},
	}
}

func newBuildCmd(o *options) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Render the page from the content dir into an HTML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := o.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			page, err := app.BuildToFile(cmd.Context(), cfg, o.fs, out, log)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sections, hash %s\n", out, page.Sections, page.Hash)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "index.html", "output file")

	return cmd
}

func newCountdownCmd(o *options) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Print the countdown to the festival start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := o.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			engine := countdown.NewEngine(o.clock,
				countdown.WithPeriod(cfg.Countdown.Period),
				countdown.WithLogger(log),
			)
			srv := scountdown.NewCountdownService(engine, &cfg.Festival, log)

			return runCountdown(cmd.Context(), cmd.OutOrStdout(), srv, once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "print the current value and exit")

	return cmd
}

type countdownService interface {
	Snapshot() (countdown.Sample, error)
	Watch(ctx context.Context, onTick countdown.TickFunc) (*countdown.Handle, error)
}

func runCountdown(ctx context.Context, w io.Writer, srv countdownService, once bool) error {
	s, err := srv.Snapshot()
	if err != nil {
		return err
	}

	if once || s.Reached {
		printSample(w, s, "\n")

		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printSample(w, s, "")

	h, err := srv.Watch(ctx, func(s countdown.Sample) {
		printSample(w, s, "")
	})
	if err != nil {
		return err
	}
	defer func() {
		h.Cancel()
		<-h.Done()
	}()

	select {
	case <-ctx.Done():
	case <-h.Done():
	}

	fmt.Fprintln(w)

	return h.Err()
}

func printSample(w io.Writer, s countdown.Sample, end string) {
	if s.Reached {
		fmt.Fprintf(w, "\rThe festival has started!%s", end)

		return
	}

	fmt.Fprintf(w, "\r%s%s", s, end)
}

func newSubscribersCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "Newsletter subscribers",
	}

	var out string

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Write all subscribers to a yaml file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := o.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if out == "" {
				out = cfg.DumpFileName
			}

			a, err := app.New(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.DumpTo(out); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "subscribers written to %s\n", out)

			return nil
		},
	}

	dump.Flags().StringVarP(&out, "out", "o", "", "output file, dump_filename from config by default")

	cmd.AddCommand(dump)

	return cmd
}
