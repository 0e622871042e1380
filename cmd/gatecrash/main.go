package main

import (
	"context"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	input "github.com/tcnksm/go-input"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/go-go-golems/gatecrash/pkg/client"
	"github.com/go-go-golems/gatecrash/pkg/config"
	"github.com/go-go-golems/gatecrash/pkg/events"
	"github.com/go-go-golems/gatecrash/pkg/session"
	"github.com/go-go-golems/gatecrash/pkg/transcript"
	"github.com/go-go-golems/gatecrash/pkg/ui"
)

func main() {
	cobra.CheckErr(newRootCmd().Execute())
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "gatecrash",
		Short: "Talk your way past the AI gatekeeper from your terminal",
		Long: `gatecrash connects to a gatekeeper service, opens a conversation session,
and streams the exchange into your terminal. Convince the gatekeeper to
reveal the secret code before it shuts the gate.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg)

			// Line mode is forced when stdout is not a terminal.
			interactive := isatty.IsTerminal(os.Stdout.Fd())
			if !interactive {
				cfg.Plain = true
				lipgloss.SetColorProfile(termenv.Ascii)
			}

			if err := setupLogging(cfg); err != nil {
				return err
			}
			if cfg.ServerURL == "" {
				server, err := askServerURL()
				if err != nil {
					return err
				}
				cfg.ServerURL = server
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().String("server", "", "base URL of the gatekeeper service")
	cmd.Flags().Int("poll-timeout", 20, "long-poll hold in seconds (0-30)")
	cmd.Flags().Int("retry-delay", 3, "seconds between failed polls")
	cmd.Flags().Bool("plain", false, "line mode instead of the full-screen UI")
	cmd.Flags().String("transcript", "", "append the conversation to this Markdown file")
	cmd.Flags().String("log-level", "info", "trace, debug, info, warn, or error")
	cmd.Flags().String("log-file", "", "write logs to this file instead of the terminal")
	return cmd
}

// applyFlags layers explicitly set flags over the file/env configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("server") {
		cfg.ServerURL, _ = f.GetString("server")
	}
	if f.Changed("poll-timeout") {
		cfg.PollTimeoutSeconds, _ = f.GetInt("poll-timeout")
	}
	if f.Changed("retry-delay") {
		cfg.RetryDelaySeconds, _ = f.GetInt("retry-delay")
	}
	if f.Changed("plain") {
		cfg.Plain, _ = f.GetBool("plain")
	}
	if f.Changed("transcript") {
		cfg.Transcript, _ = f.GetString("transcript")
	}
	if f.Changed("log-level") {
		cfg.LogLevel, _ = f.GetString("log-level")
	}
	if f.Changed("log-file") {
		cfg.LogFile, _ = f.GetString("log-file")
	}
}

func setupLogging(cfg config.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "parse log level %q", cfg.LogLevel)
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var w io.Writer
	switch {
	case cfg.LogFile != "":
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", cfg.LogFile)
		}
		w = f
	case cfg.Plain:
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) { cw.Out = os.Stderr })
	default:
		// The full-screen UI owns the terminal; without a log file the logs
		// have nowhere safe to go.
		w = io.Discard
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}

// askServerURL prompts for the server when nothing configured one. Only
// possible on a terminal; scripts must pass --server or GATECRASH_SERVER_URL.
func askServerURL() (string, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return "", errors.New("no server url configured; pass --server or set GATECRASH_SERVER_URL")
	}
	prompt := &input.UI{
		Writer: os.Stderr,
		Reader: os.Stdin,
	}
	return prompt.Ask("Gatekeeper server URL", &input.Options{
		Default:  config.DefaultServerURL,
		Required: true,
		Loop:     true,
		ValidateFunc: func(answer string) error {
			u, err := url.Parse(answer)
			if err != nil {
				return errors.Wrap(err, "not a valid URL")
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return errors.New("url must start with http:// or https://")
			}
			return nil
		},
	})
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, err := events.NewEventRouter(events.WithVerbose(zerolog.GlobalLevel() <= zerolog.DebugLevel))
	if err != nil {
		return err
	}
	defer func() { _ = router.Close() }()

	feed := events.NewFeed(router.Publisher, events.Topic)
	controller := session.NewController(
		client.New(cfg.ServerURL),
		feed,
		feed,
		session.WithSecretDisplay(feed),
		session.WithPollTimeout(cfg.PollTimeout()),
		session.WithRetryDelay(cfg.RetryDelay()),
	)

	if cfg.Transcript != "" {
		tw, err := transcript.New(cfg.Transcript)
		if err != nil {
			return err
		}
		defer func() { _ = tw.Close() }()
		router.AddHandler("transcript", events.Topic, tw.HandlerFunc())
	}

	if cfg.Plain {
		return runPlain(ctx, router, controller)
	}
	return runTUI(ctx, router, controller)
}

func runTUI(ctx context.Context, router *events.EventRouter, controller *session.Controller) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(ui.NewModel(runCtx, controller), tea.WithAltScreen(), tea.WithContext(runCtx))
	router.AddHandler("screen", events.Topic, ui.ForwardFunc(p))

	eg, groupCtx := errgroup.WithContext(runCtx)
	eg.Go(func() error { return filterCanceled(router.Run(groupCtx)) })

	// The session's own failures end the session, not the program: the
	// closing status entry must stay on screen until the user quits.
	var sessionErr error
	eg.Go(func() error {
		<-router.Running()
		sessionErr = controller.Run(groupCtx)
		p.Send(ui.SessionDoneMsg{Err: sessionErr})
		return nil
	})

	_, runErr := p.Run()
	cancel()
	if err := eg.Wait(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return filterCanceled(sessionErr)
}

func runPlain(ctx context.Context, router *events.EventRouter, controller *session.Controller) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var opts []ui.PlainOption
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		opts = append(opts, ui.WithPlainWidth(w))
	}
	pr := ui.NewPlainRunner(controller, os.Stdout, opts...)
	router.AddHandler("screen", events.Topic, pr.HandlerFunc())

	eg, groupCtx := errgroup.WithContext(runCtx)
	eg.Go(func() error { return filterCanceled(router.Run(groupCtx)) })

	var sessionErr error
	eg.Go(func() error {
		<-router.Running()
		sessionErr = controller.Run(groupCtx)
		pr.Finish()
		return nil
	})

	loopErr := pr.Loop(groupCtx)
	cancel()
	if err := eg.Wait(); err != nil {
		return err
	}
	if loopErr != nil {
		return filterCanceled(loopErr)
	}
	return filterCanceled(sessionErr)
}

// filterCanceled drops the error produced by a deliberate shutdown.
func filterCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
