package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"eduseek/internal/files"
	"eduseek/internal/history"
	"eduseek/internal/logger"
	"eduseek/internal/onq"
	"eduseek/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	syncUsername string
	syncNoTUI    bool
)

var syncCmd = &cobra.Command{
	Use:          "sync",
	Short:        "Sync course files from OnQ",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		transport := onq.NewHTTPTransport(cfg.BackendURL, cfg.RequestTimeout)
		lister := files.NewLister(cfg.BackendURL, cfg.RequestTimeout)
		recorder := history.NewRecorder()

		logger.Log.Info("sync requested",
			zap.String("backend", cfg.BackendURL),
			zap.Bool("tui", !syncNoTUI))

		if syncNoTUI {
			return runPlainSync(cmd.Context(), transport, lister, recorder)
		}
		return runModalSync(cmd.Context(), transport, lister, recorder)
	},
}

// recordingController records an in-flight attempt as cancelled when the
// modal closes it.
type recordingController struct {
	*onq.Orchestrator
	recorder *history.Recorder
}

func (c recordingController) Close() {
	v := c.Orchestrator.View()
	c.Orchestrator.Close()
	c.recorder.Cancelled(v)
}

func runModalSync(ctx context.Context, transport onq.Transport, lister *files.Lister, recorder *history.Recorder) error {
	var p *tea.Program

	hooks := tui.Hooks(
		func(msg tea.Msg) { p.Send(msg) },
		func(ctx context.Context) (int, error) {
			if err := lister.Refresh(ctx); err != nil {
				return 0, err
			}
			list, _ := lister.Files()
			return len(list), nil
		},
		cfg.RequestTimeout,
	)
	forward := hooks.OnStatusChange
	hooks.OnStatusChange = func(v onq.View) {
		recorder.Terminal(v)
		forward(v)
	}

	orch := onq.NewOrchestrator(transport, hooks, syncOptions(cfg))
	ctrl := recordingController{Orchestrator: orch, recorder: recorder}

	p = tea.NewProgram(tui.New(ctx, ctrl, syncUsername))
	final, err := p.Run()
	ctrl.Close()
	if err != nil {
		return fmt.Errorf("failed to run sync modal: %w", err)
	}

	m := final.(tui.Model)
	if res := m.Result(); res != nil {
		fmt.Println(onq.Summary(*res))
	}

	return m.Err()
}

func runPlainSync(ctx context.Context, transport onq.Transport, lister *files.Lister, recorder *history.Recorder) error {
	creds, err := promptCredentials(syncUsername)
	if err != nil {
		return err
	}

	var (
		lastStep  onq.Step
		lastTwoFA string
	)
	hooks := onq.Hooks{
		OnStatusChange: func(v onq.View) {
			recorder.Terminal(v)

			r, ok := v.State.(onq.Running)
			if !ok {
				return
			}
			if r.Step != lastStep {
				lastStep = r.Step
				fmt.Printf("[%3.0f%%] %s\n", r.Progress, r.Step.Label())
			}

			number := ""
			if r.TwoFactor != nil {
				number = r.TwoFactor.Number
			}
			if number != "" && number != lastTwoFA {
				fmt.Printf("Approve the sign-in on your phone: %s\n", number)
			}
			lastTwoFA = number
		},
		Notify: func(message string, kind onq.Kind) {
			if kind == onq.KindError {
				return
			}
			fmt.Println(message)
		},
		Refresh: func() {
			rctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
			defer cancel()

			if err := lister.Refresh(rctx); err != nil {
				logger.Log.Warn("failed to refresh file list", zap.Error(err))
				return
			}
			list, _ := lister.Files()
			fmt.Printf("%d files in your library\n", len(list))
		},
	}

	opts := syncOptions(cfg)
	opts.AutoCloseDelay = 0
	orch := onq.NewOrchestrator(transport, hooks, opts)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Start(ctx, creds); err != nil {
		return err
	}

	v := orch.Wait(ctx)
	if ctx.Err() != nil {
		v = orch.View()
		orch.Close()
		recorder.Cancelled(v)
		return errors.New("sync cancelled")
	}
	orch.Close()

	if v.Err != nil {
		if v.Hint != "" {
			fmt.Println(v.Hint)
		}
		return v.Err
	}

	return nil
}

func promptCredentials(username string) (onq.Credentials, error) {
	if username == "" {
		fmt.Print("Username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return onq.Credentials{}, fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return onq.Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	creds := onq.Credentials{Username: username, Password: string(pw)}
	clear(pw)

	return creds, nil
}

func init() {
	syncCmd.Flags().StringVarP(&syncUsername, "username", "u", "", "OnQ username (NetID)")
	syncCmd.Flags().BoolVar(&syncNoTUI, "no-tui", false, "print progress lines instead of the interactive modal")
	rootCmd.AddCommand(syncCmd)
}
