package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/asheshgoplani/caloriesburner/internal/config"
	"github.com/asheshgoplani/caloriesburner/internal/sensor/sim"
	"github.com/asheshgoplani/caloriesburner/internal/ui"
	"github.com/asheshgoplani/caloriesburner/internal/workout"
)

// run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a workout against the simulated sensor",
	Long: `Start a workout against the simulated sensor.

With a terminal attached the dashboard is shown and log output goes to the
configured log file. With --headless, or when stdout is not a terminal, the
workout is authorized, started, and finished after --duration.`,
	Args: cobra.NoArgs,
	RunE: runWorkout,
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Config file (default ~/.caloriesburner/config.toml)")
	cmd.Flags().Bool("headless", false, "Run without the dashboard")
	cmd.Flags().Duration("duration", 30*time.Second, "Workout length in headless mode")
}

func runWorkout(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	headless, _ := cmd.Flags().GetBool("headless")
	duration, _ := cmd.Flags().GetDuration("duration")

	if configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		configPath = path
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		headless = true
	}
	if headless {
		if duration <= 0 {
			return fmt.Errorf("--duration must be positive")
		}
		snap, err := runHeadless(ctx, cfg, configPath, duration)
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), snap)
		return nil
	}
	return runDashboard(ctx, cfg, configPath)
}

// watchConfig keeps the simulator in step with the config file.
func watchConfig(ctx context.Context, path string, simulator *sim.Simulator) error {
	return config.Watch(ctx, path, func(cfg *config.Config) {
		simulator.Apply(cfg.SimulatorConfig())
	})
}

// runHeadless authorizes, starts, and after duration stops one workout,
// logging every snapshot change. It returns the final snapshot.
func runHeadless(ctx context.Context, cfg *config.Config, configPath string, duration time.Duration) (workout.Snapshot, error) {
	logger := log.Default()
	simulator := sim.New(cfg.SimulatorConfig(), logger)
	mirror := workout.NewMirror()

	var (
		errMu    sync.Mutex
		firstErr error
	)
	ctrl := workout.NewController(simulator, workout.Options{
		Session:   cfg.SessionConfig(),
		Publisher: mirror,
		Logger:    logger,
		OnError: func(err error) {
			errMu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			errMu.Unlock()
		},
	})

	mirror.Subscribe(func(s workout.Snapshot) {
		logger.Printf("[WORKOUT] %s | %s | %s", s.State, s.HeartRateText, s.CaloriesText)
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error { return mirror.Run(gctx) })
	g.Go(func() error { return watchConfig(gctx, configPath, simulator) })
	g.Go(func() error {
		defer cancel()

		ctrl.RequestAuthorization(gctx)
		ctrl.Start(gctx)
		if ctrl.State() != workout.Started {
			errMu.Lock()
			defer errMu.Unlock()
			if firstErr == nil {
				firstErr = errors.New("session was not started")
			}
			return fmt.Errorf("workout did not start (%s): %w", ctrl.State(), firstErr)
		}

		timer := time.NewTimer(duration)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-gctx.Done():
		}

		// Finish even when interrupted so the workout is saved
		ctrl.Stop(context.Background())
		return nil
	})

	if err := g.Wait(); err != nil {
		return ctrl.Snapshot(), err
	}
	return ctrl.Snapshot(), nil
}

func printSummary(w io.Writer, snap workout.Snapshot) {
	fmt.Fprintf(w, "State:       %s\n", snap.State)
	fmt.Fprintf(w, "Heart rate:  %s\n", orDash(snap.HeartRateText))
	fmt.Fprintf(w, "Calories:    %s\n", orDash(snap.CaloriesText))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// runDashboard shows the bubbletea dashboard until the user quits. Log output
// is redirected to the log file so it does not corrupt the screen.
func runDashboard(ctx context.Context, cfg *config.Config, configPath string) error {
	logPath, err := cfg.LogPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)
	defer log.SetOutput(os.Stderr)

	ui.ConfigureColor(cfg.UI.NoColor)

	logger := log.Default()
	simulator := sim.New(cfg.SimulatorConfig(), logger)

	// The program is created after the controller, but nothing is published
	// before it starts running.
	var publisher workout.Publisher
	ctrl := workout.NewController(simulator, workout.Options{
		Session: cfg.SessionConfig(),
		Publisher: workout.PublisherFunc(func(u workout.Update) {
			publisher.Publish(u)
		}),
		Logger: logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(ui.NewDashboard(runCtx, ctrl), tea.WithAltScreen(), tea.WithContext(runCtx))
	publisher = ui.NewPublisher(program)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return watchConfig(gctx, configPath, simulator) })
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	if ctrl.HasActiveSession() {
		log.Printf("[WORKOUT] Finishing workout on exit")
		ctrl.Stop(context.Background())
	}
	return err
}
