package app

import (
	"context"
	stderrors "errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/five82/stagehand/internal/bus"
	"github.com/five82/stagehand/internal/gamepad"
	"github.com/five82/stagehand/internal/prefs"
	"github.com/five82/stagehand/internal/ui"
)

// Run boots the stagehand TUI until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	opts.Echo = nil
	rt, err := Setup(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b, err := bus.NewInMemoryBus()
	if err != nil {
		return err
	}
	relay := bus.NewLogRelay(b, rt.Logger)
	rt.Sink.OnAppend(relay.Observe)
	hook := bus.ResultHook(b, rt.Logger)
	for _, st := range rt.Registry.Stores() {
		st.OnChange(hook)
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	model := ui.New(ui.Options{
		Context:   ctx,
		Registry:  rt.Registry,
		BaseURL:   rt.Client.BaseURL(),
		PollTick:  rt.Config.PollInterval,
		Prefs:     prefs.Load(prefsPath),
		PrefsPath: prefsPath,
		Logger:    rt.Logger.With().Str("component", "ui").Logger(),
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ui.RegisterForwarder(b, program, relay, rt.Logger)

	pad := gamepad.NewPoller(rt.Config.GamepadDevice,
		func(s gamepad.State) { program.Send(ui.GamepadMsg{State: s}) },
		gamepad.WithFrameInterval(rt.Config.GamepadFrame),
		gamepad.WithLogger(rt.Logger.With().Str("component", "gamepad").Logger()))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		err := b.Run(egCtx)
		if stderrors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		pad.Start()
		<-egCtx.Done()
		pad.Stop()
		return nil
	})
	eg.Go(func() error {
		_, err := program.Run()
		cancel()
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})

	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "tui")
	}
	rt.Logger.Info().Msg("stagehand exited")
	return nil
}
