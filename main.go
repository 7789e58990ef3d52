package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver

	"go-jamtyper/config"
	"go-jamtyper/debug"
	"go-jamtyper/midi"
	"go-jamtyper/sequencer"
	"go-jamtyper/song"
	"go-jamtyper/theme"
	"go-jamtyper/tui"
)

func main() {
	songPath := flag.String("song", "", "song file to play and watch (default: last song)")
	configPath := flag.String("config", "", "config file (default ~/.config/go-jamtyper/config.json)")
	portName := flag.String("port", "", "MIDI output port, overrides the config")
	snapshot := flag.String("snapshot", "", "start from a library snapshot of the song instead of the file")
	headless := flag.Bool("headless", false, "play without the monitor, stop with ctrl+c")
	debugFlag := flag.Bool("debug", false, "write the debug log")
	flag.Parse()

	if err := run(*songPath, *configPath, *portName, *snapshot, *headless, *debugFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(songPath, configPath, portName, snapshot string, headless, debugFlag bool) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if cfg.Debug || debugFlag {
		if err := debug.Enable(cfg.DebugLog); err != nil {
			return err
		}
		defer debug.Disable()
	}

	if songPath == "" {
		songPath = cfg.UI.LastSong
	}
	if songPath == "" {
		return fmt.Errorf("no song given, use -song")
	}
	songPath = config.ExpandPath(songPath)
	name := strings.TrimSuffix(filepath.Base(songPath), filepath.Ext(songPath))

	palette, err := theme.LoadGPL(cfg.UI.Palette)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	lib, err := song.NewLibrary(cfg.SongsDir)
	if err != nil {
		return err
	}

	// Outputs are opened lazily; without one every track plays silently
	outputs := midi.NewOutputs()
	defer outputs.Close()
	if portName == "" {
		portName = cfg.Output.PortName
	}
	factory := sequencer.Factory(sequencer.NullFactory)
	if portName != "" {
		send, err := outputs.Sender(portName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v - playing silently\n", err)
		} else {
			factory = midi.NewFactory(send, cfg.Output.Channels, sequencer.SystemTimers{})
		}
	}

	engine := sequencer.NewEngine(factory, sequencer.Options{
		Lookahead: cfg.Engine.Lookahead,
		Latency:   cfg.Latency(),
		Grace:     cfg.Grace(),
	})
	defer func() {
		engine.Close()
		outputs.Panic()
	}()

	install := func(data []byte, label string) error {
		sess, err := engine.Install(data)
		if err != nil {
			debug.Log("main", "%s: %v", label, err)
			return err
		}
		if _, err := lib.Snapshot(name, label, sess.Song); err != nil {
			debug.Log("main", "snapshot: %v", err)
		}
		return nil
	}
	reload := func() error {
		data, err := os.ReadFile(songPath)
		if err != nil {
			return err
		}
		return install(data, "reload")
	}

	if snapshot != "" {
		s, err := lib.Load(name, snapshot)
		if err != nil {
			return err
		}
		if _, err := engine.Store.InstallSong(s); err != nil {
			return err
		}
	} else if err := reload(); err != nil {
		return err
	}

	cfg.RememberSong(songPath)
	if configPath == "" {
		if err := cfg.Save(); err != nil {
			debug.Log("main", "save config: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go engine.Run(ctx)

	var program *tea.Program
	if !headless {
		program = tea.NewProgram(tui.NewModel(engine, th, "go-jamtyper  "+name, reload),
			tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	}

	watcher := song.NewWatcher(songPath, 100*time.Millisecond)
	go func() {
		if err := watcher.Run(ctx); err != nil {
			debug.Log("main", "%v", err)
		}
	}()
	go func() {
		for data := range watcher.Updates() {
			err := install(data, "watch")
			if program != nil {
				program.Send(tui.ReloadMsg{Source: "watch", Err: err})
			} else if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			}
		}
	}()

	if cfg.Input.PortName != "" {
		inputs := midi.NewInputManager(cfg.Input.PortName, midi.TransportNotes{
			Toggle: cfg.Input.ToggleNote,
			Start:  cfg.Input.StartNote,
			Pause:  cfg.Input.PauseNote,
		})
		go inputs.Run(ctx)
		go func() {
			for a := range inputs.Actions() {
				switch a {
				case midi.ActionToggle:
					engine.Toggle()
				case midi.ActionStart:
					engine.Start()
				case midi.ActionPause:
					engine.Pause()
				}
			}
		}()
		go func() {
			for ev := range inputs.Events() {
				if ev.Type == midi.InputConnected {
					debug.Log("main", "transport input connected: %s", ev.ID)
				} else {
					debug.Log("main", "transport input gone: %s", ev.ID)
				}
			}
		}()
	}

	if headless {
		fmt.Printf("go-jamtyper: playing %s (ctrl+c to stop)\n", songPath)
		engine.Start()
		<-ctx.Done()
		return nil
	}

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
