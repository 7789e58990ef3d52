package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-jamtyper/config"
	"go-jamtyper/midi"
	"go-jamtyper/pattern"
	"go-jamtyper/song"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "ports":
		err = listPorts()
	case "check":
		err = check(args)
	case "query":
		err = query(args)
	case "export":
		err = export(args)
	case "saves":
		err = saves(args)
	case "scales":
		for _, name := range midi.ScaleNames() {
			fmt.Printf("  %-20s %s\n", name, strings.Join(midi.Scales[name], " "))
		}
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("jamtool - song and MIDI utilities")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                              - List all MIDI ports")
	fmt.Println("  check  <song>                      - Validate a song and list its tracks")
	fmt.Println("  query  <song> <track> <from> <to>  - Print the events of a track between two bars")
	fmt.Println("  export <song> <out.mid> [from to]  - Render a song to a MIDI file (default bars 0-16)")
	fmt.Println("  saves  [name]                      - List library songs, or the snapshots of one")
	fmt.Println("  saves  <name> show|rm <file>       - Print or delete a snapshot")
	fmt.Println("  scales                             - List built-in scales")
}

func loadSong(path string) (*song.Song, error) {
	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	s, err := song.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseBars(args []string) (float64, float64, error) {
	from, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad start bar %q", args[0])
	}
	to, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("bad stop bar %q", args[1])
	}
	return from, to, nil
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(midi.PortScanTimeout)
	if err != nil {
		return fmt.Errorf("%w - on macOS try: sudo killall coreaudiod midiserver", err)
	}
	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ports.Ins {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range ports.Outs {
		fmt.Printf("  %d: %s\n", i, p.String())
	}
	return nil
}

func check(args []string) error {
	if len(args) != 1 {
		usage()
		return nil
	}
	s, err := loadSong(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %.0f bpm, volume %.2f, %d changes\n", args[0], s.BPM, s.Volume, len(s.Changes))
	for _, id := range s.Tracks() {
		n := 0
		for _, c := range s.Changes {
			if c.Track == id {
				n++
			}
		}
		fmt.Printf("  track %-12s %d changes\n", id, n)
	}
	return nil
}

func query(args []string) error {
	if len(args) != 4 {
		usage()
		return nil
	}
	s, err := loadSong(args[0])
	if err != nil {
		return err
	}
	from, to, err := parseBars(args[2:])
	if err != nil {
		return err
	}
	id := song.TrackID(args[1])
	for _, ev := range pattern.Query(s, id, from, to) {
		keys, err := midi.Keys(ev.Params)
		if err != nil {
			fmt.Printf("%9.4f  %v  (%v)\n", ev.Time, ev.Params.Chord(), err)
			continue
		}
		fmt.Printf("%9.4f  %v  keys %v  vel %d\n", ev.Time, ev.Params.Chord(), keys, midi.Velocity(ev.Params, s.Volume))
	}
	return nil
}

func export(args []string) error {
	if len(args) != 2 && len(args) != 4 {
		usage()
		return nil
	}
	s, err := loadSong(args[0])
	if err != nil {
		return err
	}
	opts := midi.ExportOptions{Start: 0, Stop: 16}
	if len(args) == 4 {
		if opts.Start, opts.Stop, err = parseBars(args[2:]); err != nil {
			return err
		}
	}
	if cfg, err := config.Load(); err == nil {
		opts.Channels = cfg.Output.Channels
	}
	n, err := midi.ExportFile(args[1], s, opts)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d notes to %s\n", n, args[1])
	return nil
}

func saves(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	lib, err := song.NewLibrary(cfg.SongsDir)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		names, err := lib.ListSongs()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Printf("  %s\n", name)
		}
		return nil
	}
	if len(args) == 3 {
		switch args[1] {
		case "show":
			s, err := lib.Load(args[0], args[2])
			if err != nil {
				return err
			}
			data, err := s.Marshal()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		case "rm":
			return lib.DeleteSave(args[0], args[2])
		}
	}
	list, err := lib.ListSaves(args[0])
	if err != nil {
		return err
	}
	for _, sv := range list {
		fmt.Printf("  %s  %-20s %s\n", sv.Timestamp.Format("2006-01-02 15:04:05"), sv.Name, filepath.Join(lib.SongDir(args[0]), sv.Filename))
	}
	return nil
}
