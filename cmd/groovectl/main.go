// Package main provides a command line client for the player's web API.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/osa030/groove/internal/app/notification"
)

var (
	app    = kingpin.New("groovectl", "Groove player remote control")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token (or set GROOVE_WEB_TOKEN env)").Envar("GROOVE_WEB_TOKEN").String()

	stateCmd = app.Command("state", "Show the player state").Alias("status")

	tracksCmd   = app.Command("tracks", "List tracks").Alias("list")
	tracksQuery = tracksCmd.Arg("query", "Filter query").String()

	toggleCmd   = app.Command("toggle", "Toggle play/pause")
	playCmd     = app.Command("play", "Resume playback")
	pauseCmd    = app.Command("pause", "Pause playback")
	nextCmd     = app.Command("next", "Skip to the next track")
	previousCmd = app.Command("prev", "Go to the previous track").Alias("previous")
	muteCmd     = app.Command("mute", "Toggle mute")

	loadCmd   = app.Command("load", "Load a track by its number")
	loadIndex = loadCmd.Arg("number", "Track number as listed (1-based)").Required().Int()

	seekCmd      = app.Command("seek", "Seek within the current track")
	seekPosition = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume between 0 and 1").Required().Float64()

	shuffleCmd   = app.Command("shuffle", "Toggle shuffle, or set it with on/off")
	shuffleValue = shuffleCmd.Arg("state", "on or off").Enum("on", "off")

	repeatCmd  = app.Command("repeat", "Cycle repeat, or set off/all/one")
	repeatMode = repeatCmd.Arg("mode", "off, all or one").Enum("off", "all", "one")

	filterCmd   = app.Command("filter", "Filter the visible list (empty clears)")
	filterQuery = filterCmd.Arg("query", "Filter query").String()

	subscribeCmd = app.Command("subscribe", "Stream notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	c := newClient(*server, *token)

	var err error
	switch command {
	case stateCmd.FullCommand():
		err = showState(c)
	case tracksCmd.FullCommand():
		err = showTracks(c, *tracksQuery)
	case toggleCmd.FullCommand():
		err = controlAndShow(c, "/api/toggle", nil)
	case playCmd.FullCommand():
		err = controlAndShow(c, "/api/play", nil)
	case pauseCmd.FullCommand():
		err = controlAndShow(c, "/api/pause", nil)
	case nextCmd.FullCommand():
		err = controlAndShow(c, "/api/next", nil)
	case previousCmd.FullCommand():
		err = controlAndShow(c, "/api/previous", nil)
	case muteCmd.FullCommand():
		err = controlAndShow(c, "/api/mute", nil)
	case loadCmd.FullCommand():
		err = controlAndShow(c, "/api/tracks/"+strconv.Itoa(*loadIndex-1)+"/load", nil)
	case seekCmd.FullCommand():
		err = controlAndShow(c, "/api/seek", map[string]any{"position": *seekPosition})
	case volumeCmd.FullCommand():
		err = controlAndShow(c, "/api/volume", map[string]any{"volume": *volumeLevel})
	case shuffleCmd.FullCommand():
		var body any
		if *shuffleValue != "" {
			body = map[string]any{"enabled": *shuffleValue == "on"}
		}
		err = controlAndShow(c, "/api/shuffle", body)
	case repeatCmd.FullCommand():
		var body any
		if *repeatMode != "" {
			body = map[string]any{"mode": *repeatMode}
		}
		err = controlAndShow(c, "/api/repeat", body)
	case filterCmd.FullCommand():
		err = controlAndShow(c, "/api/filter", map[string]any{"query": *filterQuery})
	case subscribeCmd.FullCommand():
		err = subscribe(*server)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func showState(c *client) error {
	state, err := c.state()
	if err != nil {
		return err
	}
	printState(state)
	return nil
}

func controlAndShow(c *client, path string, body any) error {
	state, err := c.control(path, body)
	if err != nil {
		return err
	}
	printState(state)
	return nil
}

func showTracks(c *client, query string) error {
	views, err := c.tracks(query)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Artist", "Duration"})
	for _, v := range views {
		t.AppendRow(table.Row{v.Index + 1, v.Title, v.Artist, v.DurationText})
	}
	t.Render()
	return nil
}

func formatPlaying(playing bool) string {
	if playing {
		return "▶️  Playing"
	}
	return "⏸  Paused"
}

func printState(s *notification.StatePayload) {
	fmt.Printf("%s (%d tracks)\n", s.Name, s.Count)
	if !s.Loaded {
		fmt.Println("  Nothing loaded")
		return
	}
	fmt.Printf("  %d. %s - %s\n", s.Track.Index+1, s.Track.Title, s.Track.Artist)
	fmt.Printf("  %s  %s / %s\n", formatPlaying(s.Playing), s.Progress.PositionText, s.Progress.DurationText)

	volume := fmt.Sprintf("%d%%", int(s.Volume.Volume*100+0.5))
	if s.Volume.Muted {
		volume = "muted"
	}
	fmt.Printf("  Shuffle: %v  Repeat: %s  Volume: %s\n", s.Modes.Shuffle, s.Modes.Repeat, volume)
	if s.Filter != "" {
		fmt.Printf("  Filter: %q\n", s.Filter)
	}
}

func subscribe(base string) error {
	url := "ws" + strings.TrimPrefix(strings.TrimSuffix(base, "/"), "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", url)
	}
	defer conn.Close()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	var closing atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		closing.Store(true)
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	for {
		var n struct {
			Type       notification.Type `json:"type"`
			SequenceNo uint64            `json:"sequence_no"`
			Payload    map[string]any    `json:"payload"`
		}
		if err := conn.ReadJSON(&n); err != nil {
			if closing.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "stream error")
		}
		printNotification(n.SequenceNo, n.Type, n.Payload)
	}
}

func printNotification(seq uint64, typ notification.Type, payload map[string]any) {
	fmt.Printf("[Sequence: %d] %s", seq, strings.ToUpper(string(typ)))
	switch typ {
	case notification.TypeTrack:
		fmt.Printf(": %v - %v", payload["title"], payload["artist"])
	case notification.TypePlaying:
		fmt.Printf(": %v", payload["playing"])
	case notification.TypeProgress:
		fmt.Printf(": %v / %v", payload["position_text"], payload["duration_text"])
	case notification.TypeModes:
		fmt.Printf(": shuffle=%v repeat=%v", payload["shuffle"], payload["repeat"])
	case notification.TypeVolume:
		fmt.Printf(": volume=%v muted=%v", payload["volume"], payload["muted"])
	case notification.TypeList:
		if entries, ok := payload["entries"].([]any); ok {
			fmt.Printf(": %d visible", len(entries))
		}
	case notification.TypeInitialState:
		fmt.Printf(": %v", payload["name"])
	}
	fmt.Println()
}
