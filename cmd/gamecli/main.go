package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/audioroom/backend/internal/game"
	_ "github.com/audioroom/backend/internal/games"
	"github.com/audioroom/backend/internal/locale"
)

const usageText = `Usage: gamecli <command> [arguments]

Commands:
  list-games                 list the registered game types
  show-options <type>        print a game's default options
  simulate <type> [flags]    run an all-bot game to completion
`

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "list-games":
		listGames()
	case "show-options":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "show-options: game type required")
			os.Exit(2)
		}
		showOptions(os.Args[2])
	case "simulate":
		simulate(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
}

func listGames() {
	catalog := locale.New()
	for _, d := range game.AllGames() {
		fmt.Printf("%-10s %s (%d-%d players)\n", d.TypeID, catalog.T("en", d.NameID, nil), d.MinPlayers, d.MaxPlayers)
	}
}

func showOptions(typeID string) {
	d, ok := game.Lookup(typeID)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown game type %q\n", typeID)
		os.Exit(1)
	}
	for k, v := range d.DefaultOptions {
		fmt.Printf("%s=%s\n", k, v)
	}
}

// optionFlags collects repeated -o key=value flags.
type optionFlags map[string]string

func (o optionFlags) String() string { return "" }

func (o optionFlags) Set(value string) error {
	parts := strings.SplitN(value, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("option must be key=value, got %q", value)
	}
	o[parts[0]] = parts[1]
	return nil
}

// parseBots interprets the --bots value: a bare integer seats that many
// bots under default names, a comma-separated list names each seat.
func parseBots(value string) (int, []string, error) {
	if value == "" {
		return 0, nil, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		if n < 1 {
			return 0, nil, fmt.Errorf("bot count must be positive, got %d", n)
		}
		return n, nil, nil
	}
	names := strings.Split(value, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
		if names[i] == "" {
			return 0, nil, fmt.Errorf("empty bot name in %q", value)
		}
	}
	return len(names), names, nil
}

type simResult struct {
	Ticks               int64    `json:"ticks"`
	Rounds              int      `json:"rounds"`
	TimedOut            bool     `json:"timed_out"`
	Messages            []string `json:"messages"`
	FinalMenu           []string `json:"final_menu"`
	SerializationChecks int64    `json:"serialization_checks"`
	SerializationOK     bool     `json:"serialization_ok"`
	Winner              string   `json:"winner,omitempty"`
	Seed                int64    `json:"seed"`
}

func simulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	bots := fs.String("bots", "", "bot count or comma-separated bot names (default: the game's minimum)")
	seed := fs.Int64("seed", 0, "random seed, 0 means time-based")
	maxTicks := fs.Int64("max-ticks", 200000, "abort after this many ticks")
	jsonOut := fs.Bool("json", false, "print the result as JSON")
	quiet := fs.Bool("quiet", false, "suppress the spoken transcript")
	testSerialization := fs.Bool("test-serialization", false, "round-trip the game through its snapshot every tick and abort on mismatch")
	opts := optionFlags{}
	fs.Var(opts, "o", "game option key=value (repeatable)")

	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		fmt.Fprintln(os.Stderr, "simulate: game type required")
		os.Exit(2)
	}
	typeID := args[0]
	fs.Parse(args[1:])

	desc, ok := game.Lookup(typeID)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown game type %q\n", typeID)
		os.Exit(1)
	}
	players, names, err := parseBots(*bots)
	if err != nil {
		fmt.Fprintf(os.Stderr, "simulate: %v\n", err)
		os.Exit(2)
	}
	if players == 0 {
		players = desc.MinPlayers
	}
	if players < desc.MinPlayers || players > desc.MaxPlayers {
		fmt.Fprintf(os.Stderr, "%s needs %d-%d players\n", typeID, desc.MinPlayers, desc.MaxPlayers)
		os.Exit(1)
	}
	if names == nil {
		names = game.BotNames[:players]
	}

	catalog := locale.New()
	g := desc.New()
	b := g.Base()
	b.Init(g, desc, catalog, opts)

	usedSeed := *seed
	if usedSeed == 0 {
		usedSeed = time.Now().UnixNano()
	}
	b.SetSeed(usedSeed)
	b.SetBotThinkRange(0, 2)

	// The first seat watches the game through a capture user, so the
	// transcript has a viewpoint. The rest are plain bots.
	watcher := game.NewCaptureUser(names[0])
	host, err := b.AddPlayer(watcher, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to seat watcher: %v\n", err)
		os.Exit(1)
	}
	host.IsBot = true
	for i := 1; i < players; i++ {
		if _, err := b.AddPlayer(game.NewBotUser(names[i]), false); err != nil {
			fmt.Fprintf(os.Stderr, "failed to seat bot %d: %v\n", i, err)
			os.Exit(1)
		}
	}

	start := host.FindAction("start_game")
	if start == nil {
		fmt.Fprintln(os.Stderr, "start_game action missing")
		os.Exit(1)
	}
	b.ExecuteAction(host, start, game.ActionContext{}, "")
	if b.Status != game.StatusPlaying {
		fmt.Fprintln(os.Stderr, "game failed to start:")
		for _, line := range watcher.Messages {
			fmt.Fprintln(os.Stderr, "  "+line)
		}
		os.Exit(1)
	}

	spoken := 0
	timedOut := false
	var checks int64
	for b.Status == game.StatusPlaying {
		b.Tick()
		if *testSerialization {
			// Every tick runs through the snapshot codec and the run
			// continues on the restored instance, so any field the codec
			// loses changes subsequent behavior and shows up as a
			// mismatch or a divergent game.
			restored, err := roundTrip(g, catalog)
			if err != nil {
				fmt.Fprintf(os.Stderr, "serialization check failed at tick %d: %v\n", b.TickCount, err)
				os.Exit(1)
			}
			checks++
			g = restored
			b = g.Base()
			b.SetBotThinkRange(0, 2)
		}
		if !*quiet {
			for ; spoken < len(watcher.Messages); spoken++ {
				fmt.Println(watcher.Messages[spoken])
			}
		}
		if b.TickCount >= *maxTicks {
			timedOut = true
			break
		}
	}

	finalMenu := make([]string, 0, len(watcher.LastMenu))
	for _, item := range watcher.LastMenu {
		finalMenu = append(finalMenu, item.Text)
	}
	res := simResult{
		Ticks:               b.TickCount,
		Rounds:              b.Round,
		TimedOut:            timedOut,
		Messages:            watcher.Messages,
		FinalMenu:           finalMenu,
		SerializationChecks: checks,
		SerializationOK:     true,
		Winner:              b.WinnerName,
		Seed:                usedSeed,
	}
	if *jsonOut {
		out, _ := json.Marshal(res)
		fmt.Println(string(out))
		return
	}
	if timedOut {
		fmt.Printf("%s did not finish within %d ticks\n", typeID, *maxTicks)
		os.Exit(1)
	}
	fmt.Printf("%s finished in %d ticks, winner: %s (seed %d)\n", typeID, res.Ticks, res.Winner, usedSeed)
}

// roundTrip snapshots the game, restores a fresh instance from the
// bytes and verifies the restored instance snapshots back to the same
// document, exactly as a saved table would come back.
func roundTrip(g game.Game, catalog *locale.Catalog) (game.Game, error) {
	data, err := g.Base().Snapshot()
	if err != nil {
		return nil, err
	}
	restored, err := game.RestoreGame(data, catalog)
	if err != nil {
		return nil, err
	}
	again, err := restored.Base().Snapshot()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(data, again) {
		return nil, fmt.Errorf("snapshot mismatch after restore")
	}
	return restored, nil
}
