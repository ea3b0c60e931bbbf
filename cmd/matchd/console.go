package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mroshb/match_engine/internal/models"
	"github.com/mroshb/match_engine/internal/storage"
	"github.com/mroshb/match_engine/pkg/geo"
	"github.com/mroshb/match_engine/pkg/logger"
)

const consoleHelp = `commands:
  next <user>                    show the next candidate
  like <user> <target>           like target
  pass <user> <target>           pass on target
  undo <user>                    step back to the last swiped candidate
  matches <user>                 list active matches
  unmatch <match-id>             end a match
  locate <user> <lat> <lon>      set a location
  state <user> <active|paused|banned>
  stats <user>                   swipe count and session counters
  help
`

// console drives the engine from line commands, one per line.
type console struct {
	eng   *engine
	store storage.Store
	out   io.Writer
}

func newConsole(eng *engine, store storage.Store, out io.Writer) *console {
	return &console{eng: eng, store: store, out: out}
}

// Run reads commands from in until EOF or ctx is done. A failing command is
// reported and the loop continues.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := c.exec(ctx, strings.Fields(line)); err != nil {
			logger.Debug("Console command failed", "command", line, "error", err)
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func (c *console) exec(ctx context.Context, args []string) error {
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help":
		fmt.Fprint(c.out, consoleHelp)
		return nil
	case "next":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		p, err := c.eng.coordinator.NextCandidate(ctx, args[0])
		if err != nil {
			return err
		}
		if p == nil {
			fmt.Fprintln(c.out, "no candidates left")
			return nil
		}
		fmt.Fprintf(c.out, "candidate %s: %s, %d\n", p.ID, p.DisplayName, p.Age)
		return nil
	case "like", "pass":
		if err := wantArgs(cmd, args, 2); err != nil {
			return err
		}
		direction := models.DirectionLike
		if cmd == "pass" {
			direction = models.DirectionPass
		}
		res, err := c.eng.coordinator.Swipe(ctx, args[0], args[1], direction)
		if err != nil {
			return err
		}
		switch res.Outcome.Kind {
		case models.OutcomeNewMatch:
			fmt.Fprintf(c.out, "new match %s\n", res.Outcome.Match.ID)
		case models.OutcomeAlreadyMatched:
			fmt.Fprintf(c.out, "already matched %s\n", res.Outcome.Match.ID)
		default:
			fmt.Fprintln(c.out, "recorded")
		}
		if res.Remaining >= 0 {
			fmt.Fprintf(c.out, "%d swipes left in this window\n", res.Remaining)
		}
		return nil
	case "undo":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		entry, ok, err := c.eng.coordinator.Undo(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(c.out, "nothing to undo")
			return nil
		}
		fmt.Fprintf(c.out, "back to %s (%s)\n", entry.CandidateID, entry.Direction)
		return nil
	case "matches":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		matches, err := c.store.ListMatchesFor(ctx, args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Fprintln(c.out, "no matches")
		}
		for _, m := range matches {
			fmt.Fprintf(c.out, "%s since %s\n", m.ID, m.CreatedAt.UTC().Format("2006-01-02 15:04"))
		}
		return nil
	case "unmatch":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		if err := c.store.Unmatch(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "unmatched %s\n", args[0])
		return nil
	case "locate":
		if err := wantArgs(cmd, args, 3); err != nil {
			return err
		}
		lat, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("latitude %q is not a number", args[1])
		}
		lon, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("longitude %q is not a number", args[2])
		}
		if err := c.store.UpdateLocation(ctx, args[0], geo.Coordinates{Latitude: lat, Longitude: lon}); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "location of %s updated\n", args[0])
		return nil
	case "state":
		if err := wantArgs(cmd, args, 2); err != nil {
			return err
		}
		if err := c.store.UpdateState(ctx, args[0], strings.ToLower(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s is now %s\n", args[0], strings.ToLower(args[1]))
		return nil
	case "stats":
		if err := wantArgs(cmd, args, 1); err != nil {
			return err
		}
		total, err := c.store.CountSwipes(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%s: %d swipes stored", args[0], total)
		if s, ok := c.eng.sessions.Snapshot(args[0]); ok {
			fmt.Fprintf(c.out, ", session: %d swipes, %d likes, %d matches", s.Swipes, s.Likes, s.Matches)
		}
		fmt.Fprintln(c.out)
		return nil
	}
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func wantArgs(cmd string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", cmd, n, len(args))
	}
	return nil
}
