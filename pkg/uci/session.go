// Package uci drives a chess engine subprocess as a UCI client: the GUI/arbiter side of
// the protocol, the inverse of an engine's own UCI driver.
package uci

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/seekerror/logw"

	"github.com/chessarbiter/chessarbiter/internal/process"
)

// Identity is the engine's self-reported "id name"/"id author" pair.
type Identity struct {
	Name   string
	Author string
}

// OptionKind mirrors the UCI "option type" values.
type OptionKind string

const (
	OptionCheck   OptionKind = "check"
	OptionSpin    OptionKind = "spin"
	OptionCombo   OptionKind = "combo"
	OptionButton  OptionKind = "button"
	OptionString  OptionKind = "string"
)

// Option is one declared engine option from the post-"uci" handshake.
type Option struct {
	Name    string
	Kind    OptionKind
	Default string
	Min, Max int
	Vars    []string
}

// EngineSession is a live, handshaken UCI engine process. Its methods are not safe for
// concurrent use: the protocol itself is a strict half-duplex request/response sequence.
type EngineSession struct {
	handle *process.Handle
	name   string

	Identity Identity
	Options  map[string]Option

	position string // last "position ..." command sent, for diagnostics/reporting
}

// Start spawns the engine and performs the "uci"/"uciok" handshake, populating Identity
// and Options. deadline bounds the handshake only.
func Start(ctx context.Context, workDir, command string, args []string, name string, deadline time.Duration) (*EngineSession, error) {
	h, err := process.Start(ctx, workDir, command, args, name)
	if err != nil {
		return nil, err
	}

	s := &EngineSession{handle: h, name: name, Options: map[string]Option{}}
	if err := s.handshake(ctx, deadline); err != nil {
		h.Terminate(ctx)
		return nil, err
	}
	return s, nil
}

func (s *EngineSession) handshake(ctx context.Context, deadline time.Duration) error {
	if err := s.send(ctx, "uci"); err != nil {
		return err
	}

	lines, err := s.handle.ReadOutput(ctx, "uciok", deadline)
	if err != nil {
		return errors.Wrapf(err, "%v: uci handshake", s.name)
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line.Text, "id name "):
			s.Identity.Name = strings.TrimPrefix(line.Text, "id name ")
		case strings.HasPrefix(line.Text, "id author "):
			s.Identity.Author = strings.TrimPrefix(line.Text, "id author ")
		case strings.HasPrefix(line.Text, "option "):
			if opt, ok := parseOption(line.Text); ok {
				s.Options[opt.Name] = opt
			}
		}
	}

	return nil
}

// parseOption parses an "option name <id> type <t> ..." declaration line.
func parseOption(line string) (Option, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "option" {
		return Option{}, false
	}

	var opt Option
	i := 1
	for i < len(fields) {
		switch fields[i] {
		case "name":
			j := i + 1
			for j < len(fields) && fields[j] != "type" {
				j++
			}
			opt.Name = strings.Join(fields[i+1:j], " ")
			i = j
		case "type":
			if i+1 < len(fields) {
				opt.Kind = OptionKind(fields[i+1])
			}
			i += 2
		case "default":
			j := i + 1
			for j < len(fields) && !isOptionKeyword(fields[j]) {
				j++
			}
			opt.Default = strings.Join(fields[i+1:j], " ")
			i = j
		case "min":
			if i+1 < len(fields) {
				opt.Min, _ = strconv.Atoi(fields[i+1])
			}
			i += 2
		case "max":
			if i+1 < len(fields) {
				opt.Max, _ = strconv.Atoi(fields[i+1])
			}
			i += 2
		case "var":
			if i+1 < len(fields) {
				opt.Vars = append(opt.Vars, fields[i+1])
			}
			i += 2
		default:
			i++
		}
	}

	return opt, opt.Name != ""
}

func isOptionKeyword(s string) bool {
	switch s {
	case "type", "default", "min", "max", "var":
		return true
	default:
		return false
	}
}

// SetOption sends a "setoption name <name> value <value>" command.
func (s *EngineSession) SetOption(ctx context.Context, name, value string) error {
	return s.send(ctx, "setoption name "+name+" value "+value)
}

// IsReady sends "isready" and waits for "readyok".
func (s *EngineSession) IsReady(ctx context.Context, deadline time.Duration) error {
	if err := s.send(ctx, "isready"); err != nil {
		return err
	}
	_, err := s.handle.ReadOutput(ctx, "readyok", deadline)
	return errors.Wrapf(err, "%v: isready", s.name)
}

// NewGame sends "ucinewgame", which most engines use to clear transposition state and
// per-game heuristics between games of a match.
func (s *EngineSession) NewGame(ctx context.Context) error {
	return s.send(ctx, "ucinewgame")
}

// SetPosition sends "position startpos|fen <fen> [moves ...]".
func (s *EngineSession) SetPosition(ctx context.Context, fen string, moves []string) error {
	var b strings.Builder
	b.WriteString("position ")
	if fen == "" || fen == "startpos" {
		b.WriteString("startpos")
	} else {
		b.WriteString("fen ")
		b.WriteString(fen)
	}
	if len(moves) > 0 {
		b.WriteString(" moves ")
		b.WriteString(strings.Join(moves, " "))
	}

	s.position = b.String()
	return s.send(ctx, s.position)
}

// Go sends a "go ..." command and does not wait for the result; call WaitBestMove to
// collect info lines and the terminal bestmove.
func (s *EngineSession) Go(ctx context.Context, params GoParams) error {
	return s.send(ctx, params.String())
}

// WaitBestMove blocks until "bestmove" is seen, a crash is detected, the deadline elapses
// or Stop's interrupt fires, returning every "info" line observed along the way.
func (s *EngineSession) WaitBestMove(ctx context.Context, deadline time.Duration) (BestMove, []Info, error) {
	lines, err := s.handle.ReadOutput(ctx, "bestmove", deadline)

	var infos []Info
	for _, line := range lines {
		if strings.HasPrefix(line.Text, "info ") {
			infos = append(infos, ParseInfo(line.Text))
		}
	}
	if err != nil {
		return BestMove{}, infos, err
	}

	last := lines[len(lines)-1]
	bm, ok := ParseBestMove(last.Text)
	if !ok {
		return BestMove{}, infos, errors.Errorf("%v: malformed bestmove line: %q", s.name, last.Text)
	}
	return bm, infos, nil
}

// Stop wakes any in-flight WaitBestMove and sends "stop", asking the engine to report its
// bestmove immediately instead of running to its original deadline.
func (s *EngineSession) Stop(ctx context.Context) error {
	s.handle.Interrupt()
	return s.send(ctx, "stop")
}

// PonderHit sends "ponderhit", telling the engine its pondered move was actually played.
func (s *EngineSession) PonderHit(ctx context.Context) error {
	return s.send(ctx, "ponderhit")
}

// Quit sends "quit" and terminates the child, escalating to SIGKILL if it doesn't exit
// voluntarily within process.KillTimeout.
func (s *EngineSession) Quit(ctx context.Context) {
	_ = s.send(ctx, "quit")
	s.handle.Terminate(ctx)
}

// Alive reports whether the engine subprocess is still running.
func (s *EngineSession) Alive() bool {
	return s.handle.Alive()
}

// PID returns the engine subprocess's process id, for logging and diagnostics.
func (s *EngineSession) PID() int {
	return s.handle.PID()
}

func (s *EngineSession) send(ctx context.Context, line string) error {
	logw.Debugf(ctx, "%v <- %v", s.name, line)
	return s.handle.WriteInput(line)
}
