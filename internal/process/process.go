// Package process owns engine child processes: spawn, line-oriented I/O with
// deadlines and an interrupt primitive, and a termination protocol that tells
// clean exit, crash and forced kill apart.
package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/iox"
	"go.uber.org/atomic"
)

// StreamTag identifies which child stream a Line came from.
type StreamTag int

const (
	Stdout StreamTag = iota
	Stderr
)

func (s StreamTag) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Line is a single complete (or, on timeout, partial) line of child output.
type Line struct {
	Text    string
	Stream  StreamTag
	At      time.Time
	Partial bool
}

var (
	// ErrNotAlive is returned by WriteInput/ReadOutput once the child has exited.
	ErrNotAlive = errors.New("process: not alive")
	// ErrTimeout is returned by ReadOutput when the deadline elapses before the sentinel appears.
	ErrTimeout = errors.New("process: read timeout")
	// ErrInterrupted is returned by ReadOutput when the interrupt channel fires.
	ErrInterrupted = errors.New("process: read interrupted")
)

// CrashedError is returned by ReadOutput when a stream closes with no sentinel seen.
type CrashedError struct {
	Stream StreamTag
}

func (e *CrashedError) Error() string {
	return fmt.Sprintf("process: engine crashed (%v closed)", e.Stream)
}

// KillTimeout is how long Terminate waits for a voluntary exit before SIGKILL.
const KillTimeout = 2 * time.Second

// Handle owns one child process and its pipes. Not safe for ReadOutput to be called
// concurrently from more than one goroutine; WriteInput and Terminate may race with it.
type Handle struct {
	name string
	cmd  *exec.Cmd
	pid  int

	stdin io.WriteCloser
	wmu   sync.Mutex

	lines     chan Line
	crashed   chan StreamTag
	interrupt *iox.Pulse

	exited   atomic.Bool
	exitErr  error
	waitDone chan struct{}

	terminated atomic.Bool
}

// Start spawns the child with stdin/stdout/stderr bound to pipes and the given working
// directory. On any syscall failure it returns an error without leaking descriptors.
// SIGCHLD is left to the default disposition; os/exec's Wait reaps the child itself.
func Start(ctx context.Context, workDir, command string, args []string, logName string) (*Handle, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = workDir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "%v: stdin pipe", logName)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "%v: stdout pipe", logName)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrapf(err, "%v: stderr pipe", logName)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "%v: spawn failed", logName)
	}

	h := &Handle{
		name:      logName,
		cmd:       cmd,
		pid:       cmd.Process.Pid,
		stdin:     stdin,
		lines:     make(chan Line, 256),
		crashed:   make(chan StreamTag, 2),
		interrupt: iox.NewPulse(),
		waitDone:  make(chan struct{}),
	}

	register(Info{PID: h.pid, process: cmd.Process})

	go h.pump(stdout, Stdout)
	go h.pump(stderr, Stderr)
	go h.wait(ctx)

	logw.Infof(ctx, "%v: spawned pid=%v", logName, h.pid)
	return h, nil
}

func (h *Handle) pump(r io.ReadCloser, stream StreamTag) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 4096), 1<<20)
	for s.Scan() {
		text := s.Text()
		if text == "" {
			continue
		}
		h.lines <- Line{Text: text, Stream: stream, At: time.Now()}
	}
	h.crashed <- stream
}

func (h *Handle) wait(ctx context.Context) {
	err := h.cmd.Wait()
	h.exitErr = err
	h.exited.Store(true)
	close(h.waitDone)
	if err != nil {
		logw.Debugf(ctx, "%v: exited: %v", h.name, err)
	}
}

// Interrupt signals any in-flight ReadOutput to wake up immediately with ErrInterrupted.
func (h *Handle) Interrupt() {
	h.interrupt.Emit()
}

// PID returns the child's process id.
func (h *Handle) PID() int {
	return h.pid
}

// Alive is a non-blocking liveness check; it caches the exit status on first observed exit.
func (h *Handle) Alive() bool {
	return !h.exited.Load()
}

// WriteInput writes a line to the child's stdin, appending a trailing LF if absent.
func (h *Handle) WriteInput(line string) error {
	if !h.Alive() {
		return ErrNotAlive
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	h.wmu.Lock()
	defer h.wmu.Unlock()

	if _, err := io.WriteString(h.stdin, line); err != nil {
		return errors.Wrapf(err, "%v: write", h.name)
	}
	return nil
}

// ReadOutput multiplexes stdout/stderr/interrupt until a line begins with sentinel, the
// deadline elapses, or the interrupt fires. deadline<0 waits indefinitely; deadline==0
// returns ErrTimeout immediately (after a non-blocking drain of anything already buffered).
func (h *Handle) ReadOutput(ctx context.Context, sentinel string, deadline time.Duration) ([]Line, error) {
	if !h.Alive() {
		return nil, ErrNotAlive
	}

	var acc []Line

	var timeout <-chan time.Time
	switch {
	case deadline == 0:
		immediate := make(chan time.Time)
		close(immediate)
		timeout = immediate
	case deadline > 0:
		t := time.NewTimer(deadline)
		defer t.Stop()
		timeout = t.C
	default:
		// nil channel: blocks forever, i.e. indefinite wait.
	}

	for {
		select {
		case line := <-h.lines:
			acc = append(acc, line)
			if strings.HasPrefix(line.Text, sentinel) {
				return acc, nil
			}

		case stream := <-h.crashed:
			// Drain anything already queued before reporting the crash.
			for {
				select {
				case line := <-h.lines:
					acc = append(acc, line)
					if strings.HasPrefix(line.Text, sentinel) {
						return acc, nil
					}
					continue
				default:
				}
				break
			}
			return acc, &CrashedError{Stream: stream}

		case <-timeout:
			// Drain anything already queued before reporting the timeout.
			for {
				select {
				case line := <-h.lines:
					acc = append(acc, line)
					if strings.HasPrefix(line.Text, sentinel) {
						return acc, nil
					}
					continue
				default:
				}
				break
			}
			if len(acc) > 0 {
				acc[len(acc)-1].Partial = true
			}
			return acc, ErrTimeout

		case <-h.interrupt.Chan():
			return acc, ErrInterrupted

		case <-ctx.Done():
			return acc, ctx.Err()
		}
	}
}

// Terminate is idempotent. It de-registers the child, waits up to KillTimeout for a
// voluntary exit, and SIGKILLs + reaps on timeout. No read or write may be issued after
// Terminate returns.
func (h *Handle) Terminate(ctx context.Context) {
	if !h.terminated.CAS(false, true) {
		return
	}
	unregister(h.pid)

	if !h.Alive() {
		return
	}

	deadline := time.After(KillTimeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-h.waitDone:
			return
		case <-deadline:
			logw.Warningf(ctx, "%v: did not exit within %v, killing pid=%v", h.name, KillTimeout, h.pid)
			_ = h.cmd.Process.Kill()
			<-h.waitDone
			return
		case <-ticker.C:
			// poll
		}
	}
}

// ExitErr returns the error observed by the child's Wait, if any, once it has exited.
func (h *Handle) ExitErr() error {
	return h.exitErr
}
