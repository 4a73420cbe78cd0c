package process

import (
	"context"
	"os"
	"sync"

	"github.com/seekerror/logw"
)

// Info is the process-wide bookkeeping entry for a live child: the pid and the
// *os.Process handle, so DrainAndKill can force-kill a child that was never
// terminated through its Handle.
type Info struct {
	PID     int
	process *os.Process
}

var registry = struct {
	mu      sync.Mutex
	entries map[int]Info
}{entries: map[int]Info{}}

func register(info Info) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.entries[info.PID] = info
}

func unregister(pid int) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.entries, pid)
}

// DrainAndKill force-kills every still-registered child and empties the registry.
// It is last-resort cleanup and finds nothing after a clean shutdown, since
// Handle.Terminate unregisters. No signal or exit handler in this module calls it;
// leftover children are killed only when a caller invokes it explicitly.
func DrainAndKill(ctx context.Context) {
	registry.mu.Lock()
	entries := make([]Info, 0, len(registry.entries))
	for _, info := range registry.entries {
		entries = append(entries, info)
	}
	registry.entries = map[int]Info{}
	registry.mu.Unlock()

	for _, info := range entries {
		logw.Warningf(ctx, "draining orphaned engine process pid=%v", info.PID)
		if info.process != nil {
			_ = info.process.Kill()
		}
	}
}
