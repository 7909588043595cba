package command

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sys/unix"

	"github.com/netcontrold/ncd/internal/logging"
)

var handledSignals = []os.Signal{
	unix.SIGTERM,
	unix.SIGINT,
	unix.SIGUSR1,
	unix.SIGPIPE,
}

func notifySignals(signals chan os.Signal) {
	signal.Notify(signals, handledSignals...)
}

// handleSignals mirrors the teacher's signal goroutine: SIGUSR1 dumps
// goroutine stacks for diagnostics, SIGPIPE is swallowed (repeated
// signals on a dead control-socket peer would otherwise burn CPU), and
// everything else cancels the root context and notifies systemd
// before the caller observes shutdown via the returned channel.
func handleSignals(cancel context.CancelFunc, signals chan os.Signal) chan struct{} {
	done := make(chan struct{}, 1)
	go func() {
		for s := range signals {
			if s == unix.SIGPIPE {
				continue
			}

			logging.Logger.Debugw("received signal", "signal", s)
			switch s {
			case unix.SIGUSR1:
				dumpStacks(true)
			default:
				cancel()
				notifyStopping()
				close(done)
				return
			}
		}
	}()
	return done
}

func notifyReady() {
	notified, err := sd.SdNotify(false, sd.SdNotifyReady)
	logging.Logger.Debugw("sd notify ready", "notified", notified, "error", err)
}

func notifyStopping() {
	notified, err := sd.SdNotify(false, sd.SdNotifyStopping)
	logging.Logger.Debugw("sd notify stopping", "notified", notified, "error", err)
}

func dumpStacks(writeToFile bool) {
	var buf []byte
	size := 16384
	for {
		buf = make([]byte, size)
		n := runtime.Stack(buf, true)
		if n < size {
			buf = buf[:n]
			break
		}
		size *= 2
	}
	logging.Logger.Debugw("goroutine stack dump", "stacks", string(buf))

	if !writeToFile {
		return
	}
	name := filepath.Join(os.TempDir(), fmt.Sprintf("ncd.%d.stacks.log", os.Getpid()))
	f, err := os.Create(name)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(string(buf))
	logging.Logger.Debugw("stack dump written", "path", name)
}
