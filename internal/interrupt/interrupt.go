// Package interrupt terminates the process on SIGINT or SIGTERM while a
// download is fetching parts. In-flight workers are not joined.
package interrupt

import (
	"os"
	"os/signal"
	"syscall"
)

// ExitCode is reported when a transfer is interrupted (EX_IOERR).
const ExitCode = 74

// Watch calls exit(ExitCode) when the process receives SIGINT or SIGTERM.
// The returned stop function removes the handler.
func Watch(exit func(code int)) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	stopWatch := watch(sigs, exit)
	return func() {
		signal.Stop(sigs)
		stopWatch()
	}
}

func watch(sigs <-chan os.Signal, exit func(code int)) (stop func()) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-sigs:
			exit(ExitCode)
		case <-done:
		}
	}()

	var stopped bool
	return func() {
		if !stopped {
			stopped = true
			close(done)
		}
		<-exited
	}
}
