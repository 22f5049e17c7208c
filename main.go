package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/thtrack/internal/config"
	"github.com/soar/thtrack/internal/control"
	"github.com/soar/thtrack/internal/hub"
	"github.com/soar/thtrack/internal/procmem"
	"github.com/soar/thtrack/internal/psmove"
	"github.com/soar/thtrack/internal/server"
	"github.com/soar/thtrack/internal/tray"
	"github.com/soar/thtrack/internal/uinput"
)

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const deviceName = "thtrack virtual keyboard"

type keySink interface {
	control.KeySink
	io.Closer
}

func openSink(backend, path string, keys []uint16) (keySink, error) {
	switch backend {
	case "", "uinput":
		return uinput.Open(path, deviceName, keys)
	case "keyboard":
		return uinput.OpenKeyboard(path, deviceName)
	}
	return nil, errors.New("unknown sink " + backend + " (supported: uinput, keyboard)")
}

func monitorURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func main() {
	opts, err := config.ParseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	proc, err := procmem.Resolve(opts.Process)
	if err != nil {
		log.Fatalf("Error while trying to get pid for %q: %v", opts.Process, err)
	}
	log.Printf("Process id: %d, process name: %s", proc.PID, proc.Name)

	settings, err := config.Load(opts, proc.GameName())
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	settings.Describe()

	sampler, err := procmem.NewSampler(opts.Mem, proc.PID, settings.Address)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	sink, err := openSink(opts.Sink, opts.Device, settings.Remap.Keys())
	if err != nil {
		log.Fatalf("Error trying to open uinput: %v", err)
	}

	loop := control.NewLoop(settings.Remap, sampler, sink)
	loop.SetVerbose(opts.Verbose)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	// Optional live monitor
	var srv *server.Server
	serverErrCh := make(chan error, 1)
	if opts.Monitor != "" {
		h := hub.NewHub()
		go h.Run()

		broadcaster := hub.NewBroadcaster(h)
		go broadcaster.Run(ctx)
		loop.Observe(broadcaster.Publish)

		srv, err = server.New(h, broadcaster, monitorFS(), opts.Monitor)
		if err != nil {
			log.Fatalf("Monitor error: %v", err)
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrCh <- err
			}
		}()
		log.Printf("Monitor started: %s", monitorURL(opts.Monitor))
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})
	var t *tray.Tray
	if opts.Tray {
		url := ""
		if opts.Monitor != "" {
			url = monitorURL(opts.Monitor)
		}
		t = tray.New(url, func() {
			close(shutdownRequested)
		})
		go t.Run(tray.Icon())
	}

	// The loop owns its state and runs on this one goroutine until the
	// tracker says the session is over.
	loopDone := make(chan error, 1)
	go func() {
		loopDone <- loop.Run(ctx, psmove.NewStream(os.Stdin))
	}()
	log.Println("Waiting for tracker updates on stdin, start navigation with the toggle button")

	exitCode := 0
	select {
	case err := <-loopDone:
		if err != nil {
			log.Printf("Control loop stopped: %v", err)
			exitCode = 1
		}
	case <-sigCh:
		log.Println("Shutting down...")
	case <-shutdownRequested:
		log.Println("Shutdown requested from tray")
	case err := <-serverErrCh:
		log.Printf("Monitor server error: %v", err)
		exitCode = 1
	}
	cancel()

	if err := sink.Close(); err != nil {
		log.Printf("Closing virtual keyboard: %v", err)
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Monitor shutdown error: %v", err)
		}
		shutdownCancel()
	}
	if t != nil {
		t.Quit()
	}

	log.Println("thtrack stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
