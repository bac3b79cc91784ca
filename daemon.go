//go:build !tinygo

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
)

func socketPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = "/tmp"
	}
	return filepath.Join(dir, "alarmclock.sock")
}

type daemon struct {
	clock *alarmClock
	creds credentials
	log   *log.Logger
}

func (d *daemon) handleRequest(req IPCRequest) IPCResponse {
	switch req.Command {
	case "status":
		resp := d.clock.status()
		resp.SSID = d.creds.SSID
		return resp

	case "alarms":
		return IPCResponse{Alarms: d.clock.alarms.get()}

	case "stop":
		// Same path as the hardware stop button.
		if err := d.clock.post(eventButtonPressed, nil); err != nil {
			return IPCResponse{Error: err.Error()}
		}
		return IPCResponse{}

	default:
		return IPCResponse{Error: fmt.Sprintf("unknown command: %q", req.Command)}
	}
}

func (d *daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	var req IPCRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		resp := IPCResponse{Error: "invalid request: " + err.Error()}
		json.NewEncoder(conn).Encode(resp)
		return
	}

	resp := d.handleRequest(req)
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		d.log.Printf("write ipc response: %v", err)
	}
}

func runDaemon(args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	configFile := fs.String("config", "", "path to config file (default "+defaultConfigFile+" in the config dir)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	logger, logFile, err := newLogger(cfg.Log.Filename)
	if err != nil {
		return err
	}
	defer logFile.Close()

	loc, err := cfg.location()
	if err != nil {
		return err
	}

	creds := loadCredentials(cfg.Storage.WifiFile)
	if creds.SSID == "" {
		logger.Printf("no wifi credentials in %s", cfg.Storage.WifiFile)
	} else {
		logger.Printf("wifi network %q provisioned", creds.SSID)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := clockDeps{
		store:  newFileStore(cfg.Storage.AlarmsFile, logger),
		led:    newSysfsLED(cfg.Indicator.LED, logger),
		clock:  wallClock{loc: loc},
		buzzer: &bellBuzzer{out: os.Stdout},
	}

	var srv *http.Server
	if cfg.Display.Enabled {
		disp := newWSDisplay(logger)
		defer disp.close()
		deps.display = disp
		deps.observer = disp
		deps.buzzer = &bellBuzzer{out: os.Stdout, disp: disp}

		mux := http.NewServeMux()
		mux.Handle("/ws", disp)
		srv = &http.Server{Addr: cfg.Display.Listen, Handler: mux}
		go func() {
			logger.Printf("display on ws://%s/ws", cfg.Display.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("display server: %v", err)
			}
		}()
		defer srv.Close()
	}

	var clock *alarmClock
	bz, err := newBluez(cfg, logger, func(kind eventKind, data []byte) {
		clock.postLogged(kind, data)
	})
	if err != nil {
		return err
	}
	defer bz.close()
	deps.transport = bz

	clock = newAlarmClock(cfg, logger, deps)
	if err := bz.register(); err != nil {
		return err
	}
	go bz.watchSignals(bz.subscribePropertyChanges())

	sock := socketPath()
	os.Remove(sock) // remove stale socket
	ln, err := net.Listen("unix", sock)
	if err != nil {
		return fmt.Errorf("listen %s: %w", sock, err)
	}
	os.Chmod(sock, 0700)
	defer os.Remove(sock)
	defer ln.Close()

	d := &daemon{clock: clock, creds: creds, log: logger}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				// Listener closed on shutdown.
				return
			}
			go d.handleConn(conn)
		}
	}()

	logger.Printf("advertising as %q, listening on %s", cfg.DeviceName, sock)
	err = clock.run(ctx)
	logger.Println("shutting down")
	return err
}
