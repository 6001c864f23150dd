// enhancerd serves the prompt enhancement API.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wideunique/promate/internal/config"
	"github.com/wideunique/promate/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to config.toml (default: standard locations)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatalf("enhancerd: load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Address = *addr
	}

	if cfg.Server.ResolveAPIKey() == "" {
		log.Printf("warning: no API key configured; all requests will be rejected")
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("enhancerd: %v", err)
	}

	// Reload on config file changes so key rotation and template/mode edits
	// do not require a restart.
	watchPath := *configPath
	if watchPath == "" {
		watchPath = filepath.Join(config.ConfigDir(), "config.toml")
	}
	if _, err := os.Stat(watchPath); err == nil {
		stop, err := config.Watch(watchPath, func(next config.Config) {
			if *addr != "" {
				next.Server.Address = *addr
			}
			if err := srv.Update(next); err != nil {
				log.Printf("warning: config reload rejected: %v", err)
				return
			}
			log.Printf("enhancerd: config reloaded")
		})
		if err != nil {
			log.Printf("warning: config watch disabled: %v", err)
		} else {
			defer stop()
		}
	}

	httpSrv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srv.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	done := make(chan struct{})
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		<-sigs
		log.Printf("enhancerd: shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Printf("warning: shutdown: %v", err)
		}
		close(done)
	}()

	log.Printf("enhancerd: listening on %s (mode %s)", cfg.Server.Address, cfg.Server.Mode)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("enhancerd: %v", err)
	}
	<-done
}
