package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, envLoaded := LoadConfig()

	addr := flag.String("addr", "", "HTTP listen address (default :$PORT)")
	clientDir := flag.String("client", cfg.ClientDir, "Path to client directory")
	flag.Parse()
	if *addr == "" {
		*addr = ":" + cfg.Port
	}

	if err := InitLogger(cfg.LogFile, cfg.LogDebug); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer SyncLogger()
	if envLoaded {
		Log.Info("loaded .env")
	}

	stop := make(chan struct{})

	var db *DB
	var store ScoreStore
	if cfg.DatabaseURL != "" {
		var err error
		db, err = OpenDB(cfg.DatabaseURL)
		if err != nil {
			Log.Fatalf("open database: %v", err)
		}
		defer db.Close()
		store = db
		go db.pruneLoop(time.Hour, stop)
		Log.Infof("high scores in database %s", cfg.DatabaseURL)
	} else {
		store = NewFileStore(cfg.HighScoreFile)
		Log.Infof("high scores in file %s", cfg.HighScoreFile)
	}

	board := NewLeaderboard(store)
	defer board.Close()

	auth, err := NewAuth(cfg.AdminUser, cfg.AdminPassword, cfg.JWTSecret, db)
	if err != nil {
		Log.Fatalf("auth: %v", err)
	}
	if !auth.Enabled() {
		Log.Info("ADMIN_PASSWORD not set, admin login disabled")
	}

	rooms := NewRoomRegistry(board)
	hub := NewHub(rooms, board)
	go hub.Run()

	sched := NewScheduler(rooms, SchedulerInterval)
	go sched.Run()

	mux := SetupRoutes(hub, NewAdmin(rooms, hub, auth), *clientDir)
	server := &http.Server{Addr: *addr, Handler: mux}

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		Log.Infof("Server starting on %s", *addr)
		Log.Infof("Serving client files from %s", *clientDir)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-sig
	Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		Log.Warnf("shutdown: %v", err)
	}
	sched.Stop()
	hub.Stop()
	close(stop)
}
