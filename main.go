package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/websocket"

	"github.com/parleychat/parley-server/api"
	"github.com/parleychat/parley-server/auth"
	"github.com/parleychat/parley-server/bot"
	"github.com/parleychat/parley-server/db"
	"github.com/parleychat/parley-server/llm"
	"github.com/parleychat/parley-server/relay"
	"github.com/parleychat/parley-server/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg := LoadConfig()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	authSvc := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	hub := ws.NewHub()

	mode := relay.ModeDirect
	if cfg.Mode == string(relay.ModeRoom) {
		mode = relay.ModeRoom
	}

	dispatcher := relay.NewDispatcher(mode, database, authSvc, hub)
	hub.Inbound = dispatcher.HandleInbound

	if cfg.GroqAPIKey == "" {
		slog.Warn("no generator API key configured, synthetic replies will use fallback text")
	}
	generator := llm.New(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel, cfg.GenTimeout)
	scheduler := bot.NewScheduler(bot.Config{
		Mode:             mode,
		SilenceDelay:     cfg.SilenceDelay,
		ObserverDelay:    cfg.ObserverDelay,
		PairPeriod:       cfg.PairPeriod,
		RoomPeriod:       cfg.RoomPeriod,
		ContextWindow:    cfg.ContextWindow,
		GeneratorTimeout: cfg.GenTimeout,
		BotUserID:        cfg.BotUserID,
	}, database, generator, dispatcher)
	dispatcher.Listener = scheduler

	mux := http.NewServeMux()
	api.NewHandler(database, authSvc).Routes(mux)

	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("upgrade failed", "err", err)
			return
		}
		client := ws.NewClient(hub, conn)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	slog.Info("parley-server starting", "addr", cfg.ListenAddr, "mode", mode)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
