// Command karatad is the process entrypoint: it loads configuration,
// connects storage and the event log, and serves the websocket transport
// that drives PerformTurn/RequestCard/SetLastCardStatus against one
// Orchestrator per room.
package main

import (
	"context"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/karata-game/karata/internal/config"
	"github.com/karata-game/karata/internal/eventlog"
	"github.com/karata-game/karata/internal/orchestrator"
	"github.com/karata-game/karata/internal/prompt"
	"github.com/karata-game/karata/internal/room"
	"github.com/karata-game/karata/internal/state"
	"github.com/karata-game/karata/internal/storage"
	"github.com/karata-game/karata/internal/transport/ws"
)

// server holds the process-wide collaborators shared across rooms: the
// transport hub, the storage/event-log backends, the single process-wide
// Prompt Registry (§5 — the only cross-game shared state), and the registry
// of live orchestrators keyed by invite link. This is the composition root —
// the only place that knows about every package.
type server struct {
	mu            sync.Mutex
	orchestrators map[string]*orchestrator.Orchestrator

	hub      *ws.Hub
	store    *storage.Store
	eventLog *eventlog.Publisher
	prompts  *prompt.Registry

	rules orchestrator.HouseRules
	log   *logrus.Entry
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	entry := logrus.NewEntry(log)

	cfg, err := config.Load()
	if err != nil {
		entry.WithError(err).Fatal("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		entry.WithError(err).Fatal("failed to connect to storage")
	}
	defer store.Close()

	publisher := eventlog.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer publisher.Close()

	srv := &server{
		orchestrators: make(map[string]*orchestrator.Orchestrator),
		hub:           ws.NewHub(entry),
		store:         store,
		eventLog:      publisher,
		prompts:       prompt.NewRegistry(),
		rules:         orchestrator.HouseRules{CardsPerHand: state.CardsPerHand, TurnTimeout: cfg.TurnTimeout},
		log:           entry,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.Upgrade(w, r, []byte(cfg.JWTSecret), srv.hub, srv.lookup, entry)
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	go func() {
		entry.WithField("addr", cfg.ListenAddr).Info("karatad listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			entry.WithError(err).Fatal("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		entry.WithError(err).Warn("graceful shutdown failed")
	}
}

// lookup resolves an invite link to its Orchestrator, creating a fresh room
// on first use. Room discovery proper is an external collaborator (§1 Out
// of scope); this is the minimal stand-in that lets the transport layer
// exercise the orchestrator end-to-end. ws.Upgrade seats the connecting
// player via Orchestrator.Join immediately after a successful lookup, which
// starts the game once two players have joined.
func (s *server) lookup(inviteLink string) (ws.TurnHandler, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orchestrators[inviteLink]; ok {
		return o, true
	}

	rm := room.New()
	g := state.NewGame(rand.New(rand.NewSource(time.Now().UnixNano())))
	o := orchestrator.New(rm.ID, g, rm, s.prompts, s.hub, s.store, s.eventLog, s.rules, s.log)
	s.orchestrators[inviteLink] = o
	return o, true
}
