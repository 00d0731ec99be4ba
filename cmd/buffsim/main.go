// Command buffsim runs a small stat/buff simulation: it builds an actor
// from a YAML catalog, ticks its buff manager at a fixed rate, exposes
// apply/remove endpoints and streams per-tick snapshots to websocket
// clients. With persistence enabled the actor state survives restarts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/statfx/internal/buff"
	"github.com/udisondev/statfx/internal/config"
	"github.com/udisondev/statfx/internal/data"
	"github.com/udisondev/statfx/internal/db"
	"github.com/udisondev/statfx/internal/model"
)

const defaultConfigPath = "config/buffsim.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := defaultConfigPath
	if p := os.Getenv("STATFX_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		slog.Warn("config file missing, using defaults", "path", cfgPath)
		cfg = config.Default()
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("buffsim starting", "log_level", cfg.LogLevel, "tick_rate", cfg.TickRate)

	catalog, err := data.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	actor := model.NewActor("demo", "Training Dummy")
	order, stats := catalog.BuildStats()
	for _, name := range order {
		actor.AddStat(name, stats[name])
	}
	templates := catalog.BuildBuffs()
	slog.Info("catalog loaded", "stats", len(order), "buffs", len(templates))

	stacking := buff.NewStackingModule()
	categories := buff.NewCategoryModule()
	resistance := buff.NewResistanceModule(rand.New(rand.NewSource(time.Now().UnixNano())))
	actor.Buffs().AddModule(stacking)
	actor.Buffs().AddModule(categories)
	actor.Buffs().AddModule(resistance)

	var repo *db.SnapshotRepository
	if cfg.Persist {
		dsn := cfg.Database.DSN()
		if err := db.RunMigrations(ctx, dsn); err != nil {
			return err
		}
		database, err := db.New(ctx, dsn)
		if err != nil {
			return err
		}
		defer database.Close()
		repo = db.NewSnapshotRepository(database.Pool())

		snapshot, err := repo.Load(ctx, actor.ID())
		if err != nil {
			return err
		}
		if snapshot != nil {
			if err := actor.Restore(snapshot); err != nil {
				return fmt.Errorf("restoring actor %q: %w", actor.ID(), err)
			}
			slog.Info("actor state restored", "actor", actor.ID())
		}
	}

	hub := newHub()

	// All actor mutation funnels through the tick loop; HTTP handlers
	// only enqueue commands.
	commands := make(chan func(), 64)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r)
	})
	mux.HandleFunc("POST /apply", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("buff")
		template, ok := templates[name]
		if !ok {
			http.Error(w, "unknown buff", http.StatusNotFound)
			return
		}
		enqueue(commands, func() {
			if !actor.Buffs().Apply(template, true) {
				slog.Debug("apply rejected", "buff", name)
			}
		})
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("POST /remove", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("buff")
		enqueue(commands, func() {
			actor.Buffs().Remove(name)
		})
		w.WriteHeader(http.StatusAccepted)
	})

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.BindAddress, fmt.Sprintf("%d", cfg.Port)),
		Handler: mux,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := hub.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		slog.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return tickLoop(gctx, cfg.TickRate, actor, hub, commands)
	})

	err = g.Wait()

	if repo != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if saveErr := repo.Save(saveCtx, actor.ID(), actor.Snapshot()); saveErr != nil {
			slog.Error("saving actor state failed", "err", saveErr)
		} else {
			slog.Info("actor state saved", "actor", actor.ID())
		}
	}
	return err
}

// tickLoop drives the actor at a fixed logical rate and broadcasts one
// snapshot frame per tick.
func tickLoop(ctx context.Context, tickRate float64, actor *model.Actor, hub *Hub, commands chan func()) error {
	if tickRate <= 0 {
		tickRate = 20
	}
	dt := 1 / tickRate
	ticker := time.NewTicker(time.Duration(float64(time.Second) / tickRate))
	defer ticker.Stop()

	var tick uint64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			drain(commands)
			actor.Update(dt)
			tick++
			hub.Broadcast(frame(tick, actor))
		}
	}
}

func drain(commands chan func()) {
	for {
		select {
		case cmd := <-commands:
			cmd()
		default:
			return
		}
	}
}

func enqueue(commands chan func(), cmd func()) {
	select {
	case commands <- cmd:
	default:
		slog.Warn("command queue full, dropped")
	}
}

// frame encodes one tick's view of the actor.
func frame(tick uint64, actor *model.Actor) []byte {
	stats := make(map[string]any)
	for _, name := range actor.StatNames() {
		s := actor.GetStat(name)
		stats[name] = map[string]float64{"value": s.Value(), "max": s.Max()}
	}
	payload := map[string]any{
		"tick":  tick,
		"actor": actor.Name(),
		"stats": stats,
		"buffs": actor.Buffs().Names(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		slog.Error("encoding frame", "err", err)
		return []byte("{}")
	}
	return raw
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
