package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"netrunner/internal/catalog"
	"netrunner/internal/config"
	"netrunner/internal/engine"
	"netrunner/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cat, err := catalog.Load(cfg.DataDir)
	if err != nil {
		log.Fatalf("catalog: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, repo, err := newSession(ctx, cfg, cat)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	if repo != nil {
		defer repo.Close()
	}
	defer session.Close()

	if cfg.Ticks {
		go session.Run(ctx)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(session, cfg.AdminToken),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on http://localhost%s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

// newSession opens the repository and resumes the stored player when one
// exists. The memory dialect runs without persistence.
func newSession(ctx context.Context, cfg config.Config, cat *catalog.Catalog) (*engine.Session, *storage.SQLRepository, error) {
	opts := []engine.Option{engine.WithNotifier(engine.LogNotifier{})}
	if cfg.Seed != 0 {
		opts = append(opts, engine.WithRand(engine.NewRand(cfg.Seed)))
	}

	repo, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if repo != nil {
		snap, ok, err := repo.Load(ctx)
		if err != nil {
			_ = repo.Close()
			return nil, nil, err
		}
		if ok {
			log.Printf("restored player: credits=%.2f heat=%.1f", snap.Credits, snap.Heat)
			opts = append(opts, engine.WithState(engine.RestoreState(snap)))
		}
		opts = append(opts, engine.WithPersister(repo))
	} else {
		log.Printf("database: dialect=memory (state is lost on restart)")
	}
	return engine.NewSession(cat, opts...), repo, nil
}
