// Command server hosts one hot-seat game. Requests arrive as JSON lines
// on stdin; results, notices, activity and achievements leave as JSON
// lines on stdout. Diagnostics go to stderr.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"terrania.game/internal/config"
	persistlog "terrania.game/internal/persistence/log"
	"terrania.game/internal/persistence/snapshot"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/tables"
	"terrania.game/internal/sim/tuning"
	"terrania.game/internal/transport/observer"
)

func main() {
	logger := log.New(os.Stderr, "[server] ", log.LstdFlags|log.Lmicroseconds)

	env, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	var (
		configDir    = flag.String("configs", env.ConfigDir, "catalog directory (default: built-in catalogs)")
		tuningPath   = flag.String("tuning", env.TuningPath, "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir      = flag.String("data", env.DataDir, "runtime data directory")
		seed         = flag.Int64("seed", env.Seed, "game seed for a fresh game (0 draws one)")
		resume       = flag.String("resume", "", "save to resume from")
		resumeLatest = flag.Bool("resume_latest", false, "resume the most recent save recorded in the tables manifest")
		observeAddr  = flag.String("observe", env.ObserveAddr, "observer http listen address (empty to disable)")
		disableIndex = flag.Bool("disable_index", env.DisableIndex, "disable the sqlite read model")
	)
	flag.Parse()

	cats, err := loadCatalogs(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}
	tune, err := loadTuning(*tuningPath, *configDir, logger)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}

	idx, err := openRuntimeIndex(*dataDir, *disableIndex)
	if err != nil {
		logger.Fatalf("open index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	out := newEmitter(os.Stdout)
	hub := observer.NewHub()
	hooks := multiHooks{stdoutHooks(out), hub.Hooks()}

	manifest := filepath.Join(*dataDir, "tables.json")
	mgr, err := tables.NewManager(cats, tune, manifest, func(string) game.Hooks { return hooks })
	if err != nil {
		logger.Fatalf("tables: %v", err)
	}

	savePath := strings.TrimSpace(*resume)
	if savePath == "" && *resumeLatest {
		savePath = latestSave(manifest)
	}
	var id string
	if savePath != "" {
		snap, err := snapshot.ReadSnapshot(savePath)
		if err != nil {
			logger.Fatalf("read save: %v", err)
		}
		g, err := game.FromSnapshot(snap, cats, hooks)
		if err != nil {
			logger.Fatalf("resume: %v", err)
		}
		if err := mgr.Adopt(g, savePath); err != nil {
			logger.Fatalf("resume: %v", err)
		}
		id = g.ID()
		logger.Printf("resumed game %s turn %d from %s", id, snap.Header.Turn, filepath.Base(savePath))
	} else {
		id, err = mgr.Create(*seed)
		if err != nil {
			logger.Fatalf("new game: %v", err)
		}
		logger.Printf("new game %s", id)
	}

	gameDir := filepath.Join(*dataDir, "games", id)
	journal := persistlog.NewJournal(gameDir)
	activity := persistlog.NewActivityLogger(gameDir)
	defer journal.Close()
	defer activity.Close()
	var idxLog game.ActivityLogger
	if idx != nil {
		idxLog = idx
	}
	if err := mgr.Do(id, func(g *game.Game) error {
		g.SetLogger(log.New(os.Stderr, "[game] ", log.LstdFlags|log.Lmicroseconds))
		g.SetActivityLogger(multiActivityLogger{activity, idxLog})
		return g.SetJournal(journal, savePath)
	}); err != nil {
		logger.Fatalf("journal: %v", err)
	}

	dec, err := protocol.NewDecoder()
	if err != nil {
		logger.Fatalf("protocol: %v", err)
	}
	h := &host{
		mgr:     mgr,
		id:      id,
		dec:     dec,
		out:     out,
		idx:     idx,
		hub:     hub,
		saveDir: filepath.Join(gameDir, "saves"),
		log:     logger,
	}

	ctx, cancel := signalContext()
	defer cancel()

	if addr := strings.TrimSpace(*observeAddr); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           newObserveMux(h, env, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
		go func() {
			logger.Printf("observer listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Printf("observer: %v", err)
			}
		}()
	}

	lines := make(chan []byte)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			b := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- b:
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Printf("stdin: %v", err)
		}
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case b, ok := <-lines:
			if !ok {
				break loop
			}
			h.handleLine(b)
		}
	}

	if idx != nil {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		if err := idx.Flush(ctx2); err != nil {
			logger.Printf("index flush: %v", err)
		}
		cancel2()
	}
	logger.Printf("game %s: stopped", id)
}

func loadCatalogs(dir string) (*catalogs.Catalogs, error) {
	if strings.TrimSpace(dir) == "" {
		return catalogs.Default(), nil
	}
	return catalogs.Load(dir)
}

// loadTuning falls back to the defaults when no tuning file exists.
func loadTuning(path, configDir string, logger *log.Logger) (tuning.Tuning, error) {
	path = strings.TrimSpace(path)
	if path == "" && strings.TrimSpace(configDir) != "" {
		path = filepath.Join(configDir, "tuning.yaml")
	}
	if path == "" {
		return tuning.Defaults(), nil
	}
	t, err := tuning.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", path)
			return tuning.Defaults(), nil
		}
		return tuning.Tuning{}, err
	}
	return t, nil
}

// latestSave returns the newest save recorded in the manifest.
func latestSave(manifest string) string {
	infos, err := tables.LoadManifest(manifest)
	if err != nil {
		return ""
	}
	for i := len(infos) - 1; i >= 0; i-- {
		if infos[i].LastSave != "" {
			return infos[i].LastSave
		}
	}
	return ""
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
