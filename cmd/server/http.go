package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"

	"terrania.game/internal/config"
	"terrania.game/internal/observerproto"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/transport/observer"
)

// newObserveMux builds the read-only HTTP surface. Nothing here can
// mutate the game.
func newObserveMux(h *host, env config.Env, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		var st protocol.StateMsg
		_ = h.mgr.Do(h.id, func(g *game.Game) error {
			st = observer.StateOf(g.ID(), g.State(), "")
			return nil
		})

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP terrania_game_turn Current round.\n")
		fmt.Fprintf(rw, "# TYPE terrania_game_turn gauge\n")
		fmt.Fprintf(rw, "terrania_game_turn{game=%q} %d\n", h.id, st.Turn)

		fmt.Fprintf(rw, "# HELP terrania_player_victory_points Victory points per player.\n")
		fmt.Fprintf(rw, "# TYPE terrania_player_victory_points gauge\n")
		for _, p := range st.Players {
			fmt.Fprintf(rw, "terrania_player_victory_points{game=%q,player=%q} %d\n", h.id, p.Name, p.VictoryPoints)
		}

		fmt.Fprintf(rw, "# HELP terrania_player_regions Regions controlled per player.\n")
		fmt.Fprintf(rw, "# TYPE terrania_player_regions gauge\n")
		for _, p := range st.Players {
			fmt.Fprintf(rw, "terrania_player_regions{game=%q,player=%q} %d\n", h.id, p.Name, p.Regions)
		}

		fmt.Fprintf(rw, "# HELP terrania_observers Connected observer feeds.\n")
		fmt.Fprintf(rw, "# TYPE terrania_observers gauge\n")
		fmt.Fprintf(rw, "terrania_observers %d\n", h.hub.Subscribers())

		fmt.Fprintf(rw, "# HELP terrania_observer_dropped_total Feed messages dropped for slow observers.\n")
		fmt.Fprintf(rw, "# TYPE terrania_observer_dropped_total counter\n")
		fmt.Fprintf(rw, "terrania_observer_dropped_total %d\n", h.hub.Dropped())

		if h.idx != nil {
			s := h.idx.Stats()
			fmt.Fprintf(rw, "# HELP terrania_index_queue_depth Index writer backlog.\n")
			fmt.Fprintf(rw, "# TYPE terrania_index_queue_depth gauge\n")
			fmt.Fprintf(rw, "terrania_index_queue_depth %d\n", s.QueueDepth)
			fmt.Fprintf(rw, "# HELP terrania_index_dropped_total Index writes dropped under load.\n")
			fmt.Fprintf(rw, "# TYPE terrania_index_dropped_total counter\n")
			fmt.Fprintf(rw, "terrania_index_dropped_total{kind=%q} %d\n", "activity", s.DropActivity)
			fmt.Fprintf(rw, "terrania_index_dropped_total{kind=%q} %d\n", "achievement", s.DropAchievement)
			fmt.Fprintf(rw, "terrania_index_dropped_total{kind=%q} %d\n", "save", s.DropSave)
		}
	})

	obsSrv := observer.NewServer(h.hub, func() (observerproto.BootstrapResponse, error) {
		var resp observerproto.BootstrapResponse
		err := h.mgr.Do(h.id, func(g *game.Game) error {
			resp = observer.Bootstrap(g)
			return nil
		})
		return resp, err
	}, logger)
	mux.HandleFunc("/v1/observe", obsSrv.WSHandler())

	if env.AdminEnabled() {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !observer.IsLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			var resp any
			err := h.mgr.Do(h.id, func(g *game.Game) error {
				resp = struct {
					GameID string `json:"game_id"`
					Seq    uint64 `json:"seq"`
					Digest string `json:"digest"`
					State  any    `json:"state"`
				}{g.ID(), g.Seq(), g.Digest(), g.State()}
				return nil
			})
			if err != nil {
				http.Error(rw, err.Error(), http.StatusNotFound)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(resp)
		})
		mux.HandleFunc("/admin/v1/observer/bootstrap", obsSrv.BootstrapHandler())
	} else {
		logger.Printf("admin endpoints disabled (TERRANIA_ENABLE_ADMIN_HTTP=false)")
	}
	if env.PprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
