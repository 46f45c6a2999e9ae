package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"terrania.game/internal/persistence/indexdb"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/game/kernel/model"
	"terrania.game/internal/sim/tables"
	"terrania.game/internal/transport/observer"
)

// emitter writes protocol messages as JSON lines.
type emitter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newEmitter(w io.Writer) *emitter { return &emitter{enc: json.NewEncoder(w)} }

func (e *emitter) Emit(v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.enc.Encode(v)
}

// stdoutHooks mirrors the game's notification port onto the output stream.
func stdoutHooks(out *emitter) game.Hooks {
	return game.HookFuncs{
		Notice: func(n protocol.Notice) {
			out.Emit(protocol.NoticeMsg{Type: protocol.TypeNotice, Notice: n})
		},
		Activity: func(e model.ActivityEntry) {
			out.Emit(protocol.ActivityMsg{
				Type:       protocol.TypeActivity,
				Kind:       e.Type,
				PlayerName: e.PlayerName,
				Action:     e.Action,
				Details:    e.Details,
				Turn:       e.Turn,
			})
		},
		Achievement: func(playerID int, def catalogs.AchievementDef) {
			out.Emit(protocol.AchievementMsg{Type: protocol.TypeAchievement, PlayerID: playerID, ID: def.ID, Name: def.Name})
		},
	}
}

// multiHooks fans one notification out to several ports.
type multiHooks []game.Hooks

func (m multiHooks) OnNotice(n protocol.Notice) {
	for _, h := range m {
		h.OnNotice(n)
	}
}

func (m multiHooks) OnActivity(e model.ActivityEntry) {
	for _, h := range m {
		h.OnActivity(e)
	}
}

func (m multiHooks) OnAchievement(playerID int, def catalogs.AchievementDef) {
	for _, h := range m {
		h.OnAchievement(playerID, def)
	}
}

type multiActivityLogger []game.ActivityLogger

func (m multiActivityLogger) WriteActivity(rec game.ActivityRecord) error {
	var first error
	for _, l := range m {
		if l == nil {
			continue
		}
		if err := l.WriteActivity(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// host drives one hot-seat game from request lines.
type host struct {
	mgr     *tables.Manager
	id      string
	dec     *protocol.Decoder
	out     *emitter
	idx     runtimeIndex
	hub     *observer.Hub
	saveDir string
	log     *log.Logger
}

// handleLine processes one request line and emits its RESULT.
func (h *host) handleLine(line []byte) {
	line = []byte(strings.TrimSpace(string(line)))
	if len(line) == 0 {
		return
	}
	req, err := h.dec.Decode(line)
	if err != nil {
		res := protocol.ResultMsg{Type: protocol.TypeResult, Code: protocol.ErrBadRequest, Message: err.Error()}
		if base, berr := protocol.DecodeBase(line); berr == nil {
			res.Ref = base.ID
		}
		h.out.Emit(res)
		return
	}
	if req.Type == protocol.TypeSave {
		h.save(req)
		return
	}

	var res game.Result
	err = h.mgr.Do(h.id, func(g *game.Game) error {
		var herr error
		res, herr = g.Handle(req)
		if len(res.Unlocked) > 0 && h.idx != nil {
			st := g.State()
			for _, u := range res.Unlocked {
				row := indexdb.AchievementRow{GameID: g.ID(), PlayerID: u.PlayerID, AchievementID: u.Def.ID, Name: u.Def.Name, Turn: st.Turn}
				if p, ok := st.Player(u.PlayerID); ok {
					row.PlayerName = p.Name
				}
				h.idx.RecordAchievement(row)
			}
		}
		if h.hub != nil {
			_ = h.hub.PublishState(g.ID(), g.State(), g.Digest())
		}
		return herr
	})
	if err != nil {
		h.log.Printf("game %s: %s: %v", h.id, req.Type, err)
	}
	h.out.Emit(protocol.ResultMsg{
		Type:    protocol.TypeResult,
		Ref:     req.ID,
		OK:      res.OK,
		Code:    res.Code,
		Message: res.Message,
		Warning: res.Warning,
	})
}

// save writes a snapshot. A requested path is reduced to its base name
// inside the save directory.
func (h *host) save(req protocol.Request) {
	var (
		path string
		err  error
	)
	name := strings.TrimSpace(req.Path)
	if name == "" {
		path, err = h.mgr.Save(h.id, h.saveDir)
	} else {
		name = filepath.Base(name)
		if !strings.HasSuffix(name, ".snap.zst") {
			name += ".snap.zst"
		}
		path = filepath.Join(h.saveDir, name)
		err = h.mgr.Do(h.id, func(g *game.Game) error {
			_, serr := g.Save(path)
			return serr
		})
	}
	if err != nil {
		h.log.Printf("game %s: save: %v", h.id, err)
		h.out.Emit(protocol.ResultMsg{Type: protocol.TypeResult, Ref: req.ID, Code: protocol.ErrInternal, Message: "save failed"})
		return
	}
	if h.idx != nil {
		if hdr, herr := readHeader(path); herr == nil {
			h.idx.RecordSave(path, hdr)
		}
	}
	h.out.Emit(protocol.ResultMsg{Type: protocol.TypeResult, Ref: req.ID, OK: true, Message: fmt.Sprintf("saved to %s", path)})
}
