package observer

import (
	"encoding/json"
	"sync"

	"terrania.game/internal/observerproto"
	"terrania.game/internal/protocol"
	"terrania.game/internal/sim/catalogs"
	"terrania.game/internal/sim/game"
	"terrania.game/internal/sim/game/kernel/model"
)

// Hub fans feed messages out to subscribers. Slow subscribers lose
// messages instead of stalling the game.
type Hub struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	// lastState is replayed to every new subscriber.
	lastState []byte
	dropped   uint64
}

type subscriber struct {
	out   chan []byte
	kinds map[string]bool
}

func NewHub() *Hub {
	return &Hub{subs: map[uint64]*subscriber{}}
}

// Subscribe registers a subscriber with a queue of size queue.
func (h *Hub) Subscribe(queue int, kinds []string) (uint64, <-chan []byte) {
	if queue <= 0 {
		queue = 64
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	s := &subscriber{out: make(chan []byte, queue), kinds: kindSet(kinds)}
	h.subs[h.nextID] = s
	if h.lastState != nil && s.wants(observerproto.KindState) {
		s.out <- h.lastState
	}
	return h.nextID, s.out
}

// Filter replaces a subscriber's kind filter.
func (h *Hub) Filter(id uint64, kinds []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		s.kinds = kindSet(kinds)
	}
}

func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.out)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Publish marshals v once and queues it for every subscriber that wants
// kind.
func (h *Hub) Publish(kind string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if kind == observerproto.KindState {
		h.lastState = b
	}
	for _, s := range h.subs {
		if !s.wants(kind) {
			continue
		}
		select {
		case s.out <- b:
		default:
			h.dropped++
		}
	}
	return nil
}

// PublishState sends the compact summary of st.
func (h *Hub) PublishState(gameID string, st *model.GameState, digest string) error {
	return h.Publish(observerproto.KindState, StateOf(gameID, st, digest))
}

// Hooks returns a notification port that mirrors a game's notices,
// activity and achievements onto the feed.
func (h *Hub) Hooks() game.Hooks {
	return game.HookFuncs{
		Notice: func(n protocol.Notice) {
			_ = h.Publish(observerproto.KindNotice, protocol.NoticeMsg{Type: protocol.TypeNotice, Notice: n})
		},
		Activity: func(e model.ActivityEntry) {
			_ = h.Publish(observerproto.KindActivity, protocol.ActivityMsg{
				Type:       protocol.TypeActivity,
				Kind:       e.Type,
				PlayerName: e.PlayerName,
				Action:     e.Action,
				Details:    e.Details,
				Turn:       e.Turn,
			})
		},
		Achievement: func(playerID int, def catalogs.AchievementDef) {
			_ = h.Publish(observerproto.KindAchievement, protocol.AchievementMsg{
				Type:     protocol.TypeAchievement,
				PlayerID: playerID,
				ID:       def.ID,
				Name:     def.Name,
			})
		},
	}
}

func (s *subscriber) wants(kind string) bool {
	return len(s.kinds) == 0 || s.kinds[kind]
}

func kindSet(kinds []string) map[string]bool {
	if len(kinds) == 0 {
		return nil
	}
	m := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}
