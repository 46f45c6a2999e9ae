// Package observerproto holds the read-only observer feed messages. It is
// versioned separately from the request protocol.
package observerproto

import "terrania.game/internal/protocol"

const Version = "0.1"

// Message kinds a subscriber can filter on.
const (
	KindState       = "state"
	KindNotice      = "notice"
	KindActivity    = "activity"
	KindAchievement = "achievement"
)

// SubscribeMsg is the first client message on the observer websocket.
// It can be re-sent to change the filter. An empty Kinds means all.
type SubscribeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	Kinds           []string `json:"kinds,omitempty"`
}

// BootstrapResponse answers GET /admin/v1/observer/bootstrap with the
// static parts of a game a viewer needs to draw the map.
type BootstrapResponse struct {
	ProtocolVersion string            `json:"protocol_version"`
	GameID          string            `json:"game_id"`
	Seed            int64             `json:"seed"`
	GridWidth       int               `json:"grid_width"`
	GridHeight      int               `json:"grid_height"`
	Regions         []RegionInfo      `json:"regions"`
	Biomes          []string          `json:"biomes"`
	Structures      []string          `json:"structures"`
	State           protocol.StateMsg `json:"state"`
}

type RegionInfo struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Biome            string   `json:"biome"`
	Controller       int      `json:"controller"`
	ExplorationLevel int      `json:"exploration_level"`
	Structures       []string `json:"structures,omitempty"`
}
