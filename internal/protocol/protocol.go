package protocol

import "encoding/json"

const Version = "1.0"

// Request types, one per UI -> core call.
const (
	TypeStartGame          = "START_GAME"
	TypeSelectRegion       = "SELECT_REGION"
	TypePerformAction      = "PERFORM_ACTION"
	TypeEndTurn            = "END_TURN"
	TypeProposeNegotiation = "PROPOSE_NEGOTIATION"
	TypeRespondNegotiation = "RESPOND_NEGOTIATION"
	TypeSave               = "SAVE"
)

// Output message types (core -> UI).
const (
	TypeResult      = "RESULT"
	TypeNotice      = "NOTICE"
	TypeActivity    = "ACTIVITY"
	TypeAchievement = "ACHIEVEMENT"
	TypeState       = "STATE"
)

// BaseMessage lets us route unknown JSON messages by type, and recovers
// the request id when the full body fails validation.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ID              string `json:"id,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Request is the union of every request body; Type selects which fields
// are meaningful. Schemas enforce the per-type required fields.
type Request struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	ID              string `json:"id,omitempty"`

	Players []PlayerReg `json:"players,omitempty"`

	Action    string `json:"action,omitempty"`
	RegionID  *int   `json:"region_id,omitempty"`
	Structure string `json:"structure,omitempty"`

	Target  *int       `json:"target,omitempty"`
	Offer   *BundleMsg `json:"offer,omitempty"`
	Request *BundleMsg `json:"request,omitempty"`

	Accept *bool `json:"accept,omitempty"`

	Path string `json:"path,omitempty"`
}

type PlayerReg struct {
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

type BundleMsg struct {
	Resources map[string]int `json:"resources,omitempty"`
	Regions   []int          `json:"regions,omitempty"`
}

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Notice is a user-visible outcome emitted by the core.
type Notice struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"`
	Message  string   `json:"message"`
}

// ResultMsg answers one request.
type ResultMsg struct {
	Type    string `json:"type"`
	Ref     string `json:"ref,omitempty"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
}

type NoticeMsg struct {
	Type string `json:"type"`
	Notice
}

type ActivityMsg struct {
	Type       string `json:"type"`
	Kind       string `json:"kind"`
	PlayerName string `json:"player_name,omitempty"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
	Turn       int    `json:"turn"`
}

type AchievementMsg struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
	ID       string `json:"id"`
	Name     string `json:"name"`
}

// StateMsg is the compact per-turn summary sent to observers.
type StateMsg struct {
	Type          string        `json:"type"`
	GameID        string        `json:"game_id"`
	Turn          int           `json:"turn"`
	Phase         string        `json:"phase"`
	CurrentPlayer int           `json:"current_player"`
	ActionsLeft   int           `json:"actions_left"`
	ActiveEvent   string        `json:"active_event,omitempty"`
	EventRounds   int           `json:"event_rounds_left,omitempty"`
	Winner        int           `json:"winner"`
	Players       []PlayerBrief `json:"players"`
	Digest        string        `json:"digest,omitempty"`
}

type PlayerBrief struct {
	ID            int            `json:"id"`
	Name          string         `json:"name"`
	VictoryPoints int            `json:"victory_points"`
	Regions       int            `json:"regions"`
	Resources     map[string]int `json:"resources"`
}
