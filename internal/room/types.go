// Package room implements the room state machine (spec §3, §4.9): member
// rosters, chat/context/transcript accumulation with capacity invariants,
// the aiConfig status machine, and the single applyClientMessage mutation
// entry point that every transport (HTTP or WebSocket) funnels through.
// Grounded in the teacher's internal/domain "plain struct, explicit
// constructor, explicit mutation methods" shape.
package room

import (
	"time"

	"github.com/piyushdatta/senseboard-server/internal/board"
	"github.com/piyushdatta/senseboard-server/internal/config"
	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

type Member struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	JoinedAt time.Time `json:"joinedAt"`
}

type ChatKind string

const (
	ChatNormal     ChatKind = "normal"
	ChatCorrection ChatKind = "correction"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Kind      ChatKind  `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

type ContextPriority string

const (
	ContextHigh   ContextPriority = "high"
	ContextNormal ContextPriority = "normal"
)

type ContextItem struct {
	ID        string          `json:"id"`
	Text      string          `json:"text"`
	Priority  ContextPriority `json:"priority"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type TranscriptSource string

const (
	TranscriptSourceAudio TranscriptSource = "audio"
	TranscriptSourceTyped TranscriptSource = "typed"
)

type TranscriptChunk struct {
	ID        string           `json:"id"`
	Speaker   string           `json:"speaker"`
	Text      string           `json:"text"`
	Source    TranscriptSource `json:"source"`
	CreatedAt time.Time        `json:"createdAt"`
}

type AIStatus string

const (
	AIStatusIdle      AIStatus = "idle"
	AIStatusListening AIStatus = "listening"
	AIStatusUpdating  AIStatus = "updating"
	AIStatusFrozen    AIStatus = "frozen"
)

type AIConfig struct {
	Frozen        bool              `json:"frozen"`
	FocusMode     bool              `json:"focusMode"`
	FocusBox      *diagram.FocusBox `json:"focusBox,omitempty"`
	PinnedGroupIDs []string         `json:"pinnedGroupIds,omitempty"`
	Status        AIStatus          `json:"status"`
}

// HistoryEntry is one row of aiHistory (spec §3): a compact record of what
// the last N AI runs produced, for the room snapshot and prompt preview.
type HistoryEntry struct {
	At        time.Time `json:"at"`
	Reason    string    `json:"reason"`
	Kind      string    `json:"kind"` // "board_ops" | "diagram_patch"
	Summary   string    `json:"summary,omitempty"`
	Fingerprint string  `json:"fingerprint"`
}

// ArchivedGroup is a deep-cloned diagram group retired on a topic shift
// (spec §4.7), kept for diagram:restoreArchived.
type ArchivedGroup struct {
	Group      *diagram.Group `json:"group"`
	ArchivedAt time.Time      `json:"archivedAt"`
}

// State is the RoomState (spec §3): the full in-memory state of one room.
// Every field here is mutated only through applyClientMessage or the AI
// orchestration engine — never directly by a transport handler.
type State struct {
	ID      string    `json:"id"`
	Members []Member  `json:"members"`

	ChatMessages     []ChatMessage     `json:"chatMessages"`
	ContextItems     []ContextItem     `json:"contextItems"`
	TranscriptChunks []TranscriptChunk `json:"transcriptChunks"`
	VisualHint       string            `json:"visualHint"`

	Board *board.State `json:"board"`

	DiagramGroups   map[string]*diagram.Group `json:"diagramGroups"`
	ActiveGroupID   string                     `json:"activeGroupId"`
	ArchivedGroups  []ArchivedGroup            `json:"archivedGroups"`

	AIConfig AIConfig `json:"aiConfig"`

	AIHistory         []HistoryEntry `json:"aiHistory"`
	LastAIPatchAt     time.Time      `json:"lastAiPatchAt"`
	LastAIFingerprint string         `json:"lastAiFingerprint"`

	// LastAILayerPrefix is the namespace prefix (spec §4.5:
	// "layer_<base36time>_<random>") of the most recently stacked AI
	// layer, used by diagram:undoAi to remove exactly that layer.
	LastAILayerPrefix string `json:"-"`

	// lastStoredTranscriptBySpeaker backs the speaker-consecutive dedup
	// pass in the transcript normalization pipeline (spec §4.3 step 4).
	lastStoredTranscriptBySpeaker map[string]string

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a fresh RoomState (spec §3: "rooms are created on demand").
func New(id string, now time.Time) *State {
	return &State{
		ID:                            id,
		Board:                         board.NewState(),
		DiagramGroups:                 make(map[string]*diagram.Group),
		AIConfig:                      AIConfig{Status: AIStatusIdle},
		lastStoredTranscriptBySpeaker: make(map[string]string),
		CreatedAt:                     now,
		UpdatedAt:                     now,
	}
}

// Invariant checks the capacity bounds from spec §8.
func (s *State) Invariant() bool {
	return len(s.ChatMessages) <= config.ChatMessagesCap &&
		len(s.ContextItems) <= config.ContextItemsCap &&
		len(s.TranscriptChunks) <= config.TranscriptChunksCap &&
		len(s.AIHistory) <= config.AIHistoryCap &&
		len(s.ArchivedGroups) <= config.ArchivedGroupsCap
}

func (s *State) ActiveGroup() *diagram.Group {
	if s.ActiveGroupID == "" {
		return nil
	}
	return s.DiagramGroups[s.ActiveGroupID]
}

func (s *State) MemberByName(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}
