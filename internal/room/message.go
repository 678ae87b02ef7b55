package room

import (
	"fmt"
	"strings"
	"time"

	"github.com/piyushdatta/senseboard-server/internal/apierr"
	"github.com/piyushdatta/senseboard-server/internal/board"
	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

// MessageType tags a ClientMessage variant (spec §4.9, §6).
type MessageType string

const (
	MsgChatAdd              MessageType = "chat:add"
	MsgContextAdd            MessageType = "context:add"
	MsgContextUpdate         MessageType = "context:update"
	MsgContextDelete         MessageType = "context:delete"
	MsgTranscriptAdd         MessageType = "transcript:add"
	MsgVisualHintSet         MessageType = "visualHint:set"
	MsgAIConfigUpdate        MessageType = "aiConfig:update"
	MsgDiagramPinCurrent     MessageType = "diagram:pinCurrent"
	MsgDiagramUndoAI         MessageType = "diagram:undoAi"
	MsgDiagramRestoreArchived MessageType = "diagram:restoreArchived"
	MsgClientAck             MessageType = "client:ack"
)

// ClientMessage is the single wire-level message shape every client→server
// frame coerces into before reaching applyClientMessage, mirroring the
// tagged-struct convention used for board.Op and diagram.Action.
type ClientMessage struct {
	Type MessageType `json:"type"`

	// chat:add
	Text string   `json:"text,omitempty"`
	Kind ChatKind `json:"kind,omitempty"`

	// context:add/update
	ContextID string          `json:"contextId,omitempty"`
	Priority  ContextPriority `json:"priority,omitempty"`

	// transcript:add
	Source TranscriptSource `json:"source,omitempty"`

	// visualHint:set
	Value string `json:"value,omitempty"`

	// aiConfig:update
	Frozen    *bool             `json:"frozen,omitempty"`
	FocusMode *bool             `json:"focusMode,omitempty"`
	FocusBox  *diagram.FocusBox `json:"focusBox,omitempty"`
	Status    *AIStatus         `json:"status,omitempty"`

	// diagram:restoreArchived
	ArchiveIndex int `json:"archiveIndex,omitempty"`

	// client:ack
	Protocol string    `json:"protocol,omitempty"`
	SentAt   time.Time `json:"sentAt,omitempty"`
}

// ApplyClientMessage is the single mutation entry point (spec §4.9): every
// accepted mutation bumps room state in memory; callers are responsible for
// broadcasting the resulting snapshot afterward. sender is the member name
// attributed to chat/context/transcript mutations; idGen mints new ids.
func (s *State) ApplyClientMessage(sender string, msg ClientMessage, now time.Time, idGen func() string) error {
	switch msg.Type {
	case MsgChatAdd:
		if strings.TrimSpace(msg.Text) == "" {
			return apierr.InputRejectedf("empty_chat_text", "chat message text must not be empty")
		}
		kind := msg.Kind
		if kind == "" {
			kind = ChatNormal
		}
		s.addChatMessage(ChatMessage{ID: idGen(), Sender: sender, Text: msg.Text, Kind: kind, CreatedAt: now})

	case MsgContextAdd:
		if strings.TrimSpace(msg.Text) == "" {
			return apierr.InputRejectedf("empty_context_text", "context item text must not be empty")
		}
		priority := msg.Priority
		if priority == "" {
			priority = ContextNormal
		}
		s.addContextItem(ContextItem{ID: idGen(), Text: msg.Text, Priority: priority, CreatedAt: now, UpdatedAt: now})

	case MsgContextUpdate:
		found := false
		for i := range s.ContextItems {
			if s.ContextItems[i].ID == msg.ContextID {
				if msg.Text != "" {
					s.ContextItems[i].Text = msg.Text
				}
				if msg.Priority != "" {
					s.ContextItems[i].Priority = msg.Priority
				}
				s.ContextItems[i].UpdatedAt = now
				found = true
				break
			}
		}
		if !found {
			return apierr.InputRejectedf("context_not_found", "context item %q not found", msg.ContextID)
		}

	case MsgContextDelete:
		out := s.ContextItems[:0:0]
		for _, c := range s.ContextItems {
			if c.ID != msg.ContextID {
				out = append(out, c)
			}
		}
		s.ContextItems = out

	case MsgTranscriptAdd:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return apierr.InputRejectedf("empty_transcript_text", "transcript text must not be empty")
		}
		source := msg.Source
		if source == "" {
			source = TranscriptSourceTyped
		}
		s.addTranscriptChunk(TranscriptChunk{ID: idGen(), Speaker: sender, Text: text, Source: source, CreatedAt: now})
		s.lastStoredTranscriptBySpeaker[sender] = text

	case MsgVisualHintSet:
		s.VisualHint = msg.Value

	case MsgAIConfigUpdate:
		if msg.Frozen != nil {
			s.AIConfig.Frozen = *msg.Frozen
			if *msg.Frozen {
				s.AIConfig.Status = AIStatusFrozen
			} else if s.AIConfig.Status == AIStatusFrozen {
				s.AIConfig.Status = AIStatusIdle
			}
		}
		if msg.FocusMode != nil {
			s.AIConfig.FocusMode = *msg.FocusMode
		}
		if msg.FocusBox != nil {
			box := *msg.FocusBox
			s.AIConfig.FocusBox = &box
		}
		if msg.Status != nil {
			s.AIConfig.Status = *msg.Status
		}

	case MsgDiagramPinCurrent:
		g := s.ActiveGroup()
		if g == nil {
			return apierr.InputRejectedf("no_active_group", "no active diagram group to pin")
		}
		g.Pinned = true
		if !containsString(s.AIConfig.PinnedGroupIDs, g.ID) {
			s.AIConfig.PinnedGroupIDs = append(s.AIConfig.PinnedGroupIDs, g.ID)
		}

	case MsgDiagramUndoAI:
		s.undoLastAILayer(now)

	case MsgDiagramRestoreArchived:
		if msg.ArchiveIndex < 0 || msg.ArchiveIndex >= len(s.ArchivedGroups) {
			return apierr.InputRejectedf("archive_index_out_of_range", "archived group index %d out of range", msg.ArchiveIndex)
		}
		restored := s.ArchivedGroups[msg.ArchiveIndex]
		s.ArchivedGroups = append(s.ArchivedGroups[:msg.ArchiveIndex], s.ArchivedGroups[msg.ArchiveIndex+1:]...)
		s.DiagramGroups[restored.Group.ID] = restored.Group
		s.ActiveGroupID = restored.Group.ID

	case MsgClientAck:
		// handled by the transport layer's handshake gate before reaching
		// here; a bare ack carries no room mutation.

	default:
		return apierr.InputRejectedf("unknown_message_type", "unknown message type %q", msg.Type)
	}

	s.UpdatedAt = now
	return nil
}

// undoLastAILayer removes every board element stamped with the most recent
// AI layer prefix (spec §4.5). Older AI elements that stacking shifted down
// or dropped when that layer was added are left as they are.
func (s *State) undoLastAILayer(now time.Time) {
	if s.LastAILayerPrefix == "" || s.Board == nil {
		return
	}
	var ops []board.Op
	for id := range s.Board.Elements {
		if strings.HasPrefix(id, s.LastAILayerPrefix) {
			ops = append(ops, board.Op{Type: board.OpDeleteElement, ID: id})
		}
	}
	s.Board.ApplyOps(ops, now)
	s.LastAILayerPrefix = ""
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Join joins a new member by name, reusing its existing id if the name is
// already present (rejoin-on-refresh), minting a fresh one otherwise.
func (s *State) Join(name string, now time.Time, idGen func() string) Member {
	if m, ok := s.MemberByName(name); ok {
		return m
	}
	m := Member{ID: idGen(), Name: name, JoinedAt: now}
	s.Members = append(s.Members, m)
	return m
}

// ErrorMessage formats the room:error frame payload for handshake
// violations and unparseable client payloads (spec §4.9).
func ErrorMessage(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
