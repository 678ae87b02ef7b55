package room

import (
	"strings"
)

const (
	maxTranscriptWindowLines = 24
	maxTranscriptContextLines = 72
	maxRecentChat             = 12
	maxContextDirectiveLines  = 12
)

// TriggerReason enumerates why an AI run was scheduled (spec §6).
type TriggerReason string

const (
	ReasonManual     TriggerReason = "manual"
	ReasonTick       TriggerReason = "tick"
	ReasonRegenerate TriggerReason = "regenerate"
)

// Trigger is the (reason, regenerate, transcriptChunkCount?) tuple that
// parameterizes AIInput assembly (spec §4.3).
type Trigger struct {
	Reason              TriggerReason
	Regenerate          bool
	TranscriptChunkCount int // 0 means "no cap"
}

// AIInput is the deterministic snapshot handed to a provider or the
// deterministic fallback (spec §4.3).
type AIInput struct {
	RoomID string

	TranscriptWindow  []string
	TranscriptContext []string

	RecentChat            []ChatMessage
	Corrections            []ChatMessage
	CorrectionDirectives   []string
	ContextPinnedHigh      []ContextItem
	ContextPinnedNormal    []ContextItem
	ContextDirectiveLines  []string
	BypassHighPriority     bool

	VisualHint             string
	CurrentDiagramSummary  string
	ActiveDiagramSnapshot  string

	AIConfig AIConfig

	Reason     TriggerReason
	Regenerate bool
}

// HasSignal reports whether the input carries anything an AI tick could
// act on (spec §4.2 step 4: "empty transcriptWindow AND no chat AND no
// pinned context AND no visual hint").
func (in *AIInput) HasSignal() bool {
	return len(in.TranscriptWindow) > 0 ||
		len(in.RecentChat) > 0 ||
		len(in.ContextPinnedHigh) > 0 ||
		len(in.ContextPinnedNormal) > 0 ||
		strings.TrimSpace(in.VisualHint) != ""
}

const highPriorityBypassPhrase = "context update:"
const highPriorityOverridePrefix = "override "

// detectsBypass reports whether a correction's text licenses bypassing
// high-priority pinned context for this tick (spec §4.3): the text contains
// "context update:" or "override "; the word after "override" is not
// checked.
func detectsBypass(text string) bool {
	lower := strings.ToLower(text)
	if strings.Contains(lower, highPriorityBypassPhrase) {
		return true
	}
	return strings.Contains(lower, highPriorityOverridePrefix)
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}

// BuildAIInput assembles the deterministic AIInput snapshot for a tick
// (spec §4.3).
func (s *State) BuildAIInput(trigger Trigger) AIInput {
	windowLines := normalizedTranscriptLines(s.TranscriptChunks, trigger.TranscriptChunkCount)
	contextLines := windowLines
	window := lastN(windowLines, maxTranscriptWindowLines)
	context := lastN(contextLines, maxTranscriptContextLines)

	recentChat := lastN(s.ChatMessages, maxRecentChat)

	var corrections []ChatMessage
	var directives []string
	bypass := false
	for _, m := range s.ChatMessages {
		if m.Kind != ChatCorrection {
			continue
		}
		corrections = append(corrections, m)
		directives = append(directives, m.Text)
		if detectsBypass(m.Text) {
			bypass = true
		}
	}
	if len(directives) > maxContextDirectiveLines {
		directives = directives[len(directives)-maxContextDirectiveLines:]
	}

	var pinnedHigh, pinnedNormal []ContextItem
	var contextLinesOut []string
	for _, c := range s.ContextItems {
		if c.Priority == ContextHigh {
			pinnedHigh = append(pinnedHigh, c)
		} else {
			pinnedNormal = append(pinnedNormal, c)
		}
		contextLinesOut = append(contextLinesOut, c.Text)
	}
	if len(contextLinesOut) > maxContextDirectiveLines {
		contextLinesOut = contextLinesOut[len(contextLinesOut)-maxContextDirectiveLines:]
	}

	return AIInput{
		RoomID:                s.ID,
		TranscriptWindow:      window,
		TranscriptContext:     context,
		RecentChat:            recentChat,
		Corrections:           corrections,
		CorrectionDirectives:  directives,
		ContextPinnedHigh:     pinnedHigh,
		ContextPinnedNormal:   pinnedNormal,
		ContextDirectiveLines: contextLinesOut,
		BypassHighPriority:    bypass,
		VisualHint:            s.VisualHint,
		CurrentDiagramSummary: diagramSummary(s.ActiveGroup()),
		ActiveDiagramSnapshot: diagramSnapshot(s.ActiveGroup()),
		AIConfig:              s.AIConfig,
		Reason:                trigger.Reason,
		Regenerate:            trigger.Regenerate,
	}
}

