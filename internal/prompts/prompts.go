// Package prompts renders the system/user prompt pair sent to a
// provider's completeJson call (spec §4.4/§4.6/§6's prompt-preview
// route), plus the personalization variant used by the personalized
// board engine.
package prompts

import (
	"fmt"
	"strings"
)

const boardOpsSystemPrompt = `You are the board-drawing assistant for a live collaborative whiteboard.
Given a snapshot of the conversation, respond with a single JSON object of the shape
{"kind":"board_ops","schemaVersion":1,"summary":"...", "ops":[...]}.
Each element of "ops" is a BoardOp (upsertElement, deleteElement, setElementStyle, setElementText, batch, etc).
Never wrap the JSON in prose or code fences. Keep the number of ops reasonable for one incremental update.`

const personalSystemPrompt = `You are the personal board assistant for one participant in a live collaborative whiteboard.
Favor a bullet-forward layout (short stacked text blocks) that reflects this participant's own notes and context.
Respond with the same board_ops JSON envelope as the main assistant.`

// System returns the system prompt for the main (non-personalized) board
// ops generation call.
func System() string { return boardOpsSystemPrompt }

// PersonalSystem returns the system prompt for a personalized board job,
// folding in the participant's stored context lines (spec §4.6).
func PersonalSystem(contextLines []string) string {
	if len(contextLines) == 0 {
		return personalSystemPrompt
	}
	return personalSystemPrompt + "\n\nParticipant context:\n" + strings.Join(contextLines, "\n")
}

// User renders the user-turn prompt from the assembled context sections,
// in the authoritative modality order spec §4.3 defines: correction
// directives, pinned-high context, pinned-normal context, transcript
// window, visual hint.
func User(correctionDirectives, pinnedHigh, pinnedNormal, transcriptWindow []string, visualHint, diagramSummary string) string {
	var b strings.Builder
	writeSection(&b, "Correction directives", correctionDirectives)
	writeSection(&b, "Pinned context (high priority)", pinnedHigh)
	writeSection(&b, "Pinned context", pinnedNormal)
	writeSection(&b, "Transcript", transcriptWindow)
	if visualHint != "" {
		fmt.Fprintf(&b, "Visual hint: %s\n", visualHint)
	}
	if diagramSummary != "" {
		fmt.Fprintf(&b, "Current diagram: %s\n", diagramSummary)
	}
	if b.Len() == 0 {
		return "No new input since the last update."
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(b, "- %s\n", l)
	}
}
