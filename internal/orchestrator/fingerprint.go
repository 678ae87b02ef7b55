package orchestrator

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/piyushdatta/senseboard-server/internal/room"
)

// Fingerprint is an FNV-1a 32-bit hash of a canonical serialization of
// an AIInput, with the current time stripped (spec §4.2: "FNV-1a-style
// 32-bit hash of a canonical serialization of AIInput with nowIso
// stripped"). Used to dedup ticks and as a queue-merge key.
func Fingerprint(in room.AIInput, suffix string) string {
	h := fnv.New32a()
	h.Write([]byte(canonicalize(in)))
	if suffix != "" {
		return fmt.Sprintf("%08x:%s", h.Sum32(), suffix)
	}
	return fmt.Sprintf("%08x", h.Sum32())
}

func canonicalize(in room.AIInput) string {
	var b strings.Builder
	writeLines(&b, "tw", in.TranscriptWindow)
	writeLines(&b, "tc", in.TranscriptContext)
	for _, m := range in.RecentChat {
		fmt.Fprintf(&b, "chat|%s|%s|%s\n", m.Sender, m.Kind, m.Text)
	}
	writeLines(&b, "cd", in.CorrectionDirectives)
	for _, c := range in.ContextPinnedHigh {
		fmt.Fprintf(&b, "ctxH|%s\n", c.Text)
	}
	for _, c := range in.ContextPinnedNormal {
		fmt.Fprintf(&b, "ctxN|%s\n", c.Text)
	}
	fmt.Fprintf(&b, "vh|%s\n", in.VisualHint)
	fmt.Fprintf(&b, "ds|%s\n", in.CurrentDiagramSummary)
	fmt.Fprintf(&b, "das|%s\n", in.ActiveDiagramSnapshot)
	fmt.Fprintf(&b, "frozen|%v|focus|%v\n", in.AIConfig.Frozen, in.AIConfig.FocusMode)
	return b.String()
}

func writeLines(b *strings.Builder, tag string, lines []string) {
	for _, l := range lines {
		fmt.Fprintf(b, "%s|%s\n", tag, l)
	}
}
