package room

import (
	"strings"

	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

var fillerTokens = map[string]bool{
	"uh": true, "um": true, "hmm": true, "erm": true, "ah": true, "mm": true,
}

// keywordHints extends diagram.TreeWords/SystemWords with the extra hint
// words spec §4.3 step 3 names for the single-token exemption.
var keywordHints = func() map[string]bool {
	out := make(map[string]bool, len(diagram.TreeWords)+len(diagram.SystemWords)+4)
	for w := range diagram.TreeWords {
		out[w] = true
	}
	for w := range diagram.SystemWords {
		out[w] = true
	}
	out["flowchart"] = true
	out["diagram"] = true
	out["context"] = true
	out["correction"] = true
	return out
}()

// stripLeadingFillers removes up to 3 leading filler tokens (spec §4.3
// step 1: "uh, um, hmm, erm, ah, mm").
func stripLeadingFillers(text string) string {
	fields := strings.Fields(text)
	removed := 0
	for removed < 3 && len(fields) > 0 {
		first := strings.ToLower(strings.Trim(fields[0], ".,!?"))
		if !fillerTokens[first] {
			break
		}
		fields = fields[1:]
		removed++
	}
	return strings.Join(fields, " ")
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func hasKeywordHint(tokens []string) bool {
	for _, t := range tokens {
		if keywordHints[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// shouldDropLine implements the anti-stutter / too-short filter (spec §4.3
// step 3).
func shouldDropLine(text string) bool {
	tokens := strings.Fields(text)
	n := len(tokens)
	if n == 0 {
		return true
	}
	if n == 1 && !hasKeywordHint(tokens) {
		return true
	}
	if n >= 5 && !hasKeywordHint(tokens) {
		uniq := make(map[string]bool, n)
		for _, t := range tokens {
			uniq[strings.ToLower(t)] = true
		}
		if float64(len(uniq))/float64(n) < 0.25 {
			return true
		}
	}
	return false
}

// isNearDuplicate reports whether next is equal to, or a near prefix/suffix
// (within 80 chars) of, prev — the speaker-consecutive dedup test (spec
// §4.3 step 4).
func isNearDuplicate(prev, next string) bool {
	if prev == "" {
		return false
	}
	if prev == next {
		return true
	}
	const window = 80
	if strings.HasPrefix(next, prev) && len(next)-len(prev) <= window {
		return true
	}
	if strings.HasPrefix(prev, next) && len(prev)-len(next) <= window {
		return true
	}
	if strings.HasSuffix(next, prev) && len(next)-len(prev) <= window {
		return true
	}
	if strings.HasSuffix(prev, next) && len(prev)-len(next) <= window {
		return true
	}
	return false
}

// NormalizeTranscriptLine runs the filler-strip + whitespace-collapse
// pipeline (spec §4.3 steps 1-2) and reports whether the line survives step
// 3's drop test.
func NormalizeTranscriptLine(raw string) (normalized string, keep bool) {
	out := stripLeadingFillers(raw)
	out = collapseWhitespace(out)
	if shouldDropLine(out) {
		return out, false
	}
	return out, true
}

// normalizedTranscriptLines applies the full pipeline (steps 1-4) over
// chunks, in order, respecting an optional chunkCountCap (step 5: "first N
// chunks only").
func normalizedTranscriptLines(chunks []TranscriptChunk, chunkCountCap int) []string {
	if chunkCountCap > 0 && chunkCountCap < len(chunks) {
		chunks = chunks[:chunkCountCap]
	}
	lastBySpeaker := make(map[string]string)
	var lines []string
	for _, c := range chunks {
		norm, keep := NormalizeTranscriptLine(c.Text)
		if !keep {
			continue
		}
		if isNearDuplicate(lastBySpeaker[c.Speaker], norm) {
			lastBySpeaker[c.Speaker] = norm
			continue
		}
		lastBySpeaker[c.Speaker] = norm
		lines = append(lines, c.Speaker+": "+norm)
	}
	return lines
}
