package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/piyushdatta/senseboard-server/internal/board"
)

// Envelope is the coerced board_ops response shape (spec §4.4 step 5):
// {kind:"board_ops", schemaVersion>=1, summary?, text?, ops[]}.
type Envelope struct {
	Kind          string     `json:"kind"`
	SchemaVersion int        `json:"schemaVersion"`
	Summary       string     `json:"summary,omitempty"`
	Text          string     `json:"text,omitempty"`
	Ops           []board.Op `json:"ops"`
}

const maxTotalOps = 900
const maxNestedOps = 600

// opsKeyAliases, typeKeyAliases and opNameAliases map alias keys/op-name
// spellings a provider might use onto the canonical keys/op names the Op
// struct's json tags expect (spec §4.4 step 5).
var opsKeyAliases = []string{"ops", "operations", "items", "build_ops", "buildOps", "boardOps"}
var typeKeyAliases = []string{"type", "op", "action"}

var opNameAliases = map[string]string{
	"upsertelement":      string(board.OpUpsertElement),
	"upsert_element":     string(board.OpUpsertElement),
	"clear":              string(board.OpClearBoard),
	"clearboard":         string(board.OpClearBoard),
	"resize":             string(board.OpSetElementGeometry),
	"setgeometry":        string(board.OpSetElementGeometry),
	"delete":             string(board.OpDeleteElement),
	"deleteelement":      string(board.OpDeleteElement),
	"move":               string(board.OpOffsetElement),
	"offset":             string(board.OpOffsetElement),
	"settext":            string(board.OpSetElementText),
	"setstyle":           string(board.OpSetElementStyle),
	"duplicate":          string(board.OpDuplicateElement),
	"zindex":             string(board.OpSetElementZIndex),
	"align":              string(board.OpAlignElements),
	"distribute":         string(board.OpDistributeElements),
	"viewport":           string(board.OpSetViewport),
	"setviewport":        string(board.OpSetViewport),
	"appendstrokepoints": string(board.OpAppendStrokePoints),
	"batch":              string(board.OpBatch),
}

// CoerceEnvelope attempts to parse raw provider text into a board_ops
// envelope, tolerating the alias keys/op names spec §4.4 step 5 names.
// ok is false when raw cannot be coerced into any usable ops.
func CoerceEnvelope(raw string) (Envelope, bool) {
	var generic map[string]any
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return salvage(raw)
	}
	env, ok := coerceMap(generic)
	if !ok {
		return salvage(raw)
	}
	return env, true
}

func coerceMap(generic map[string]any) (Envelope, bool) {
	opsRaw := findAliasKey(generic, opsKeyAliases)
	if opsRaw == nil {
		return Envelope{}, false
	}
	opsList, ok := opsRaw.([]any)
	if !ok {
		return Envelope{}, false
	}
	normalized := make([]any, 0, len(opsList))
	for _, raw := range opsList {
		if m, ok := raw.(map[string]any); ok {
			normalized = append(normalized, normalizeOpMap(m))
			continue
		}
		normalized = append(normalized, raw)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return Envelope{}, false
	}
	var ops []board.Op
	if err := json.Unmarshal(data, &ops); err != nil {
		return Envelope{}, false
	}
	ops = capOps(ops)
	if len(ops) == 0 {
		return Envelope{}, false
	}
	env := Envelope{Kind: "board_ops", SchemaVersion: 1, Ops: ops}
	if s, ok := generic["summary"].(string); ok {
		env.Summary = s
	}
	if t, ok := generic["text"].(string); ok {
		env.Text = t
	}
	return env, true
}

func normalizeOpMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	typeVal := findAliasKey(out, typeKeyAliases)
	if typeVal == nil {
		return out
	}
	delete(out, "op")
	delete(out, "action")
	if s, ok := typeVal.(string); ok {
		canonical := strings.ToLower(strings.TrimSpace(s))
		if alias, found := opNameAliases[canonical]; found {
			out["type"] = alias
		} else {
			out["type"] = s
		}
	}
	if nestedOps, ok := findAliasKey(out, opsKeyAliases).([]any); ok {
		normalizedNested := make([]any, 0, len(nestedOps))
		for _, sub := range nestedOps {
			if subMap, ok := sub.(map[string]any); ok {
				normalizedNested = append(normalizedNested, normalizeOpMap(subMap))
			} else {
				normalizedNested = append(normalizedNested, sub)
			}
		}
		out["ops"] = normalizedNested
	}
	return out
}

func findAliasKey(m map[string]any, aliases []string) any {
	for _, key := range aliases {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return nil
}

// capOps enforces the ≤900 total / ≤600 nested caps (spec §4.4 step 5),
// keeping the leading top-level ops and cutting the list at the first op
// whose flattened count would exceed either cap, rather than failing
// outright.
func capOps(ops []board.Op) []board.Op {
	total, nested := board.CountOps(ops)
	if total+nested <= maxTotalOps && nested <= maxNestedOps {
		return ops
	}
	flat, nestedSum := 0, 0
	for i, op := range ops {
		t, n := board.CountOps([]board.Op{op})
		if flat+t+n > maxTotalOps || nestedSum+n > maxNestedOps {
			return ops[:i]
		}
		flat += t + n
		nestedSum += n
	}
	return ops
}

// salvage scans raw text for balanced {...} slices when strict JSON
// parsing fails but the text still looks like it's describing board ops
// (spec §4.4 step 6). Each candidate slice is parsed independently and
// successfully coerced ops are collected, deduped by canonical
// serialization.
func salvage(raw string) (Envelope, bool) {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, "board_ops") && !looksLikeOpNames(lower) {
		return Envelope{}, false
	}
	slices := balancedBraceSlices(raw)
	seen := make(map[string]bool)
	var ops []board.Op
	for _, s := range slices {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			continue
		}
		normalized := normalizeOpMap(m)
		data, err := json.Marshal(normalized)
		if err != nil {
			continue
		}
		var op board.Op
		if err := json.Unmarshal(data, &op); err != nil || op.Type == "" {
			continue
		}
		key := string(data)
		if seen[key] {
			continue
		}
		seen[key] = true
		ops = append(ops, op)
	}
	ops = capOps(ops)
	if len(ops) == 0 {
		return Envelope{}, false
	}
	env := Envelope{Kind: "board_ops", SchemaVersion: 1, Ops: ops}
	if m := summaryFieldRe.FindStringSubmatch(raw); len(m) == 2 {
		env.Summary = m[1]
	}
	if m := textFieldRe.FindStringSubmatch(raw); len(m) == 2 {
		env.Text = m[1]
	}
	return env, true
}

var summaryFieldRe = regexp.MustCompile(`"summary"\s*:\s*"([^"]*)"`)
var textFieldRe = regexp.MustCompile(`"text"\s*:\s*"([^"]*)"`)

func looksLikeOpNames(lower string) bool {
	for name := range opNameAliases {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// balancedBraceSlices returns every top-level-balanced {...} substring of
// raw, scanning left to right and tracking brace depth.
func balancedBraceSlices(raw string) []string {
	var out []string
	depth := 0
	start := -1
	for i, r := range raw {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					out = append(out, raw[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}
