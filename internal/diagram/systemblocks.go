package diagram

import (
	"regexp"
	"strings"
)

var reArrowChain = regexp.MustCompile(`[A-Za-z0-9_ ]+(?:->[A-Za-z0-9_ ]+)+`)

func parseArrowChain(text string) []string {
	m := reArrowChain.FindString(text)
	if m == "" {
		return nil
	}
	parts := strings.Split(m, "->")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) < 2 {
		return nil
	}
	return out
}

// BuildSystemBlocks implements the deterministic system-blocks builder
// (spec §4.7.3): parse "->" chains, default to a client/gateway/service/db
// chain, insert a Redis Cache block before the DB when mentioned.
func BuildSystemBlocks(text string, idGen func() string) Patch {
	blocks := parseArrowChain(text)
	if blocks == nil {
		blocks = []string{"Client", "API Gateway", "Service", "Postgres"}
		if strings.Contains(strings.ToLower(text), "redis") {
			blocks = []string{"Client", "API Gateway", "Service", "Redis Cache", "Postgres"}
		}
	} else {
		hasRedis := false
		for _, b := range blocks {
			if strings.Contains(strings.ToLower(b), "redis") {
				hasRedis = true
			}
		}
		if !hasRedis && strings.Contains(strings.ToLower(text), "redis") {
			insertAt := len(blocks) - 1
			if insertAt < 0 {
				insertAt = 0
			}
			out := append([]string{}, blocks[:insertAt]...)
			out = append(out, "Redis Cache")
			out = append(out, blocks[insertAt:]...)
			blocks = out
		}
	}

	patch := Patch{Topic: strings.Join(blocks, " "), DiagramType: TypeSystemBlocks, Confidence: 0.55}
	const y, xStep, w, h = 220.0, 190.0, 160.0, 80.0
	ids := make([]string, 0, len(blocks))
	for i, label := range blocks {
		id := idGen()
		ids = append(ids, id)
		patch.Actions = append(patch.Actions, Action{
			Type: ActionUpsertNode,
			Node: &Node{ID: id, X: float64(i) * xStep, Y: y, Width: w, Height: h, Label: label},
		})
	}
	for i := 0; i < len(ids)-1; i++ {
		patch.Actions = append(patch.Actions, Action{
			Type: ActionUpsertEdge,
			Edge: &Edge{ID: idGen(), From: ids[i], To: ids[i+1], Label: "request"},
		})
	}
	patch.Actions = append(patch.Actions, Action{Type: ActionSetTitle, Title: "System architecture"})
	patch.Actions = append(patch.Actions, Action{Type: ActionLayoutHint, Layout: LayoutLeftToRight})
	patch.Clamp()
	return patch
}
