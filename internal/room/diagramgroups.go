package room

import (
	"time"

	"github.com/piyushdatta/senseboard-server/internal/diagram"
)

// ApplyDiagramPatch applies patch to the room's active (non-pinned) diagram
// group, archiving it first on a topic shift (spec §4.7: "archive the
// existing group (deep clone, bounded to 24 entries) and clear content
// before applying"). A pinned active group is never overwritten by this
// path: it is archived (deep clone) like a topic-shifted group and the
// patch opens a fresh group. Returns the group the patch was applied to and the
// transient layout hint it carried, for the caller to translate into board
// ops and run through layer stacking.
func (s *State) ApplyDiagramPatch(patch diagram.Patch, now time.Time, idGen func() string) (*diagram.Group, diagram.LayoutHint) {
	active := s.ActiveGroup()

	shifted := diagram.TopicShifted(active, patch)
	pinned := active != nil && active.Pinned

	if active == nil || shifted || pinned {
		if active != nil && (shifted || pinned) {
			s.archiveGroup(ArchivedGroup{Group: active.Clone(), ArchivedAt: now})
		}
		active = diagram.NewGroup(idGen(), now)
		s.DiagramGroups[active.ID] = active
		s.ActiveGroupID = active.ID
	}

	layout := diagram.ApplyToGroup(active, patch, now)
	diagram.RecomputeBounds(active)
	return active, layout
}
