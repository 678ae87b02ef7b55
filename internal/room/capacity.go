package room

import "github.com/piyushdatta/senseboard-server/internal/config"

// appendBounded appends item to *list, dropping the oldest entry first if
// the list is already at cap — "overflow drops oldest" (spec §3).
func appendBounded[T any](list *[]T, item T, cap int) {
	*list = append(*list, item)
	if len(*list) > cap {
		*list = (*list)[len(*list)-cap:]
	}
}

func (s *State) addChatMessage(m ChatMessage) {
	appendBounded(&s.ChatMessages, m, config.ChatMessagesCap)
}

func (s *State) addContextItem(c ContextItem) {
	appendBounded(&s.ContextItems, c, config.ContextItemsCap)
}

func (s *State) addTranscriptChunk(c TranscriptChunk) {
	appendBounded(&s.TranscriptChunks, c, config.TranscriptChunksCap)
}

func (s *State) addHistoryEntry(h HistoryEntry) {
	appendBounded(&s.AIHistory, h, config.AIHistoryCap)
}

func (s *State) archiveGroup(a ArchivedGroup) {
	appendBounded(&s.ArchivedGroups, a, config.ArchivedGroupsCap)
}
