package httpapi

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/piyushdatta/senseboard-server/internal/aiprovider"
	"github.com/piyushdatta/senseboard-server/internal/apierr"
	"github.com/piyushdatta/senseboard-server/internal/logger"
	"github.com/piyushdatta/senseboard-server/internal/orchestrator"
	"github.com/piyushdatta/senseboard-server/internal/personalization"
	"github.com/piyushdatta/senseboard-server/internal/prompts"
	"github.com/piyushdatta/senseboard-server/internal/room"
	"github.com/piyushdatta/senseboard-server/internal/transcribe"
)

// Handlers groups the REST endpoints spec §6 enumerates, following the
// teacher's "one handler struct per resource, narrow fields for the
// services it depends on" shape (internal/handlers/*.go).
type Handlers struct {
	log *logger.Logger

	registry  *Registry
	engine    *orchestrator.Engine
	chain     *aiprovider.Chain
	router    *transcribe.Router
	store     *personalization.Store

	instanceID        string
	instanceStartedAt time.Time
}

func NewHandlers(registry *Registry, engine *orchestrator.Engine, chain *aiprovider.Chain, router *transcribe.Router, store *personalization.Store, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{
		log:               log.With("component", "httpapi.Handlers"),
		registry:          registry,
		engine:            engine,
		chain:             chain,
		router:            router,
		store:             store,
		instanceID:        uuid.NewString(),
		instanceStartedAt: time.Now(),
	}
}

// writeAPIErr renders an apierr.Error (or any error, wrapped as a coarse
// 500) as JSON — spec §7: "HTTP surface exposes only coarse reasons,
// never stack traces."
func writeAPIErr(c *gin.Context, err error) {
	if apiErr, ok := err.(*apierr.Error); ok {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "ok",
		"now":               time.Now(),
		"instanceStartedAt": h.instanceStartedAt,
		"instanceId":        h.instanceID,
	})
}

// AIPreflight handles GET /ai/preflight.
func (h *Handlers) AIPreflight(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := h.chain.Preflight(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// CreateRoom handles POST /rooms.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var id string
	for {
		id = newRoomID()
		if !h.registry.Lookup(id) {
			break
		}
	}
	var snap *room.State
	h.registry.WithRoom(id, func(s *room.State) { snap = s })
	c.JSON(http.StatusOK, gin.H{"roomId": id, "room": snap})
}

// GetRoom handles GET /rooms/:id.
func (h *Handlers) GetRoom(c *gin.Context) {
	id := c.Param("id")
	var snap *room.State
	h.registry.WithRoom(id, func(s *room.State) { snap = s })
	c.JSON(http.StatusOK, gin.H{"room": snap})
}

// PromptPreview handles GET /rooms/:id/prompt-preview (spec §6): renders
// the exact system/user prompt pair the next AI run would send, without
// enqueueing a job.
func (h *Handlers) PromptPreview(c *gin.Context) {
	id := c.Param("id")
	trigger := triggerFromQuery(c)

	var in room.AIInput
	h.registry.WithRoom(id, func(s *room.State) { in = s.BuildAIInput(trigger) })

	system := prompts.System()
	user := prompts.User(in.CorrectionDirectives, contextTexts(in.ContextPinnedHigh), contextTexts(in.ContextPinnedNormal), in.TranscriptWindow, in.VisualHint, in.CurrentDiagramSummary)

	c.JSON(http.StatusOK, gin.H{
		"id":           id,
		"request":      trigger,
		"systemPrompt": system,
		"userPrompt":   user,
		"payload":      in,
	})
}

type aiPatchRequest struct {
	Reason        room.TriggerReason `json:"reason"`
	Regenerate    bool                `json:"regenerate"`
	WindowSeconds int                 `json:"windowSeconds"`
}

// AIPatch handles POST /rooms/:id/ai-patch (spec §6).
func (h *Handlers) AIPatch(c *gin.Context) {
	id := c.Param("id")
	var body aiPatchRequest
	_ = c.ShouldBindJSON(&body) // empty body is valid; defaults apply

	reason := body.Reason
	if reason == "" {
		reason = room.ReasonManual
	}
	trigger := room.Trigger{Reason: reason, Regenerate: body.Regenerate || reason == room.ReasonRegenerate}

	done := h.engine.Enqueue(id, trigger, true)
	outcome := <-done

	if !outcome.Applied {
		c.JSON(http.StatusOK, gin.H{"applied": false, "reason": outcome.Reason})
	} else {
		c.JSON(http.StatusOK, gin.H{"applied": true, "patch": gin.H{"kind": outcome.PatchKind}})
	}

	// Spec §4.2/§6: a main AI patch schedules deferred personalized
	// ticks per member after the main update lands.
	var members []room.Member
	h.registry.WithRoom(id, func(s *room.State) { members = append(members, s.Members...) })
	for _, m := range members {
		h.engine.RequestPersonalUpdate(id, m.Name, room.Trigger{Reason: room.ReasonTick})
	}
}

// PersonalBoard handles GET /rooms/:id/personal-board?name= (spec §6).
func (h *Handlers) PersonalBoard(c *gin.Context) {
	id := c.Param("id")
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		c.JSON(http.StatusOK, gin.H{"applied": false, "reason": "missing_name"})
		return
	}
	pb, ok := h.engine.PersonalSnapshot(id, name)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"board": nil, "updatedAt": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"board": pb.Board, "updatedAt": pb.UpdatedAt})
}

type personalAIPatchRequest struct {
	Name          string `json:"name"`
	Reason        room.TriggerReason `json:"reason"`
	Regenerate    bool `json:"regenerate"`
	WindowSeconds int  `json:"windowSeconds"`
}

// PersonalAIPatch handles POST /rooms/:id/personal-board/ai-patch.
func (h *Handlers) PersonalAIPatch(c *gin.Context) {
	id := c.Param("id")
	var body personalAIPatchRequest
	_ = c.ShouldBindJSON(&body)
	if strings.TrimSpace(body.Name) == "" {
		c.JSON(http.StatusOK, gin.H{"applied": false, "reason": "missing_name"})
		return
	}

	reason := body.Reason
	if reason == "" {
		reason = room.ReasonManual
	}
	h.engine.RequestPersonalUpdate(id, body.Name, room.Trigger{Reason: reason, Regenerate: body.Regenerate})
	c.JSON(http.StatusOK, gin.H{"applied": false, "reason": "queued"})
}

// Transcribe handles POST /rooms/:id/transcribe (spec §6, §4.8):
// multipart/form-data with an "audio" file part and a "speaker" field.
func (h *Handlers) Transcribe(c *gin.Context) {
	id := c.Param("id")
	speaker := c.PostForm("speaker")
	if strings.TrimSpace(speaker) == "" {
		speaker = "Unknown"
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		writeAPIErr(c, apierr.InputRejectedf("missing_audio", "multipart field %q is required: %v", "audio", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		writeAPIErr(c, apierr.Internal(err))
		return
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		writeAPIErr(c, apierr.Internal(err))
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")

	if len(audio) < 1024 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "text": "", "accepted": false, "reason": "audio_too_small"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()
	result := h.router.Transcribe(ctx, audio, mimeType)

	if !result.OK {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": result.Error})
		return
	}
	if strings.TrimSpace(result.Text) == "" {
		c.JSON(http.StatusOK, gin.H{"ok": true, "text": "", "accepted": false, "reason": "empty_transcript"})
		return
	}

	msg := room.ClientMessage{Type: room.MsgTranscriptAdd, Text: result.Text, Source: room.TranscriptSourceAudio}
	var chunkCount int
	h.registry.WithRoom(id, func(s *room.State) {
		_ = s.ApplyClientMessage(speaker, msg, time.Now(), newID)
		chunkCount = len(s.TranscriptChunks)
	})
	h.registry.Broadcast(id)
	h.engine.Enqueue(id, room.Trigger{Reason: room.ReasonTick, TranscriptChunkCount: chunkCount}, false)

	c.JSON(http.StatusOK, gin.H{"ok": true, "text": result.Text, "accepted": true})
}

// GetPersonalizationContext handles GET /personalization/context?name=.
func (h *Handlers) GetPersonalizationContext(c *gin.Context) {
	name := c.Query("name")
	if strings.TrimSpace(name) == "" {
		writeAPIErr(c, apierr.InputRejectedf("missing_name", "name query parameter is required"))
		return
	}
	profile, ok, err := h.store.GetProfile(name)
	if err != nil {
		writeAPIErr(c, apierr.Internal(err))
		return
	}
	if !ok {
		profile = personalization.Profile{NameKey: strings.ToLower(strings.TrimSpace(name)), DisplayName: name}
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type personalizationContextRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// PostPersonalizationContext handles POST /personalization/context.
func (h *Handlers) PostPersonalizationContext(c *gin.Context) {
	var body personalizationContextRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeAPIErr(c, apierr.InputRejectedf("invalid_body", "invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(body.Name) == "" || strings.TrimSpace(body.Text) == "" {
		writeAPIErr(c, apierr.InputRejectedf("missing_fields", "name and text are required"))
		return
	}
	profile, err := h.store.AppendContext(body.Name, body.Text, body.Name, time.Now())
	if err != nil {
		writeAPIErr(c, apierr.Internal(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func triggerFromQuery(c *gin.Context) room.Trigger {
	reason := room.TriggerReason(c.DefaultQuery("reason", string(room.ReasonManual)))
	regenerate, _ := strconv.ParseBool(c.DefaultQuery("regenerate", "false"))
	windowSeconds, _ := strconv.Atoi(c.DefaultQuery("windowSeconds", "0"))
	_ = windowSeconds
	return room.Trigger{Reason: reason, Regenerate: regenerate}
}

func contextTexts(items []room.ContextItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Text)
	}
	return out
}
