package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/piyushdatta/senseboard-server/internal/logger"
)

// WebSocketHandler is the narrow surface wsapi exposes to the HTTP
// router, kept as a plain http.HandlerFunc so httpapi never imports
// gorilla/websocket directly.
type WebSocketHandler = http.HandlerFunc

// NewRouter builds the gin.Engine for spec §6's REST + WebSocket surface.
// Grounded in the teacher's internal/server.NewRouter (gin.Default() +
// gin-contrib/cors + a flat route table), generalized from the teacher's
// auth-gated `/api` group to SenseBoard's unauthenticated room routes
// (spec Non-goals: "no authentication/authorization").
func NewRouter(h *Handlers, ws WebSocketHandler, log *logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	router.GET("/health", h.Health)
	router.GET("/ai/preflight", h.AIPreflight)

	router.POST("/rooms", h.CreateRoom)
	router.GET("/rooms/:id", h.GetRoom)
	router.GET("/rooms/:id/prompt-preview", h.PromptPreview)
	router.POST("/rooms/:id/ai-patch", h.AIPatch)
	router.GET("/rooms/:id/personal-board", h.PersonalBoard)
	router.POST("/rooms/:id/personal-board/ai-patch", h.PersonalAIPatch)
	router.POST("/rooms/:id/transcribe", h.Transcribe)

	router.GET("/personalization/context", h.GetPersonalizationContext)
	router.POST("/personalization/context", h.PostPersonalizationContext)

	router.GET("/ws", gin.WrapF(ws))

	return router
}
