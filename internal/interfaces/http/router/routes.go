package router

import (
	"github.com/gin-gonic/gin"

	"github.com/halo-extras/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers mounted under the API prefix
type Handlers struct {
	Footprint *handler.FootprintHandler
	AI        *handler.AIHandler
	Steam     *handler.SteamHandler
	Post      *handler.PostHandler
	Auth      *handler.AuthHandler
	System    *handler.SystemHandler
}

// Guards are the per-route middleware chains. Admin is required; the rate
// limiters are optional and skipped when nil.
type Guards struct {
	Admin     gin.HandlerFunc
	AIRate    gin.HandlerFunc
	LoginRate gin.HandlerFunc
}

// FootprintRoutes mounts the travel footprint endpoints. Reads are public,
// writes and uploads need an admin token.
func FootprintRoutes(h *handler.FootprintHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("footprint", "")
	dg.GET("/listAllFootprints", h.ListAll)

	fp := dg.Group("footprints", "/footprints")
	fp.GET("", h.List)
	fp.POST("", g.Admin, h.Create)
	fp.GET("/config", h.Config)
	fp.GET("/location/:address", h.Geocode)
	fp.POST("/images", g.Admin, h.UploadImage)
	fp.POST("/import", g.Admin, h.Import)
	fp.GET("/:id", h.GetByID)
	fp.PUT("/:id", g.Admin, h.Update)
	fp.DELETE("/:id", g.Admin, h.Delete)
	return dg
}

// AIRoutes mounts the writing assistant endpoints. Anonymous model calls go
// through the AI rate limiter.
func AIRoutes(h *handler.AIHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("ai", "")

	// generation
	dg.POST("/generate/article", g.AIRate, h.GenerateArticle)
	dg.POST("/generate/title", g.AIRate, h.GenerateTitle)
	dg.POST("/polish", g.AIRate, h.Polish)

	// summaries
	dg.POST("/summaries", g.Admin, h.GenerateSummary)
	dg.GET("/findSummaries/:postName", h.FindSummaries)
	dg.POST("/updateContent", g.Admin, h.UpdateContent)
	dg.POST("/syncAll", g.Admin, h.SyncAll)
	dg.GET("/syncProgress", h.SyncProgress)

	// assistant widget
	dg.POST("/conversation", g.AIRate, h.Conversation)
	dg.POST("/conversationStream", g.AIRate, h.ConversationStream)
	dg.GET("/dialogConfig", h.DialogConfig)
	dg.GET("/summaryConfig", h.SummaryConfig)

	dg.POST("/generateTags", g.Admin, h.GenerateTags)
	return dg
}

// SteamRoutes mounts the game library widget endpoints
func SteamRoutes(h *handler.SteamHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("steam", "/steamview")
	dg.GET("/games", h.GetGames)
	dg.GET("/test", h.TestConnection)
	dg.POST("/refresh", g.Admin, h.Refresh)
	dg.DELETE("/cache", g.Admin, h.ClearCache)
	return dg
}

// PostRoutes mounts the post and tag store
func PostRoutes(h *handler.PostHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("post", "")
	dg.GET("/posts/:name", h.Get)
	dg.PUT("/posts/:name", g.Admin, h.Upsert)
	dg.GET("/tags", h.ListTags)
	return dg
}

// AuthRoutes mounts login, logout and the current user lookup
func AuthRoutes(h *handler.AuthHandler, g Guards) *DomainGroup {
	dg := NewDomainGroup("auth", "/auth")
	dg.POST("/login", g.LoginRate, h.Login)
	dg.POST("/logout", g.Admin, h.Logout)
	dg.GET("/me", g.Admin, h.GetCurrentUser)
	return dg
}

// SystemRoutes mounts the unauthenticated system probes
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	dg := NewDomainGroup("system", "/system")
	dg.GET("/info", h.GetSystemInfo)
	dg.GET("/ping", h.Ping)
	return dg
}

// RegisterAll adds every domain group whose handler is set
func (r *Router) RegisterAll(h Handlers, g Guards) *Router {
	if h.Footprint != nil {
		r.Register(FootprintRoutes(h.Footprint, g))
	}
	if h.AI != nil {
		r.Register(AIRoutes(h.AI, g))
	}
	if h.Steam != nil {
		r.Register(SteamRoutes(h.Steam, g))
	}
	if h.Post != nil {
		r.Register(PostRoutes(h.Post, g))
	}
	if h.Auth != nil {
		r.Register(AuthRoutes(h.Auth, g))
	}
	if h.System != nil {
		r.Register(SystemRoutes(h.System))
	}
	return r
}
