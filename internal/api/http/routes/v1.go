package routes

import (
	"github.com/davinci-studio/studio-backend/internal/api/http/middleware"
	editorhttp "github.com/davinci-studio/studio-backend/internal/editor/http"
	editorsvc "github.com/davinci-studio/studio-backend/internal/editor/service"
	galleryhttp "github.com/davinci-studio/studio-backend/internal/gallery/http"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
	genhttp "github.com/davinci-studio/studio-backend/internal/generation/http"
	gensvc "github.com/davinci-studio/studio-backend/internal/generation/service"

	"github.com/gin-gonic/gin"
)

type V1Deps struct {
	Gallery      *gallerysvc.Gallery
	Orchestrator *gensvc.Orchestrator
	Editors      *editorsvc.Manager
	// GenerationsPerMinute limits submissions per session; zero disables it
	GenerationsPerMinute int
	// ClientGenerationsPerMinute limits submissions per client address across
	// all sessions; zero disables it
	ClientGenerationsPerMinute int
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")

	genHandler := genhttp.New(dep.Orchestrator)
	genHandler.RegisterMetrics(api)

	sessions := api.Group("/sessions/:session_id")

	genHandler.Register(sessions,
		middleware.RateLimitMiddleware(dep.ClientGenerationsPerMinute, dep.ClientGenerationsPerMinute, middleware.ClientKey),
		middleware.RateLimitMiddleware(dep.GenerationsPerMinute, dep.GenerationsPerMinute, middleware.SessionKey),
	)

	galleryhttp.New(dep.Gallery).Register(sessions)
	editorhttp.New(dep.Editors, dep.Gallery).Register(sessions)
}
