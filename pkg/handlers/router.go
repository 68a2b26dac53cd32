package handlers

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"site-admin/pkg/config"
	"site-admin/pkg/logging"
)

// NewRouter wires the API, media and upload routes.
func NewRouter(api *API, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logging.Middleware(logger), logging.Recovery(logger))

	// Session Setup
	store := cookie.NewStore([]byte(config.SessionSecret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, MaxAge: 3600})
	r.Use(sessions.Sessions("site-admin", store))

	// uploads served elsewhere (a CDN URL) are not mounted here
	if strings.HasPrefix(config.UploadURL, "/") {
		r.Static(config.UploadURL, config.UploadDir)
	}

	media := r.Group("/media")
	{
		media.GET("/:subtype", ListMedia)
		media.POST("/:subtype", UploadMedia)
		media.DELETE("/:subtype/:name", DeleteMedia)
	}

	v1 := r.Group("/api")
	{
		v1.GET("/sections", api.ListBlocks)
		v1.GET("/config", api.GetConfig)

		block := v1.Group("/:subtype/:mode/:key")
		block.GET("", api.GetBlock)
		block.POST("", api.SaveBlock)
		block.PUT("", api.SaveBlock)
		block.DELETE("", api.DeleteBlock)
		block.GET("/preview", api.Preview)

		block.GET("/delete-request", api.GetDeleteRequest)
		block.POST("/delete-request", api.OpenDeleteRequest)
		block.DELETE("/delete-request", api.CancelDeleteRequest)
		block.POST("/delete-request/confirm", api.ConfirmDeleteRequest)
	}

	return r
}
