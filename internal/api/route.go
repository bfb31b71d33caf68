package api

import (
	"Townhall/internal/api/config"
	"Townhall/internal/api/middleware"
	"Townhall/internal/pkg/logger"
	"Townhall/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, cfg *config.Config) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	logger.SetupGin(r, cfg.Logstash.Index, cfg.Logstash.Token)

	r.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	auth := middleware.AuthMiddleware(group.ViewerService)

	apiGroup := r.Group("/api")
	{
		socialGroup := apiGroup.Group("/social")
		socialGroup.GET("/ws", group.WsHandler.Connect)
		registerPostRoutes(socialGroup.Group("", auth), group)

		registerPostRoutes(apiGroup.Group("/posts", auth), group)

		userGroup := apiGroup.Group("/users")
		userGroup.Use(auth)
		{
			userGroup.GET("/me", group.UserHandler.GetMe)
			userGroup.GET("/following", group.UserFollowHandler.GetFollowing)
			userGroup.POST("/follow/:user_id", group.UserFollowHandler.Follow)
			userGroup.DELETE("/follow/:user_id", group.UserFollowHandler.Unfollow)

			adminGroup := userGroup.Group("")
			adminGroup.Use(middleware.RequireModerator())
			{
				adminGroup.POST("/sync", group.UserHandler.SyncDirectory)
			}
		}
	}

	return r
}

// registerPostRoutes feed reads first, then the post aggregate and its engagement
func registerPostRoutes(rg *gin.RouterGroup, group *HandlersGroup) {
	rg.GET("/newsfeed", group.FeedHandler.Newsfeed)
	rg.GET("/pinned", group.FeedHandler.Pinned)
	rg.GET("/trending", group.FeedHandler.Trending)
	rg.GET("/following", group.FeedHandler.Following)
	rg.GET("/personalized", group.FeedHandler.Following)
	rg.GET("/search", group.FeedHandler.Search)
	rg.GET("/contributors/top", group.FeedHandler.TopContributors)
	rg.GET("/popular", group.FeedHandler.Popular)

	rg.POST("", group.PostHandler.CreatePost)
	rg.GET("/:post_id", group.PostHandler.GetPost)
	rg.PUT("/:post_id", group.PostHandler.UpdatePost)
	rg.DELETE("/:post_id", group.PostHandler.DeletePost)
	rg.PATCH("/:post_id/pin", group.PostHandler.TogglePin)
	rg.GET("/:post_id/stats", group.FeedHandler.EngagementStats)
	rg.GET("/:post_id/related", group.FeedHandler.Related)

	rg.POST("/:post_id/reactions", group.PostActionHandler.AddReaction)
	rg.DELETE("/:post_id/reactions", group.PostActionHandler.RemoveReaction)
	rg.POST("/:post_id/comments", group.PostActionHandler.AddComment)
	rg.POST("/:post_id/comments/:comment_id/replies", group.PostActionHandler.ReplyComment)
	rg.DELETE("/:post_id/comments/:comment_id", group.PostActionHandler.DeleteComment)
	rg.POST("/:post_id/comments/:comment_id/reactions", group.PostActionHandler.AddCommentReaction)
	rg.DELETE("/:post_id/comments/:comment_id/reactions", group.PostActionHandler.RemoveCommentReaction)
}
