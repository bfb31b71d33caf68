package api

import (
	"Townhall/internal/api/handler"
	"Townhall/internal/service"
)

// HandlersGroup every initialized handler plus what the middleware needs
type HandlersGroup struct {
	PostHandler       *handler.PostHandler
	FeedHandler       *handler.FeedHandler
	PostActionHandler *handler.PostActionHandler
	UserHandler       *handler.UserHandler
	UserFollowHandler *handler.UserFollowHandler
	WsHandler         *handler.WsHandler

	ViewerService service.ViewerService
}
