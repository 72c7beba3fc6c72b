package handlers

import "github.com/gin-gonic/gin"

// APIRoutes wires the /api surface. PreAuth runs on every route ahead of the
// session check, so requests with missing or bad tokens pass through it too.
// PostAuth runs only on authenticated routes.
type APIRoutes struct {
	Auth        *AuthHandler
	Guilds      *GuildsHandler
	Session     gin.HandlerFunc
	GuildAccess gin.HandlerFunc
	PreAuth     []gin.HandlerFunc
	PostAuth    []gin.HandlerFunc
}

// Register mounts every route on api.
func (a APIRoutes) Register(api *gin.RouterGroup) {
	api.Use(a.PreAuth...)
	protected := api.Group("", append([]gin.HandlerFunc{a.Session}, a.PostAuth...)...)

	a.Auth.Register(api, protected)
	if a.Guilds != nil {
		a.Guilds.Register(protected, a.GuildAccess)
	}
}
