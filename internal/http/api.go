package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"snapgram/internal/domain"
	"snapgram/internal/service"
	"snapgram/internal/storage"
)

// TokenVerifier resolves a bearer access token to an actor.
type TokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

// Deps are the collaborators the HTTP layer is wired with.
type Deps struct {
	Users    service.UserService
	Posts    service.PostService
	Comments service.CommentService
	Likes    service.LikeService
	Follows  service.FollowService
	Feed     service.FeedService
	Media    storage.Service
	Tokens   TokenVerifier
	Logger   *logrus.Logger
	Metrics  *Metrics
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	posts    service.PostService
	comments service.CommentService
	likes    service.LikeService
	follows  service.FollowService
	feed     service.FeedService
	media    storage.Service
	tokens   TokenVerifier
	logger   *logrus.Logger
	metrics  *Metrics
}

func NewHandler(deps Deps) *Handler {
	useJSONFieldNames()
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if deps.Media == nil {
		deps.Media = storage.Unconfigured{}
	}
	return &Handler{
		users:    deps.Users,
		posts:    deps.Posts,
		comments: deps.Comments,
		likes:    deps.Likes,
		follows:  deps.Follows,
		feed:     deps.Feed,
		media:    deps.Media,
		tokens:   deps.Tokens,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	if h.metrics != nil {
		router.Use(h.metrics.middleware())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.metrics.gatherer, promhttp.HandlerOpts{})))
	}
	router.Use(corsMiddleware())
	router.Use(h.authenticate())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	router.GET("/posts", h.listPosts)
	router.POST("/posts", h.createPost)
	router.GET("/posts/search", h.searchPosts)
	router.GET("/post/:id", h.getPost)
	router.PUT("/post/:id", h.updatePost)
	router.DELETE("/post/:id", h.deletePost)

	router.GET("/comments", h.listComments)
	router.POST("/comments", h.createComment)
	router.PUT("/comment/:id", h.updateComment)
	router.DELETE("/comment/:id", h.deleteComment)

	router.GET("/postlikes/:id", h.listLikes)
	router.POST("/postlikes/:id", h.toggleLike)

	router.POST("/follow", h.toggleFollow)

	router.POST("/register", h.register)
	router.POST("/token", h.issueToken)
	router.POST("/token/refresh", h.refreshToken)

	router.GET("/users", h.listUsers)
	router.GET("/users/:id/followers", h.listFollowers)
	router.GET("/users/:id/following", h.listFollowing)
	router.GET("/user", h.currentUser)
	router.DELETE("/user", h.deleteCurrentUser)
	router.PUT("/user/profile-pic", h.uploadProfilePic)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
