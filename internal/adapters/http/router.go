package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vocably/vocably/internal/adapters/media"
	"github.com/vocably/vocably/internal/adapters/signal"
	"github.com/vocably/vocably/internal/app/orch"
	"github.com/vocably/vocably/internal/config"
	"github.com/vocably/vocably/internal/domain"
)

const (
	clientTokenKey = "client_token"
	userKey        = "user"

	sessionUserID   = "uid"
	sessionUsername = "uname"
)

// Deps are the collaborators the HTTP surface dispatches to.
type Deps struct {
	Orch    *orch.Orchestrator
	Media   *media.Issuer
	Limiter *signal.RateLimiter
}

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

// IdentityMiddleware trusts the user headers set by the upstream proxy and
// remembers them in the session for requests that arrive without them.
func IdentityMiddleware(idc config.IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if id := c.GetHeader(idc.UserHeader); id != "" {
			u, err := domain.NewUser(id, c.GetHeader(idc.NameHeader))
			if err == nil {
				if sess.Get(sessionUserID) != string(u.ID) || sess.Get(sessionUsername) != u.Username {
					sess.Set(sessionUserID, string(u.ID))
					sess.Set(sessionUsername, u.Username)
					if err := sess.Save(); err != nil {
						log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
					}
				}
				c.Set(userKey, u)
			}
		} else if uid, ok := sess.Get(sessionUserID).(string); ok {
			uname, _ := sess.Get(sessionUsername).(string)
			if u, err := domain.NewUser(uid, uname); err == nil {
				c.Set(userKey, u)
			}
		}
		c.Next()
	}
}

// RateLimitMiddleware rejects requests over the per-client budget with 429.
func RateLimitMiddleware(rl *signal.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.GetString(clientTokenKey)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok
}

func SetupRouter(ctx context.Context, cfg *config.Config, d Deps) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions("VocablySessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(IdentityMiddleware(cfg.Identity))

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{orch: d.Orch, media: d.Media}
	limited := RateLimitMiddleware(d.Limiter)

	api := r.Group("/api")

	participants := api.Group("/room-participants")
	participants.GET("", h.getCounts)
	participants.POST("", limited, h.participantAction)
	participants.POST("/join", limited, h.join)
	participants.POST("/leave", limited, h.leave)

	rooms := api.Group("/rooms")
	rooms.GET("", h.listRooms)
	rooms.POST("", limited, h.createRoom)
	rooms.GET("/:id", h.getRoom)
	rooms.POST("/:id/enter", limited, h.enterRoom)
	rooms.POST("/:id/report", limited, h.reportRoom)

	api.GET("/connection-details", h.connectionDetails)
	api.GET("/user-profile", h.getProfile)
	api.POST("/user-profile", limited, h.saveProfile)
	api.GET("/me", h.me)

	ws := signal.NewCountsWSController(d.Orch, signal.Options{
		SendBuffer: cfg.Observer.SendBuffer,
		ReadLimit:  cfg.ReadLimit,
		PingPeriod: cfg.PingPeriod,
		Limiter:    d.Limiter,
	})
	api.GET("/ws/counts", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("client", c.GetString(clientTokenKey)).Msg("ws counts endpoint hit")
		ws.HandleCounts(ctx, c)
	})

	return r
}
