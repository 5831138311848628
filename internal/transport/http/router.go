package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/procura-app/procura/internal/csrf"
	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/ratelimit"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/token"
	"github.com/procura-app/procura/internal/transport/http/handler"
	"github.com/procura-app/procura/internal/transport/http/middleware"
)

func NewRouter(
	logger *slog.Logger,
	authHandler *handler.AuthHandler,
	resetHandler *handler.ResetHandler,
	phoneHandler *handler.PhoneHandler,
	oauthHandler *handler.OAuthHandler,
	guard *csrf.Guard,
	issuer *token.Issuer,
	users repository.UserRepository,
	sessionCookieName string,
	loginLimiter, forgotLimiter *ratelimit.Limiter,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	requireAuth := middleware.RequireAuth(issuer, users, sessionCookieName)

	auth := r.Group("/auth", guard.Middleware())

	// Bootstrap endpoint: hands a first CSRF cookie to clients that have not
	// authenticated yet, so register/login POSTs can pass the guard.
	auth.GET("/csrf", func(c *gin.Context) {
		tok, err := csrf.NewToken()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		guard.SetCookie(c, tok)
		c.JSON(http.StatusOK, gin.H{"csrf": tok})
	})

	auth.POST("/register", authHandler.Register)
	auth.POST("/login", middleware.RateLimit(loginLimiter, "login"), authHandler.Login)
	auth.POST("/forgot", middleware.RateLimit(forgotLimiter, "forgot"), resetHandler.Forgot)
	auth.POST("/reset", resetHandler.Reset)

	auth.POST("/phone", phoneHandler.RequestCode)
	auth.POST("/phone/verify", phoneHandler.VerifyCode)

	auth.GET("/google", oauthHandler.Start(domain.ProviderGoogle))
	auth.GET("/google/callback", oauthHandler.FinishCallback(domain.ProviderGoogle))
	auth.GET("/apple", oauthHandler.Start(domain.ProviderApple))
	auth.GET("/apple/callback", oauthHandler.FinishCallback(domain.ProviderApple))

	// Session-holding routes
	session := auth.Group("", requireAuth)
	session.POST("/logout", authHandler.Logout)
	session.POST("/logout-all", authHandler.LogoutAll)
	session.GET("/me", authHandler.Me)
	session.GET("/profile", authHandler.GetProfile)
	session.PUT("/profile", authHandler.UpdateProfile)
	session.POST("/change-password", authHandler.ChangePassword)

	return r
}
