package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/campgrid/auth-service/internal/config"
	"github.com/campgrid/auth-service/internal/handler"
	"github.com/campgrid/auth-service/internal/repository"
	"github.com/campgrid/auth-service/internal/service"
	"github.com/campgrid/auth-service/internal/utils"
	"github.com/campgrid/auth-service/pkg/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	infra  Infrastructure
	config *config.Config
	repos  *repository.Repositories
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	repos := repository.NewRepositories(infra.Postgres())

	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry.Duration,
		cfg.JWT.PendingTokenExpiry.Duration,
	)

	blacklistService := service.NewTokenBlacklistService(infra.Redis())
	rateLimiter := service.NewRateLimiter(infra.Redis())
	healthChecker := NewHealthChecker(infra)

	var notifier service.Notifier
	if cfg.SMTP.Enabled {
		notifier = service.NewSMTPNotifier(cfg.SMTP, infra.Logger())
	} else {
		notifier = service.NewLogNotifier(infra.Logger())
	}

	tokenService := service.NewTokenService(
		repos.User,
		repos.RefreshToken,
		jwtManager,
		blacklistService,
		cfg.JWT.RefreshTokenExpiry.Duration,
	)

	singleUseService := service.NewSingleUseTokenService(
		repos.SingleUse,
		cfg.Tokens.VerificationExpiry.Duration,
		cfg.Tokens.PasswordResetExpiry.Duration,
	)

	authService := service.NewAuthService(
		repos.User,
		tokenService,
		singleUseService,
		blacklistService,
		jwtManager,
		notifier,
		cfg.Security.BCryptCost,
		cfg.Security.PasswordHistoryDepth,
		cfg.Server.PublicURL,
		infra.Logger(),
	)

	twoFactorService := service.NewTwoFactorService(
		repos.User,
		repos.BackupCode,
		tokenService,
		cfg.TwoFactor.Issuer,
		cfg.TwoFactor.BackupCodeCount,
		infra.Logger(),
	)

	oauthService := service.NewOAuthService(
		repos.User,
		repos.OAuthProvider,
		tokenService,
		cfg.OAuth,
		cfg.Security.BCryptCost,
		infra.Logger(),
	)

	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(authService)
	twoFactorHandler := handler.NewTwoFactorHandler(twoFactorService)
	oauthHandler := handler.NewOAuthHandler(oauthService)

	router := gin.Default()
	router.Use(otelgin.Middleware("auth-service"))
	router.Use(handler.LoggerMiddleware(infra.Logger()))
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.CORS.AllowedMethods, cfg.CORS.AllowedHeaders))

	setupRoutes(router, cfg, handlers{
		auth:      authHandler,
		account:   accountHandler,
		twoFactor: twoFactorHandler,
		oauth:     oauthHandler,
	}, authService, rateLimiter, healthChecker, infra.MetricsHandler())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		repos:  repos,
		router: router,
		server: srv,
	}
}

func (a *App) Router() *gin.Engine {
	return a.router
}

type handlers struct {
	auth      *handler.AuthHandler
	account   *handler.AccountHandler
	twoFactor *handler.TwoFactorHandler
	oauth     *handler.OAuthHandler
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	h handlers,
	authService service.AuthService,
	rateLimiter *service.RateLimiter,
	healthChecker *HealthChecker,
	metricsHandler http.Handler,
) {
	router.GET("/metrics", observability.PrometheusHandler(metricsHandler))
	router.GET("/health", healthChecker.Handler)

	ipLimit := handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.IPBasedKey)
	credentialLimit := handler.RateLimitMiddleware(rateLimiter, cfg.Security.RateLimitRequests, cfg.Security.RateLimitWindow.Duration, handler.EmailAndIPKey)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", ipLimit, h.auth.Register)
			auth.POST("/login", ipLimit, credentialLimit, h.auth.Login)
			auth.POST("/refresh", h.auth.Refresh)
			auth.POST("/logout", handler.AuthMiddleware(authService), h.auth.Logout)
			auth.POST("/logout-all", handler.AuthMiddleware(authService), h.auth.LogoutAll)
			auth.GET("/me", handler.AuthMiddleware(authService), h.auth.GetMe)
			auth.GET("/status", h.auth.AuthStatus)

			auth.POST("/verify-email", h.account.VerifyEmail)
			auth.POST("/resend-verification", ipLimit, h.account.ResendVerification)
			auth.POST("/forgot-password", ipLimit, credentialLimit, h.account.ForgotPassword)
			auth.POST("/reset-password", ipLimit, h.account.ResetPassword)

			twoFactor := auth.Group("/2fa")
			{
				twoFactor.POST("/setup", handler.AuthMiddleware(authService), h.twoFactor.Setup)
				twoFactor.POST("/verify-setup", handler.AuthMiddleware(authService), h.twoFactor.VerifySetup)
				twoFactor.POST("/verify-login", ipLimit, handler.AuthMiddleware(authService), h.twoFactor.VerifyLogin)
				twoFactor.POST("/disable", handler.AuthMiddleware(authService), h.twoFactor.Disable)
			}

			oauth := auth.Group("/oauth")
			{
				oauth.GET("/:provider", h.oauth.Redirect)
				oauth.GET("/:provider/callback", h.oauth.Callback)
			}
		}
	}
}

func (a *App) Run(ctx context.Context) error {
	startPruning(ctx, a.repos, a.infra.Logger())

	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		a.infra.Logger().Error("Shutdown error", zap.Error(err))
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- a.server.Shutdown(ctx)
	}()

	go func() {
		errs <- a.infra.Shutdown(ctx)
	}()

	err := errors.Join(<-errs, <-errs)
	if err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
