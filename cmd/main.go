package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/chempartner/paperdesk/config"
	"github.com/chempartner/paperdesk/database"
	_ "github.com/chempartner/paperdesk/docs" // Swagger docs - generated by swag init
	"github.com/chempartner/paperdesk/internal/auth"
	adminctrl "github.com/chempartner/paperdesk/internal/controller/admin"
	userctrl "github.com/chempartner/paperdesk/internal/controller/user"
	"github.com/chempartner/paperdesk/internal/logger"
	"github.com/chempartner/paperdesk/internal/middleware"
	"github.com/chempartner/paperdesk/internal/model"
	"github.com/chempartner/paperdesk/internal/ratelimit"
	"github.com/chempartner/paperdesk/internal/repository"
	"github.com/chempartner/paperdesk/internal/service"
	"github.com/chempartner/paperdesk/internal/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"gorm.io/gorm"
)

// @title Chemistry Partner API
// @version 1.0
// @description Test-paper management: accounts, chemistry papers with PDF attachments and submission records.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8000
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger { return logger.FxLogger{} }),

		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Auth, storage and rate limiting
		fx.Provide(
			auth.NewTokenService,
			auth.NewBcryptHasher,
			func(cfg *config.Config) (storage.BlobStore, error) {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return storage.NewBlobStore(ctx, cfg)
			},
			ratelimit.New,
			service.NewPaperLocks,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewUserRepository,
			repository.NewPaperRepository,
			repository.NewQuestionRepository,
			repository.NewSubmissionRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewAuthService,
			service.NewPDFAssetService,
			service.NewPaperService,
			service.NewQuestionService,
			service.NewSubmissionService,
		),

		// API Controllers Layer
		fx.Provide(
			userctrl.NewAuthController,
			userctrl.NewPaperController,
			userctrl.NewSubmissionController,
			adminctrl.NewAdminPaperController,
			adminctrl.NewAdminUserController,
		),

		fx.Invoke(InitLogger),
		fx.Invoke(AutoMigrateDB),
		fx.Invoke(EnsureBootstrapAdmin),
		fx.Invoke(RegisterRoutesAndStartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.Stop(stopCtx); err != nil {
		log.Error().Err(err).Msg("Failed to stop application cleanly")
	}
}

func InitLogger(cfg *config.Config) {
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)
}

func NewGinEngine(cfg *config.Config) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	// ClientIP keys the PDF rate limit, so forwarded headers only count when
	// they come from a configured proxy.
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI
	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}

// Handlers collects everything the route table needs.
type Handlers struct {
	fx.In

	Auth    service.AuthService
	Limiter ratelimit.Limiter

	AuthCtrl       *userctrl.AuthController
	PaperCtrl      *userctrl.PaperController
	SubmissionCtrl *userctrl.SubmissionController
	AdminPapers    *adminctrl.AdminPaperController
	AdminUsers     *adminctrl.AdminUserController
}

// RegisterRoutes mounts the API. Paths have no version prefix so existing
// clients keep working.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	active := middleware.ActiveUser(h.Auth)
	admin := middleware.AdminUser(h.Auth)

	router.POST("/register", h.AuthCtrl.Register)
	router.POST("/token", h.AuthCtrl.Token)

	users := router.Group("/users")
	{
		users.GET("/me", active, h.AuthCtrl.Me)
		users.GET("/:username", active, h.AuthCtrl.GetUser)
		users.PUT("/:id/admin", admin, h.AdminUsers.PromoteUser)
	}

	papers := router.Group("/papers")
	{
		papers.GET("/", active, h.PaperCtrl.ListPapers)
		papers.GET("/:id", active, h.PaperCtrl.GetPaper)
		papers.GET("/:id/questions", active, h.PaperCtrl.ListQuestions)
		// Rate limiting runs first so an over-limit client is refused before
		// its token is verified.
		papers.GET("/:id/pdf", middleware.RateLimit(h.Limiter), middleware.QueryTokenUser(h.Auth), h.PaperCtrl.DownloadPDF)

		papers.POST("/:id/submit", active, h.SubmissionCtrl.Submit)
		papers.GET("/submissions/user", active, h.SubmissionCtrl.ListMine)
		papers.GET("/submissions/user/stats", active, h.SubmissionCtrl.Stats)

		papers.POST("/", admin, h.AdminPapers.CreatePaper)
		papers.PUT("/:id", admin, h.AdminPapers.UpdatePaper)
		papers.DELETE("/:id", admin, h.AdminPapers.DeletePaper)
		papers.POST("/:id/upload-pdf", admin, h.AdminPapers.UploadPDF)
		papers.POST("/:id/questions", admin, h.AdminPapers.AddQuestion)
	}
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx.Request.Context())
		}
		if err != nil {
			log.Error().Err(err).Msg("Health check: database unreachable")
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	h Handlers,
) {
	router.GET("/healthz", healthHandler(db))
	RegisterRoutes(router, h)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Chemistry Partner API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.User{},
		&model.Paper{},
		&model.Question{},
		&model.PaperSubmission{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}

func EnsureBootstrapAdmin(authService service.AuthService, cfg *config.Config) error {
	return authService.EnsureBootstrapAdmin(cfg.Admin)
}
