package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"animepin/internal/catalog"
	"animepin/internal/config"
	"animepin/internal/events"
	"animepin/internal/middleware"
	"animepin/internal/repository"
	"animepin/internal/service"
	"animepin/internal/storage"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	catalog  *catalog.Service
	bus      *events.Bus
	db       *pgxpool.Pool
	cache    *redis.Client
	store    *storage.ObjectStore
	users    *repository.UserRepository
	sessions *repository.SessionRepository
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, cache *redis.Client, store *storage.ObjectStore, bus *events.Bus, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	imageRepo := repository.NewImageRepository(db)
	auth := service.NewAuthService(userRepo, sessionRepo, cfg, log)
	cat := catalog.NewService(imageRepo, store, bus, cfg.Upload.KeyPrefix, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     auth,
		catalog:  cat,
		bus:      bus,
		db:       db,
		cache:    cache,
		store:    store,
		users:    userRepo,
		sessions: sessionRepo,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.Refresh)

		protected := v1.Group("/auth")
		protected.Use(middleware.Auth(h.cfg, h.users, h.sessions))
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
	}

	v1.GET("/images", h.ListImages)
	v1.GET("/categories", h.ListCategories)
	v1.GET("/panels/:panel", h.ShowPanel)

	images := v1.Group("/images")
	images.Use(middleware.Auth(h.cfg, h.users, h.sessions))
	images.POST("", middleware.UploadRateLimit(h.cache, h.cfg.Upload.MaxPerDay), h.UploadImages)
	images.DELETE("/:id", h.DeleteImage)
}
