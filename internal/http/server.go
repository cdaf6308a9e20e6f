package httpapi

import (
	"log"
	"net/http"
	"time"

	"eduai-backend-go/internal/ai"
	"eduai-backend-go/internal/config"
	"eduai-backend-go/internal/db"
	"eduai-backend-go/internal/models"
	"eduai-backend-go/internal/query"
	"eduai-backend-go/internal/ratelimit"
	"eduai-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	DB          *sqlx.DB
	Pool        *db.Pool
	Config      config.Config
	Tokens      services.TokenService
	Cache       *query.Cache
	Monitor     *query.Monitor
	Batch       *query.BatchUpdater
	Provider    ai.Provider
	MetricsHub  *services.MetricsHub
	AuthLimiter *ratelimit.Limiter
	AILimiter   *ratelimit.Limiter
}

// batchColumns are the user fields an admin batch update may touch.
var batchColumns = []string{"first_name", "last_name", "role", "school_id", "is_active", "email_verified", "status"}

func NewServer(database *sqlx.DB, cfg config.Config, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	monitor := query.NewMonitor()
	server := &Server{
		DB:         database,
		Pool:       db.NewPool(database, monitor),
		Config:     cfg,
		Tokens:     tokens,
		Cache:      query.NewCache(),
		Monitor:    monitor,
		Batch:      query.NewBatchUpdater(batchColumns, query.DefaultChunkSize),
		Provider:   newProvider(cfg),
		MetricsHub: hub,
	}
	if cfg.RedisAddr != "" {
		authLimiter, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, "eduai:ratelimit:auth", cfg.AuthRateLimit, time.Minute)
		if err != nil {
			log.Printf("auth rate limiter disabled: %v", err)
		} else {
			server.AuthLimiter = authLimiter
		}
		aiLimiter, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, "eduai:ratelimit:ai", cfg.AIRateLimit, time.Minute)
		if err != nil {
			log.Printf("ai rate limiter disabled: %v", err)
		} else {
			server.AILimiter = aiLimiter
		}
	}
	return server
}

// newProvider picks the raw OpenAI-compatible client for self-hosted
// base URLs and the official client otherwise.
func newProvider(cfg config.Config) ai.Provider {
	if cfg.OpenAIBaseURL != "" {
		return ai.NewCompatProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	}
	return ai.NewOpenAIProvider(cfg.OpenAIAPIKey, "")
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	if len(s.Config.CorsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.Config.CorsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(WithRateLimit(s.AuthLimiter))
			auth.Post("/register", s.Register)
			auth.Post("/login", s.Login)
			auth.Post("/refresh", s.Refresh)
			auth.Post("/logout", s.Logout)
		})

		api.Route("/me", func(me chi.Router) {
			me.Use(WithAuth(s.Tokens))
			me.Get("/", s.Me)
			me.Put("/profile", s.UpdateProfile)
			me.Put("/password", s.ChangePassword)
		})

		api.Route("/notifications", func(notifications chi.Router) {
			notifications.Use(WithAuth(s.Tokens))
			notifications.Get("/", s.ListNotifications)
			notifications.Get("/unread-count", s.UnreadNotifications)
			notifications.Put("/{notificationId}/read", s.MarkNotificationRead)
		})

		api.Route("/conversations", func(conversations chi.Router) {
			conversations.Use(WithAuth(s.Tokens))
			conversations.Get("/", s.ListConversations)
			conversations.Post("/", s.CreateConversation)
			conversations.Get("/{sessionId}/messages", s.ListConversationMessages)
		})

		api.Route("/credits", func(credits chi.Router) {
			credits.Use(WithAuth(s.Tokens))
			credits.Get("/balance", s.CreditBalance)
			credits.Get("/history", s.CreditHistory)
		})

		api.Route("/materials", func(materials chi.Router) {
			materials.Use(WithAuth(s.Tokens))
			materials.Get("/", s.ListMaterials)
			materials.Get("/{fileId}", s.GetMaterial)
			materials.Post("/{fileId}/share", s.ShareMaterial)
			materials.Get("/library", s.SchoolLibrary)
		})

		api.Route("/ai", func(aiRoutes chi.Router) {
			aiRoutes.Use(WithAuth(s.Tokens))
			aiRoutes.Use(WithRateLimit(s.AILimiter))
			aiRoutes.Post("/chat", s.StreamChat)
			aiRoutes.Post("/generate-worksheet", s.GenerateWorksheet)
			aiRoutes.Post("/generate-lesson-plan", s.GenerateLessonPlan)
			aiRoutes.Post("/generate-quiz", s.GenerateQuiz)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireRole(models.RolePlatformAdmin))
			admin.Route("/users", func(users chi.Router) {
				users.Get("/", s.AdminListUsers)
				users.Post("/", s.AdminCreateUser)
				users.Put("/{userId}", s.AdminUpdateUser)
				users.Delete("/{userId}", s.AdminDeleteUser)
				users.Post("/batch", s.AdminBatchUpdateUsers)
				users.Post("/{userId}/credits", s.AdminAdjustCredits)
			})
			admin.Route("/schools", func(schools chi.Router) {
				schools.Get("/", s.AdminListSchools)
				schools.Post("/", s.AdminCreateSchool)
				schools.Put("/{schoolId}", s.AdminUpdateSchool)
				schools.Delete("/{schoolId}", s.AdminDeleteSchool)
			})
			admin.Get("/analytics/ai-usage", s.AIUsage)
			admin.Get("/analytics/credits", s.CreditAnalytics)
			admin.Get("/analytics/queries", s.QueryStats)
			admin.Get("/metrics/history", s.MetricsHistory)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
