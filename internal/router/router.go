package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"retiro-api/internal/captcha"
	"retiro-api/internal/config"
	"retiro-api/internal/handlers"
	"retiro-api/internal/llm"
	"retiro-api/internal/mail"
	"retiro-api/internal/middleware"
	"retiro-api/internal/models"
	"retiro-api/internal/repository/postgres"
	"retiro-api/internal/service"
)

// activationTokenTTL matches the validity window of emailed links.
const activationTokenTTL = 72 * time.Hour

func New(log zerolog.Logger, db *pgxpool.Pool, cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Origin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(httprate.LimitByIP(200, time.Minute))
	r.Use(middleware.WithAuth(cfg))

	// Health
	r.Get("/healthz", handlers.Health())

	// Repos + services
	userRepo := postgres.NewUserRepo(db)
	agentRepo := postgres.NewAgentRepo(db)

	tokens := service.NewActivationTokens(cfg.SessionSecret, activationTokenTTL)
	mailer := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom, cfg.MailPassword)
	verifier := captcha.New(cfg.CaptchaURL, cfg.CaptchaSecret)
	authSvc := service.NewAuthService(userRepo, tokens, mailer, verifier,
		cfg.SessionSecret, cfg.ActivationBaseURL, log)
	importer := service.NewAgentImporter(agentRepo)

	// Handlers
	ah := handlers.NewAuthHTTP(authSvc, cfg.ActivationBaseURL+"/login.html", log)
	gh := handlers.NewAgentHTTP(agentRepo, importer, log)
	rh := handlers.NewReportsHTTP(agentRepo, log)
	ch := handlers.NewChatHTTP(llm.NewClient(cfg.LLMURL, cfg.LLMKey, cfg.LLMModel), log)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", ah.Login())
		r.Post("/register", ah.Register())
		r.Get("/activate/{uid}/{token}/", ah.Activate())
	})

	r.Route("/agents", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", gh.List())
		r.Get("/stats", rh.Stats())
		r.Get("/export", rh.Export())

		admin := r.With(middleware.RequireRoles(models.RoleAdmin))
		admin.Post("/", gh.Create())
		admin.Post("/bulk", gh.Bulk())
		admin.Post("/bulk_atomic", gh.BulkAtomic())
		admin.Delete("/delete_all", gh.DeleteAll())

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", gh.Get())
			admin := r.With(middleware.RequireRoles(models.RoleAdmin))
			admin.Put("/", gh.Update())
			admin.Patch("/", gh.Update())
			admin.Delete("/", gh.Delete())
		})
	})

	r.Post("/chat", ch.Relay())

	return r
}
