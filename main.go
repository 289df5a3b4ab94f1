package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tours-api/config"
	"tours-api/handlers"
	"tours-api/middleware"
	"tours-api/models"
	"tours-api/service"
	"tours-api/store"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load("config.env", ".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("config:", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		logger.Fatal("mongodb", zap.Error(err))
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Error("mongodb disconnect", zap.Error(err))
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		logger.Fatal("mongodb indexes", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("db", cfg.DBName))

	var s3Service *service.S3Service
	if cfg.S3Bucket != "" {
		s3Service, err = service.NewS3Service(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_S3_BUCKET not set; tour image uploads will fail")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	mailer := service.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.EmailFrom)

	et := &handlers.ErrorTranslator{Logger: logger, Development: cfg.IsDevelopment()}
	authHandler := &handlers.AuthHandler{
		DB:              db,
		Validate:        validate,
		Mailer:          mailer,
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		JWTExpiresIn:    cfg.JWTExpiresIn,
		JWTCookieExpiry: cfg.JWTCookieExpiry,
		SecureCookie:    !cfg.IsDevelopment(),
	}
	usersHandler := &handlers.UsersHandler{DB: db, Validate: validate}
	toursHandler := &handlers.ToursHandler{DB: db, Validate: validate}
	reviewsHandler := &handlers.ReviewsHandler{DB: db, Validate: validate}
	uploadHandler := &handlers.UploadHandler{
		DB:       db,
		S3:       s3Service,
		MaxBytes: cfg.MaxUploadMB * 1024 * 1024,
	}
	viewsHandler, err := handlers.NewViewsHandler(db)
	if err != nil {
		logger.Fatal("views", zap.Error(err))
	}

	protect := middleware.Protect(db.Users, cfg.JWTSecret)
	tourEditors := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide)
	planViewers := middleware.RestrictTo(models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.AllowAll())
	r.Use(middleware.SecureHeaders())
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestSize(cfg.MaxUploadMB * 1024 * 1024))
	r.NotFound(handlers.NotFoundHandler)

	// Rendered views
	r.Get("/overview", et.Handle(viewsHandler.Overview))
	r.Get("/tour/{slug}", et.Handle(viewsHandler.TourDetail))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))

		r.Route("/tours", func(r chi.Router) {
			r.With(handlers.AliasTopTours).Get("/top-5-cheap", et.Handle(toursHandler.List()))
			r.Get("/tour-stats", et.Handle(toursHandler.Stats))
			r.With(protect, planViewers).Get("/monthly-plan/{year}", et.Handle(toursHandler.MonthlyPlan))
			r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", et.Handle(toursHandler.Within))

			r.Get("/", et.Handle(toursHandler.List()))
			r.With(protect, tourEditors).Post("/", et.Handle(toursHandler.Create()))
			r.Get("/{id}", et.Handle(toursHandler.Get()))
			r.With(protect, tourEditors).Patch("/{id}", et.Handle(toursHandler.Update()))
			r.With(protect, tourEditors).Delete("/{id}", et.Handle(toursHandler.Delete()))
			r.With(protect, tourEditors).Post("/{id}/images", et.Handle(uploadHandler.UploadTourImages))

			// Nested reviews
			r.Route("/{tourId}/reviews", func(r chi.Router) {
				r.Get("/", et.Handle(reviewsHandler.List()))
				r.With(protect, middleware.RestrictTo(models.RoleUser)).Post("/", et.Handle(reviewsHandler.Create()))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", et.Handle(authHandler.Signup))
			r.Post("/login", et.Handle(authHandler.Login))
			r.Get("/logout", et.Handle(authHandler.Logout))
			r.Post("/forgotPassword", et.Handle(authHandler.ForgotPassword))
			r.Patch("/resetPassword/{token}", et.Handle(authHandler.ResetPassword))

			// Routes below require a logged-in user.
			r.Group(func(r chi.Router) {
				r.Use(protect)
				r.Get("/me", et.Handle(usersHandler.Me))
				r.Patch("/updateMe", et.Handle(usersHandler.UpdateMe))
				r.Patch("/updateMyPassword", et.Handle(authHandler.UpdatePassword))
				r.Delete("/deleteMe", et.Handle(usersHandler.DeleteMe))

				// Admin-only user management.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RestrictTo(models.RoleAdmin))
					r.Get("/", et.Handle(handlers.GetAll[models.User](db.Users, nil)))
					r.Post("/", et.Handle(usersHandler.Create))
					r.Get("/{id}", et.Handle(handlers.GetOne[models.User](db.Users, nil)))
					r.Patch("/{id}", et.Handle(handlers.UpdateUser(db.Users, validate)))
					r.Delete("/{id}", et.Handle(handlers.DeleteOne[models.User](db.Users, nil)))
				})
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", et.Handle(reviewsHandler.List()))
			r.With(protect, middleware.RestrictTo(models.RoleUser)).Post("/", et.Handle(reviewsHandler.Create()))
			r.Get("/{id}", et.Handle(reviewsHandler.Get()))
			r.With(protect, middleware.RestrictTo(models.RoleUser, models.RoleAdmin)).Patch("/{id}", et.Handle(reviewsHandler.Update()))
			r.With(protect, middleware.RestrictTo(models.RoleUser, models.RoleAdmin)).Delete("/{id}", et.Handle(reviewsHandler.Delete()))
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
