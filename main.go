package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wayfarer/auth"
	"wayfarer/config"
	"wayfarer/db"
	"wayfarer/email"
	"wayfarer/globals"
	"wayfarer/middleware"
	"wayfarer/ratelim"
	"wayfarer/rdx"
	"wayfarer/routes"
	"wayfarer/tours"
	"wayfarer/users"

	"github.com/google/uuid"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		next.ServeHTTP(w, r)
	})
}

// requestID tags every request with an id for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), globals.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		id, _ := r.Context().Value(globals.RequestIDKey).(string)
		log.Printf("%s %s %s from %s – %v", id, r.Method, r.RequestURI, r.RemoteAddr, time.Since(start))
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	collections, err := db.Connect(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}

	cache, err := rdx.New(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if cache == nil {
		log.Println("REDIS_URL not set; aggregate caching disabled")
	}

	mailer := &email.Mailer{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
		From: cfg.SMTPFrom,
	}

	uploadDir := "static"
	userStore := users.NewStore(collections.Users)
	authMW := middleware.NewAuth(cfg.JWTSecret, userStore)
	errorHandler := &middleware.ErrorHandler{Development: cfg.IsDevelopment()}
	rateLimiter := ratelim.NewRateLimiter(1, 5)

	router := routes.NewRouter(&routes.Deps{
		Errors:      errorHandler,
		Auth:        authMW,
		RateLimiter: rateLimiter,
		AuthHandler: auth.NewHandler(collections.Users, authMW, mailer, cfg.JWTExpiresIn),
		Tours:       tours.NewHandler(collections.Tours, cache, uploadDir),
		Users:       users.NewHandler(collections.Users, uploadDir),
		UploadDir:   uploadDir,
	})

	// middleware chain: request id → logging → security headers → CORS → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := requestID(loggingMiddleware(securityHeaders(corsHandler)))

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s (%s mode)", cfg.Addr(), cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if err := collections.Close(shutdownCtx); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
	if err := cache.Close(); err != nil {
		log.Printf("redis close: %v", err)
	}

	log.Println("server stopped cleanly")
}
