package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mohd-saif-1850/trophy-store-api/internal/cache"
	"github.com/mohd-saif-1850/trophy-store-api/internal/cleanup"
	"github.com/mohd-saif-1850/trophy-store-api/internal/config"
	"github.com/mohd-saif-1850/trophy-store-api/internal/database"
	"github.com/mohd-saif-1850/trophy-store-api/internal/handlers"
	"github.com/mohd-saif-1850/trophy-store-api/internal/mailer"
	"github.com/mohd-saif-1850/trophy-store-api/internal/models"
	"github.com/mohd-saif-1850/trophy-store-api/internal/outbox"
	"github.com/mohd-saif-1850/trophy-store-api/internal/repository"
	"github.com/mohd-saif-1850/trophy-store-api/internal/service"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/kafka"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/logger"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/middleware"
	"github.com/mohd-saif-1850/trophy-store-api/pkg/ratelimit"
)

// Server wires the storefront together and owns the lifecycle of its
// background workers.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database

	dlqRepo *repository.DeadLetterRepository

	authService     *service.AuthService
	orderService    *service.OrderService
	trophyService   *service.TrophyService
	feedbackService *service.FeedbackService

	mailer              *mailer.SMTPMailer
	outboxProcessor     *outbox.Processor
	deadLetterProcessor *outbox.DeadLetterProcessor
	cleanupSweeper      *cleanup.Sweeper
	kafkaProducer       *kafka.Producer
	kafkaConsumer       *kafka.Consumer
	otpLimiter          *ratelimit.IPRateLimiter
}

// NewServer creates the API server with the given configuration
func NewServer(cfg *config.Config, log logger.Logger) (*Server, error) {
	db, err := database.New(cfg, log)

	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.RunMigrations(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	userRepo := repository.NewUserRepository(db, log)
	trophyRepo := repository.NewTrophyRepository(db, log)
	orderRepo := repository.NewOrderRepository(db, log)
	feedbackRepo := repository.NewFeedbackRepository(db, log)
	reviewRepo := repository.NewReviewRepository(db, log)
	outboxRepo := repository.NewOutboxRepository(db, log)
	dlqRepo := repository.NewDeadLetterRepository(db, log)

	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)

	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	catalogCache := cache.NewNopCache()
	if cfg.Redis.Enabled {
		catalogCache = cache.NewRedisCache(cfg.Redis.Addr, "storefront")
	}

	orderStore := repository.NewOrderStore(orderRepo, outboxRepo, log)
	authService := service.NewAuthService(userRepo, outboxRepo, cfg.JWT, log)
	orderService := service.NewOrderService(orderStore, log)
	trophyService := service.NewTrophyService(trophyRepo, catalogCache, log)
	feedbackService := service.NewFeedbackService(feedbackRepo, reviewRepo, log)

	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP, log)

	outboxProcessor := outbox.NewProcessor(outboxRepo, dlqRepo, outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}, log)

	deadLetterProcessor := outbox.NewDeadLetterProcessor(dlqRepo, outbox.DeadLetterProcessorConfig{
		PollingInterval: 30 * time.Second,
		BatchSize:       5,
		MaxRetries:      5,
	}, log)

	kafkaHandler := outbox.NewKafkaHandler(kafkaProducer, cfg.Kafka.OrdersTopic, log)
	emailHandler := outbox.NewEmailHandler(smtpMailer, log)

	streamEvents := []string{
		models.EventOrderCreated,
		models.EventOrderStatusChanged,
	}
	emailEvents := []string{
		models.EventEmailOrderConfirmation,
		models.EventEmailOrderOTP,
		models.EventEmailOrderCancelled,
		models.EventEmailUserVerification,
		models.EventEmailPasswordReset,
	}

	for _, eventType := range streamEvents {
		outboxProcessor.RegisterHandler(eventType, kafkaHandler)
		deadLetterProcessor.RegisterHandler(eventType, kafkaHandler)
	}
	for _, eventType := range emailEvents {
		outboxProcessor.RegisterHandler(eventType, emailHandler)
		deadLetterProcessor.RegisterHandler(eventType, emailHandler)
	}

	kafkaConsumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
		Brokers:       cfg.Kafka.Brokers,
		Topics:        []string{cfg.Kafka.OrdersTopic},
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, log)

	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	kafkaConsumer.RegisterHandler(cfg.Kafka.OrdersTopic, handlers.NewOrderEventsHandler(log))

	sweeper := cleanup.NewSweeper(userRepo, cfg.Cleanup.Interval, log)

	r := mux.NewRouter()

	server := &Server{
		config:              cfg,
		logger:              log,
		router:              r,
		db:                  db,
		dlqRepo:             dlqRepo,
		authService:         authService,
		orderService:        orderService,
		trophyService:       trophyService,
		feedbackService:     feedbackService,
		mailer:              smtpMailer,
		outboxProcessor:     outboxProcessor,
		deadLetterProcessor: deadLetterProcessor,
		cleanupSweeper:      sweeper,
		kafkaProducer:       kafkaProducer,
		kafkaConsumer:       kafkaConsumer,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	server.setupRoutes()

	return server, nil
}

// Start launches the background workers and serves HTTP
func (s *Server) Start() error {
	s.outboxProcessor.Start()
	s.deadLetterProcessor.Start()
	s.cleanupSweeper.Start()

	if err := s.kafkaConsumer.Start(); err != nil {
		// the API works without the audit consumer
		s.logger.Error("Failed to start Kafka consumer", "error", err)
	}

	s.logger.Info("Server listening", "port", s.config.Port, "env", s.config.Env)

	return s.httpServer.ListenAndServe()
}

// Shutdown stops the workers and drains the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.outboxProcessor.Stop()
	s.deadLetterProcessor.Stop()
	s.cleanupSweeper.Stop()
	s.otpLimiter.Stop()

	if err := s.kafkaConsumer.Stop(); err != nil {
		s.logger.Error("Error stopping Kafka consumer", "error", err)
	}

	if err := s.kafkaProducer.Close(); err != nil {
		s.logger.Error("Error closing Kafka producer", "error", err)
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Error closing database connection", "error", err)
	}

	return s.httpServer.Shutdown(ctx)
}

// setupRoutes configures all the routes for our API
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	// OTP-sending endpoints get a per-IP budget of 3 with slow refill
	s.otpLimiter = ratelimit.NewIPRateLimiter(3, 0.05)
	otpLimited := middleware.RateLimit(s.otpLimiter, s.logger)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)

	// Auth
	api.Handle("/auth/sign-up", otpLimited(http.HandlerFunc(s.signUpHandler))).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", s.verifyHandler).Methods(http.MethodPost)
	api.Handle("/auth/resend-otp", otpLimited(http.HandlerFunc(s.resendOTPHandler))).Methods(http.MethodPost)
	api.HandleFunc("/auth/sign-in", s.signInHandler).Methods(http.MethodPost)
	api.Handle("/auth/forgot-password", otpLimited(http.HandlerFunc(s.forgotPasswordHandler))).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-forgot-otp", s.verifyForgotOTPHandler).Methods(http.MethodPost)
	api.HandleFunc("/auth/change-password", s.changePasswordHandler).Methods(http.MethodPost)

	// Profile and cart
	api.HandleFunc("/me", s.requireAuth(s.getMeHandler)).Methods(http.MethodGet)
	api.HandleFunc("/me", s.requireAuth(s.updateMeHandler)).Methods(http.MethodPut)
	api.HandleFunc("/me", s.requireAuth(s.deleteMeHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/me/cart", s.requireAuth(s.getCartHandler)).Methods(http.MethodGet)
	api.HandleFunc("/me/cart", s.requireAuth(s.updateCartHandler)).Methods(http.MethodPut)

	// Catalog
	api.HandleFunc("/trophies", s.getTrophiesHandler).Methods(http.MethodGet)
	api.HandleFunc("/trophies/search", s.searchTrophiesHandler).Methods(http.MethodGet)
	api.HandleFunc("/trophies/{id}", s.getTrophyByIDHandler).Methods(http.MethodGet)
	api.HandleFunc("/trophies", s.requireAdmin(s.createTrophyHandler)).Methods(http.MethodPost)
	api.HandleFunc("/trophies/{id}", s.requireAdmin(s.updateTrophyHandler)).Methods(http.MethodPut)
	api.HandleFunc("/trophies/{id}", s.requireAdmin(s.deleteTrophyHandler)).Methods(http.MethodDelete)

	// Orders
	api.HandleFunc("/orders", s.requireAuth(s.createOrderHandler)).Methods(http.MethodPost)
	api.HandleFunc("/orders/mine", s.requireAuth(s.getMyOrdersHandler)).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.requireAdmin(s.getOrdersHandler)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.requireAuth(s.getOrderByIDHandler)).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id}", s.requireAuth(s.cancelOrderHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/orders/{id}/status", s.requireAdmin(s.updateOrderStatusHandler)).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id}/verify-otp", s.requireAdmin(s.verifyOrderOTPHandler)).Methods(http.MethodPost)

	// Feedback and reviews
	api.HandleFunc("/feedback", s.requireAuth(s.submitFeedbackHandler)).Methods(http.MethodPost)
	api.HandleFunc("/feedback/approved", s.getApprovedFeedbackHandler).Methods(http.MethodGet)
	api.HandleFunc("/feedback/mine", s.requireAuth(s.getMyFeedbackHandler)).Methods(http.MethodGet)
	api.HandleFunc("/feedback", s.requireAdmin(s.getAllFeedbackHandler)).Methods(http.MethodGet)
	api.HandleFunc("/feedback/{id}/status", s.requireAdmin(s.moderateFeedbackHandler)).Methods(http.MethodPatch)
	api.HandleFunc("/feedback/{id}", s.requireAuth(s.deleteFeedbackHandler)).Methods(http.MethodDelete)
	api.HandleFunc("/reviews", s.requireAuth(s.submitReviewHandler)).Methods(http.MethodPost)
	api.HandleFunc("/reviews", s.getReviewsHandler).Methods(http.MethodGet)
	api.HandleFunc("/reviews/{id}", s.getReviewByIDHandler).Methods(http.MethodGet)

	// Admin operations
	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.HandleFunc("/dead-letters", s.requireAdmin(s.getDeadLettersHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.requireAdmin(s.retryDeadLetterHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.requireAdmin(s.discardDeadLetterHandler)).Methods(http.MethodPost)
	admin.HandleFunc("/mailer/status", s.requireAdmin(s.mailerStatusHandler)).Methods(http.MethodGet)
	admin.HandleFunc("/mailer/reset", s.requireAdmin(s.mailerResetHandler)).Methods(http.MethodPost)
}
