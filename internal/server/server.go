package server

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"stripe-subscription-relay/internal/config"
	"stripe-subscription-relay/internal/handler"
	"stripe-subscription-relay/internal/middleware"
	"stripe-subscription-relay/internal/service"
)

type Server struct {
	echo                *echo.Echo
	subscriptionHandler *handler.SubscriptionHandler
	webhookHandler      *handler.WebhookHandler
}

func NewServer(cfg *config.Config, subscriptionService service.SubscriptionService, webhookService service.WebhookService) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.AllowedOrigin},
	}))

	s := &Server{
		echo:                e,
		subscriptionHandler: handler.NewSubscriptionHandler(subscriptionService),
		webhookHandler:      handler.NewWebhookHandler(webhookService),
	}

	s.setupRoutes(cfg)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config) {
	s.echo.GET("/", s.subscriptionHandler.Health)

	// webhook deliveries authenticate via their signature, not a bearer token
	s.echo.POST("/webhook", s.webhookHandler.HandleWebhook)

	api := s.echo.Group("/api", middleware.Auth(cfg.Auth.JWTSecret))
	api.POST("/create-subscription", s.subscriptionHandler.CreateSubscription)
	api.POST("/cancel-subscription", s.subscriptionHandler.CancelSubscription)
	api.GET("/payment-methods/:userId", s.subscriptionHandler.ListPaymentMethods)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
