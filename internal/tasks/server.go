package tasks

import (
	"context"
	"fmt"

	"ahgapi/internal/utils/logger"

	"github.com/hibiken/asynq"
)

// Server handles task processing
type Server struct {
	server  *asynq.Server
	handler *TaskHandler
	logger  *logger.Logger
}

// NewServer creates a new task processing server
func NewServer(redisAddr, username, password string, db, concurrency int, handler *TaskHandler, logger *logger.Logger) *Server {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Username: username,
			Password: password,
			DB:       db,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			StrictPriority: true,
		},
	)

	return &Server{
		server:  server,
		handler: handler,
		logger:  logger,
	}
}

// Start starts the task processing server
func (s *Server) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TaskTypeEmbargoRelease, s.handler.HandleEmbargoRelease)
	mux.HandleFunc(TaskTypeEmbargoActivate, s.handler.HandleEmbargoRelease)
	mux.HandleFunc(TaskTypeDeclassify, s.handler.HandleDeclassify)
	mux.HandleFunc(TaskTypeClearanceScan, s.handler.HandleClearanceScan)
	mux.HandleFunc(TaskTypeShareCleanup, s.handler.HandleShareCleanup)
	mux.HandleFunc(TaskTypeDsarReminder, s.handler.HandleDsarReminder)
	mux.HandleFunc(TaskTypeConditionDue, s.handler.HandleConditionDue)

	s.logger.Info("starting task processing server")

	if err := s.server.Start(mux); err != nil {
		return fmt.Errorf("failed to start task server: %w", err)
	}

	return nil
}

// Stop stops the task processing server
func (s *Server) Stop() {
	s.server.Stop()
	s.logger.Info("task processing server stopped")
}

// Shutdown gracefully shuts down the task processing server
func (s *Server) Shutdown() {
	s.logger.Info("shutting down task processing server")
	s.server.Shutdown()
}
