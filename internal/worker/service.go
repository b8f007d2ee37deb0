package worker

import (
	"context"
	"errors"
	"time"

	"github.com/mifaly/new-ae-server/internal/config"
	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	purgeInterval = 24 * time.Hour
)

// Service 异步队列服务
type Service struct {
	name     string
	server   *asynq.Server
	mux      *asynq.ServeMux
	consumer *Consumer
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:     "worker",
		server:   server,
		mux:      mux,
		consumer: consumer,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.MaintenanceService != nil {
		go s.runPurgeLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runPurgeLoop 每天通过队列投递一次清理任务, 由消费端统一执行
func (s *Service) runPurgeLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.MaintenanceService == nil {
		return
	}
	runOnce := func() {
		if s.consumer.QueueClient.Enabled() {
			if err := s.consumer.QueueClient.EnqueuePurgeExpired(queue.PurgeExpiredPayload{}); err != nil {
				logger.Warnw("worker_purge_enqueue_failed", "error", err)
			}
			return
		}
		if err := s.consumer.MaintenanceService.PurgeExpired(); err != nil {
			logger.Warnw("worker_purge_expired_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
