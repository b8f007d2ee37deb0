package worker

import (
	"context"
	"encoding/json"

	"github.com/mifaly/new-ae-server/internal/logger"
	"github.com/mifaly/new-ae-server/internal/provider"
	"github.com/mifaly/new-ae-server/internal/queue"
	"github.com/mifaly/new-ae-server/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskImportDailySamples, c.handleImportDailySamples)
	mux.HandleFunc(queue.TaskPurgeExpired, c.handlePurgeExpired)
}

func (c *Consumer) handleImportDailySamples(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.ImportDailySamplesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_import_daily_unmarshal_failed", "error", err)
		return err
	}
	if payload.Date == "" {
		logger.Debugw("worker_import_daily_skip_empty_date")
		return nil
	}
	records := make(map[int64]service.TrafficCounts, len(payload.Records))
	for productID, counts := range payload.Records {
		records[productID] = service.TrafficCounts{UV: counts.UV, Sale: counts.Sale}
	}
	if err := c.ProductService.ImportDailySamples(payload.Date, records); err != nil {
		logger.Errorw("worker_import_daily_failed", "date", payload.Date, "error", err)
		return err
	}
	logger.Infow("worker_import_daily_done", "date", payload.Date, "records", len(records))
	return nil
}

func (c *Consumer) handlePurgeExpired(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	if err := c.MaintenanceService.PurgeExpired(); err != nil {
		logger.Errorw("worker_purge_expired_failed", "error", err)
		return err
	}
	return nil
}
