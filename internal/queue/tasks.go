package queue

import (
	"encoding/json"

	"github.com/mifaly/new-ae-server/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskImportDailySamples 日流量导入任务
	TaskImportDailySamples = constants.TaskImportDailySamples
	// TaskPurgeExpired 过期数据清理任务
	TaskPurgeExpired = constants.TaskPurgeExpired
)

// ImportDailySamplesPayload 日流量导入任务载荷
type ImportDailySamplesPayload struct {
	Date    string                    `json:"date"`
	Records map[int64]TrafficCounters `json:"records"`
}

// TrafficCounters 单个商品一天的访客/成交数
type TrafficCounters struct {
	UV   int64 `json:"uv"`
	Sale int64 `json:"sale"`
}

// PurgeExpiredPayload 过期数据清理任务载荷
type PurgeExpiredPayload struct {
	Reason string `json:"reason"`
}

// NewImportDailySamplesTask 创建日流量导入任务
func NewImportDailySamplesTask(payload ImportDailySamplesPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskImportDailySamples, body), nil
}

// NewPurgeExpiredTask 创建过期数据清理任务
func NewPurgeExpiredTask(payload PurgeExpiredPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPurgeExpired, body), nil
}
