package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan scans the pending ledger for items below threshold.
	TaskLowStockScan = "inventory:low-stock-scan"
)

// LowStockScanPayload carries scheduling metadata.
type LowStockScanPayload struct {
	RequestedAt time.Time `json:"requested_at"`
	Reason      string    `json:"reason,omitempty"`
}

// NewLowStockScanTask constructs an Asynq task for a low stock scan.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}
