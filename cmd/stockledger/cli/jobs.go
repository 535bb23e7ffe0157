package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockledger/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *jobs.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) (*JobsCLI, error) {
	if redisAddr == "" {
		return nil, errors.New("jobs cli: REDIS_ADDR is not set")
	}
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	client, err := jobs.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return &JobsCLI{client: client, inspector: asynq.NewInspector(opts)}, nil
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	switch name {
	case jobs.TaskLowStockScan, "low-stock-scan":
		return c.client.EnqueueLowStockScan(ctx, "cli")
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %s", name)
	}
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
	}
	return stats, nil
}

// Run executes `jobs <trigger NAME|stats>` and returns a process exit code.
func Run(ctx context.Context, redisAddr string, args []string, out io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(out, "usage: stockledger jobs <trigger NAME|stats>")
		return 2
	}
	c, err := NewJobsCLI(redisAddr)
	if err != nil {
		fmt.Fprintln(out, err)
		return 1
	}
	defer c.Close()

	switch strings.ToLower(args[0]) {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprintln(out, "usage: stockledger jobs trigger NAME")
			return 2
		}
		info, err := c.Trigger(ctx, args[1])
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintln(out, err)
			return 1
		}
		fmt.Fprintf(out, "queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	default:
		fmt.Fprintf(out, "unknown jobs command %q\n", args[0])
		return 2
	}
}
