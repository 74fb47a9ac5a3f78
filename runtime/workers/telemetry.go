package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"

	"chat-system/contract"
	"chat-system/observability"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// TelemetryWorker logs process health (CPU, RSS, goroutines) together with
// the messaging counters at a fixed interval.
type TelemetryWorker struct {
	log      *slog.Logger
	metrics  *observability.Metrics
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, metrics *observability.Metrics, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, metrics: metrics, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while finding process cpu usage", "err", err)
				continue
			}
			memInfo, err := proc.MemoryInfo()
			if err != nil {
				w.log.Error("Error while finding process memory usage", "err", err)
				continue
			}

			stats := w.metrics.Snapshot()
			w.log.Info("telemetry",
				"cpu_percent", cpu,
				"rss_mb", memInfo.RSS>>20,
				"goroutines", runtime.NumGoroutine(),
				"active_sessions", stats.ActiveSessions,
				"messages_appended", stats.MessagesAppended,
				"broadcasts_delivered", stats.BroadcastsDelivered,
				"delivery_failures", stats.DeliveryFailures)
		}
	}
}
