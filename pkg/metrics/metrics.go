package metrics

import (
	"path/filepath"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/nakabonne/tstorage"
)

// Metric names recorded by the application.
const (
	ApiRequests      = "api_requests"
	ServiceViews     = "service_views"
	FeedSyncServices = "feed_sync_services"
	FeedSyncErrors   = "feed_sync_errors"
	SystemCpuPercent = "system_cpu_percent"
	SystemMemPercent = "system_mem_percent"
)

var storage tstorage.Storage

// InitMetrics opens the embedded time-series store under workdir.
func InitMetrics(workdir string) error {
	s, err := tstorage.NewStorage(
		tstorage.WithDataPath(filepath.Join(workdir, "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(30*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = s
	return nil
}

// Close flushes and closes the store.
func Close() error {
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

// Record appends one data point to the named metric. Safe to call before
// InitMetrics; points are dropped when the store is not open.
func Record(name string, value float64) {
	if storage == nil {
		return
	}
	_ = storage.InsertRows([]tstorage.Row{
		{
			Metric:    name,
			DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: value},
		},
	})
}

// CounterInc records a single-unit increment for the named metric.
func CounterInc(name string) {
	Record(name, 1)
}

// Summary is an aggregate over a metric's recent points.
type Summary struct {
	Metric string  `json:"metric"`
	Count  int     `json:"count"`
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
}

// Summarize aggregates the named metric over the trailing window.
func Summarize(name string, window time.Duration) Summary {
	out := Summary{Metric: name}
	if storage == nil {
		return out
	}
	end := time.Now().Unix()
	start := end - int64(window.Seconds())
	points, err := storage.Select(name, nil, start, end)
	if err != nil || len(points) == 0 {
		return out
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	out.Count = len(values)
	out.Sum, _ = stats.Sum(values)
	out.Mean, _ = stats.Mean(values)
	out.Max, _ = stats.Max(values)
	return out
}
