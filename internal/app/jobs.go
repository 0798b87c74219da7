package app

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"go.uber.org/zap"

	"github.com/communitycompass/compass/internal/domain"
	"github.com/communitycompass/compass/pkg/metrics"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

func (a *Application) initJob() {
	loc, _ := time.LoadLocation(a.appConfig.System.Location)
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	var err error
	_, err = a.sched.AddFunc("@every 30s", func() {
		go a.SchedSystemMonitorTask()
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	_, err = a.sched.AddFunc("@daily", func() {
		a.gormDB.
			Where("opt_time < ? ", time.Now().
				Add(-time.Hour*24*365)).Delete(domain.AuditLog{})
	})
	if err != nil {
		zap.S().Errorf("init job error %s", err.Error())
	}

	if a.appConfig.OpenData.SyncEnable {
		spec := a.appConfig.OpenData.SyncCron
		if spec == "" {
			spec = "@hourly"
		}
		_, err = a.sched.AddFunc(spec, func() {
			if err := a.SyncDirectory(); err != nil {
				zap.L().Error("directory sync failed", zap.Error(err))
			}
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
		}
	}

	a.sched.Start()
}

// SchedSystemMonitorTask samples host CPU and memory into the metrics store.
func (a *Application) SchedSystemMonitorTask() {
	percents, err := cpu.Percent(0, false)
	if err == nil && len(percents) > 0 {
		metrics.Record(metrics.SystemCpuPercent, percents[0])
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		metrics.Record(metrics.SystemMemPercent, vm.UsedPercent)
	}
}
