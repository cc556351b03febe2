// Package scheduler runs periodic background jobs
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/amirphl/vitrine/app/dto"
	businessflow "github.com/amirphl/vitrine/business_flow"
	"github.com/amirphl/vitrine/config"
	"github.com/amirphl/vitrine/utils"
	"github.com/robfig/cron/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

// SummaryRecomputer is the slice of the stats aggregator the scheduler needs
type SummaryRecomputer interface {
	RecomputeDailySummary(ctx context.Context, date string) (*dto.DailySummaryDTO, error)
}

// DailySummaryScheduler refreshes the daily summary rows for yesterday and today
type DailySummaryScheduler struct {
	stats   SummaryRecomputer
	spec    string
	loc     *time.Location
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
}

var _ SummaryRecomputer = (businessflow.StatsAggregator)(nil)

func NewDailySummaryScheduler(stats SummaryRecomputer, cfg config.SchedulerConfig, logCfg config.LoggingConfig, loc *time.Location) *DailySummaryScheduler {
	if loc == nil {
		loc = time.UTC
	}
	spec := cfg.DailySummarySpec
	if spec == "" {
		spec = "0 5 * * * *"
	}
	return &DailySummaryScheduler{
		stats:   stats,
		spec:    spec,
		loc:     loc,
		timeout: 2 * time.Minute,
		logger:  newSchedulerLogger(cfg.LogFile, logCfg),
		now:     utils.UTCNow,
	}
}

// newSchedulerLogger writes to stdout and a rotated file when one is configured
func newSchedulerLogger(path string, logCfg config.LoggingConfig) *log.Logger {
	flags := log.LstdFlags | log.Lmicroseconds | log.LUTC
	if path == "" {
		return log.New(os.Stdout, "scheduler ", flags)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l := log.New(os.Stdout, "scheduler ", flags)
		l.Printf("scheduler: failed to create log directory: %v", err)
		return l
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logCfg.MaxSize,
		MaxBackups: logCfg.MaxBackups,
		MaxAge:     logCfg.MaxAge,
		Compress:   logCfg.Compress,
	}
	return log.New(io.MultiWriter(os.Stdout, rotator), "scheduler ", flags)
}

// Start registers the cron job and returns a stop function that waits for a running job
func (s *DailySummaryScheduler) Start(parent context.Context) (func(), error) {
	ctx, cancel := context.WithCancel(parent)

	c := cron.New(
		cron.WithSeconds(),
		cron.WithLocation(s.loc),
		cron.WithChain(
			cron.Recover(cron.PrintfLogger(s.logger)),
			cron.DelayIfStillRunning(cron.PrintfLogger(s.logger)),
		),
	)
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		cancel()
		return nil, err
	}
	c.Start()
	s.logger.Printf("scheduler: daily summary job registered spec=%q", s.spec)

	return func() {
		cancel()
		<-c.Stop().Done()
	}, nil
}

// RunOnce recomputes yesterday and today; yesterday catches late rows from before midnight
func (s *DailySummaryScheduler) RunOnce(ctx context.Context) {
	today := s.now().In(s.loc)
	for _, day := range []time.Time{today.AddDate(0, 0, -1), today} {
		date := utils.FormatDate(day, s.loc)
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		summary, err := s.stats.RecomputeDailySummary(runCtx, date)
		cancel()
		if err != nil {
			s.logger.Printf("scheduler: recompute daily summary date=%s failed: %v", date, err)
			continue
		}
		s.logger.Printf("scheduler: daily summary date=%s views=%d unique=%d contacts=%d",
			date, summary.TotalViews, summary.UniqueVisitors, summary.ContactSubmissions)
	}
}
