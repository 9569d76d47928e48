package maintenance

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ud28188-create/codonyx.org/internal/cache"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/metrics"
)

const (
	defaultAuditRetentionDays = 365
	defaultSessionSpec        = "@hourly"
	defaultInviteSpec         = "@daily"
	defaultAuditSpec          = "@daily"
	defaultCacheSpec          = "@hourly"
)

// SessionCleaner removes expired and revoked refresh sessions.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// InviteSweeper deactivates invites past their expiry.
type InviteSweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// AuditPruner enforces audit log retention.
type AuditPruner interface {
	CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error)
}

// Jobs are the targets of the background sweeps. Nil members are skipped.
type Jobs struct {
	Sessions SessionCleaner
	Invites  InviteSweeper
	Audit    AuditPruner
	Cache    cache.Purger
}

type job struct {
	name string
	spec string
	run  func(ctx context.Context) (int64, error)
}

// Cleaner runs the maintenance jobs on cron schedules.
type Cleaner struct {
	jobs      Jobs
	cron      *cron.Cron
	log       *zap.Logger
	retention int

	sessionSchedule string
	inviteSchedule  string
	auditSchedule   string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are kept.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

func WithSessionSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.sessionSchedule = spec
		}
	}
}

func WithInviteSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.inviteSchedule = spec
		}
	}
}

func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with default schedules.
func NewCleaner(jobs Jobs, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		jobs:            jobs,
		retention:       defaultAuditRetentionDays,
		sessionSchedule: defaultSessionSpec,
		inviteSchedule:  defaultInviteSpec,
		auditSchedule:   defaultAuditSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}
	for _, opt := range opts {
		opt(cleaner)
	}
	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

func (c *Cleaner) enabledJobs() []job {
	var jobs []job
	if c.jobs.Sessions != nil {
		jobs = append(jobs, job{name: "sessions", spec: c.sessionSchedule, run: c.jobs.Sessions.CleanupExpired})
	}
	if c.jobs.Invites != nil {
		jobs = append(jobs, job{name: "invites", spec: c.inviteSchedule, run: c.jobs.Invites.Sweep})
	}
	if c.jobs.Audit != nil && c.retention > 0 {
		jobs = append(jobs, job{name: "audit", spec: c.auditSchedule, run: func(ctx context.Context) (int64, error) {
			return c.jobs.Audit.CleanupOlderThan(ctx, c.retention)
		}})
	}
	if c.jobs.Cache != nil {
		jobs = append(jobs, job{name: "cache", spec: c.cacheSchedule, run: c.jobs.Cache.PurgeExpired})
	}
	return jobs
}

// Start registers every configured job and launches the scheduler.
func (c *Cleaner) Start() error {
	jobs := c.enabledJobs()
	if len(jobs) == 0 {
		return nil
	}
	for _, j := range jobs {
		j := j
		if _, err := c.cron.AddFunc(j.spec, func() {
			if _, err := c.runJob(context.Background(), j); err != nil {
				c.log.Warn("maintenance job failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("maintenance: schedule %s (%q): %w", j.name, j.spec, err)
		}
	}
	c.cron.Start()
	return nil
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes every configured job in sequence and returns the rows affected per job.
func (c *Cleaner) RunOnce(ctx context.Context) (map[string]int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	affected := make(map[string]int64)
	for _, j := range c.enabledJobs() {
		n, err := c.runJob(ctx, j)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", j.name, err))
			continue
		}
		affected[j.name] = n
	}
	return affected, errs
}

func (c *Cleaner) runJob(ctx context.Context, j job) (int64, error) {
	n, err := j.run(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.MaintenanceRows.WithLabelValues(j.name).Add(float64(n))
		c.log.Info("maintenance job completed", zap.String("job", j.name), zap.Int64("rows", n))
	}
	return n, nil
}
