// Package housekeeping runs periodic maintenance for the server: cache
// reports and optional scheduled purges.
package housekeeping

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/crowagent/crowagent/internal/cache"
)

// Job is one named task on a cron schedule.
type Job struct {
	Name string
	Spec string // standard five-field spec or descriptor such as "@every 5m"
	Run  func(ctx context.Context)
}

// Service schedules jobs with robfig/cron.
type Service struct {
	mu     sync.Mutex
	jobs   []Job
	robfig *robfigcron.Cron
	ids    map[string]robfigcron.EntryID
}

// NewService creates a Service. Jobs with an empty Spec are skipped.
func NewService(jobs ...Job) *Service {
	s := &Service{
		robfig: robfigcron.New(robfigcron.WithChain(robfigcron.SkipIfStillRunning(robfigcron.DiscardLogger))),
		ids:    make(map[string]robfigcron.EntryID),
	}
	for _, j := range jobs {
		if j.Spec != "" && j.Run != nil {
			s.jobs = append(s.jobs, j)
		}
	}
	return s
}

// ValidateSpec reports whether spec parses as a standard cron expression.
func ValidateSpec(spec string) error {
	if _, err := robfigcron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Start arms every job and blocks until ctx is cancelled. An invalid spec
// fails before anything is scheduled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	for _, j := range s.jobs {
		if err := ValidateSpec(j.Spec); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("housekeeping job %s: %w", j.Name, err)
		}
	}
	for _, j := range s.jobs {
		job := j
		id, err := s.robfig.AddFunc(job.Spec, func() {
			slog.Debug("housekeeping: running", "job", job.Name)
			job.Run(ctx)
		})
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("housekeeping job %s: %w", job.Name, err)
		}
		s.ids[job.Name] = id
	}
	s.mu.Unlock()

	s.robfig.Start()
	slog.Info("housekeeping: started", "jobs", len(s.jobs))

	<-ctx.Done()

	<-s.robfig.Stop().Done()
	slog.Info("housekeeping: stopped")
	return ctx.Err()
}

// RunJob executes the named job immediately. It reports false if no such
// job exists.
func (s *Service) RunJob(ctx context.Context, name string) bool {
	s.mu.Lock()
	var found *Job
	for i := range s.jobs {
		if s.jobs[i].Name == name {
			found = &s.jobs[i]
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return false
	}
	found.Run(ctx)
	return true
}

// JobNames lists the scheduled jobs in registration order.
func (s *Service) JobNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for _, j := range s.jobs {
		names = append(names, j.Name)
	}
	return names
}

// Gauge receives the cache size after each report. *metrics.Metrics
// implements it.
type Gauge interface {
	SetCacheEntries(n int)
}

// CacheReport logs the cache counters and publishes the entry count.
func CacheReport(spec string, rc *cache.ResultCache, g Gauge) Job {
	return Job{
		Name: "cache-report",
		Spec: spec,
		Run: func(context.Context) {
			st := rc.Stats()
			if g != nil {
				g.SetCacheEntries(st.Size)
			}
			slog.Info("cache stats",
				"size", st.Size,
				"capacity", st.Capacity,
				"hits", st.Hits,
				"misses", st.Misses,
				"evictions", st.Evictions,
				"hit_ratio", fmt.Sprintf("%.2f", st.HitRatio()),
			)
		},
	}
}

// CachePurge drops every cached result on schedule.
func CachePurge(spec string, rc *cache.ResultCache) Job {
	return Job{
		Name: "cache-purge",
		Spec: spec,
		Run: func(context.Context) {
			size := rc.Stats().Size
			rc.Purge()
			slog.Info("cache purged", "dropped", size)
		},
	}
}
