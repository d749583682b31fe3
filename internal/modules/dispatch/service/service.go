package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/reshetovitsme/channel-relay/internal/shared/timeofday"
	"github.com/robfig/cron/v3"
	"github.com/samber/oops"
)

// DefaultSpec fires once a minute, on the minute.
const DefaultSpec = "* * * * *"

// PostSource returns the posts due at a time of day.
type PostSource interface {
	ListAt(ctx context.Context, postTime string) ([]*domain.ScheduledPost, error)
}

// Messenger performs one outbound send.
type Messenger interface {
	Send(ctx context.Context, out messageDomain.Outbound) error
}

// Report summarizes one dispatcher tick.
type Report struct {
	Minute  string
	Matched int
	Sent    int
	Failed  int
	Skipped bool
}

// Service publishes scheduled photo posts when their HH:MM comes up.
type Service struct {
	posts     PostSource
	messenger Messenger
	loc       *time.Location
	spec      string
	logger    *slog.Logger
	now       func() time.Time

	tickMu     sync.Mutex
	lastMinute string

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// New creates a new dispatcher. An empty spec falls back to DefaultSpec.
func New(posts PostSource, messenger Messenger, loc *time.Location, spec string) *Service {
	if loc == nil {
		loc = time.Local
	}
	if strings.TrimSpace(spec) == "" {
		spec = DefaultSpec
	}
	return &Service{
		posts:     posts,
		messenger: messenger,
		loc:       loc,
		spec:      spec,
		logger:    slog.Default().With("component", "dispatcher"),
		now:       time.Now,
	}
}

// Start schedules Tick on the configured cron spec. Calling Start twice is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	job := func() {
		if _, err := s.Tick(runCtx); err != nil {
			s.logger.Error("Dispatcher tick failed", "error", err)
		}
	}
	if _, err := c.AddFunc(s.spec, job); err != nil {
		cancel()
		return oops.In("dispatcher").With("spec", s.spec).Wrap(err)
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.logger.Info("Dispatcher started", "spec", s.spec, "tz", s.loc.String())
	return nil
}

// Stop halts the cron loop and waits for a running tick, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	done := c.Stop().Done()
	cancel()

	select {
	case <-done:
		s.logger.Info("Dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick dispatches every post due at the current minute. A tick that overlaps
// a running one, or repeats an already dispatched day and minute, is skipped.
// A failed lookup is returned and leaves the minute open for a retry.
func (s *Service) Tick(ctx context.Context) (Report, error) {
	now := s.now().In(s.loc)
	minute := timeofday.Format(now, s.loc)
	stamp := now.Format("2006-01-02 " + timeofday.Layout)
	report := Report{Minute: minute}

	if !s.tickMu.TryLock() {
		report.Skipped = true
		return report, nil
	}
	defer s.tickMu.Unlock()

	if stamp == s.lastMinute {
		report.Skipped = true
		return report, nil
	}

	posts, err := s.posts.ListAt(ctx, minute)
	if err != nil {
		return report, oops.In("dispatcher").With("minute", minute).Wrap(errors.Persistence(err))
	}
	s.lastMinute = stamp
	report.Matched = len(posts)

	for _, post := range posts {
		if err := s.publish(ctx, post); err != nil {
			report.Failed++
			s.logger.Error("Failed to publish scheduled post", "post_id", post.ID, "channel_id", post.ChannelID, "error", err)
			continue
		}
		report.Sent++
		s.logger.Info("Scheduled post published", "post_id", post.ID, "channel_id", post.ChannelID, "minute", minute)
	}
	return report, nil
}

// publish sends the photo with a bold caption, retrying once with the plain
// caption when the rich send fails.
func (s *Service) publish(ctx context.Context, post *domain.ScheduledPost) error {
	out := messageDomain.Outbound{
		Destination: strconv.FormatInt(post.ChannelID, 10),
		PhotoID:     post.PhotoID,
		Text:        post.Caption,
	}
	if post.Caption == "" {
		return s.messenger.Send(ctx, out)
	}

	rich := out
	rich.Text = "*" + post.Caption + "*"
	rich.Rich = true
	err := s.messenger.Send(ctx, rich)
	if err == nil {
		return nil
	}
	s.logger.Warn("Rich caption rejected, retrying plain", "post_id", post.ID, "error", err)
	return s.messenger.Send(ctx, out)
}
