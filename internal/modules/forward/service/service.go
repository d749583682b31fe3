package service

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	messageDomain "github.com/reshetovitsme/channel-relay/internal/modules/message/domain"
	"github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/timeofday"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// RuleSource supplies the rules evaluated for every inbound message.
type RuleSource interface {
	ListActive(ctx context.Context) ([]*domain.ForwardRule, error)
	RecordForward(ctx context.Context, id int64, at time.Time) error
}

// Messenger performs one outbound send.
type Messenger interface {
	Send(ctx context.Context, out messageDomain.Outbound) error
}

// Skip reasons reported in logs.
const (
	SkipLinks     = "links blocked"
	SkipUsernames = "usernames blocked"
	SkipBlacklist = "blacklisted word"
	SkipWhitelist = "no whitelisted word"
	SkipWindow    = "outside schedule window"
	SkipEmpty     = "nothing to send"
)

var (
	linkMarkers = []string{"http", "t.me"}
	reMention   = regexp.MustCompile(`(?:^|[^\w@])@\w{5,32}`)
)

// Result summarizes the evaluation of one inbound message.
type Result struct {
	Matched int
	Sent    int
	Failed  int
	Skipped int
}

// Service relays inbound messages according to the active forwarding rules.
// Rules are evaluated one at a time; a failed send never stops the remaining rules.
type Service struct {
	rules     RuleSource
	messenger Messenger
	loc       *time.Location
	logger    *slog.Logger

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error
}

// New creates a new forwarding service
func New(rules RuleSource, messenger Messenger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		rules:     rules,
		messenger: messenger,
		loc:       loc,
		logger:    slog.Default().With("component", "forward"),
		now:       time.Now,
		wait:      sleep,
	}
}

// Handle evaluates ev against every active rule. Only a failure to read the
// rules is returned; send failures are logged and counted.
func (s *Service) Handle(ctx context.Context, ev messageDomain.Event) (Result, error) {
	var res Result

	rules, err := s.rules.ListActive(ctx)
	if err != nil {
		return res, oops.In("forward").With("chat_id", ev.ChatID).Wrap(err)
	}

	for _, rule := range rules {
		if !rule.IsActive || !Matches(rule, ev) {
			continue
		}
		res.Matched++

		now := s.now()
		text, reason := s.prepare(rule, ev, now)
		if reason != "" {
			res.Skipped++
			s.logger.Debug("Rule skipped", "rule_id", rule.ID, "chat_id", ev.ChatID, "reason", reason)
			continue
		}

		if rule.ForwardDelay > 0 {
			if err := s.wait(ctx, rule.ForwardDelay); err != nil {
				return res, oops.In("forward").With("rule_id", rule.ID).Wrap(err)
			}
		}

		out := messageDomain.Outbound{Destination: rule.Destination, Text: text, PhotoID: ev.PhotoID}
		if err := s.messenger.Send(ctx, out); err != nil {
			res.Failed++
			s.logger.Error("Failed to relay message", "rule_id", rule.ID, "chat_id", ev.ChatID, "destination", rule.Destination, "error", err)
			continue
		}
		res.Sent++

		if err := s.rules.RecordForward(ctx, rule.ID, now); err != nil {
			s.logger.Warn("Failed to record forward", "rule_id", rule.ID, "error", err)
		}
	}

	if res.Matched > 0 {
		s.logger.Info("Message relayed", "chat_id", ev.ChatID, "matched", res.Matched, "sent", res.Sent, "failed", res.Failed, "skipped", res.Skipped)
	}
	return res, nil
}

// prepare runs the filters in order and returns the text to send, or the
// reason the rule was skipped.
func (s *Service) prepare(rule *domain.ForwardRule, ev messageDomain.Event, now time.Time) (string, string) {
	text := ev.EffectiveText()

	if rule.BlockLinks && ContainsLink(text) {
		return "", SkipLinks
	}
	if rule.BlockUsernames && ContainsUsername(text) {
		return "", SkipUsernames
	}
	if ContainsAnyWord(text, rule.BlacklistWords) {
		return "", SkipBlacklist
	}
	if len(lo.Compact(rule.WhitelistWords)) > 0 && !ContainsAnyWord(text, rule.WhitelistWords) {
		return "", SkipWhitelist
	}

	inWindow, err := timeofday.InWindow(now, s.loc, rule.ScheduleStart, rule.ScheduleEnd)
	if err != nil {
		s.logger.Warn("Ignoring malformed schedule window", "rule_id", rule.ID, "start", rule.ScheduleStart, "end", rule.ScheduleEnd)
	} else if !inWindow {
		return "", SkipWindow
	}

	text = ApplyReplacements(text, rule.Replacements)
	text = Decorate(text, rule.HeaderText, rule.FooterText)

	if text == "" && !ev.HasPhoto() {
		return "", SkipEmpty
	}
	return text, ""
}

// Matches reports whether ev originates from the rule's source: either the
// numeric chat id or "@"+handle, compared exactly.
func Matches(rule *domain.ForwardRule, ev messageDomain.Event) bool {
	return slices.Contains(ev.ChatRefs(), rule.Source)
}

// ContainsLink reports whether text looks like it carries a link.
func ContainsLink(text string) bool {
	return lo.SomeBy(linkMarkers, func(marker string) bool {
		return strings.Contains(text, marker)
	})
}

// ContainsUsername reports whether text mentions an @username.
func ContainsUsername(text string) bool {
	return reMention.MatchString(text)
}

// ContainsAnyWord reports whether any non-empty word occurs in text, ignoring case.
func ContainsAnyWord(text string, words []string) bool {
	lower := strings.ToLower(text)
	return lo.SomeBy(words, func(word string) bool {
		word = strings.TrimSpace(word)
		return word != "" && strings.Contains(lower, strings.ToLower(word))
	})
}

// ApplyReplacements applies the pairs in order, each on the output of the
// previous one, so a later pair can rewrite text produced by an earlier pair.
func ApplyReplacements(text string, pairs []domain.Replacement) string {
	for _, pair := range pairs {
		if pair.Find == "" {
			continue
		}
		text = strings.ReplaceAll(text, pair.Find, pair.Replace)
	}
	return text
}

// Decorate wraps text with the optional header and footer, separated by a blank line.
func Decorate(text, header, footer string) string {
	return strings.Join(lo.Compact([]string{header, text, footer}), "\n\n")
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
