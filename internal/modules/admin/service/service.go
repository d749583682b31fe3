package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/admin/domain"
	channelDomain "github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
	channelService "github.com/reshetovitsme/channel-relay/internal/modules/channel/service"
	ruleDomain "github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
	scheduleDomain "github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Callback data understood by Callback.
const (
	CallbackMain         = "main"
	CallbackForwardMenu  = "fwd_mgr"
	CallbackSchedule     = "sch_mgr"
	CallbackGlobalInfo   = "global_info"
	CallbackNewRule      = "new_rule"
	CallbackListRules    = "list_rules"
	CallbackRulePrefix   = "rule_"
	CallbackTogglePrefix = "toggle_"
	CallbackAddChannel   = "add_ch"
	CallbackListChannel  = "list_ch"
	CallbackManagePrefix = "mng_sch_"
	CallbackNewPost      = "new_post"
)

// RuleStore is the subset of the rule service used by the admin flow.
type RuleStore interface {
	Create(ctx context.Context, rule *ruleDomain.ForwardRule) error
	ListAll(ctx context.Context) ([]*ruleDomain.ForwardRule, error)
	Get(ctx context.Context, id int64) (*ruleDomain.ForwardRule, error)
	Toggle(ctx context.Context, id int64) (*ruleDomain.ForwardRule, error)
}

// ChannelStore is the subset of the channel service used by the admin flow.
type ChannelStore interface {
	Register(ctx context.Context, resolver channelService.Resolver, ref string) (*channelDomain.Channel, error)
	GetChannel(ctx context.Context, channelID int64) (*channelDomain.Channel, error)
	GetAllChannels(ctx context.Context) ([]*channelDomain.Channel, error)
}

// PostStore is the subset of the schedule service used by the admin flow.
type PostStore interface {
	Create(ctx context.Context, channelID int64, photoID, caption, postTime string) (*scheduleDomain.ScheduledPost, error)
	ListByChannel(ctx context.Context, channelID int64) ([]*scheduleDomain.ScheduledPost, error)
}

// Service drives the administrator conversation: menus, rule creation,
// channel registration and post scheduling.
type Service struct {
	adminID  int64
	ttl      time.Duration
	loc      *time.Location
	rules    RuleStore
	channels ChannelStore
	posts    PostStore
	resolver channelService.Resolver
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[int64]*domain.Session
}

// New creates a new admin service
func New(adminID int64, ttl time.Duration, loc *time.Location, rules RuleStore, channels ChannelStore, posts PostStore, resolver channelService.Resolver) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		adminID:  adminID,
		ttl:      ttl,
		loc:      loc,
		rules:    rules,
		channels: channels,
		posts:    posts,
		resolver: resolver,
		logger:   slog.Default().With("component", "admin"),
		now:      time.Now,
		sessions: make(map[int64]*domain.Session),
	}
}

// IsAdmin reports whether userID may use the admin surface.
func (s *Service) IsAdmin(userID int64) bool {
	return userID != 0 && userID == s.adminID
}

// State returns the current conversation state of userID.
func (s *Service) State(userID int64) domain.State {
	return s.session(userID).State
}

// Start resets the conversation and shows the main menu.
func (s *Service) Start(userID int64) domain.Reply {
	s.reset(userID)
	return domain.Reply{
		Text:     "💎 Channel Relay\nForwarding rules and scheduled posts.",
		Keyboard: mainMenu(),
	}
}

// Callback handles an inline keyboard press.
func (s *Service) Callback(ctx context.Context, userID int64, data string) (domain.Reply, error) {
	switch data {
	case CallbackMain:
		s.reset(userID)
		return domain.Reply{Text: "Main Menu:", Keyboard: mainMenu(), Edit: true}, nil
	case CallbackForwardMenu:
		return domain.Reply{Text: "Forwarding Rules:", Keyboard: forwardMenu(), Edit: true}, nil
	case CallbackSchedule:
		return domain.Reply{Text: "Post Scheduler:", Keyboard: scheduleMenu(), Edit: true}, nil
	case CallbackGlobalInfo:
		return s.globalInfo(ctx)
	case CallbackNewRule:
		s.save(userID, domain.Session{State: domain.StateAwaitSource})
		return domain.Reply{Text: "Send Source Channel ID (numeric id or @username):", Edit: true}, nil
	case CallbackListRules:
		return s.listRules(ctx)
	case CallbackAddChannel:
		s.save(userID, domain.Session{State: domain.StateAwaitChannel})
		return domain.Reply{Text: "📩 Send the channel @username or id:", Edit: true}, nil
	case CallbackListChannel:
		return s.listChannels(ctx)
	case CallbackNewPost:
		sess := s.session(userID)
		if sess.ChannelID == 0 {
			return domain.Reply{Text: "Select a channel first.", Keyboard: scheduleMenu(), Edit: true}, nil
		}
		s.save(userID, domain.Session{State: domain.StateAwaitPhoto, ChannelID: sess.ChannelID})
		return domain.Reply{Text: "🖼 Send the photo (its caption is used as the post caption):", Edit: true}, nil
	}

	if raw, ok := strings.CutPrefix(data, CallbackRulePrefix); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Reply{}, oops.With("data", data).Wrap(errors.ErrValidation)
		}
		rule, err := s.rules.Get(ctx, id)
		if err != nil {
			return domain.Reply{}, err
		}
		return ruleCard(rule, s.loc), nil
	}
	if raw, ok := strings.CutPrefix(data, CallbackTogglePrefix); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Reply{}, oops.With("data", data).Wrap(errors.ErrValidation)
		}
		rule, err := s.rules.Toggle(ctx, id)
		if err != nil {
			return domain.Reply{}, err
		}
		s.logger.Info("Rule toggled", "rule_id", rule.ID, "active", rule.IsActive)
		return ruleCard(rule, s.loc), nil
	}
	if raw, ok := strings.CutPrefix(data, CallbackManagePrefix); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.Reply{}, oops.With("data", data).Wrap(errors.ErrValidation)
		}
		return s.manageChannel(ctx, userID, id)
	}

	return domain.Reply{}, oops.With("data", data).Wrap(errors.ErrValidation)
}

// Text handles a plain text message. It returns nil when no step expects text.
func (s *Service) Text(ctx context.Context, userID int64, text string) (*domain.Reply, error) {
	sess := s.session(userID)
	text = strings.TrimSpace(text)

	switch sess.State {
	case domain.StateAwaitSource:
		if err := ruleDomain.ValidateChatRef(text); err != nil {
			return &domain.Reply{Text: "❌ Send a numeric chat id or an @username."}, nil
		}
		s.save(userID, domain.Session{State: domain.StateAwaitDestination, Source: text})
		return &domain.Reply{Text: "Send Destination Channel ID (numeric id or @username):"}, nil

	case domain.StateAwaitDestination:
		rule := ruleDomain.New(sess.Source, text)
		rule.Name = "rule_" + strings.TrimPrefix(sess.Source, "@")
		if err := s.rules.Create(ctx, rule); err != nil {
			if errors.IsValidation(err) {
				return &domain.Reply{Text: "❌ Send a numeric chat id or an @username."}, nil
			}
			return nil, err
		}
		s.reset(userID)
		s.logger.Info("Rule created", "rule_id", rule.ID, "source", rule.Source, "destination", rule.Destination)
		return &domain.Reply{
			Text:     fmt.Sprintf("✅ Rule #%d created: %s → %s", rule.ID, rule.Source, rule.Destination),
			Keyboard: forwardMenu(),
		}, nil

	case domain.StateAwaitChannel:
		channel, err := s.channels.Register(ctx, s.resolver, text)
		if err != nil {
			if errors.IsValidation(err) {
				return &domain.Reply{Text: "❌ Invalid Channel."}, nil
			}
			return nil, err
		}
		s.reset(userID)
		s.logger.Info("Channel registered", "channel_id", channel.ID, "name", channel.Name)
		return &domain.Reply{Text: "✅ Added: " + channel.Name, Keyboard: scheduleMenu()}, nil

	case domain.StateAwaitPhoto:
		return &domain.Reply{Text: "🖼 Send a photo, not text."}, nil

	case domain.StateAwaitTime:
		post, err := s.posts.Create(ctx, sess.ChannelID, sess.PhotoID, sess.Caption, text)
		if err != nil {
			if errors.IsValidation(err) {
				return &domain.Reply{Text: "❌ Use HH:MM format."}, nil
			}
			return nil, err
		}
		s.reset(userID)
		s.logger.Info("Post scheduled", "post_id", post.ID, "channel_id", post.ChannelID, "post_time", post.PostTime)
		return &domain.Reply{
			Text:     fmt.Sprintf("✅ Scheduled daily at %s (%s)", post.PostTime, s.loc.String()),
			Keyboard: scheduleMenu(),
		}, nil
	}

	return nil, nil
}

// Photo handles a photo message. It returns nil unless a post is awaiting its photo.
func (s *Service) Photo(userID int64, photoID, caption string) *domain.Reply {
	sess := s.session(userID)
	if sess.State != domain.StateAwaitPhoto || photoID == "" {
		return nil
	}
	s.save(userID, domain.Session{
		State:     domain.StateAwaitTime,
		ChannelID: sess.ChannelID,
		PhotoID:   photoID,
		Caption:   caption,
	})
	return &domain.Reply{Text: fmt.Sprintf("⏰ Send the time (HH:MM, %s):", s.loc.String())}
}

func (s *Service) globalInfo(ctx context.Context) (domain.Reply, error) {
	rules, err := s.rules.ListAll(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	channels, err := s.channels.GetAllChannels(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	active := lo.CountBy(rules, func(r *ruleDomain.ForwardRule) bool { return r.IsActive })
	forwarded := lo.SumBy(rules, func(r *ruleDomain.ForwardRule) int64 { return r.ForwardedCount })

	text := fmt.Sprintf("📊 Global Info:\n\nRules: %d (Active: %d)\nForwarded: %d\nChannels: %d\nTimezone: %s\nNow: %s",
		len(rules), active, forwarded, len(channels), s.loc.String(), s.now().In(s.loc).Format("2006-01-02 15:04"))
	return domain.Reply{Text: text, Keyboard: [][]domain.Button{backRow(CallbackMain)}, Edit: true}, nil
}

func (s *Service) listRules(ctx context.Context) (domain.Reply, error) {
	rules, err := s.rules.ListAll(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	keyboard := lo.Map(rules, func(r *ruleDomain.ForwardRule, _ int) []domain.Button {
		return domain.Row(domain.Button{
			Text: fmt.Sprintf("#%d %s", r.ID, r.Name),
			Data: CallbackRulePrefix + strconv.FormatInt(r.ID, 10),
		})
	})
	keyboard = append(keyboard, backRow(CallbackForwardMenu))

	text := "Select Rule:"
	if len(rules) == 0 {
		text = "📭 No rules yet."
	}
	return domain.Reply{Text: text, Keyboard: keyboard, Edit: true}, nil
}

func (s *Service) listChannels(ctx context.Context) (domain.Reply, error) {
	channels, err := s.channels.GetAllChannels(ctx)
	if err != nil {
		return domain.Reply{}, err
	}
	keyboard := lo.Map(channels, func(c *channelDomain.Channel, _ int) []domain.Button {
		return domain.Row(domain.Button{
			Text: c.Name,
			Data: CallbackManagePrefix + strconv.FormatInt(c.ID, 10),
		})
	})
	keyboard = append(keyboard, backRow(CallbackSchedule))

	text := "Select Channel:"
	if len(channels) == 0 {
		text = "📭 No channels registered yet."
	}
	return domain.Reply{Text: text, Keyboard: keyboard, Edit: true}, nil
}

func (s *Service) manageChannel(ctx context.Context, userID, channelID int64) (domain.Reply, error) {
	channel, err := s.channels.GetChannel(ctx, channelID)
	if err != nil {
		return domain.Reply{}, err
	}
	posts, err := s.posts.ListByChannel(ctx, channelID)
	if err != nil {
		return domain.Reply{}, err
	}
	s.save(userID, domain.Session{State: domain.StateIdle, ChannelID: channelID})

	var text strings.Builder
	fmt.Fprintf(&text, "Channel: %s (%d)\n", channel.Name, channel.ID)
	if len(posts) == 0 {
		text.WriteString("\nNo scheduled posts.")
	}
	for _, p := range posts {
		fmt.Fprintf(&text, "\n⏰ %s  %s", p.PostTime, lo.Ternary(p.Caption == "", "(no caption)", p.Caption))
	}

	return domain.Reply{
		Text: text.String(),
		Keyboard: [][]domain.Button{
			domain.Row(domain.Button{Text: "➕ New Post", Data: CallbackNewPost}),
			backRow(CallbackListChannel),
		},
		Edit: true,
	}, nil
}

func (s *Service) session(userID int64) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return domain.Session{State: domain.StateIdle}
	}
	if sess.Expired(s.now(), s.ttl) {
		delete(s.sessions, userID)
		return domain.Session{State: domain.StateIdle}
	}
	return *sess
}

func (s *Service) save(userID int64, sess domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess.UpdatedAt = s.now()
	s.sessions[userID] = &sess
}

func (s *Service) reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
}

func ruleCard(rule *ruleDomain.ForwardRule, loc *time.Location) domain.Reply {
	last := "never"
	if rule.LastTriggered != nil {
		last = rule.LastTriggered.In(loc).Format("2006-01-02 15:04")
	}
	window := "always"
	if rule.ScheduleStart != "" {
		window = rule.ScheduleStart + "–" + rule.ScheduleEnd
	}

	text := fmt.Sprintf("Rule #%d %s\n\nSource: %s\nDestination: %s\nStatus: %s\nMode: %s\nBlock links: %s\nBlock usernames: %s\nWindow: %s\nForwarded: %d\nLast: %s",
		rule.ID, rule.Name, rule.Source, rule.Destination,
		lo.Ternary(rule.IsActive, "✅ active", "⏸️ paused"),
		rule.Mode, onOff(rule.BlockLinks), onOff(rule.BlockUsernames),
		window, rule.ForwardedCount, last)

	return domain.Reply{
		Text: text,
		Keyboard: [][]domain.Button{
			domain.Row(domain.Button{
				Text: lo.Ternary(rule.IsActive, "⏸️ Pause", "▶️ Resume"),
				Data: CallbackTogglePrefix + strconv.FormatInt(rule.ID, 10),
			}),
			backRow(CallbackListRules),
		},
		Edit: true,
	}
}

func onOff(v bool) string {
	return lo.Ternary(v, "on", "off")
}

func mainMenu() [][]domain.Button {
	return [][]domain.Button{
		domain.Row(
			domain.Button{Text: "🔄 Forward Rules", Data: CallbackForwardMenu},
			domain.Button{Text: "📅 Post Scheduler", Data: CallbackSchedule},
		),
		domain.Row(domain.Button{Text: "⚙️ Global Info", Data: CallbackGlobalInfo}),
	}
}

func forwardMenu() [][]domain.Button {
	return [][]domain.Button{
		domain.Row(domain.Button{Text: "➕ New Rule", Data: CallbackNewRule}),
		domain.Row(domain.Button{Text: "📜 List Rules", Data: CallbackListRules}),
		backRow(CallbackMain),
	}
}

func scheduleMenu() [][]domain.Button {
	return [][]domain.Button{
		domain.Row(domain.Button{Text: "➕ Add Channel", Data: CallbackAddChannel}),
		domain.Row(domain.Button{Text: "📋 My Channels", Data: CallbackListChannel}),
		backRow(CallbackMain),
	}
}

func backRow(data string) []domain.Button {
	return domain.Row(domain.Button{Text: "⬅️ Back", Data: data})
}
