package service

import (
	"context"
	goerrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/admin/domain"
	channelDomain "github.com/reshetovitsme/channel-relay/internal/modules/channel/domain"
	channelService "github.com/reshetovitsme/channel-relay/internal/modules/channel/service"
	ruleDomain "github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
	ruleService "github.com/reshetovitsme/channel-relay/internal/modules/rule/service"
	scheduleDomain "github.com/reshetovitsme/channel-relay/internal/modules/schedule/domain"
	scheduleService "github.com/reshetovitsme/channel-relay/internal/modules/schedule/service"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
)

const adminID = 777

type memoryRules struct {
	rules []*ruleDomain.ForwardRule
}

func (m *memoryRules) Insert(_ context.Context, rule *ruleDomain.ForwardRule) error {
	rule.ID = int64(len(m.rules) + 1)
	m.rules = append(m.rules, rule)
	return nil
}

func (m *memoryRules) ListActive(ctx context.Context) ([]*ruleDomain.ForwardRule, error) {
	var out []*ruleDomain.ForwardRule
	for _, r := range m.rules {
		if r.IsActive {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryRules) ListAll(_ context.Context) ([]*ruleDomain.ForwardRule, error) {
	return m.rules, nil
}

func (m *memoryRules) Get(_ context.Context, id int64) (*ruleDomain.ForwardRule, error) {
	for _, r := range m.rules {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, errors.ErrRuleNotFound
}

func (m *memoryRules) SetActive(_ context.Context, id int64, active bool) error {
	for _, r := range m.rules {
		if r.ID == id {
			r.IsActive = active
			return nil
		}
	}
	return errors.ErrRuleNotFound
}

func (m *memoryRules) RecordForward(context.Context, int64, time.Time) error { return nil }

type memoryChannels struct {
	channels map[int64]*channelDomain.Channel
}

func (m *memoryChannels) SaveChannel(_ context.Context, c *channelDomain.Channel) error {
	m.channels[c.ID] = c
	return nil
}

func (m *memoryChannels) GetChannel(_ context.Context, id int64) (*channelDomain.Channel, error) {
	c, ok := m.channels[id]
	if !ok {
		return nil, errors.ErrInvalidChannel
	}
	return c, nil
}

func (m *memoryChannels) GetAllChannels(_ context.Context) ([]*channelDomain.Channel, error) {
	var out []*channelDomain.Channel
	for _, c := range m.channels {
		out = append(out, c)
	}
	return out, nil
}

type memoryPosts struct {
	posts []*scheduleDomain.ScheduledPost
}

func (m *memoryPosts) Insert(_ context.Context, p *scheduleDomain.ScheduledPost) error {
	p.ID = int64(len(m.posts) + 1)
	m.posts = append(m.posts, p)
	return nil
}

func (m *memoryPosts) ListAt(_ context.Context, postTime string) ([]*scheduleDomain.ScheduledPost, error) {
	var out []*scheduleDomain.ScheduledPost
	for _, p := range m.posts {
		if p.PostTime == postTime {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPosts) ListByChannel(_ context.Context, id int64) ([]*scheduleDomain.ScheduledPost, error) {
	var out []*scheduleDomain.ScheduledPost
	for _, p := range m.posts {
		if p.ChannelID == id {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeResolver struct {
	chats map[string]*channelService.ChatInfo
}

func (f fakeResolver) ResolveChat(_ context.Context, ref string) (*channelService.ChatInfo, error) {
	chat, ok := f.chats[ref]
	if !ok {
		return nil, goerrors.New("Bad Request: chat not found")
	}
	return chat, nil
}

type fixture struct {
	svc      *Service
	rules    *memoryRules
	channels *memoryChannels
	posts    *memoryPosts
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		rules:    &memoryRules{},
		channels: &memoryChannels{channels: map[int64]*channelDomain.Channel{}},
		posts:    &memoryPosts{},
	}
	resolver := fakeResolver{chats: map[string]*channelService.ChatInfo{
		"@daily": {ID: -100200, Title: "Daily Photos", Username: "daily"},
	}}
	f.svc = New(adminID, 15*time.Minute, time.UTC,
		ruleService.New(f.rules),
		channelService.New(f.channels),
		scheduleService.New(f.posts),
		resolver,
	)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	f.clock = &now
	f.svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *fixture) press(t *testing.T, data string) domain.Reply {
	t.Helper()
	reply, err := f.svc.Callback(context.Background(), adminID, data)
	if err != nil {
		t.Fatalf("callback %q: %v", data, err)
	}
	return reply
}

func (f *fixture) send(t *testing.T, text string) *domain.Reply {
	t.Helper()
	reply, err := f.svc.Text(context.Background(), adminID, text)
	if err != nil {
		t.Fatalf("text %q: %v", text, err)
	}
	return reply
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if !f.svc.IsAdmin(adminID) || f.svc.IsAdmin(1) || f.svc.IsAdmin(0) {
		t.Fatalf("unexpected admin check")
	}
}

func TestCreateRuleFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.press(t, CallbackNewRule)
	if got := f.svc.State(adminID); got != domain.StateAwaitSource {
		t.Fatalf("expected await_source, got %s", got)
	}

	if reply := f.send(t, "not a chat"); !strings.HasPrefix(reply.Text, "❌") {
		t.Fatalf("expected rejection, got %q", reply.Text)
	}
	if got := f.svc.State(adminID); got != domain.StateAwaitSource {
		t.Fatalf("expected to stay in await_source, got %s", got)
	}

	f.send(t, "@news")
	if got := f.svc.State(adminID); got != domain.StateAwaitDestination {
		t.Fatalf("expected await_destination, got %s", got)
	}

	reply := f.send(t, "-100300")
	if !strings.Contains(reply.Text, "created") {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if len(f.rules.rules) != 1 {
		t.Fatalf("expected one rule, got %d", len(f.rules.rules))
	}
	rule := f.rules.rules[0]
	if rule.Name != "rule_news" || rule.Source != "@news" || rule.Destination != "-100300" || !rule.IsActive {
		t.Fatalf("unexpected rule %+v", rule)
	}
	if got := f.svc.State(adminID); got != domain.StateIdle {
		t.Fatalf("expected idle, got %s", got)
	}
}

func TestToggleRule(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.press(t, CallbackNewRule)
	f.send(t, "-1001")
	f.send(t, "@dst")

	list := f.press(t, CallbackListRules)
	if len(list.Keyboard) != 2 || list.Keyboard[0][0].Data != "rule_1" {
		t.Fatalf("unexpected rule list %+v", list.Keyboard)
	}

	card := f.press(t, "toggle_1")
	if f.rules.rules[0].IsActive {
		t.Fatalf("expected rule paused")
	}
	if !strings.Contains(card.Text, "paused") {
		t.Fatalf("expected paused card, got %q", card.Text)
	}
}

func TestRegisterChannel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.press(t, CallbackAddChannel)

	if reply := f.send(t, "@missing"); reply.Text != "❌ Invalid Channel." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if got := f.svc.State(adminID); got != domain.StateAwaitChannel {
		t.Fatalf("expected to stay in await_channel, got %s", got)
	}

	reply := f.send(t, "@daily")
	if reply.Text != "✅ Added: Daily Photos" {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
	if _, ok := f.channels.channels[-100200]; !ok {
		t.Fatalf("expected channel stored")
	}
}

func schedulePhoto(t *testing.T, f *fixture) {
	t.Helper()
	f.channels.channels[-100200] = &channelDomain.Channel{ID: -100200, Name: "Daily Photos"}
	f.press(t, "mng_sch_-100200")
	f.press(t, CallbackNewPost)
	if reply := f.svc.Photo(adminID, "photo-1", "Sunset"); reply == nil {
		t.Fatalf("expected photo to be accepted")
	}
	if got := f.svc.State(adminID); got != domain.StateAwaitTime {
		t.Fatalf("expected await_time, got %s", got)
	}
}

func TestSchedulePost_TimeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		stored string
	}{
		{name: "missing colon", input: "1530"},
		{name: "hour out of range", input: "24:00"},
		{name: "minute out of range", input: "12:60"},
		{name: "padded", input: "09:05", stored: "09:05"},
		{name: "single digit hour", input: "9:05", stored: "09:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			schedulePhoto(t, f)

			reply := f.send(t, tt.input)
			if tt.stored == "" {
				if reply.Text != "❌ Use HH:MM format." {
					t.Fatalf("expected rejection, got %q", reply.Text)
				}
				if len(f.posts.posts) != 0 {
					t.Fatalf("expected nothing stored")
				}
				if got := f.svc.State(adminID); got != domain.StateAwaitTime {
					t.Fatalf("expected to stay in await_time, got %s", got)
				}
				return
			}

			if len(f.posts.posts) != 1 {
				t.Fatalf("expected one post, got %d", len(f.posts.posts))
			}
			post := f.posts.posts[0]
			if post.PostTime != tt.stored || post.ChannelID != -100200 || post.PhotoID != "photo-1" || post.Caption != "Sunset" {
				t.Fatalf("unexpected post %+v", post)
			}
		})
	}
}

func TestPhotoIgnoredOutsideFlow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if reply := f.svc.Photo(adminID, "photo", ""); reply != nil {
		t.Fatalf("expected idle session to ignore photos")
	}
	if reply := f.send(t, "hello"); reply != nil {
		t.Fatalf("expected idle session to ignore text")
	}
}

func TestSessionExpires(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.press(t, CallbackNewRule)
	*f.clock = f.clock.Add(16 * time.Minute)

	if got := f.svc.State(adminID); got != domain.StateIdle {
		t.Fatalf("expected expired session to be idle, got %s", got)
	}
	if reply := f.send(t, "@news"); reply != nil {
		t.Fatalf("expected no reply after expiry")
	}
}

func TestNewPostRequiresChannel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	reply := f.press(t, CallbackNewPost)
	if reply.Text != "Select a channel first." {
		t.Fatalf("unexpected reply %q", reply.Text)
	}
}

func TestUnknownCallback(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, err := f.svc.Callback(context.Background(), adminID, "bogus")
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGlobalInfo(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.press(t, CallbackNewRule)
	f.send(t, "-1001")
	f.send(t, "@dst")

	reply := f.press(t, CallbackGlobalInfo)
	if !strings.Contains(reply.Text, "Rules: 1 (Active: 1)") {
		t.Fatalf("unexpected info %q", reply.Text)
	}
}
