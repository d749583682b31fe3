package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/reshetovitsme/channel-relay/internal/shared/timeofday"
	"github.com/samber/oops"
)

// DefaultName is used for rules created without a display name.
const DefaultName = "unnamed_rule"

// ForwardRule describes a source -> destination relay with its filters and
// text transforms.
type ForwardRule struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	Source         string        `json:"source_chat_id"`
	Destination    string        `json:"destination_chat_id"`
	IsActive       bool          `json:"is_active"`
	BlockLinks     bool          `json:"block_links"`
	BlockUsernames bool          `json:"block_usernames"`
	BlacklistWords []string      `json:"blacklist_words"`
	WhitelistWords []string      `json:"whitelist_words"`
	Replacements   []Replacement `json:"text_replacements"`
	HeaderText     string        `json:"header_text,omitempty"`
	FooterText     string        `json:"footer_text,omitempty"`
	Mode           ForwardMode   `json:"forward_mode"`
	ForwardDelay   time.Duration `json:"forward_delay"`
	ScheduleStart  string        `json:"schedule_start,omitempty"`
	ScheduleEnd    string        `json:"schedule_end,omitempty"`
	ForwardedCount int64         `json:"forwarded_count"`
	LastTriggered  *time.Time    `json:"last_triggered,omitempty"`
}

// Replacement is one find -> replace pair. Pairs are applied in order.
type Replacement struct {
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// New returns an active rule with default settings.
func New(source, destination string) *ForwardRule {
	return &ForwardRule{
		Name:           DefaultName,
		Source:         strings.TrimSpace(source),
		Destination:    strings.TrimSpace(destination),
		IsActive:       true,
		BlacklistWords: []string{},
		WhitelistWords: []string{},
		Replacements:   []Replacement{},
		Mode:           ForwardModeFORWARD,
	}
}

// Validate checks the invariants a rule must satisfy before it is stored.
func (r *ForwardRule) Validate() error {
	if err := ValidateChatRef(r.Source); err != nil {
		return oops.With("field", "source").Wrap(err)
	}
	if err := ValidateChatRef(r.Destination); err != nil {
		return oops.With("field", "destination").Wrap(err)
	}
	if r.ForwardDelay < 0 {
		return oops.With("field", "forward_delay").Wrap(errors.ErrValidation)
	}
	if (r.ScheduleStart == "") != (r.ScheduleEnd == "") {
		return oops.With("field", "schedule").Wrap(errors.ErrInvalidWindow)
	}
	for _, bound := range []string{r.ScheduleStart, r.ScheduleEnd} {
		if bound == "" {
			continue
		}
		if _, _, err := timeofday.Parse(bound); err != nil {
			return oops.With("field", "schedule", "value", bound).Wrap(errors.ErrInvalidWindow)
		}
	}
	if !r.Mode.IsValid() {
		return oops.With("field", "forward_mode", "value", r.Mode).Wrap(errors.ErrValidation)
	}
	return nil
}

// ValidateChatRef accepts a numeric chat id or an @handle.
func ValidateChatRef(ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return errors.ErrEmptyIdentifier
	}
	if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return nil
	}
	if strings.HasPrefix(ref, "@") && len(ref) > 1 && !strings.ContainsAny(ref, " \t\n") {
		return nil
	}
	return oops.With("value", ref).Wrap(errors.ErrInvalidChatRef)
}
