package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	goerrors "errors"
	"time"

	"github.com/reshetovitsme/channel-relay/internal/modules/rule/domain"
	"github.com/reshetovitsme/channel-relay/internal/shared/database"
	"github.com/reshetovitsme/channel-relay/internal/shared/errors"
	"github.com/samber/oops"
)

const ruleColumns = `id, name, source_chat_id, destination_chat_id, is_active, block_links, block_usernames,
	blacklist_words, whitelist_words, text_replacements, header_text, footer_text, forward_mode,
	forward_delay, schedule_start, schedule_end, forwarded_count, last_triggered`

// SQLStorage implements Repository on the shared relational store.
type SQLStorage struct {
	db *database.DB
}

// NewSQLStorage creates a rule repository backed by db.
func NewSQLStorage(db *database.DB) Repository {
	return &SQLStorage{db: db}
}

func (s *SQLStorage) Insert(ctx context.Context, rule *domain.ForwardRule) error {
	blacklist, err := json.Marshal(nonNil(rule.BlacklistWords))
	if err != nil {
		return oops.In("rule-repository").Wrap(err)
	}
	whitelist, err := json.Marshal(nonNil(rule.WhitelistWords))
	if err != nil {
		return oops.In("rule-repository").Wrap(err)
	}
	replacements := rule.Replacements
	if replacements == nil {
		replacements = []domain.Replacement{}
	}
	mapping, err := json.Marshal(replacements)
	if err != nil {
		return oops.In("rule-repository").Wrap(err)
	}
	name := rule.Name
	if name == "" {
		name = domain.DefaultName
	}
	mode := rule.Mode
	if mode == "" {
		mode = domain.ForwardModeFORWARD
	}

	query := s.db.Rebind(`INSERT INTO forward_rules
		(name, source_chat_id, destination_chat_id, is_active, block_links, block_usernames,
		 blacklist_words, whitelist_words, text_replacements, header_text, footer_text, forward_mode,
		 forward_delay, schedule_start, schedule_end, forwarded_count, last_triggered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err = s.db.QueryRowContext(ctx, query,
		name, rule.Source, rule.Destination, rule.IsActive, rule.BlockLinks, rule.BlockUsernames,
		string(blacklist), string(whitelist), string(mapping), nullString(rule.HeaderText), nullString(rule.FooterText),
		string(mode), int64(rule.ForwardDelay/time.Second), nullString(rule.ScheduleStart), nullString(rule.ScheduleEnd),
		rule.ForwardedCount, nullMillis(rule.LastTriggered),
	).Scan(&rule.ID)
	if err != nil {
		return oops.In("rule-repository").With("source", rule.Source, "destination", rule.Destination).Wrap(errors.Persistence(err))
	}
	rule.Name = name
	rule.Mode = mode
	return nil
}

func (s *SQLStorage) ListActive(ctx context.Context) ([]*domain.ForwardRule, error) {
	return s.list(ctx, s.db.Rebind(`SELECT `+ruleColumns+` FROM forward_rules WHERE is_active = ? ORDER BY id`), true)
}

func (s *SQLStorage) ListAll(ctx context.Context) ([]*domain.ForwardRule, error) {
	return s.list(ctx, `SELECT `+ruleColumns+` FROM forward_rules ORDER BY id`)
}

func (s *SQLStorage) Get(ctx context.Context, id int64) (*domain.ForwardRule, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+ruleColumns+` FROM forward_rules WHERE id = ?`), id)
	rule, err := scanRule(row)
	if goerrors.Is(err, sql.ErrNoRows) {
		return nil, oops.In("rule-repository").With("rule_id", id).Wrap(errors.ErrRuleNotFound)
	}
	if err != nil {
		return nil, oops.In("rule-repository").With("rule_id", id).Wrap(errors.Persistence(err))
	}
	return rule, nil
}

func (s *SQLStorage) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`UPDATE forward_rules SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return oops.In("rule-repository").With("rule_id", id).Wrap(errors.Persistence(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return oops.In("rule-repository").With("rule_id", id).Wrap(errors.ErrRuleNotFound)
	}
	return nil
}

func (s *SQLStorage) RecordForward(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE forward_rules SET forwarded_count = forwarded_count + 1, last_triggered = ? WHERE id = ?`),
		at.UnixMilli(), id)
	if err != nil {
		return oops.In("rule-repository").With("rule_id", id).Wrap(errors.Persistence(err))
	}
	return nil
}

func (s *SQLStorage) list(ctx context.Context, query string, args ...any) ([]*domain.ForwardRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.In("rule-repository").Wrap(errors.Persistence(err))
	}
	defer rows.Close()

	var rules []*domain.ForwardRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, oops.In("rule-repository").Wrap(errors.Persistence(err))
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.In("rule-repository").Wrap(errors.Persistence(err))
	}
	return rules, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (*domain.ForwardRule, error) {
	var (
		rule                        domain.ForwardRule
		blacklist, whitelist, pairs string
		header, footer              sql.NullString
		start, end                  sql.NullString
		mode                        string
		delaySeconds                int64
		lastTriggered               sql.NullInt64
	)
	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Source, &rule.Destination, &rule.IsActive, &rule.BlockLinks, &rule.BlockUsernames,
		&blacklist, &whitelist, &pairs, &header, &footer, &mode,
		&delaySeconds, &start, &end, &rule.ForwardedCount, &lastTriggered,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(blacklist), &rule.BlacklistWords); err != nil {
		return nil, oops.With("rule_id", rule.ID, "column", "blacklist_words").Wrap(err)
	}
	if err := json.Unmarshal([]byte(whitelist), &rule.WhitelistWords); err != nil {
		return nil, oops.With("rule_id", rule.ID, "column", "whitelist_words").Wrap(err)
	}
	if err := json.Unmarshal([]byte(pairs), &rule.Replacements); err != nil {
		return nil, oops.With("rule_id", rule.ID, "column", "text_replacements").Wrap(err)
	}

	rule.HeaderText = header.String
	rule.FooterText = footer.String
	rule.ScheduleStart = start.String
	rule.ScheduleEnd = end.String
	rule.Mode = domain.ForwardMode(mode)
	rule.ForwardDelay = time.Duration(delaySeconds) * time.Second
	if lastTriggered.Valid {
		at := time.UnixMilli(lastTriggered.Int64)
		rule.LastTriggered = &at
	}
	return &rule, nil
}

func nonNil(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
