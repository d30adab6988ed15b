package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"flux_irrigation/internal/logger"
	"flux_irrigation/internal/models"
	"flux_irrigation/internal/repository"
)

// ChangeLogKeep is how many change log rows survive each append.
const ChangeLogKeep = 1000

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

type ChangeLogService struct {
	repo repository.ChangeLogRepo
	log  *logger.Logger
}

func NewChangeLogService(repo repository.ChangeLogRepo, log *logger.Logger) *ChangeLogService {
	return &ChangeLogService{repo: repo, log: log}
}

// Record appends an entry and trims the log. Failures are logged, never
// returned: a lost audit line must not fail the change it describes.
func (s *ChangeLogService) Record(ctx context.Context, actor, category, description string, details any) {
	err := s.repo.Append(ctx, models.ChangeLogEntry{
		Actor:       actor,
		Category:    category,
		Description: description,
		Details:     details,
	})
	if err != nil {
		s.log.Errorw("changelog_append_failed", "actor", actor, "category", category, "err", err)
		return
	}
	if _, err := s.repo.Trim(ctx, ChangeLogKeep); err != nil {
		s.log.Warnw("changelog_trim_failed", "err", err)
	}
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeFilter prepares query parameters and validates the time range.
func normalizeFilter(f ChangeLogFilter) (repository.ChangeLogQuery, error) {
	q := repository.ChangeLogQuery{
		From:     normalizeToUTC(f.From),
		To:       normalizeToUTC(f.To),
		Actor:    strings.TrimSpace(f.Actor),
		Category: strings.TrimSpace(f.Category),
		Limit:    f.Limit,
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return repository.ChangeLogQuery{}, errInvalidTimeRange
	}
	if q.Limit <= 0 || q.Limit > ChangeLogKeep {
		q.Limit = ChangeLogKeep
	}
	return q, nil
}

func (s *ChangeLogService) List(ctx context.Context, f ChangeLogFilter) ([]models.ChangeLogEntry, error) {
	q, err := normalizeFilter(f)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, q)
}
