package usecase

import (
	"context"

	"github.com/user/tariffs-service/internal/repository"
)

// TargetLister yields the spreadsheet ids a run exports to.
type TargetLister interface {
	ListTargets(ctx context.Context) ([]string, error)
}

// StaticTargets exports to a fixed list of spreadsheets.
type StaticTargets []string

func (s StaticTargets) ListTargets(context.Context) ([]string, error) {
	return append([]string(nil), s...), nil
}

type storedTargets struct {
	repo repository.SpreadsheetRepository
}

// NewStoredTargets lists targets from the spreadsheets table on every run.
func NewStoredTargets(repo repository.SpreadsheetRepository) TargetLister {
	return &storedTargets{repo: repo}
}

func (s *storedTargets) ListTargets(ctx context.Context) ([]string, error) {
	return s.repo.GetAllIDs(ctx)
}
