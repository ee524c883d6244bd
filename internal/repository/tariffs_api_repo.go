package repository

import (
	"context"

	"github.com/user/tariffs-service/internal/entity"
)

// TariffsAPI defines the contract for the remote tariffs dataset.
type TariffsAPI interface {
	// Ping is a lightweight liveness check.
	Ping(ctx context.Context) error
	// FetchTariffs downloads and decodes the dataset.
	FetchTariffs(ctx context.Context) (*entity.APIResponse, error)
}
