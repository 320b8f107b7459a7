package repository

import (
	"context"

	"github.com/a2developers/website/backend/go-services/internal/demo"
)

// Repository persists demo requests. Implementations assign ID when empty and
// return List newest first.
type Repository interface {
	Create(ctx context.Context, d *demo.DemoRequest) error
	List(ctx context.Context) ([]*demo.DemoRequest, error)
}
