package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/a2developers/website/backend/go-services/internal/database"
	"github.com/a2developers/website/backend/go-services/internal/demo"
	"github.com/a2developers/website/backend/go-services/internal/demo/repository"
	"github.com/a2developers/website/backend/go-services/pkg/logger"
	"github.com/a2developers/website/backend/go-services/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/a2developers/website/backend/go-services/internal/demo/service"

// Service validates submissions and hands them to the repository.
type Service struct {
	repo   repository.Repository
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(r repository.Repository, opts ...Option) *Service {
	s := &Service{repo: r, now: time.Now, tracer: otel.Tracer(tracerName)}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewMemoryService returns a Service backed by the in-memory repository.
func NewMemoryService(opts ...Option) *Service {
	return NewService(repository.NewMemoryRepo(), opts...)
}

// Book validates req and stores it. Validation failures are *demo.ValidationError
// and nothing is written; database.ErrNotConnected passes through wrapped.
func (s *Service) Book(ctx context.Context, req demo.BookingRequest) (*demo.DemoRequest, error) {
	ctx, span := s.tracer.Start(ctx, "demo.Book")
	defer span.End()

	req = req.Normalize()
	if err := req.Validate(); err != nil {
		metrics.DemoBookings.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "validation failed")
		return nil, err
	}

	// stored timestamps have millisecond precision; truncate so the echo matches.
	d := &demo.DemoRequest{
		Name:      req.Name,
		Email:     req.Email,
		Company:   req.Company,
		Message:   req.Message,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		result := "error"
		if errors.Is(err, database.ErrNotConnected) {
			result = "unavailable"
		}
		metrics.DemoBookings.WithLabelValues(result).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("book demo: %w", err)
	}

	metrics.DemoBookings.WithLabelValues("created").Inc()
	span.SetAttributes(attribute.String("demo.id", d.ID))
	logger.InfoContext(ctx, "demo booked", "demo_id", d.ID, "has_company", d.Company != nil)
	return d, nil
}

// List returns every stored request, newest first.
func (s *Service) List(ctx context.Context) ([]*demo.DemoRequest, error) {
	ctx, span := s.tracer.Start(ctx, "demo.List")
	defer span.End()

	list, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list demos: %w", err)
	}
	span.SetAttributes(attribute.Int("demo.count", len(list)))
	return list, nil
}
