package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"recordapi/internal/model"
	"recordapi/internal/repository"
)

var (
	ErrIncompleteRecord = errors.New("record requires id, year and title")
	ErrStoreWrite       = errors.New("store write failed")
)

var tracer = otel.Tracer("recordapi/internal/service")

// RecordService defines the use cases for records.
type RecordService interface {
	// Insert writes one complete record and returns it as stored.
	Insert(ctx context.Context, rec model.Record) (*model.Record, error)

	// List returns every stored record in one unpaginated read.
	List(ctx context.Context) ([]model.Record, error)
}

type recordService struct {
	repo repository.RecordRepository
}

// NewRecordService constructs a new RecordService.
func NewRecordService(repo repository.RecordRepository) RecordService {
	return &recordService{repo: repo}
}

func (s *recordService) Insert(ctx context.Context, rec model.Record) (*model.Record, error) {
	ctx, span := tracer.Start(ctx, "record.insert", trace.WithAttributes(attribute.String("record.id", rec.ID)))
	defer span.End()

	if !rec.Complete() {
		span.SetStatus(codes.Error, ErrIncompleteRecord.Error())
		return nil, ErrIncompleteRecord
	}
	if err := s.repo.Put(ctx, &rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return nil, fmt.Errorf("%w: %w", ErrStoreWrite, err)
	}
	return &rec, nil
}

func (s *recordService) List(ctx context.Context) ([]model.Record, error) {
	ctx, span := tracer.Start(ctx, "record.list")
	defer span.End()

	items, err := s.repo.Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scan failed")
		return nil, fmt.Errorf("scan records: %w", err)
	}
	if items == nil {
		items = []model.Record{}
	}
	span.SetAttributes(attribute.Int("record.count", len(items)))
	return items, nil
}
