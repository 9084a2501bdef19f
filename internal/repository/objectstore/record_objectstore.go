package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"recordapi/internal/model"
	"recordapi/internal/repository"
	"recordapi/internal/storage"
)

const prefix = "records/"

// RecordObjects stores each record as a JSON object under records/<id>.json.
type RecordObjects struct {
	store storage.Storage
}

// NewRecordObjects creates a new RecordObjects repository.
func NewRecordObjects(store storage.Storage) *RecordObjects {
	return &RecordObjects{store: store}
}

var _ repository.RecordRepository = (*RecordObjects)(nil)

// Key returns the object key holding the record with the given id.
// The id is path-escaped so every id maps to its own key directly under records/.
func Key(id string) string {
	return prefix + url.PathEscape(id) + ".json"
}

// Put overwrites the record's object.
func (r *RecordObjects) Put(ctx context.Context, rec *model.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = r.store.Put(ctx, Key(rec.ID), bytes.NewReader(b), storage.PutObjectOptions{
		Size:        int64(len(b)),
		ContentType: "application/json",
	})
	return err
}

// Scan lists the record prefix and reads every object.
func (r *RecordObjects) Scan(ctx context.Context) ([]model.Record, error) {
	objs, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	items := make([]model.Record, 0, len(objs))
	for _, obj := range objs {
		rec, err := r.read(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", obj.Key, err)
		}
		items = append(items, rec)
	}
	return items, nil
}

func (r *RecordObjects) read(ctx context.Context, key string) (model.Record, error) {
	rc, _, err := r.store.Get(ctx, key)
	if err != nil {
		return model.Record{}, err
	}
	defer rc.Close()

	var rec model.Record
	if err := json.NewDecoder(rc).Decode(&rec); err != nil {
		return model.Record{}, err
	}
	return rec, nil
}
