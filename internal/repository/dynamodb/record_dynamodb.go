package dynamodb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"recordapi/internal/model"
	"recordapi/internal/repository"
)

// Attribute names of a record item. id is the table's partition key.
const (
	attrID    = "id"
	attrYear  = "year"
	attrTitle = "title"
)

var ErrTableNameRequired = errors.New("dynamodb: table name is required")

// RecordTable is a DynamoDB implementation of repository.RecordRepository.
type RecordTable struct {
	client    API
	tableName *string
	logger    *slog.Logger
}

// NewRecordTable binds a client to the named table.
func NewRecordTable(client API, tableName string, logger *slog.Logger) (*RecordTable, error) {
	if tableName == "" {
		return nil, ErrTableNameRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordTable{
		client:    client,
		tableName: aws.String(tableName),
		logger:    logger,
	}, nil
}

var _ repository.RecordRepository = (*RecordTable)(nil)

// TableName returns the bound table name.
func (t *RecordTable) TableName() string {
	return aws.ToString(t.tableName)
}

// Put writes the record as {id: S, year: N, title: S}. No condition expression is set,
// so concurrent writers of the same id resolve last-write-wins.
func (t *RecordTable) Put(ctx context.Context, rec *model.Record) error {
	_, err := t.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: t.tableName,
		Item:      marshalRecord(rec),
	})
	return err
}

// Scan issues a single Scan request and returns its page of items.
// Results beyond the first page (1 MB) are not fetched.
func (t *RecordTable) Scan(ctx context.Context) ([]model.Record, error) {
	out, err := t.client.Scan(ctx, &dynamodb.ScanInput{TableName: t.tableName})
	if err != nil {
		return nil, err
	}
	if len(out.LastEvaluatedKey) > 0 {
		t.logger.WarnContext(ctx, "scan result truncated to first page",
			slog.String("table", t.TableName()),
			slog.Int("items", len(out.Items)),
		)
	}

	items := make([]model.Record, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, unmarshalRecord(item))
	}
	return items, nil
}

func marshalRecord(rec *model.Record) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID:    &types.AttributeValueMemberS{Value: rec.ID},
		attrYear:  &types.AttributeValueMemberN{Value: rec.Year.String()},
		attrTitle: &types.AttributeValueMemberS{Value: rec.Title},
	}
}

func unmarshalRecord(item map[string]types.AttributeValue) model.Record {
	var rec model.Record
	if v, ok := item[attrID].(*types.AttributeValueMemberS); ok {
		rec.ID = v.Value
	}
	if v, ok := item[attrTitle].(*types.AttributeValueMemberS); ok {
		rec.Title = v.Value
	}
	switch v := item[attrYear].(type) {
	case *types.AttributeValueMemberN:
		rec.Year = model.Year(v.Value)
	case *types.AttributeValueMemberS:
		rec.Year = model.Year(v.Value)
	}
	return rec
}
