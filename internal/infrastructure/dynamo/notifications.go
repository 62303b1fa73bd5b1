package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-notifier/internal/domain"
)

// LedgerRepo stores one item per (user_id, event_id) ever notified. The
// table's composite primary key is the uniqueness constraint.
type LedgerRepo struct {
	client    API
	tableName string
}

func NewLedgerRepo(client API, tableName string) *LedgerRepo {
	return &LedgerRepo{client: client, tableName: tableName}
}

func (r *LedgerRepo) Get(ctx context.Context, userID, eventID string) (*domain.LedgerEntry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey(fieldUserID, userID, fieldEventID, eventID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification %s/%s: %w", userID, eventID, domain.ErrNotFound)
	}
	var e domain.LedgerEntry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create writes e only if no entry exists for its pair. A lost race returns
// an error wrapping domain.ErrDuplicateDispatch.
func (r *LedgerRepo) Create(ctx context.Context, e *domain.LedgerEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#u) AND attribute_not_exists(#e)"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUserID, "#e": fieldEventID},
	})
	if isConditionalCheckFailed(err) {
		return fmt.Errorf("notification %s/%s: %w", e.UserID, e.EventID, domain.ErrDuplicateDispatch)
	}
	return err
}

// ListByUser returns every ledger entry for userID in event_id order.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID string) ([]domain.LedgerEntry, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		KeyConditionExpression:   aws.String("#u = :uid"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	var entries []domain.LedgerEntry
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", r.tableName, err)
		}
		decoded, _ := unmarshalItems[domain.LedgerEntry](r.tableName, page.Items)
		entries = append(entries, decoded...)
	}
	return entries, nil
}
