package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-notifier/internal/domain"
)

// EventRepo reads the tourism event catalog. The notifier never writes events.
type EventRepo struct {
	client    API
	tableName string
}

func NewEventRepo(client API, tableName string) *EventRepo {
	return &EventRepo{client: client, tableName: tableName}
}

// ListByDateRange returns events whose event_date lies in [from, to]. Dates
// are YYYY-MM-DD strings so lexical BETWEEN matches calendar order; callers
// still re-check each date since stored values are not guaranteed well formed.
// skipped counts matching items that could not be decoded.
func (r *EventRepo) ListByDateRange(ctx context.Context, from, to string) (events []domain.Event, skipped int, err error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		FilterExpression:         aws.String("#d BETWEEN :from AND :to"),
		ExpressionAttributeNames: map[string]string{"#d": fieldEventDate},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":from": &types.AttributeValueMemberS{Value: from},
			":to":   &types.AttributeValueMemberS{Value: to},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", r.tableName, err)
		}
		decoded, bad := unmarshalItems[domain.Event](r.tableName, page.Items)
		events = append(events, decoded...)
		skipped += bad
	}
	return events, skipped, nil
}
