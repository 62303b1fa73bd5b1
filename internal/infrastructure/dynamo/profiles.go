package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-event-notifier/internal/domain"
)

// ProfileRepo reads user district preferences.
type ProfileRepo struct {
	client    API
	tableName string
}

func NewProfileRepo(client API, tableName string) *ProfileRepo {
	return &ProfileRepo{client: client, tableName: tableName}
}

// ListAll scans every profile, projecting only the attributes matching needs.
// skipped counts items that could not be decoded.
func (r *ProfileRepo) ListAll(ctx context.Context) (profiles []domain.UserProfile, skipped int, err error) {
	p := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName:                aws.String(r.tableName),
		ProjectionExpression:     aws.String("#u, #d"),
		ExpressionAttributeNames: map[string]string{"#u": fieldUserID, "#d": fieldDistricts},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", r.tableName, err)
		}
		decoded, bad := unmarshalItems[domain.UserProfile](r.tableName, page.Items)
		profiles = append(profiles, decoded...)
		skipped += bad
	}
	return profiles, skipped, nil
}
