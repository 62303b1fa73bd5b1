package dynamo

import (
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// compositeKey builds a DynamoDB primary key with two string attributes (PK + SK).
func compositeKey(pkName, pkValue, skName, skValue string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		pkName: &types.AttributeValueMemberS{Value: pkValue},
		skName: &types.AttributeValueMemberS{Value: skValue},
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// unmarshalItems decodes items one by one. An item whose attributes do not fit
// T is logged and dropped, the rest of the page is kept. skipped counts the
// dropped items.
func unmarshalItems[T any](table string, items []map[string]types.AttributeValue) (out []T, skipped int) {
	out = make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := attributevalue.UnmarshalMap(item, &v); err != nil {
			slog.Warn("skipping undecodable item", "table", table, "error", err)
			skipped++
			continue
		}
		out = append(out, v)
	}
	return out, skipped
}
