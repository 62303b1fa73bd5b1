package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-event-notifier/internal/config"
	"github.com/go-event-notifier/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.ScanOutput)
	return out, args.Error(1)
}
func (m *mockAPI) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.CreateTableOutput)
	return out, args.Error(1)
}

func item(t *testing.T, v interface{}) map[string]types.AttributeValue {
	t.Helper()
	m, err := attributevalue.MarshalMap(v)
	require.NoError(t, err)
	return m
}

func firstPage(in *dynamodb.ScanInput) bool  { return in.ExclusiveStartKey == nil }
func secondPage(in *dynamodb.ScanInput) bool { return in.ExclusiveStartKey != nil }

// --- events ---

func TestEventRepo_ListByDateRange_Paginates(t *testing.T) {
	api := &mockAPI{}
	last := map[string]types.AttributeValue{"event_id": &types.AttributeValueMemberS{Value: "e1"}}
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		from := in.ExpressionAttributeValues[":from"].(*types.AttributeValueMemberS).Value
		to := in.ExpressionAttributeValues[":to"].(*types.AttributeValueMemberS).Value
		return firstPage(in) && *in.FilterExpression == "#d BETWEEN :from AND :to" &&
			in.ExpressionAttributeNames["#d"] == "event_date" && from == "2025-01-01" && to == "2025-01-04"
	})).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{item(t, domain.Event{EventID: "e1", Name: "Fair", EventDate: "2025-01-02"})},
		LastEvaluatedKey: last,
	}, nil).Once()
	api.On("Scan", mock.Anything, mock.MatchedBy(secondPage)).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{item(t, domain.Event{EventID: "e2", Name: "Run", EventDate: "2025-01-04"})},
	}, nil).Once()

	events, skipped, err := NewEventRepo(api, "events").ListByDateRange(context.Background(), "2025-01-01", "2025-01-04")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].EventID)
	assert.Equal(t, "e2", events[1].EventID)
	api.AssertExpectations(t)
}

func TestEventRepo_ListByDateRange_Error(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, _, err := NewEventRepo(api, "events").ListByDateRange(context.Background(), "2025-01-01", "2025-01-04")
	assert.ErrorContains(t, err, "scan events")
}

func TestEventRepo_ListByDateRange_CountsUndecodable(t *testing.T) {
	api := &mockAPI{}
	bad := map[string]types.AttributeValue{"event_id": &types.AttributeValueMemberBOOL{Value: true}}
	api.On("Scan", mock.Anything, mock.MatchedBy(firstPage)).Return(&dynamodb.ScanOutput{
		Items:            []map[string]types.AttributeValue{bad, item(t, domain.Event{EventID: "e1", Name: "Fair", EventDate: "2025-01-02"})},
		LastEvaluatedKey: map[string]types.AttributeValue{"event_id": &types.AttributeValueMemberS{Value: "e1"}},
	}, nil).Once()
	api.On("Scan", mock.Anything, mock.MatchedBy(secondPage)).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{bad},
	}, nil).Once()

	events, skipped, err := NewEventRepo(api, "events").ListByDateRange(context.Background(), "2025-01-01", "2025-01-04")
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].EventID)
}

// --- profiles ---

func TestProfileRepo_ListAll(t *testing.T) {
	api := &mockAPI{}
	api.On("Scan", mock.Anything, mock.MatchedBy(func(in *dynamodb.ScanInput) bool {
		return *in.ProjectionExpression == "#u, #d" && in.ExpressionAttributeNames["#d"] == "districts"
	})).Return(&dynamodb.ScanOutput{
		Items: []map[string]types.AttributeValue{
			item(t, domain.UserProfile{UserID: "u1", Districts: []string{"District 1"}}),
			item(t, domain.UserProfile{UserID: "u2"}),
			{"user_id": &types.AttributeValueMemberS{Value: "u3"}, "districts": &types.AttributeValueMemberBOOL{Value: true}},
		},
	}, nil)

	profiles, skipped, err := NewProfileRepo(api, "profiles").ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, profiles, 2)
	assert.Equal(t, []string{"District 1"}, profiles[0].Districts)
	assert.Empty(t, profiles[1].Districts)
}

// --- ledger ---

func TestLedgerRepo_Get_NotFound(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.GetItemInput) bool {
		return *in.ConsistentRead && len(in.Key) == 2
	})).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewLedgerRepo(api, "notifications").Get(context.Background(), "u1", "e1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLedgerRepo_Get_Found(t *testing.T) {
	api := &mockAPI{}
	created := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{
		Item: item(t, domain.LedgerEntry{UserID: "u1", EventID: "e1", Message: "hi", RunID: "r1", CreatedAt: created}),
	}, nil)

	e, err := NewLedgerRepo(api, "notifications").Get(context.Background(), "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "hi", e.Message)
	assert.True(t, created.Equal(e.CreatedAt))
}

func TestLedgerRepo_Create_IsConditional(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		return *in.ConditionExpression == "attribute_not_exists(#u) AND attribute_not_exists(#e)" &&
			in.ExpressionAttributeNames["#u"] == "user_id" && in.ExpressionAttributeNames["#e"] == "event_id"
	})).Return(&dynamodb.PutItemOutput{}, nil)

	err := NewLedgerRepo(api, "notifications").Create(context.Background(), &domain.LedgerEntry{UserID: "u1", EventID: "e1"})
	assert.NoError(t, err)
	api.AssertExpectations(t)
}

func TestLedgerRepo_Create_Duplicate(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewLedgerRepo(api, "notifications").Create(context.Background(), &domain.LedgerEntry{UserID: "u1", EventID: "e1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateDispatch)
}

func TestLedgerRepo_Create_OtherError(t *testing.T) {
	api := &mockAPI{}
	boom := errors.New("throughput exceeded")
	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, boom)

	err := NewLedgerRepo(api, "notifications").Create(context.Background(), &domain.LedgerEntry{UserID: "u1", EventID: "e1"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrDuplicateDispatch)
}

func TestLedgerRepo_ListByUser(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		uid := in.ExpressionAttributeValues[":uid"].(*types.AttributeValueMemberS).Value
		return *in.KeyConditionExpression == "#u = :uid" && uid == "u1"
	})).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			item(t, domain.LedgerEntry{UserID: "u1", EventID: "e1"}),
			item(t, domain.LedgerEntry{UserID: "u1", EventID: "e2"}),
		},
	}, nil)

	entries, err := NewLedgerRepo(api, "notifications").ListByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

// --- bootstrap ---

func TestBootstrap_ToleratesExistingTables(t *testing.T) {
	api := &mockAPI{}
	tables := config.DynamoTables{Events: "events", Profiles: "profiles", Notifications: "notifications"}
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return *in.TableName == "events"
	})).Return(nil, &types.ResourceInUseException{})
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return *in.TableName == "profiles"
	})).Return(&dynamodb.CreateTableOutput{}, nil)
	api.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return *in.TableName == "notifications" && len(in.KeySchema) == 2 &&
			in.KeySchema[1].KeyType == types.KeyTypeRange && *in.KeySchema[1].AttributeName == "event_id"
	})).Return(&dynamodb.CreateTableOutput{}, nil)

	assert.NoError(t, Bootstrap(context.Background(), api, tables))
	api.AssertNumberOfCalls(t, "CreateTable", 3)
}

func TestBootstrap_ReportsFailures(t *testing.T) {
	api := &mockAPI{}
	api.On("CreateTable", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	err := Bootstrap(context.Background(), api, config.DynamoTables{Events: "e", Profiles: "p", Notifications: "n"})
	assert.ErrorContains(t, err, "access denied")
}
