package storage

import (
	"context"

	"fluxstate/apperrors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// snapshotItem is the DynamoDB item shape for one stored snapshot,
// grounded on infrastructure/persistence/dynamodb/graph_repository.go's
// PK/SK single-table item pattern, simplified to the single attribute a
// key/value binder needs.
type snapshotItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	Payload []byte `dynamodbav:"Payload"`
}

// DynamoDBBinder stores each key as one item in a single DynamoDB table,
// grounded on the teacher's GraphRepository: a zap-logged client wrapper
// issuing PutItem/GetItem/DeleteItem against attributevalue-marshaled
// structs.
type DynamoDBBinder struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewDynamoDBBinder constructs a DynamoDBBinder over an existing client and
// table.
func NewDynamoDBBinder(client *dynamodb.Client, tableName string, logger *zap.Logger) *DynamoDBBinder {
	return &DynamoDBBinder{client: client, tableName: tableName, logger: logger}
}

// Get fetches the item stored under key, returning (nil, nil) if absent.
func (b *DynamoDBBinder) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
			"SK": &types.AttributeValueMemberS{Value: "SNAPSHOT"},
		},
	})
	if err != nil {
		b.logger.Error("dynamodb snapshot get failed", zap.String("key", key), zap.Error(err))
		return nil, apperrors.PersistenceIO("get snapshot item", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item snapshotItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, apperrors.PersistenceIO("unmarshal snapshot item", err)
	}
	return item.Payload, nil
}

// Set writes value as the item stored under key.
func (b *DynamoDBBinder) Set(ctx context.Context, key string, value []byte) error {
	item := snapshotItem{PK: key, SK: "SNAPSHOT", Payload: value}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return apperrors.PersistenceIO("marshal snapshot item", err)
	}

	if _, err := b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      av,
	}); err != nil {
		b.logger.Error("dynamodb snapshot put failed", zap.String("key", key), zap.Error(err))
		return apperrors.PersistenceIO("put snapshot item", err)
	}
	return nil
}

// Remove deletes the item stored under key.
func (b *DynamoDBBinder) Remove(ctx context.Context, key string) error {
	if _, err := b.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(b.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: key},
			"SK": &types.AttributeValueMemberS{Value: "SNAPSHOT"},
		},
	}); err != nil {
		b.logger.Error("dynamodb snapshot delete failed", zap.String("key", key), zap.Error(err))
		return apperrors.PersistenceIO("delete snapshot item", err)
	}
	return nil
}
