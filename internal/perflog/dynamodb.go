package perflog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoSink stores entries as DynamoDB items keyed by id, expiring via expiresAt.
type DynamoSink struct {
	client    dynamoAPI
	tableName string
}

func NewDynamoSink(client dynamoAPI, tableName string) *DynamoSink {
	if client == nil {
		panic("perflog: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("perflog: table name cannot be empty")
	}
	return &DynamoSink{client: client, tableName: tableName}
}

func (s *DynamoSink) Name() string { return "dynamodb" }

func (s *DynamoSink) Write(ctx context.Context, entry Entry) error {
	entry = entry.withDefaults()
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("perflog: failed to marshal entry: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return fmt.Errorf("perflog: failed to put entry: %w", err)
	}
	return nil
}
