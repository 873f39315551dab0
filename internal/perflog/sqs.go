package perflog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

type sqsAPI interface {
	SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSSink publishes entries as JSON messages for an out-of-process writer.
type SQSSink struct {
	client   sqsAPI
	queueURL string
}

func NewSQSSink(client sqsAPI, queueURL string) *SQSSink {
	if client == nil {
		panic("perflog: SQS client cannot be nil")
	}
	if queueURL == "" {
		panic("perflog: SQS queueURL cannot be empty")
	}
	return &SQSSink{client: client, queueURL: queueURL}
}

func (s *SQSSink) Name() string { return "sqs" }

func (s *SQSSink) Write(ctx context.Context, entry Entry) error {
	entry = entry.withDefaults()
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("perflog: failed to encode entry: %w", err)
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"function": {DataType: aws.String("String"), StringValue: aws.String(entry.FunctionName)},
			"status":   {DataType: aws.String("String"), StringValue: aws.String(entry.Status)},
		},
	})
	if err != nil {
		return fmt.Errorf("perflog: failed to send SQS message: %w", err)
	}
	return nil
}
