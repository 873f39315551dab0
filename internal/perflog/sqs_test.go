package perflog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSQS struct {
	input *sqs.SendMessageInput
	err   error
}

func (m *mockSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSSink_Write(t *testing.T) {
	mock := &mockSQS{}
	sink := NewSQSSink(mock, "https://sqs.local/perf")
	assert.Equal(t, "sqs", sink.Name())

	err := sink.Write(context.Background(), Entry{FunctionName: "assistantCommand", Status: StatusSuccess})
	require.NoError(t, err)
	require.NotNil(t, mock.input)
	assert.Equal(t, "https://sqs.local/perf", *mock.input.QueueUrl)
	assert.Equal(t, "assistantCommand", *mock.input.MessageAttributes["function"].StringValue)

	var decoded Entry
	require.NoError(t, json.Unmarshal([]byte(*mock.input.MessageBody), &decoded))
	assert.Equal(t, StatusSuccess, decoded.Status)
	assert.NotEmpty(t, decoded.ID)
}

func TestSQSSink_WriteError(t *testing.T) {
	boom := errors.New("queue gone")
	sink := NewSQSSink(&mockSQS{err: boom}, "https://sqs.local/perf")
	assert.ErrorIs(t, sink.Write(context.Background(), Entry{}), boom)
}
