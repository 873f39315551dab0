package perflog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLSink_Write(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewSQLSink(db, "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", sink.Name())

	mock.ExpectExec("INSERT INTO performance_logs").
		WithArgs(sqlmock.AnyArg(), "assistantCommand", int64(12), StatusSuccess, "t1", `{"prompt":"go to leads"}`, `{"intent":"navigate"}`, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = sink.Write(context.Background(), Entry{
		FunctionName: "assistantCommand",
		DurationMS:   12,
		Status:       StatusSuccess,
		TenantID:     "t1",
		Payload:      `{"prompt":"go to leads"}`,
		Response:     `{"intent":"navigate"}`,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSink_WriteError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink, err := NewSQLSink(db, "assistant_perf")
	require.NoError(t, err)

	boom := errors.New("disk full")
	mock.ExpectExec("INSERT INTO assistant_perf").WillReturnError(boom)

	err = sink.Write(context.Background(), Entry{FunctionName: "assistantCommand"})
	assert.ErrorIs(t, err, boom)
}

func TestNewSQLSink_Validation(t *testing.T) {
	_, err := NewSQLSink(nil, "")
	assert.Error(t, err)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewSQLSink(db, "logs; DROP TABLE leads")
	assert.Error(t, err)
}
