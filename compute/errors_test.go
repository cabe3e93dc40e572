package compute

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformError(t *testing.T) {
	err := &PlatformError{
		Backend:    "azure-batch",
		Op:         "create job",
		StatusCode: 409,
		Code:       "JobExists",
		Message:    "The specified job already exists.\nRequestId:abc",
		Values:     []KeyValue{{"RequestId", "abc"}},
	}
	assert.Equal(t, "azure-batch: create job: status 409: JobExists: The specified job already exists.", err.Error())
	assert.True(t, err.Conflict())
	assert.Equal(t, []interface{}{
		"backend", "azure-batch",
		"op", "create job",
		"statusCode", 409,
		"code", "JobExists",
		"message", "The specified job already exists.\nRequestId:abc",
		"RequestId", "abc",
	}, err.LogFields())

	wrapped := fmt.Errorf("submitting: %w", err)
	var perr *PlatformError
	assert.True(t, errors.As(wrapped, &perr))

	cause := errors.New("connection refused")
	err = &PlatformError{Backend: "aws-batch", Op: "add task", Err: cause}
	assert.Equal(t, "aws-batch: add task: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Conflict())
}
