package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesTransientFailure(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	calls := 0
	transient := errors.New("i/o timeout")
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return transient
	})
	assert.Equal(t, transient, err)
	assert.Equal(t, 4, calls) // initial attempt plus MaxRetries
}

func TestDo_PermanentFailureFailsFast(t *testing.T) {
	calls := 0
	permanent := errors.New("password authentication failed")
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return permanent
	})
	assert.Equal(t, permanent, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func() error {
		return errors.New("connection refused")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		calls++
		if calls < 2 {
			return 0, errors.New("connection reset by peer")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(errors.New("dial tcp 127.0.0.1:5432: connection refused")))
	assert.True(t, IsRetryable(errors.New("FATAL: the database system is starting up")))
	assert.True(t, IsRetryable(errors.New("read tcp: i/o timeout")))
	assert.False(t, IsRetryable(errors.New("syntax error at or near SELECT")))
	assert.False(t, IsRetryable(errors.New("password authentication failed for user")))
}

func TestApplyJitter_ZeroFactorIsIdentity(t *testing.T) {
	assert.Equal(t, time.Second, applyJitter(time.Second, 0))
}
