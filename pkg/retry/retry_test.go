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

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	failure := errors.New("permanent")
	err := Do(context.Background(), fastConfig(), func() error {
		calls++
		return failure
	})
	require.ErrorIs(t, err, failure)
	assert.Equal(t, 4, calls, "initial attempt plus three retries")
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: time.Hour,
		MaxDelay:     time.Hour,
		Multiplier:   2.0,
	}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, cfg, func() error {
		calls++
		return errors.New("transient")
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	body, err := DoWithResult(context.Background(), fastConfig(), func() ([]byte, error) {
		calls++
		if calls < 2 {
			return nil, errors.New("transient")
		}
		return []byte("payload"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), body)
}

type explicitError struct{ retryable bool }

func (e explicitError) Error() string     { return "explicit" }
func (e explicitError) IsRetryable() bool { return e.retryable }

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"io timeout", errors.New("read tcp 10.0.0.1:443: i/o timeout"), true},
		{"http 502", errors.New("provider returned 502"), true},
		{"http 429", errors.New("provider returned 429"), true},
		{"http 404", errors.New("provider returned 404"), false},
		{"pg deadlock", errors.New("ERROR: deadlock detected (SQLSTATE 40P01)"), true},
		{"serialization failure", errors.New("could not serialize access: serialization failure"), true},
		{"plain failure", errors.New("row has no driver"), false},
		{"explicitly retryable", explicitError{retryable: true}, true},
		{"explicitly not retryable", explicitError{retryable: false}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
