package resilience

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExpected = errors.New("rejected by provider")

func TestBreakerOpensAfterFailures(t *testing.T) {
	b := NewBreaker(Settings{Name: "test-open", MinRequests: 4, FailureRate: 0.5})
	boom := errors.New("boom")

	for i := 0; i < 4; i++ {
		_, err := Execute(b, func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := Execute(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	assert.True(t, IsRejection(err))
	assert.False(t, called, "open breaker must not call through")
}

func TestBreakerIgnoresExpectedErrors(t *testing.T) {
	b := NewBreaker(Settings{
		Name:        "test-expected",
		MinRequests: 2,
		IsExpected:  func(err error) bool { return errors.Is(err, errExpected) },
	})
	for i := 0; i < 5; i++ {
		_, err := Execute(b, func() (int, error) { return 0, errExpected })
		require.ErrorIs(t, err, errExpected)
	}
	assert.Equal(t, "closed", b.State())
}

func TestExecuteReturnsTypedResult(t *testing.T) {
	b := NewBreaker(Settings{Name: "test-typed"})
	got, err := Execute(b, func() (*int, error) {
		v := 7
		return &v, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)
	assert.Equal(t, "test-typed", b.Name())
}
