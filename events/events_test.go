package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiPublishesToEveryPublisherAndReturnsFirstError(t *testing.T) {
	var calls []int

	ok1 := PublisherFunc(func(e Event) error { calls = append(calls, 1); return nil })
	failing := PublisherFunc(func(e Event) error { calls = append(calls, 2); return errors.New("boom") })
	ok2 := PublisherFunc(func(e Event) error { calls = append(calls, 3); return nil })

	multi := Multi(ok1, failing, ok2, nil)
	err := multi.Publish(Event{Kind: Started, Rule: "build"})

	require.Error(t, err)
	assert.Equal(t, "boom", err.Error())
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestMultiWithNoFailuresReturnsNil(t *testing.T) {
	calls := 0
	ok := PublisherFunc(func(e Event) error { calls++; return nil })
	multi := Multi(ok, ok)
	assert.NoError(t, multi.Publish(Event{Kind: Finished}))
	assert.Equal(t, 2, calls)
}
