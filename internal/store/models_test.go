package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpanQuery_ClampLimit(t *testing.T) {
	q := SpanQuery{Limit: 0}
	q.ClampLimit()
	assert.Equal(t, MaxSpanLimit, q.Limit)

	q = SpanQuery{Limit: 10}
	q.ClampLimit()
	assert.Equal(t, 10, q.Limit)

	q = SpanQuery{Limit: MaxSpanLimit + 1}
	q.ClampLimit()
	assert.Equal(t, MaxSpanLimit, q.Limit)
}

func TestSpanQuery_Window(t *testing.T) {
	lookback := int64(5000)
	q := SpanQuery{EndTs: 10000, LookbackMs: &lookback}
	start, end := q.Window()
	assert.Equal(t, int64(5000), start)
	assert.Equal(t, int64(10000), end)

	q = SpanQuery{EndTs: 10000}
	start, end = q.Window()
	assert.Equal(t, int64(0), start)
	assert.Equal(t, int64(10000), end)
}

func TestTestResultQuery_ClampLimit(t *testing.T) {
	q := TestResultQuery{Limit: -1}
	q.ClampLimit()
	assert.Equal(t, MaxTestResultLimit, q.Limit)

	q = TestResultQuery{Limit: MaxTestResultLimit + 100}
	q.ClampLimit()
	assert.Equal(t, MaxTestResultLimit, q.Limit)
}
