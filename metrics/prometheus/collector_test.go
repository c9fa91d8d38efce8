package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/cstable"
	"github.com/hupe1980/cstable/blobstore"
	"github.com/hupe1980/cstable/page"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Table(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewPedanticRegistry()
	c, err := NewCollector(reg, "test")
	require.NoError(t, err)

	tw, err := cstable.Create(ctx, blobstore.NewMemoryStore(), "t", cstable.Schema{
		{Name: "a", Type: page.TypeUint64},
		{Name: "b", Type: page.TypeString},
	}, cstable.WithMetricsCollector(c))
	require.NoError(t, err)

	require.NoError(t, tw.AppendRow(uint64(1), "x"))
	require.NoError(t, tw.AppendRow(uint64(2), nil))
	require.Error(t, tw.AppendRow("wrong", nil))
	require.NoError(t, tw.Flush(ctx))
	require.NoError(t, tw.Close(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.appends.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.appends.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pages.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.pageValues.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.pageValues.WithLabelValues("b")))
	assert.Equal(t, float64(page.HeaderSize+16), testutil.ToFloat64(c.pageBytes.WithLabelValues("a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flushes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.closes.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.rows))
	assert.Equal(t, 2, testutil.CollectAndCount(c.latency))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestCollector_Errors(t *testing.T) {
	c, err := NewCollector(nil, "")
	require.NoError(t, err)

	c.RecordFlush(time.Millisecond, 0, errors.New("boom"))
	c.RecordClose(10, time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.flushes.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.rows))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg, "dup")
	require.NoError(t, err)
	_, err = NewCollector(reg, "dup")
	assert.Error(t, err)
}
