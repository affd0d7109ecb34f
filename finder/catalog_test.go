package finder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/melkeydev/value-finder/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	calls atomic.Int64
	delay time.Duration
	err   error
}

func (l *countingLoader) LoadColumns(ctx context.Context) ([]types.ColumnMeta, error) {
	l.calls.Add(1)
	time.Sleep(l.delay)
	if l.err != nil {
		return nil, l.err
	}
	return []types.ColumnMeta{charColumn("Name", 10)}, nil
}

func TestCatalogLoadsOnceUnderConcurrency(t *testing.T) {
	c := NewCatalog()
	loader := &countingLoader{delay: 20 * time.Millisecond}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			columns, err := c.Load(context.Background(), "Sales", loader)
			assert.NoError(t, err)
			assert.Len(t, columns, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), loader.calls.Load())

	_, err := c.Load(context.Background(), "Sales", loader)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loader.calls.Load())
}

func TestCatalogFailureIsScopedAndNotCached(t *testing.T) {
	c := NewCatalog()
	good := &countingLoader{}
	bad := &countingLoader{err: errors.New("connection reset")}

	_, err := c.Load(context.Background(), "Sales", good)
	require.NoError(t, err)

	_, err = c.Load(context.Background(), "Archive", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Archive"`)

	_, ok := c.Get("Archive")
	assert.False(t, ok)
	columns, ok := c.Get("Sales")
	assert.True(t, ok)
	assert.Len(t, columns, 1)

	_, err = c.Load(context.Background(), "Archive", good)
	require.NoError(t, err)
}
