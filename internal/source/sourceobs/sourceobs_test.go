package sourceobs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bulk-deals/internal/deals"
	"bulk-deals/internal/logger"
)

type fakeSource struct {
	raw []byte
	err error
}

func (f *fakeSource) Exchange() string { return "BSE" }

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) { return f.raw, f.err }

func (f *fakeSource) Parse(ctx context.Context, raw []byte) (deals.Batch, error) {
	if f.err != nil {
		return deals.Batch{}, f.err
	}
	return deals.Batch{Deals: make([]deals.Deal, 2), Skipped: 1}, nil
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithConfig(logger.LogConfig{Level: "DEBUG", Format: "json", Output: &buf}))
	t.Cleanup(func() { logger.InitWithConfig(logger.LogConfig{}) })
	return &buf
}

func TestWrapPassesThrough(t *testing.T) {
	logs := captureLogs(t)
	src := Wrap(&fakeSource{raw: []byte("<html/>")})

	assert.Equal(t, "BSE", src.Exchange())
	raw, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("<html/>"), raw)

	batch, err := src.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Len(t, batch.Deals, 2)
	assert.Equal(t, 1, batch.Skipped)

	assert.Contains(t, logs.String(), `"msg":"Fetched bulk deals"`)
	assert.Contains(t, logs.String(), `"exchange":"BSE"`)
}

func TestWrapLogsFailures(t *testing.T) {
	logs := captureLogs(t)
	boom := errors.New("boom")
	src := Wrap(&fakeSource{err: boom})

	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
	_, err = src.Parse(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	assert.Contains(t, logs.String(), `"msg":"Operation failed"`)
	assert.Contains(t, logs.String(), `"operation":"source.Fetch"`)
	assert.Contains(t, logs.String(), `"operation":"source.Parse"`)
}
