package iocache

import (
	"bytes"
	"testing"
	"time"

	"github.com/huangsam/prisk/schema"
	"github.com/stretchr/testify/assert"
)

func TestPrintCacheStatus(t *testing.T) {
	t.Run("disconnected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"}, 0)
		assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())
	})

	t.Run("connected", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{
			Backend:         "sqlite",
			Connected:       true,
			TotalEntries:    1234,
			LastEntryTime:   time.Now().Add(-2 * time.Hour),
			OldestEntryTime: time.Now().Add(-72 * time.Hour),
			TableSizeBytes:  2_500_000,
		}, 2)

		out := buf.String()
		assert.Contains(t, out, "Schema Version: 2\n")
		assert.Contains(t, out, "Total Entries: 1,234\n")
		assert.Contains(t, out, "(2 hours ago)")
		assert.Contains(t, out, "(3 days ago)")
		assert.Contains(t, out, "Table Size: 2.5 MB\n")
	})

	t.Run("empty table", func(t *testing.T) {
		var buf bytes.Buffer
		PrintCacheStatus(&buf, schema.CacheStatus{Backend: "sqlite", Connected: true}, 1)
		assert.NotContains(t, buf.String(), "Last Entry")
		assert.Contains(t, buf.String(), "Table Size: 0 B\n")
	})
}
