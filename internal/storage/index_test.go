package storage_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antdb/antdb/internal/sql/sqlerr"
	"github.com/antdb/antdb/internal/storage"
)

func getIndex(t *testing.T, engine *storage.StorageEngine, name string) *storage.Index {
	t.Helper()
	indices, err := engine.Indices()
	require.NoError(t, err)
	for _, idx := range indices {
		if idx.Name() == name {
			return idx
		}
	}
	t.Fatalf("index %s not found", name)
	return nil
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestFindMatchingRecordIdsLeafOnly(t *testing.T) {
	engine := openSample(t)
	idx := getIndex(t, engine, "idx_users_country")

	ids, err := idx.FindMatchingRecordIds("country", storage.TextValue("france"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, sortedIDs(ids))

	ids, err = idx.FindMatchingRecordIds("country", storage.TextValue("peru"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, sortedIDs(ids))
}

func TestFindMatchingRecordIdsInteriorKeys(t *testing.T) {
	engine := openSample(t)
	idx := getIndex(t, engine, "idx_events_city")

	// "lima" entries straddle the interior cell: two in the left leaf,
	// one stored in the interior cell itself, one in the right leaf.
	ids, err := idx.FindMatchingRecordIds("city", storage.TextValue("lima"))
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 5, 7}, sortedIDs(ids))

	ids, err = idx.FindMatchingRecordIds("city", storage.TextValue("oslo"))
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 6, 8}, sortedIDs(ids))
}

func TestFindMatchingRecordIdsNoMatch(t *testing.T) {
	engine := openSample(t)
	idx := getIndex(t, engine, "idx_events_city")

	ids, err := idx.FindMatchingRecordIds("city", storage.TextValue("paris"))
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFindMatchingRecordIdsWrongColumn(t *testing.T) {
	engine := openSample(t)
	idx := getIndex(t, engine, "idx_users_country")

	_, err := idx.FindMatchingRecordIds("name", storage.TextValue("alice"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not cover column")

	var sqlErr *sqlerr.Error
	assert.ErrorAs(t, err, &sqlErr)
}

func TestIndexAgreesWithFullScan(t *testing.T) {
	engine := openSample(t)
	idx := getIndex(t, engine, "idx_events_city")
	events := getTable(t, engine, "events")

	rows, err := events.Rows()
	require.NoError(t, err)

	for _, city := range []string{"lima", "oslo", "paris"} {
		var want []int64
		for _, row := range rows {
			v, ok := row.Get("city")
			require.True(t, ok)
			if v.Equals(storage.TextValue(city)) {
				want = append(want, row.RowID)
			}
		}
		ids, err := idx.FindMatchingRecordIds("city", storage.TextValue(city))
		require.NoError(t, err)
		assert.Equal(t, sortedIDs(want), sortedIDs(ids), "city %s", city)
	}
}
