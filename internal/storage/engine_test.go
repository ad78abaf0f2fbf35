package storage_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antdb/antdb/internal/storage"
	"github.com/antdb/antdb/internal/testdb"
)

func openSample(t *testing.T) *storage.StorageEngine {
	t.Helper()
	engine, err := storage.NewStorageEngine(testdb.Open(testdb.SampleDB()))
	require.NoError(t, err)
	return engine
}

func TestHeaderFields(t *testing.T) {
	engine := openSample(t)
	assert.Equal(t, 4096, engine.PageSize())
	assert.Equal(t, uint32(10), engine.PageCount())
}

func TestInfo(t *testing.T) {
	engine := openSample(t)
	info, err := engine.Info()
	require.NoError(t, err)
	require.Len(t, info, 2)
	assert.Equal(t, "database page size", info[0].Key)
	assert.Equal(t, 4096, info[0].Value)
	assert.Equal(t, "number of tables", info[1].Key)
	assert.Equal(t, 3, info[1].Value)
}

func TestTables(t *testing.T) {
	engine := openSample(t)
	tables, err := engine.Tables()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, table := range tables {
		names[table.Name()] = true
	}
	assert.Equal(t, map[string]bool{
		"users":           true,
		"events":          true,
		"sqlite_sequence": true,
	}, names)
}

func TestTableByName(t *testing.T) {
	engine := openSample(t)

	table, err := engine.Table("users")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, []string{"id", "name", "country"}, table.Columns())

	table, err = engine.Table("missing")
	require.NoError(t, err)
	assert.Nil(t, table)
}

func TestIndices(t *testing.T) {
	engine := openSample(t)
	indices, err := engine.Indices()
	require.NoError(t, err)
	require.Len(t, indices, 2)

	byName := make(map[string]*storage.Index)
	for _, idx := range indices {
		byName[idx.Name()] = idx
	}
	require.Contains(t, byName, "idx_users_country")
	assert.Equal(t, "users", byName["idx_users_country"].Table().Name())
	assert.Equal(t, "country", byName["idx_users_country"].Column())
	require.Contains(t, byName, "idx_events_city")
	assert.Equal(t, "city", byName["idx_events_city"].Column())
}

func TestObjects(t *testing.T) {
	engine := openSample(t)
	objects, err := engine.Objects()
	require.NoError(t, err)
	require.Len(t, objects, 5)

	assert.Equal(t, "table", objects[0].Type)
	assert.Equal(t, "users", objects[0].Name)
	assert.Equal(t, "users", objects[0].TblName)
	assert.Equal(t, "2", objects[0].RootPage)
	assert.Contains(t, objects[0].SQL, "CREATE TABLE users")

	assert.Equal(t, "index", objects[1].Type)
	assert.Equal(t, "idx_users_country", objects[1].Name)
}

func TestBadEncoding(t *testing.T) {
	db := testdb.SampleDB()
	binary.BigEndian.PutUint32(db[56:], 5)
	_, err := storage.NewStorageEngine(testdb.Open(db))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad encoding")
}

func TestShortHeader(t *testing.T) {
	db := testdb.SampleDB()
	_, err := storage.NewStorageEngine(testdb.Open(db[:50]))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
}

func TestShortPageRead(t *testing.T) {
	db := testdb.SampleDB()
	engine, err := storage.NewStorageEngine(testdb.Open(db[:4096+100]))
	require.NoError(t, err)
	_, err = engine.GetPage(2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad page size")
}

func TestGetPageIsStorageError(t *testing.T) {
	engine := openSample(t)
	_, err := engine.GetPage(0)
	require.Error(t, err)

	var storageErr *storage.Error
	assert.ErrorAs(t, err, &storageErr)
}
