package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func exerciseGateway(t *testing.T, g Gateway) {
	t.Helper()
	ctx := context.Background()

	got, err := Load(ctx, g, KeyGroups, []doc{{Name: "seed"}})
	require.NoError(t, err)
	assert.Equal(t, []doc{{Name: "seed"}}, got, "absent key returns the default")

	require.NoError(t, Save(ctx, g, KeyGroups, []doc{{Name: "a", Count: 1}}))
	require.NoError(t, Save(ctx, g, KeyGroups, []doc{{Name: "b", Count: 2}}))

	got, err = Load(ctx, g, KeyGroups, []doc(nil))
	require.NoError(t, err)
	assert.Equal(t, []doc{{Name: "b", Count: 2}}, got, "last write wins")
	assert.True(t, g.Healthy(ctx))
}

func TestMemoryGateway(t *testing.T) {
	exerciseGateway(t, NewMemory())
}

func TestSQLiteGateway(t *testing.T) {
	g, err := NewSQLite(filepath.Join(t.TempDir(), "data", "edu.db"))
	require.NoError(t, err)
	defer g.Close()
	exerciseGateway(t, g)
}

func TestMemoryCopiesBuffers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	buf := []byte(`[1]`)
	require.NoError(t, m.Put(ctx, "k", buf))
	buf[1] = '9'

	data, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(data))
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Put(ctx, KeyNews, []byte(`{not json`)))

	_, err := Load(ctx, m, KeyNews, []doc{})
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	g, err := Open(Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, g)

	_, err = Open(Options{Backend: "etcd"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestKnownKey(t *testing.T) {
	k, ok := KnownKey("users")
	assert.True(t, ok)
	assert.Equal(t, KeyUsers, k)

	k, ok = KnownKey(KeyAttendance)
	assert.True(t, ok)
	assert.Equal(t, KeyAttendance, k)

	_, ok = KnownKey("edu_filter_course")
	assert.False(t, ok)
}
