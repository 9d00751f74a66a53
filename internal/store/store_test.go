package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "librecast-test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateSchema())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CreateSchema())
	require.NoError(t, s.CreateSchema())
}

func TestInsertMessage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InsertMessage(ctx, MessageRow{
		Src:     "fe80::1",
		Dst:     "ff3e::abcd",
		Seq:     1,
		Rnd:     123456789,
		Channel: "chan/x",
		Msg:     []byte("hi"),
	})
	require.NoError(t, err)

	var count int
	row := s.db.QueryRow("SELECT COUNT(*) FROM message WHERE channel = ? AND msg = ?", "chan/x", "hi")
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}

func TestInsertKeyValChannelUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.InsertKeyValChannel(ctx, KeyValRow{
		Src: "fe80::1", Seq: 1, Rnd: 1, Channel: "chan/x", Key: "k", Value: "v1",
	})
	require.NoError(t, err)

	err = s.InsertKeyValChannel(ctx, KeyValRow{
		Src: "fe80::1", Seq: 2, Rnd: 2, Channel: "chan/x", Key: "k", Value: "v2",
	})
	require.NoError(t, err)

	var value string
	row := s.db.QueryRow("SELECT v FROM keyval_channel WHERE channel = ? AND k = ?", "chan/x", "k")
	require.NoError(t, row.Scan(&value))
	require.Equal(t, "v2", value)

	var count int
	row = s.db.QueryRow("SELECT COUNT(*) FROM keyval_channel WHERE channel = ? AND k = ?", "chan/x", "k")
	require.NoError(t, row.Scan(&count))
	require.Equal(t, 1, count)
}
