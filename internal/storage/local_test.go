package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "downloads/a/file.txt", strings.NewReader("hello"), "text/plain"))

	exists, err := s.Exists(ctx, "downloads/a/file.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := s.GetSize(ctx, "downloads/a/file.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	rc, err := s.Get(ctx, "downloads/a/file.txt")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, "downloads/a/file.txt"))
	// повторное удаление не ошибка
	require.NoError(t, s.Delete(ctx, "downloads/a/file.txt"))

	_, err = s.Get(ctx, "downloads/a/file.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	s, err := NewLocalStorage(Config{BasePath: t.TempDir()})
	require.NoError(t, err)

	err = s.Save(context.Background(), "../escape.txt", strings.NewReader("x"), "text/plain")
	assert.Error(t, err)
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}
