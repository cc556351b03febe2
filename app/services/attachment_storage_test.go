package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskAttachmentStorage(t *testing.T) {
	storage := NewDiskAttachmentStorage(t.TempDir())
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("SaveAndRead", func(t *testing.T) {
		stored, err := storage.Save(strings.NewReader("hello"), "Brief.PDF", 1024, now)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(stored.Path, "contact_attachments/2024/3/"))
		assert.True(t, strings.HasSuffix(stored.Path, ".pdf"))
		assert.Equal(t, int64(5), stored.Size)

		data, contentType, err := storage.Read(stored.Path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.Equal(t, "application/pdf", contentType)

		require.NoError(t, storage.Remove(stored.Path))
		_, _, err = storage.Read(stored.Path)
		assert.ErrorIs(t, err, ErrAttachmentNotStored)
	})

	t.Run("SizeLimit", func(t *testing.T) {
		_, err := storage.Save(bytes.NewReader(make([]byte, 2048)), "big.pdf", 1024, now)
		assert.ErrorIs(t, err, ErrAttachmentTooLarge)
	})

	t.Run("RejectsEscapingPaths", func(t *testing.T) {
		for _, p := range []string{
			"",
			"../etc/passwd",
			"contact_attachments/../../etc/passwd",
			"/etc/passwd",
			"other_dir/file.pdf",
		} {
			_, err := storage.AbsPath(p)
			assert.ErrorIs(t, err, ErrInvalidAttachPath, p)
		}
	})
}
