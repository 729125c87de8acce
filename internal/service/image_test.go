package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodshare/backend/internal/service"
	"github.com/foodshare/backend/internal/testhelpers"
)

func TestSaveBase64(t *testing.T) {
	dir := t.TempDir()
	svc := service.NewImageService(dir, "/media", nil)
	ctx := context.Background()

	t.Run("data URI payload", func(t *testing.T) {
		url, err := svc.SaveBase64(ctx, testhelpers.TinyPNG)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(url, "/media/"))
		assert.True(t, strings.HasSuffix(url, ".png"))

		data, err := os.ReadFile(filepath.Join(dir, filepath.Base(url)))
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("bare base64 payload", func(t *testing.T) {
		raw := strings.TrimPrefix(testhelpers.TinyPNG, "data:image/png;base64,")
		url, err := svc.SaveBase64(ctx, raw)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".png"))
	})

	t.Run("jpeg extension from mime", func(t *testing.T) {
		raw := strings.TrimPrefix(testhelpers.TinyPNG, "data:image/png;base64,")
		url, err := svc.SaveBase64(ctx, "data:image/jpeg;base64,"+raw)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(url, ".jpg"))
	})

	t.Run("malformed data URI", func(t *testing.T) {
		_, err := svc.SaveBase64(ctx, "data:image/png,missingmarker")
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "image", verr.Field)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := svc.SaveBase64(ctx, "!!!not base64!!!")
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}
