package services

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredcamaral/coursekit/internal/domain/entities"
)

func TestAssetService_List(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAssetService(env.deps)
	ctx := context.Background()

	require.NoError(t, env.store.MkdirAll("courses/bare"))
	assets, err := svc.List(ctx, "bare")
	require.NoError(t, err)
	assert.Empty(t, assets)

	env.write(t, "courses/go/assets/notes.pdf", "pdf")
	env.write(t, "courses/go/assets/img/Zebra.png", "zz")
	env.write(t, "courses/go/assets/apple.JPG", "a")
	env.write(t, "courses/go/assets/demo.mp4", "mp4")

	assets, err = svc.List(ctx, "go")
	require.NoError(t, err)
	require.Len(t, assets, 4)

	assert.Equal(t, "notes.pdf", assets[0].Name)
	assert.Equal(t, entities.AssetDocument, assets[0].Type)
	assert.False(t, assets[0].CanPreview)

	assert.Equal(t, "apple.JPG", assets[1].Name)
	assert.Equal(t, entities.AssetImage, assets[1].Type)

	assert.Equal(t, entities.Asset{
		Name:       "Zebra.png",
		Path:       "img/Zebra.png",
		Size:       2,
		Type:       entities.AssetImage,
		CanPreview: true,
		URL:        "/assets/go/img/Zebra.png",
	}, assets[2])

	assert.Equal(t, entities.AssetVideo, assets[3].Type)
	assert.True(t, assets[3].CanPreview)

	_, err = svc.List(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestAssetService_UploadOpenDelete(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAssetService(env.deps)
	ctx := context.Background()
	require.NoError(t, env.store.MkdirAll("courses/go"))

	asset, err := svc.Upload(ctx, "go", "my photo.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "my_photo.png", asset.Name)
	assert.Equal(t, "/assets/go/my_photo.png", asset.URL)
	assert.Equal(t, int64(3), asset.Size)

	dup, err := svc.Upload(ctx, "go", "my photo.png", []byte("img2"))
	require.NoError(t, err)
	assert.Equal(t, "my_photo_1.png", dup.Name)

	r, entry, err := svc.Open(ctx, "go", "my_photo.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "img", string(data))
	assert.Equal(t, "my_photo.png", entry.Name)

	_, _, err = svc.Open(ctx, "go", "../config.json")
	assert.ErrorIs(t, err, entities.ErrInvalidPath)

	require.NoError(t, svc.Delete(ctx, "go", "my_photo.png"))
	_, _, err = svc.Open(ctx, "go", "my_photo.png")
	assert.ErrorIs(t, err, entities.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "go", "my_photo.png"), entities.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "go", "../../config.json"), entities.ErrInvalidPath)

	_, err = svc.Upload(ctx, "missing", "a.png", []byte("x"))
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestAssetService_DeleteDirectory(t *testing.T) {
	env := newTestEnv(t)
	svc := NewAssetService(env.deps)
	env.write(t, "courses/go/assets/img/a.png", "a")

	assert.ErrorIs(t, svc.Delete(context.Background(), "go", "img"), entities.ErrNotFound)
	assert.True(t, env.store.Exists("courses/go/assets/img/a.png"))
}
