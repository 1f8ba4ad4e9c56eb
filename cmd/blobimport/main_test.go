package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/uiasset/internal/persist"
	"github.com/l1jgo/uiasset/internal/pkgfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectBlobs(t *testing.T) {
	dir := t.TempDir()
	desc := "id: m1\nname: Main\nitems:\n" +
		"  - {name: atlas0, type: texture, file: .png}\n" +
		"  - {name: click, type: audio, file: .wav}\n" +
		"  - {name: missing, type: texture, file: .png}\n" +
		"  - {name: Button, type: component}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main_fui.bytes"), []byte(desc), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main_atlas0.png"), []byte("PNG"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Main_click.wav"), []byte("RIFF"), 0o644))

	blobs, err := collectBlobs(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, blobs, 3)

	assert.Equal(t, persist.KindPackage, blobs[0].Kind)
	assert.Equal(t, "Main", blobs[0].Package)
	assert.Equal(t, pkgfile.Digest([]byte(desc)), blobs[0].Digest)

	assert.Equal(t, "texture", blobs[1].Kind)
	assert.Equal(t, "atlas0.png", blobs[1].Name)
	assert.Equal(t, "audio", blobs[2].Kind)
	assert.Equal(t, []byte("RIFF"), blobs[2].Data)
}

func TestCollectBlobsRejectsBadDescriptor(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X_fui.bytes"), []byte("name: X\n"), 0o644))
	_, err := collectBlobs(dir, zap.NewNop())
	assert.Error(t, err)
}
