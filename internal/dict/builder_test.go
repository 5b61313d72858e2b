package dict

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glidecore/internal/trie"
)

func writeAsset(t *testing.T, dir, lang, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lang+"_words.txt"), []byte(content), 0o644))
}

func testBuilder(t *testing.T) (*Builder, *Store, string, string) {
	t.Helper()
	assetDir := t.TempDir()
	outDir := t.TempDir()
	store := openTestStore(t)
	return NewBuilder(store, assetDir, outDir, 0, nil), store, assetDir, outDir
}

func TestBuilder_CompileFromAssets(t *testing.T) {
	b, _, assetDir, outDir := testBuilder(t)
	writeAsset(t, assetDir, "en", "the 220\nof 180\nand 160\n")

	res, err := b.Compile("en")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "en.bin"), res.Path)
	assert.Equal(t, 3, res.WordCount)

	blob, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, res.SizeBytes, int64(len(blob)))
	assert.Zero(t, len(blob)%trie.NodeSize)

	r, err := trie.NewReader(blob)
	require.NoError(t, err)
	freq, ok := r.Lookup("the")
	require.True(t, ok)
	assert.Equal(t, uint8(220), freq)
}

func TestBuilder_StoredWordsOverrideAssets(t *testing.T) {
	b, store, assetDir, _ := testBuilder(t)
	writeAsset(t, assetDir, "en", "cat 10\n")
	require.NoError(t, store.UpsertWord("en", "cat", 5))
	require.NoError(t, store.UpsertWord("en", "zyzzyva", 99))

	res, err := b.Compile("en")
	require.NoError(t, err)
	assert.Equal(t, 2, res.WordCount)

	blob, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	r, err := trie.NewReader(blob)
	require.NoError(t, err)

	freq, ok := r.Lookup("cat")
	require.True(t, ok)
	assert.Equal(t, uint8(5), freq, "store frequency wins over asset")
	assert.True(t, r.Contains("zyzzyva"), "learned word joins the dictionary")
}

func TestBuilder_StoreOnlyLanguage(t *testing.T) {
	b, store, _, _ := testBuilder(t)
	require.NoError(t, store.UpsertWord("xx", "hello", 40))

	res, err := b.Compile("xx")
	require.NoError(t, err)
	assert.Equal(t, 1, res.WordCount)
}

func TestBuilder_NoWordsAnywhereFails(t *testing.T) {
	b, _, _, outDir := testBuilder(t)

	_, err := b.Compile("void")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(outDir, "void.bin"))
	assert.True(t, os.IsNotExist(statErr), "no partial output on failure")
}

func TestBuilder_CompileAll(t *testing.T) {
	b, _, assetDir, _ := testBuilder(t)
	writeAsset(t, assetDir, "de", "der 220\n")
	writeAsset(t, assetDir, "en", "the 220\n")

	results, err := b.CompileAll()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "de", results[0].Lang)
	assert.Equal(t, "en", results[1].Lang)
}

func TestBuilder_Verify(t *testing.T) {
	b, _, assetDir, _ := testBuilder(t)
	writeAsset(t, assetDir, "en", "the 220\n")

	res, err := b.Compile("en")
	require.NoError(t, err)
	require.NoError(t, b.Verify("en"))

	// Corrupt one byte; verification must notice.
	blob, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	blob[2] ^= 0xFF
	require.NoError(t, os.WriteFile(res.Path, blob, 0o644))

	assert.ErrorContains(t, b.Verify("en"), "checksum mismatch")
}

func TestBuilder_RecompileUpdatesChecksum(t *testing.T) {
	b, store, assetDir, _ := testBuilder(t)
	writeAsset(t, assetDir, "en", "the 220\n")

	first, err := b.Compile("en")
	require.NoError(t, err)

	require.NoError(t, store.UpsertWord("en", "new", 100))
	second, err := b.Compile("en")
	require.NoError(t, err)

	assert.NotEqual(t, first.Checksum, second.Checksum)
	require.NoError(t, b.Verify("en"))
}
