package dict

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"glidecore/internal/trie"
	"glidecore/internal/wordlist"
)

// Builder compiles asset word lists, merged with the store's learned
// words, into binary trie dictionaries on disk.
type Builder struct {
	store    *Store
	assetDir string
	outDir   string
	maxWords int
	log      *slog.Logger
}

// Result describes one successful compilation.
type Result struct {
	Lang      string
	Path      string
	SizeBytes int64
	WordCount int
	Checksum  []byte
}

// NewBuilder creates a dictionary builder. The store may be nil for a
// pure asset-to-blob compile (no learned words, no metadata records).
func NewBuilder(store *Store, assetDir, outDir string, maxWords int, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{
		store:    store,
		assetDir: assetDir,
		outDir:   outDir,
		maxWords: maxWords,
		log:      log,
	}
}

// OutputPath returns where a language's compiled dictionary lives.
func (b *Builder) OutputPath(lang string) string {
	return filepath.Join(b.outDir, lang+".bin")
}

// Compile builds <lang>.bin from the language's asset word list merged
// with stored words (stored frequencies win, so user corrections
// override shipped ranks). Failures surface to the caller before any
// file is touched; the output is written atomically via a temp file so
// a crash mid-write never leaves a truncated dictionary behind.
func (b *Builder) Compile(lang string) (*Result, error) {
	words, err := b.gatherWords(lang)
	if err != nil {
		return nil, err
	}

	blob, err := trie.Compile(words)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", lang, err)
	}

	outPath := b.OutputPath(lang)
	if err := writeAtomic(outPath, blob); err != nil {
		return nil, fmt.Errorf("write %q: %w", lang, err)
	}

	sum := blake2b.Sum256(blob)
	reader, err := trie.NewReader(blob)
	if err != nil {
		return nil, fmt.Errorf("verify fresh blob %q: %w", lang, err)
	}

	res := &Result{
		Lang:      lang,
		Path:      outPath,
		SizeBytes: int64(len(blob)),
		WordCount: reader.WordCount(),
		Checksum:  sum[:],
	}

	if b.store != nil {
		err := b.store.RecordDictionary(DictionaryInfo{
			Lang:       lang,
			Checksum:   res.Checksum,
			SizeBytes:  res.SizeBytes,
			WordCount:  res.WordCount,
			CompiledAt: time.Now(),
		})
		if err != nil {
			return nil, err
		}
	}

	b.log.Info("dictionary compiled",
		"lang", lang, "words", res.WordCount, "bytes", res.SizeBytes)
	return res, nil
}

// CompileAll compiles every language found in the asset directory.
// Languages are independent: one failing does not stop the others, and
// all failures come back joined so none is silently swallowed.
func (b *Builder) CompileAll() ([]Result, error) {
	langs, err := wordlist.DiscoverLanguages(b.assetDir)
	if err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no word list assets in %s", b.assetDir)
	}

	var results []Result
	var errs []error
	for _, lang := range langs {
		res, err := b.Compile(lang)
		if err != nil {
			b.log.Error("dictionary compile failed", "lang", lang, "error", err)
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// Verify recomputes the checksum of a compiled dictionary and compares
// it against the store's record, then sanity-checks the blob framing.
func (b *Builder) Verify(lang string) error {
	if b.store == nil {
		return errors.New("verify requires a store")
	}
	info, err := b.store.Dictionary(lang)
	if err != nil {
		return err
	}

	blob, err := os.ReadFile(b.OutputPath(lang))
	if err != nil {
		return fmt.Errorf("read dictionary %q: %w", lang, err)
	}
	sum := blake2b.Sum256(blob)
	if !bytes.Equal(sum[:], info.Checksum) {
		return fmt.Errorf("dictionary %q: checksum mismatch", lang)
	}
	if _, err := trie.NewReader(blob); err != nil {
		return err
	}
	return nil
}

// gatherWords merges the asset word list with the store's words. A
// missing asset file is fine as long as the store has entries for the
// language.
func (b *Builder) gatherWords(lang string) (map[string]int, error) {
	words := make(map[string]int)

	assetPath := wordlist.AssetPath(b.assetDir, lang)
	assetWords, err := wordlist.ParseFile(assetPath, b.maxWords)
	switch {
	case err == nil:
		for w, f := range assetWords {
			words[w] = f
		}
	case errors.Is(err, os.ErrNotExist):
		// fall through to store-only
	default:
		return nil, err
	}

	if b.store != nil {
		stored, err := b.store.Words(lang)
		if err != nil {
			return nil, err
		}
		for w, f := range stored {
			words[w] = f
		}
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("no words for language %q (asset %s absent and store empty)", lang, assetPath)
	}
	return words, nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
