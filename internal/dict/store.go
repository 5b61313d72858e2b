// Package dict persists per-language word frequencies and compiles
// them into binary trie dictionaries.
//
// The store is the durable side of the dictionary pipeline: asset word
// lists seed it, user-dictionary additions and learned words land in it,
// and the builder merges both into the compiled blob the keyboard loads
// at runtime.
package dict

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"glidecore/internal/trie"
)

// Schema for the dictionary store.
const schema = `
CREATE TABLE IF NOT EXISTS words (
    lang        TEXT NOT NULL,
    word        TEXT NOT NULL,
    frequency   INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    PRIMARY KEY (lang, word)
);

CREATE INDEX IF NOT EXISTS idx_words_lang ON words(lang);

CREATE TABLE IF NOT EXISTS dictionaries (
    lang        TEXT PRIMARY KEY,
    checksum    BLOB NOT NULL,
    size_bytes  INTEGER NOT NULL,
    word_count  INTEGER NOT NULL,
    compiled_at INTEGER NOT NULL
);
`

// Store is the SQLite-backed word and dictionary-metadata store.
type Store struct {
	db *sql.DB
}

// Open opens or creates the store database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpsertWord inserts or overwrites one word's frequency (last write
// wins). The frequency is clamped into [0,255] on the way in, matching
// what the compiled format can hold.
func (s *Store) UpsertWord(lang, word string, freq int) error {
	if word == "" {
		return fmt.Errorf("store: empty word for %q", lang)
	}
	_, err := s.db.Exec(`
		INSERT INTO words (lang, word, frequency, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(lang, word) DO UPDATE SET
			frequency = excluded.frequency,
			updated_at = excluded.updated_at`,
		lang, word, int(trie.ClampFrequency(freq)), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("upsert word %q: %w", word, err)
	}
	return nil
}

// UpsertWords inserts or overwrites a batch of words in one
// transaction.
func (s *Store) UpsertWords(lang string, words map[string]int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO words (lang, word, frequency, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(lang, word) DO UPDATE SET
			frequency = excluded.frequency,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixNano()
	for word, freq := range words {
		if word == "" {
			continue
		}
		if _, err := stmt.Exec(lang, word, int(trie.ClampFrequency(freq)), now); err != nil {
			return fmt.Errorf("upsert word %q: %w", word, err)
		}
	}
	return tx.Commit()
}

// DeleteWord removes a word from a language.
func (s *Store) DeleteWord(lang, word string) error {
	_, err := s.db.Exec(`DELETE FROM words WHERE lang = ? AND word = ?`, lang, word)
	if err != nil {
		return fmt.Errorf("delete word %q: %w", word, err)
	}
	return nil
}

// Words returns every stored word/frequency pair for a language.
func (s *Store) Words(lang string) (map[string]int, error) {
	rows, err := s.db.Query(`SELECT word, frequency FROM words WHERE lang = ?`, lang)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	words := make(map[string]int)
	for rows.Next() {
		var word string
		var freq int
		if err := rows.Scan(&word, &freq); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words[word] = freq
	}
	return words, rows.Err()
}

// DictionaryInfo describes one compiled dictionary.
type DictionaryInfo struct {
	Lang       string
	Checksum   []byte
	SizeBytes  int64
	WordCount  int
	CompiledAt time.Time
}

// RecordDictionary stores the metadata of a freshly compiled
// dictionary, replacing any previous record for the language.
func (s *Store) RecordDictionary(info DictionaryInfo) error {
	_, err := s.db.Exec(`
		INSERT INTO dictionaries (lang, checksum, size_bytes, word_count, compiled_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(lang) DO UPDATE SET
			checksum = excluded.checksum,
			size_bytes = excluded.size_bytes,
			word_count = excluded.word_count,
			compiled_at = excluded.compiled_at`,
		info.Lang, info.Checksum, info.SizeBytes, info.WordCount, info.CompiledAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record dictionary %q: %w", info.Lang, err)
	}
	return nil
}

// Dictionary returns the metadata recorded for a language, or
// sql.ErrNoRows wrapped when none was compiled yet.
func (s *Store) Dictionary(lang string) (*DictionaryInfo, error) {
	row := s.db.QueryRow(`
		SELECT checksum, size_bytes, word_count, compiled_at
		FROM dictionaries WHERE lang = ?`, lang)

	info := &DictionaryInfo{Lang: lang}
	var compiledAt int64
	if err := row.Scan(&info.Checksum, &info.SizeBytes, &info.WordCount, &compiledAt); err != nil {
		return nil, fmt.Errorf("dictionary %q: %w", lang, err)
	}
	info.CompiledAt = time.Unix(0, compiledAt)
	return info, nil
}
