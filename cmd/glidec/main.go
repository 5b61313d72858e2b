// glidec is the dictionary pipeline CLI for the keyboard core. It
// compiles word list assets into binary trie dictionaries, verifies
// and inspects them, and can watch the asset directory to recompile
// on change.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"glidecore/internal/config"
	"glidecore/internal/dict"
	"glidecore/internal/logging"
	"glidecore/internal/trie"
	"glidecore/internal/watcher"
	"glidecore/internal/wordlist"
)

var (
	configPath = flag.String("config", "", "path to config file")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	switch cmd {
	case "compile":
		cmdCompile(args)
	case "verify":
		cmdVerify(args)
	case "lookup":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: glidec lookup <lang> <word>")
			os.Exit(1)
		}
		cmdLookup(args[0], args[1])
	case "complete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: glidec complete <lang> <prefix> [limit]")
			os.Exit(1)
		}
		limit := 10
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				fmt.Fprintln(os.Stderr, "limit must be a positive integer")
				os.Exit(1)
			}
			limit = n
		}
		cmdComplete(args[0], args[1], limit)
	case "languages":
		cmdLanguages()
	case "add-word":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: glidec add-word <lang> <word> <frequency>")
			os.Exit(1)
		}
		freq, err := strconv.Atoi(args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "frequency must be an integer")
			os.Exit(1)
		}
		cmdAddWord(args[0], args[1], freq)
	case "remove-word":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: glidec remove-word <lang> <word>")
			os.Exit(1)
		}
		cmdRemoveWord(args[0], args[1])
	case "watch":
		cmdWatch()
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `glidec - Dictionary pipeline for the keyboard core

Usage: glidec [options] <command> [args]

Commands:
  compile [lang...]           Compile dictionaries (all languages when none given)
  verify [lang...]            Verify compiled dictionaries against recorded checksums
  lookup <lang> <word>        Look up a word in a compiled dictionary
  complete <lang> <prefix>    List completions for a prefix, best first
  languages                   List languages with word list assets
  add-word <lang> <word> <f>  Add or update a learned word in the store
  remove-word <lang> <word>   Remove a learned word from the store
  watch                       Recompile dictionaries when word lists change
  help                        Show this help message

Options:
  -config <path>  Path to config file (built-in defaults when omitted)`)
}

func loadConfig() *config.Config {
	if *configPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// newBuilder wires the store, logger and builder from config.
func newBuilder(cfg *config.Config) (*dict.Builder, *dict.Store) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fatal(err)
	}
	log, _, err := logging.New(logging.Options{
		Level:     level,
		JSON:      cfg.Logging.Format == "json",
		Output:    cfg.Logging.Output,
		Component: "glidec",
	})
	if err != nil {
		fatal(err)
	}

	store, err := dict.Open(cfg.Dictionary.DBPath)
	if err != nil {
		fatal(fmt.Errorf("open word store: %w", err))
	}

	b := dict.NewBuilder(store, cfg.Dictionary.AssetDir, cfg.Dictionary.OutputDir,
		cfg.Dictionary.MaxWords, log)
	return b, store
}

func cmdCompile(langs []string) {
	cfg := loadConfig()
	b, store := newBuilder(cfg)
	defer store.Close()

	var results []dict.Result
	if len(langs) == 0 {
		var err error
		results, err = b.CompileAll()
		if err != nil {
			fatal(err)
		}
	} else {
		for _, lang := range langs {
			res, err := b.Compile(lang)
			if err != nil {
				fatal(fmt.Errorf("compile %s: %w", lang, err))
			}
			results = append(results, *res)
		}
	}

	for _, res := range results {
		fmt.Printf("%s: %d words, %s, blake2b %s\n",
			res.Lang, res.WordCount, formatBytes(res.SizeBytes),
			hex.EncodeToString(res.Checksum[:8])+"...")
	}
}

func cmdVerify(langs []string) {
	cfg := loadConfig()
	b, store := newBuilder(cfg)
	defer store.Close()

	if len(langs) == 0 {
		discovered, err := wordlist.DiscoverLanguages(cfg.Dictionary.AssetDir)
		if err != nil {
			fatal(err)
		}
		langs = discovered
	}

	failed := false
	for _, lang := range langs {
		if err := b.Verify(lang); err != nil {
			fmt.Printf("%s: FAIL (%v)\n", lang, err)
			failed = true
			continue
		}
		fmt.Printf("%s: OK\n", lang)
	}
	if failed {
		os.Exit(1)
	}
}

// openReader memory-loads a compiled dictionary for inspection.
func openReader(cfg *config.Config, lang string) *trie.Reader {
	path := dict.NewBuilder(nil, cfg.Dictionary.AssetDir, cfg.Dictionary.OutputDir,
		cfg.Dictionary.MaxWords, nil).OutputPath(lang)
	data, err := os.ReadFile(path)
	if err != nil {
		fatal(fmt.Errorf("read dictionary: %w", err))
	}
	r, err := trie.NewReader(data)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", path, err))
	}
	return r
}

func cmdLookup(lang, word string) {
	cfg := loadConfig()
	r := openReader(cfg, lang)

	freq, ok := r.Lookup(word)
	if !ok {
		fmt.Printf("%q not found\n", word)
		os.Exit(1)
	}
	fmt.Printf("%q frequency %d\n", word, freq)
}

func cmdComplete(lang, prefix string, limit int) {
	cfg := loadConfig()
	r := openReader(cfg, lang)

	words := r.Complete(prefix, limit)
	if len(words) == 0 {
		fmt.Printf("no completions for %q\n", prefix)
		return
	}
	for _, w := range words {
		fmt.Printf("%s\t%d\n", w.Text, w.Freq)
	}
}

func cmdLanguages() {
	cfg := loadConfig()

	langs, err := wordlist.DiscoverLanguages(cfg.Dictionary.AssetDir)
	if err != nil {
		fatal(err)
	}
	if len(langs) == 0 {
		fmt.Println("(no word list assets found)")
		return
	}
	for _, lang := range langs {
		line := lang
		if info, err := os.Stat(wordlist.AssetPath(cfg.Dictionary.AssetDir, lang)); err == nil {
			line = fmt.Sprintf("%s\t%s", lang, formatBytes(info.Size()))
		}
		fmt.Println(line)
	}
}

func cmdAddWord(lang, word string, freq int) {
	cfg := loadConfig()
	store, err := dict.Open(cfg.Dictionary.DBPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	if err := store.UpsertWord(lang, word, freq); err != nil {
		fatal(err)
	}
	fmt.Printf("added %q to %s\n", word, lang)
}

func cmdRemoveWord(lang, word string) {
	cfg := loadConfig()
	store, err := dict.Open(cfg.Dictionary.DBPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	if err := store.DeleteWord(lang, word); err != nil {
		fatal(err)
	}
	fmt.Printf("removed %q from %s\n", word, lang)
}

func cmdWatch() {
	cfg := loadConfig()
	b, store := newBuilder(cfg)
	defer store.Close()

	w, err := watcher.New(cfg.Dictionary.AssetDir, 2*time.Second)
	if err != nil {
		fatal(err)
	}
	if err := w.Start(); err != nil {
		fatal(err)
	}
	defer w.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("watching %s\n", cfg.Dictionary.AssetDir)
	for {
		select {
		case ev := <-w.Events():
			res, err := b.Compile(ev.Lang)
			if err != nil {
				fmt.Fprintf(os.Stderr, "compile %s: %v\n", ev.Lang, err)
				continue
			}
			fmt.Printf("%s: recompiled, %d words\n", res.Lang, res.WordCount)
		case err := <-w.Errors():
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sig:
			fmt.Println("stopping")
			return
		}
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
