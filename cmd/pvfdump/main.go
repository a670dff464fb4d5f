// Command pvfdump lists, extracts and decodes entries of a PVF archive.
//
// Usage:
//
//	pvfdump [flags] <archive> <command> [args]
//
// Commands:
//
//	info                 print the archive header
//	ls [prefix]          list entry paths
//	cat <path>           write decrypted entry bytes to stdout
//	strings              print the global string table
//	tokens <path>        print the decoded token stream
//	tree <path>          print the rebuilt section tree
//	lst <path>           print an id table
//	str <path>           print a key>value text table
//	decode [prefix]      decode every entry under prefix and report totals
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/meigma/pvf"
	"github.com/meigma/pvf/cache/disk"
	"github.com/meigma/pvf/textenc"
	"github.com/meigma/pvf/tree"
)

type config struct {
	encoding     string
	quote        string
	simplified   bool
	strict       bool
	long         bool
	cacheDir     string
	cacheMaxSize int64
	workers      int
	maxDepth     int
	maxChildren  int
	verbose      bool
}

func main() {
	cfg := parseFlags()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Args(), os.Stdout, os.Stderr); err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - stop is best-effort
	}
}

func parseFlags() config {
	var cfg config
	flag.StringVar(&cfg.encoding, "encoding", pvf.DefaultEncoding, "charset of archive text")
	flag.StringVar(&cfg.quote, "quote", "", "characters wrapped around string tokens")
	flag.BoolVar(&cfg.simplified, "simplified", true, "convert traditional Chinese text to simplified")
	flag.BoolVar(&cfg.strict, "strict", false, "fail on unresolved cross references")
	flag.BoolVar(&cfg.long, "l", false, "ls: print size, checksum and offset")
	flag.StringVar(&cfg.cacheDir, "cache-dir", "", "directory for the decrypted entry cache (disabled if empty)")
	flag.Int64Var(&cfg.cacheMaxSize, "cache-max-bytes", 0, "prune the cache to this size (0 = unlimited)")
	flag.IntVar(&cfg.workers, "workers", 0, "decode workers: <0 serial, 0 auto, >0 fixed")
	flag.IntVar(&cfg.maxDepth, "max-depth", 0, "tree: maximum depth printed (0 = unlimited)")
	flag.IntVar(&cfg.maxChildren, "max-children", 0, "tree: maximum children printed per node (0 = unlimited)")
	flag.BoolVar(&cfg.verbose, "v", false, "log debug output to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(),
			"usage: %s [flags] <archive> <info|ls|cat|strings|tokens|tree|lst|str|decode> [args]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func run(ctx context.Context, cfg config, args []string, stdout, stderr io.Writer) error {
	if len(args) < 2 {
		return errors.New("archive path and command are required")
	}
	archivePath, cmd, rest := args[0], args[1], args[2:]

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opts := []pvf.Option{
		pvf.WithEncoding(cfg.encoding),
		pvf.WithQuote(cfg.quote),
		pvf.WithLogger(logger),
	}
	if !cfg.simplified {
		opts = append(opts, pvf.WithConverter(textenc.Identity))
	}
	if cfg.cacheDir != "" {
		c, err := disk.New(cfg.cacheDir, disk.WithMaxBytes(cfg.cacheMaxSize))
		if err != nil {
			return err
		}
		defer c.Close()
		opts = append(opts, pvf.WithCache(c))
	}

	a, err := pvf.Open(archivePath, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	decodeOpts := []pvf.DecodeOption{pvf.DecodeStrict(cfg.strict)}

	switch cmd {
	case "info":
		_, err = fmt.Fprintln(stdout, a.String())
		return err

	case "ls":
		return list(stdout, a.Archive, optional(rest), cfg.long)

	case "cat":
		path, err := required(cmd, rest)
		if err != nil {
			return err
		}
		data, err := a.Fetch(path)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err

	case "strings":
		st, err := a.Strings()
		if err != nil {
			return err
		}
		for i := range st.Len() {
			s, _ := st.Get(i) //nolint:errcheck // i is in range
			fmt.Fprintf(stdout, "%d\t%s\n", i, s)
		}
		return nil

	case "tokens":
		path, err := required(cmd, rest)
		if err != nil {
			return err
		}
		tokens, err := a.DecodeFile(path, decodeOpts...)
		if err != nil {
			return err
		}
		for _, tok := range tokens {
			fmt.Fprintln(stdout, tok.Format())
		}
		return nil

	case "tree":
		path, err := required(cmd, rest)
		if err != nil {
			return err
		}
		t, err := a.Tree(path, decodeOpts...)
		if err != nil {
			return err
		}
		return tree.Render(stdout, t, tree.RenderOptions{
			MaxDepth:    cfg.maxDepth,
			MaxChildren: cfg.maxChildren,
		})

	case "lst":
		path, err := required(cmd, rest)
		if err != nil {
			return err
		}
		ids, err := a.IDPaths(path)
		if err != nil {
			return err
		}
		for id, p := range ids.All() {
			fmt.Fprintf(stdout, "%d\t%s\n", id, p)
		}
		return nil

	case "str":
		path, err := required(cmd, rest)
		if err != nil {
			return err
		}
		kt, err := a.KeyText(path)
		if err != nil {
			return err
		}
		for k, v := range kt.All() {
			fmt.Fprintf(stdout, "%s>%s\n", k, v)
		}
		return nil

	case "decode":
		start := time.Now()
		stats, err := a.DecodePrefix(ctx, optional(rest),
			func(string, *tree.Tree) error { return nil },
			pvf.BatchWithWorkers(cfg.workers),
			pvf.BatchWithDecodeOptions(decodeOpts...))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "decoded=%d skipped=%d bytes=%d elapsed=%s\n",
			stats.Processed, stats.Skipped, stats.TotalBytes, time.Since(start).Round(time.Millisecond))
		return err

	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func list(w io.Writer, a *pvf.Archive, prefix string, long bool) error {
	if prefix == "" {
		for _, p := range a.Paths() {
			if err := listEntry(w, a, p, long); err != nil {
				return err
			}
		}
		return nil
	}
	for e := range a.EntriesWithPrefix(prefix) {
		if err := listEntry(w, a, e.Path, long); err != nil {
			return err
		}
	}
	return nil
}

func listEntry(w io.Writer, a *pvf.Archive, path string, long bool) error {
	if !long {
		_, err := fmt.Fprintln(w, path)
		return err
	}
	e, _ := a.Entry(path)
	_, err := fmt.Fprintf(w, "%10d  %08x  %10d  %s\n", e.RawLength, e.Checksum, e.Offset, e.Path)
	return err
}

func required(cmd string, rest []string) (string, error) {
	if len(rest) == 0 || strings.TrimSpace(rest[0]) == "" {
		return "", fmt.Errorf("%s: path is required", cmd)
	}
	return rest[0], nil
}

func optional(rest []string) string {
	if len(rest) == 0 {
		return ""
	}
	return rest[0]
}
