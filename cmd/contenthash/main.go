// Command contenthash prints the Dropbox-style content hash of files or stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"

	"github.com/bitfsorg/contenthash-go/cache"
	"github.com/bitfsorg/contenthash-go/config"
	"github.com/bitfsorg/contenthash-go/contenthash"
	"github.com/bitfsorg/contenthash-go/logging"
	"github.com/bitfsorg/contenthash-go/storage"
)

const (
	exitOK       = 0
	exitMismatch = 1
	exitError    = 2
)

var errStdinTwice = errors.New("standard input can only be read once")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, config.Environ())
	stop()
	os.Exit(code)
}

type options struct {
	algorithm  string
	configPath string
	workers    int
	blocks     bool
	check      string
	diff       bool
	noCache    bool
	store      bool
}

type app struct {
	cfg   config.Config
	opts  options
	alg   contenthash.Algorithm
	log   zerolog.Logger
	cache *cache.DigestCache
	store *storage.FileStore
	stdin io.Reader
	out   io.Writer
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, env map[string]string) int {
	fs := flag.NewFlagSet("contenthash", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: contenthash [flags] [FILE...]\n\nWith no FILE, or when FILE is -, read standard input.\n\n")
		fs.PrintDefaults()
	}

	var opts options
	fs.StringVar(&opts.algorithm, "a", "", "digest algorithm (default from config, sha256)")
	fs.StringVar(&opts.configPath, "config", "", "config file (default ~/.contenthash/config)")
	fs.IntVar(&opts.workers, "workers", -1, "parallel block hashers for files (0 = one per CPU)")
	fs.BoolVar(&opts.blocks, "blocks", false, "also print per-block digests")
	fs.StringVar(&opts.check, "check", "", "verify the single input against this hex content hash")
	fs.BoolVar(&opts.diff, "diff", false, "compare two files block by block")
	fs.BoolVar(&opts.noCache, "no-cache", false, "do not use the digest cache")
	fs.BoolVar(&opts.store, "store", false, "save each manifest in the manifest store")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}

	cfg, err := loadConfig(opts, env)
	if err != nil {
		fmt.Fprintf(stderr, "contenthash: %v\n", err)
		return exitError
	}

	log, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel, "contenthash")
	if err != nil {
		fmt.Fprintf(stderr, "contenthash: %v\n", err)
		return exitError
	}
	defer func() { _ = closeLog() }()

	alg, err := cfg.ParsedAlgorithm()
	if err != nil {
		fmt.Fprintf(stderr, "contenthash: %v\n", err)
		return exitError
	}
	if alg.Weak() {
		log.Warn().Str("algorithm", alg.String()).Msg("algorithm is kept for compatibility only")
	}

	a := &app{cfg: cfg, opts: opts, alg: alg, log: log, stdin: stdin, out: stdout}
	if cfg.CacheEnabled && !opts.noCache {
		c, err := cache.OpenDigestCache(config.CachePath(cfg.DataDir), log)
		if err != nil {
			// Hashing works without the cache.
			log.Warn().Err(err).Msg("digest cache unavailable")
		} else {
			a.cache = c
			defer func() { _ = c.Close() }()
		}
	}

	if opts.store {
		s, err := storage.NewFileStore(config.StorePath(cfg.DataDir))
		if err != nil {
			fmt.Fprintf(stderr, "contenthash: %v\n", err)
			return exitError
		}
		a.store = s
	}

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	code, err := a.dispatch(ctx, inputs)
	if err != nil {
		log.Error().Err(err).Msg("failed")
		fmt.Fprintf(stderr, "contenthash: %v\n", err)
	}
	return code
}

// loadConfig layers defaults, the config file, env and flags.
func loadConfig(opts options, env map[string]string) (config.Config, error) {
	path := opts.configPath
	explicit := path != ""
	if !explicit {
		dataDir := env["CONTENTHASH_DATA_DIR"]
		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}
		path = config.ConfigPath(dataDir)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil && (explicit || !errors.Is(err, config.ErrConfigNotFound)) {
		return cfg, err
	}

	cfg, err = config.ApplyEnv(cfg, env)
	if err != nil {
		return cfg, err
	}
	if opts.algorithm != "" {
		cfg.Algorithm = opts.algorithm
	}
	if opts.workers >= 0 {
		cfg.Workers = opts.workers
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (a *app) dispatch(ctx context.Context, inputs []string) (int, error) {
	stdin := 0
	for _, name := range inputs {
		if name == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return exitError, errStdinTwice
	}

	switch {
	case a.opts.diff:
		if len(inputs) != 2 {
			return exitError, errors.New("-diff needs exactly two files")
		}
		return a.runDiff(ctx, inputs[0], inputs[1])
	case a.opts.check != "":
		if len(inputs) != 1 {
			return exitError, errors.New("-check needs exactly one input")
		}
		return a.runCheck(ctx, inputs[0])
	}

	for _, name := range inputs {
		m, err := a.manifest(ctx, name)
		if err != nil {
			return exitError, err
		}
		if err := a.print(name, m); err != nil {
			return exitError, err
		}
	}
	return exitOK, nil
}

func (a *app) runCheck(ctx context.Context, name string) (int, error) {
	m, err := a.manifest(ctx, name)
	if err != nil {
		return exitError, err
	}
	if err := m.Verify(a.opts.check); err != nil {
		fmt.Fprintf(a.out, "%s: FAILED\n", name)
		a.log.Info().Str("path", name).Err(err).Msg("check failed")
		return exitMismatch, nil
	}
	fmt.Fprintf(a.out, "%s: OK\n", name)
	return exitOK, nil
}

func (a *app) runDiff(ctx context.Context, left, right string) (int, error) {
	lm, err := a.manifest(ctx, left)
	if err != nil {
		return exitError, err
	}
	rm, err := a.manifest(ctx, right)
	if err != nil {
		return exitError, err
	}

	diff, err := contenthash.DiffBlocks(lm, rm)
	if err != nil {
		return exitError, err
	}
	if len(diff) == 0 {
		fmt.Fprintln(a.out, "identical")
		return exitOK, nil
	}
	// Ranges are reported against the larger of the two files.
	ref := lm
	if rm.Size > lm.Size {
		ref = rm
	}
	for _, i := range diff {
		off, n := ref.BlockRange(i)
		fmt.Fprintf(a.out, "block %d differs (offset %d, %d bytes)\n", i, off, n)
	}
	return exitMismatch, nil
}

// manifest hashes one input: "-" is stdin, anything else a file.
func (a *app) manifest(ctx context.Context, name string) (*contenthash.Manifest, error) {
	var (
		m   *contenthash.Manifest
		err error
	)
	switch {
	case name == "-":
		m, err = contenthash.ReadManifest(ctx, a.alg, a.stdin)
	case a.cache != nil:
		var hit bool
		m, hit, err = a.cache.HashFile(ctx, name, a.alg, a.cfg.Workers)
		if err == nil {
			a.log.Debug().Str("path", name).Bool("cached", hit).Msg("hashed")
		}
	default:
		m, err = contenthash.HashFile(ctx, a.alg, name, a.cfg.Workers)
	}
	if err != nil {
		return nil, err
	}

	if a.store != nil {
		if err := a.storeManifest(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (a *app) storeManifest(m *contenthash.Manifest) error {
	key, err := storage.PutManifest(a.store, m)
	if err != nil {
		return err
	}
	a.log.Debug().Hex("key", key).Int("blocks", len(m.Blocks)).Msg("manifest stored")
	return nil
}

func (a *app) print(name string, m *contenthash.Manifest) error {
	if _, err := fmt.Fprintf(a.out, "%s  %s\n", m.ContentHash(), name); err != nil {
		return err
	}
	if !a.opts.blocks {
		return nil
	}
	for i, b := range m.Blocks {
		if _, err := fmt.Fprintf(a.out, "  block %d %x\n", i, b); err != nil {
			return err
		}
	}
	return nil
}
