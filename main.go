package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	restapi "github.com/openxai/oepindexer/api/rest"
	"github.com/openxai/oepindexer/internal/config"
	"github.com/openxai/oepindexer/internal/custompromauto"
	"github.com/openxai/oepindexer/internal/eth"
	"github.com/openxai/oepindexer/internal/index"
	"github.com/openxai/oepindexer/internal/sigverify"
	"github.com/openxai/oepindexer/internal/store"
	"github.com/openxai/oepindexer/internal/store/boltdb"
	"github.com/openxai/oepindexer/internal/store/docstore"
	"github.com/openxai/oepindexer/internal/store/filedb"
	"github.com/openxai/oepindexer/internal/store/memdb"
	"github.com/openxai/oepindexer/internal/users"
	"github.com/openxai/oepindexer/internal/watcher"
)

const (
	storageFile   = "file"
	storageBolt   = "bolt"
	storageMemory = "memory"
)

type Options struct {
	ServerAddr   string
	ConfigPath   string
	EnvFile      string
	DataDir      string
	Storage      string
	PollInterval time.Duration
	LockTimeout  time.Duration
	Verbose      bool
}

func main() {
	var opts Options
	flag.StringVar(&opts.ServerAddr, "server-addr", "localhost:8080", "Server addr to serve the http server on")
	flag.StringVar(&opts.ConfigPath, "config", "chains.yaml", "Path to the YAML file listing the chains to watch")
	flag.StringVar(&opts.EnvFile, "env-file", ".env", "Optional dotenv file to load secrets from")
	flag.StringVar(&opts.DataDir, "data-dir", "data", "Directory the indexer documents are stored in")
	flag.StringVar(&opts.Storage, "storage", storageFile, "Storage backend: file, bolt or memory")
	flag.DurationVar(&opts.PollInterval, "poll-interval", watcher.DefaultPollInterval, "Chain polling interval. Recommend no less than 6 seconds")
	flag.DurationVar(&opts.LockTimeout, "lock-timeout", docstore.DefaultLockTimeout, "How long a storage operation waits for exclusive access to a document")
	flag.BoolVar(&opts.Verbose, "v", false, "Verbose output")
	flag.Parse()

	logger := logrus.New()
	ensureValidOpts(logger, opts)

	if opts.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	err := config.LoadEnv(opts.EnvFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load env file")
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load chains config")
	}
	usersSecret := config.UsersSecret()
	if usersSecret == "" {
		logger.Warnf("%s is not set, the users listing is disabled", config.UsersSecretEnv)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	backend, closeBackend := mustOpenBackend(logger, opts)
	defer closeBackend()

	docs := docstore.New(logger, backend, docstore.WithLockTimeout(opts.LockTimeout))
	reservedDoc := docstore.NewDocument(docs, store.ReservedKey, func() []*store.EventRecord {
		return []*store.EventRecord{}
	})
	usersDoc := docstore.NewDocument(docs, store.UsersKey, func() map[string]*store.UserRecord {
		return map[string]*store.UserRecord{}
	})
	cursors := watcher.NewDocumentCursors(docs)

	var clients []*eth.Client
	var indexers []*index.Reserved
	var watchers []string
	wg := &sync.WaitGroup{}
	for chain := range slices.Values(cfg.Chains) {
		client := mustDialChain(ctx, logger, chain)
		defer client.Close()
		clients = append(clients, client)

		idx := index.NewReserved(logger, chain.ChainID, reservedDoc)
		indexers = append(indexers, idx)
		watchers = append(watchers, chain.Name)

		w := watcher.New(logger, client, cursors, watcherOpts(opts, chain)...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.StartWatching(ctx, chain.Name, watcher.Spec{
				ABI:       index.ReservedEventABI,
				Address:   chain.ContractAddress(),
				EventName: index.ReservedEventName,
				OnLogs:    idx.HandleLogs,
			})
			if err != nil {
				logger.WithField("chain", chain.Name).WithError(err).Fatal("Event watcher failed")
			}
		}()
	}

	callers := make([]sigverify.ContractCaller, 0, len(clients))
	for client := range slices.Values(clients) {
		callers = append(callers, client)
	}
	verifier, err := sigverify.New(logger, callers...)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create signature verifier")
	}

	// every indexer lists the same shared reserved document
	restServer := restapi.NewServer(logger, indexers[0], users.NewRegistry(logger, usersDoc), verifier, cursors, watchers, usersSecret)
	mux := http.NewServeMux()
	restServer.Register(mux)

	// use a custom prom registry to avoid recording the default http handler metrics
	mux.Handle("/metrics", promhttp.HandlerFor(custompromauto.Registry(), promhttp.HandlerOpts{}))

	mustListenAndServe(ctx, logger, opts.ServerAddr, mux)
	wg.Wait()
}

func mustOpenBackend(logger *logrus.Logger, opts Options) (docstore.Backend, func()) {
	log := logger.WithField("storage", opts.Storage)
	switch opts.Storage {
	case storageMemory:
		log.Warn("Using in-memory storage, nothing survives a restart")
		return memdb.NewDocumentStore(), func() {}
	case storageBolt:
		err := os.MkdirAll(opts.DataDir, 0o755)
		if err != nil {
			log.WithError(err).Fatal("Failed to create data directory")
		}
		db, err := boltdb.New(filepath.Join(opts.DataDir, "indexer.db"))
		if err != nil {
			log.WithError(err).Fatal("Failed to open bolt database")
		}
		return db, func() {
			err := db.Close()
			if err != nil {
				log.WithError(err).Error("Failed to close bolt database")
			}
		}
	default:
		db, err := filedb.New(opts.DataDir)
		if err != nil {
			log.WithError(err).Fatal("Failed to open file storage")
		}
		return db, func() {}
	}
}

func mustDialChain(ctx context.Context, logger *logrus.Logger, chain *config.Chain) *eth.Client {
	log := logger.WithField("chain", chain.Name)
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := eth.Dial(dialCtx, logger, chain.Name, chain.RPC)
	if err != nil {
		log.WithError(err).Fatal("Failed to dial chain rpc endpoints")
	}

	chainID, err := client.ChainID(dialCtx)
	if err != nil {
		log.WithError(err).Fatal("Failed to get chain id")
	}
	if chain.ChainID != 0 && chain.ChainID != chainID {
		log.WithError(fmt.Errorf("configured %d, rpc reports %d", chain.ChainID, chainID)).Fatal("Chain id mismatch")
	}
	chain.ChainID = chainID

	return client
}

func watcherOpts(opts Options, chain *config.Chain) []watcher.Option {
	wOpts := []watcher.Option{
		watcher.WithPollInterval(opts.PollInterval),
	}
	if chain.Confirmations > 0 {
		wOpts = append(wOpts, watcher.WithConfirmations(chain.Confirmations))
	}
	if chain.StartBlock != nil {
		wOpts = append(wOpts, watcher.WithStartBlock(*chain.StartBlock))
	}
	return wOpts
}

func mustListenAndServe(ctx context.Context, logger *logrus.Logger, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Serving server...")
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed with error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	logger.Info("Shutting down server...")
	err := srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		logger.WithError(err).Error("Failed to shutdown server gracefully")
	}
}

func ensureValidOpts(logger *logrus.Logger, opts Options) {
	if opts.ServerAddr == "" {
		logger.Error("--server-addr is required")
		flag.Usage()
		os.Exit(1)
	}
	if opts.ConfigPath == "" {
		logger.Error("--config is required")
		flag.Usage()
		os.Exit(1)
	}
	if !slices.Contains([]string{storageFile, storageBolt, storageMemory}, opts.Storage) {
		logger.Errorf("--storage must be one of %q, %q or %q", storageFile, storageBolt, storageMemory)
		flag.Usage()
		os.Exit(1)
	}
	if opts.Storage != storageMemory && opts.DataDir == "" {
		logger.Error("--data-dir is required unless --storage=memory")
		flag.Usage()
		os.Exit(1)
	}
	if opts.PollInterval < time.Second*3 {
		logger.Error("--poll-interval is too small, it cannot be less than 3 seconds")
		flag.Usage()
		os.Exit(1)
	}
	if opts.LockTimeout <= 0 {
		logger.Error("--lock-timeout must be positive")
		flag.Usage()
		os.Exit(1)
	}
}
