package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"github.com/hub-search/indexcore/internal/buildstore"
	"github.com/hub-search/indexcore/internal/cli"
	"github.com/hub-search/indexcore/internal/config"
	"github.com/hub-search/indexcore/internal/indexer"
	"github.com/hub-search/indexcore/internal/manager"
	"github.com/hub-search/indexcore/internal/mongodb"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Load()
	hub, err := config.LoadHubConfig(cfg.HubConfigPath)
	if err != nil {
		log.Fatalf("load hub config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("received shutdown signal, cancelling...")
		cancel()
	}()

	mongoClient, err := mongodb.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("connect mongodb: %v", err)
	}
	defer mongoClient.Close(context.Background())

	store := buildstore.New(mongoClient, cfg.MongoDatabase)
	if err := store.Prune(ctx); err != nil {
		log.Fatalf("prune stale job state: %v", err)
	}

	idxManager := &manager.IndexManager{
		Cfg:     cfg,
		Hub:     hub,
		Mongo:   mongoClient,
		Store:   store,
		MongoDB: cfg.MongoDatabase,
	}
	snapManager := &manager.SnapshotManager{Index: idxManager}

	switch os.Args[1] {
	case "index":
		runIndex(ctx, idxManager, os.Args[2:])
	case "index-info":
		runIndexInfo(ctx, store, os.Args[2:])
	case "validate-mapping":
		runValidateMapping(ctx, idxManager, os.Args[2:])
	case "update-metadata":
		runUpdateMetadata(ctx, idxManager, store, os.Args[2:])
	case "snapshot":
		runSnapshot(ctx, snapManager, store, os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: hubindex <command> [flags]")
	fmt.Println("commands: index, index-info, validate-mapping, update-metadata, snapshot")
}

func runIndex(ctx context.Context, mgr *manager.IndexManager, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	buildID := fs.String("build-id", "", "build record id")
	env := fs.String("env", "", "indexer environment name")
	steps := fs.String("steps", "pre,index,post", "comma-separated steps to run")
	batchSize := fs.Int("batch-size", 10000, "batch size (50-10000)")
	mode := fs.String("mode", indexer.ModeIndex, "index|resume|merge|purge")
	ids := fs.String("ids", "", "comma-separated document ids (optional)")
	quiet := fs.Bool("quiet", false, "suppress progress output")
	fs.Parse(args)

	if !mgr.TryAcquire() {
		log.Fatal("another management operation is already running")
	}
	defer mgr.Release()

	ix, err := mgr.BuildIndexer(ctx, *buildID, *env)
	if err != nil {
		log.Fatalf("build indexer: %v", err)
	}

	c := cli.New(*quiet)
	var bar *progressbar.ProgressBar
	ix.Progress = func(finished, total int64) {
		if *quiet {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetDescription("indexing"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWriter(os.Stdout),
			)
		}
		bar.Set64(finished)
	}

	c.StartPhase(*env)
	result, err := ix.Index(ctx, indexer.Params{
		Steps:     splitCSV(*steps),
		BatchSize: *batchSize,
		Mode:      *mode,
		IDs:       splitCSV(*ids),
	})
	if err != nil {
		c.Error(err.Error())
		log.Fatalf("index: %v", err)
	}
	c.EndPhase()

	items := make(map[string]string, len(result))
	for k, v := range result {
		items[k] = fmt.Sprintf("%v", v)
	}
	c.Summary("index "+*buildID, items)
}

func runIndexInfo(ctx context.Context, store *buildstore.Store, args []string) {
	fs := flag.NewFlagSet("index-info", flag.ExitOnError)
	buildID := fs.String("build-id", "", "build record id")
	fs.Parse(args)

	rec, err := store.Get(ctx, *buildID)
	if err != nil {
		log.Fatalf("load build: %v", err)
	}
	fmt.Printf("build_id:       %s\n", rec.ID)
	fmt.Printf("target_backend: %s\n", rec.TargetBackend)
	fmt.Printf("backend_url:    %s\n", rec.BackendURL)
	fmt.Printf("target_name:    %s\n", rec.TargetName)
	fmt.Printf("doc_type:       %s\n", rec.BuildConfig.DocType)
}

func runValidateMapping(ctx context.Context, mgr *manager.IndexManager, args []string) {
	fs := flag.NewFlagSet("validate-mapping", flag.ExitOnError)
	buildID := fs.String("build-id", "", "build record id")
	env := fs.String("env", "", "indexer environment name")
	fs.Parse(args)

	if !mgr.TryAcquire() {
		log.Fatal("another management operation is already running")
	}
	defer mgr.Release()

	ix, err := mgr.BuildIndexer(ctx, *buildID, *env)
	if err != nil {
		log.Fatalf("build indexer: %v", err)
	}

	settings, err := ix.Settings.Finalize(ctx, ix.Dest)
	if err != nil {
		log.Fatalf("finalize settings: %v", err)
	}
	mappings, err := ix.Mappings.Finalize(ctx, ix.Dest)
	if err != nil {
		log.Fatalf("finalize mappings: %v", err)
	}

	if err := mgr.ValidateMapping(ctx, ix.Dest, mappings, settings); err != nil {
		log.Fatalf("validate_mapping: %v", err)
	}
	fmt.Println("mapping valid")
}

func runUpdateMetadata(ctx context.Context, mgr *manager.IndexManager, store *buildstore.Store, args []string) {
	fs := flag.NewFlagSet("update-metadata", flag.ExitOnError)
	buildID := fs.String("build-id", "", "build record id")
	env := fs.String("env", "", "indexer environment name")
	fs.Parse(args)

	rec, err := store.Get(ctx, *buildID)
	if err != nil {
		log.Fatalf("load build: %v", err)
	}

	ix, err := mgr.BuildIndexer(ctx, *buildID, *env)
	if err != nil {
		log.Fatalf("build indexer: %v", err)
	}

	if err := ix.Dest.UpdateMappingMeta(ctx, rec.TargetName, rec.Meta); err != nil {
		log.Fatalf("update_metadata: %v", err)
	}
	fmt.Printf("updated _meta for %s\n", rec.TargetName)
}

func runSnapshot(ctx context.Context, mgr *manager.SnapshotManager, store *buildstore.Store, args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	buildID := fs.String("build-id", "", "build record id")
	env := fs.String("env", "", "indexer environment name")
	name := fs.String("name", "", "snapshot name")
	index := fs.String("index", "", "finished index name to snapshot")
	steps := fs.String("steps", "pre,snapshot,post", "comma-separated steps to run")
	fs.Parse(args)

	if !mgr.Index.TryAcquire() {
		log.Fatal("another management operation is already running")
	}
	defer mgr.Index.Release()

	rec, err := store.Get(ctx, *buildID)
	if err != nil {
		log.Fatalf("load build: %v", err)
	}

	snapshooter, err := mgr.BuildSnapshooter(*buildID, *name, *env, *index, rec.Meta)
	if err != nil {
		log.Fatalf("build snapshooter: %v", err)
	}

	result, err := snapshooter.Run(ctx, splitCSV(*steps))
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	fmt.Printf("snapshot %s: %v\n", *name, result)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
