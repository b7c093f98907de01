// Package helixdb is the embeddable façade over the engine: one project
// directory in, one DB handle out, with schema, queries, configuration,
// and indices already resolved. A Config + Open(dir, config) + DB with
// domain methods shape, built around the HQL project layout: schema,
// queries, and generated accessors over the graph/vector/BM25/HQL stack.
package helixdb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/config"
	"github.com/helixdb/helix/internal/graph"
	"github.com/helixdb/helix/internal/herr"
	"github.com/helixdb/helix/internal/hql/analyzer"
	"github.com/helixdb/helix/internal/hql/codegen"
	"github.com/helixdb/helix/internal/hql/parser"
	"github.com/helixdb/helix/internal/ingest"
	"github.com/helixdb/helix/internal/kv"
	"github.com/helixdb/helix/internal/vector"
	"github.com/helixdb/helix/pkg/cache"
)

// Config layers the on-disk project configuration with the handful of
// process-level options that govern how the opened DB behaves: where its
// files live, whether writes sync, and how its ad hoc query cache is sized.
type Config struct {
	// DataDir is where the KV environment's files live. Empty means
	// in-memory, for tests and ephemeral use.
	DataDir string

	// ProjectDir holds schema.hx, config.hx.json, and the *.hx query
	// files. Required.
	ProjectDir string

	// SyncWrites forces an fsync on every commit; off by default, trading
	// durability for write throughput.
	SyncWrites bool

	// AdHocCacheSize and AdHocCacheTTL size the pkg/cache.PlanCache
	// backing RunSource, separate from the named plans Open compiles.
	AdHocCacheSize int
	AdHocCacheTTL  time.Duration
}

// DefaultConfig returns a Config with an in-memory environment and a
// 256-entry, 5-minute ad hoc query cache.
func DefaultConfig() Config {
	return Config{
		AdHocCacheSize: 256,
		AdHocCacheTTL:  5 * time.Minute,
	}
}

// DB is one opened HelixDB project: the KV environment, the graph core,
// one HNSW index per configured vector label, the BM25 text index
// (module-wide, not per-label -- see HybridSearch), and the query plans
// compiled from the project's *.hx files.
type DB struct {
	mu sync.RWMutex

	cfg      Config
	pcfg     config.Config
	env      *kv.Env
	g        *graph.Store
	vecIdx   map[string]*vector.Index
	plans    map[string]*codegen.Plan
	adhoc    *cache.PlanCache
	closed   bool
}

// Open reads schema.hx, config.hx.json, and every *.hx query file out of
// cfg.ProjectDir, compiling them into a single traversal plan module. It
// opens the KV environment at cfg.DataDir and builds the graph's secondary
// indices and each declared label's vector.Index up front.
func Open(cfg Config) (*DB, error) {
	if cfg.ProjectDir == "" {
		return nil, fmt.Errorf("%w: ProjectDir is required", herr.ErrConfigFileNotFound)
	}

	pcfg, err := config.Load(cfg.ProjectDir)
	if err != nil {
		return nil, err
	}

	src, err := loadProjectSource(cfg.ProjectDir)
	if err != nil {
		return nil, err
	}

	symbols, irs, diags := analyzer.Analyze(src)
	if errDiags := firstError(diags); errDiags != nil {
		return nil, fmt.Errorf("%w: %s", herr.ErrDecode, errDiags.Render())
	}

	env, err := kv.Open(kv.Options{
		Path:       cfg.DataDir,
		InMemory:   cfg.DataDir == "",
		SyncWrites: cfg.SyncWrites,
		MapSizeGB:  pcfg.DBMaxSizeGB,
	})
	if err != nil {
		return nil, herr.Storage(err)
	}

	g := graph.New(indexSpecs(symbols, pcfg))

	vecIdx, err := buildVectorIndices(src, pcfg)
	if err != nil {
		env.Close()
		return nil, err
	}

	plans := make(map[string]*codegen.Plan, len(irs))
	for _, ir := range irs {
		p := codegen.Compile(ir)
		plans[p.Name()] = p
	}

	if cfg.AdHocCacheSize == 0 {
		cfg.AdHocCacheSize = 256
	}

	return &DB{
		cfg:    cfg,
		pcfg:   pcfg,
		env:    env,
		g:      g,
		vecIdx: vecIdx,
		plans:  plans,
		adhoc:  cache.NewPlanCache(cfg.AdHocCacheSize, cfg.AdHocCacheTTL),
	}, nil
}

// Close releases the underlying KV environment. Close is idempotent.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.closed {
		return nil
	}
	db.closed = true
	return db.env.Close()
}

// Graph satisfies internal/traversal.Store.
func (db *DB) Graph() *graph.Store { return db.g }

// VectorIndex satisfies internal/traversal.Store.
func (db *DB) VectorIndex(label string) (*vector.Index, bool) {
	ix, ok := db.vecIdx[label]
	return ix, ok
}

// Config returns the resolved project configuration (post env-override,
// post-clamp), for callers that want to inspect effective limits.
func (db *DB) Config() config.Config { return db.pcfg }

func firstError(diags []analyzer.Diagnostic) *analyzer.Diagnostic {
	for i := range diags {
		if diags[i].Severity == analyzer.SeverityError {
			return &diags[i]
		}
	}
	return nil
}

// loadProjectSource parses schema.hx and every *.hx query file under dir,
// merging their parser.Sources field-by-field before a single Analyze call.
// The grammar treats schema and query definitions uniformly (parser.Source
// has no notion of which file a def came from), so multiple files
// contribute to one merged Source exactly as if their text had been
// concatenated.
func loadProjectSource(dir string) (*parser.Source, error) {
	schemaPath := filepath.Join(dir, "schema.hx")
	if _, err := os.Stat(schemaPath); err != nil {
		return nil, fmt.Errorf("%w: %s", herr.ErrConfigFileNotFound, schemaPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, herr.Storage(err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".hx") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)

	merged := &parser.Source{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, herr.Storage(err)
		}
		src, err := parser.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", herr.ErrDecode, path, err)
		}
		merged.Nodes = append(merged.Nodes, src.Nodes...)
		merged.Edges = append(merged.Edges, src.Edges...)
		merged.Vectors = append(merged.Vectors, src.Vectors...)
		merged.Queries = append(merged.Queries, src.Queries...)
	}
	return merged, nil
}

// indexSpecs turns a query file's INDEX-tagged schema fields plus
// config.hx.json's secondary_indices field names into graph.IndexSpecs.
// A secondary_indices entry names "Label.field";
// entries with no dot are ignored as malformed rather than rejected
// outright, since config.hx.json is otherwise permissive about unknown
// keys (see internal/config.Load layering over Default()).
func indexSpecs(st *analyzer.SymbolTable, pcfg config.Config) []graph.IndexSpec {
	byLabel := make(map[string]map[string]bool)
	add := func(label, field string) {
		if byLabel[label] == nil {
			byLabel[label] = make(map[string]bool)
		}
		byLabel[label][field] = true
	}

	for label, sym := range st.Nodes {
		for name, ft := range sym.Fields {
			if ft.Indexed {
				add(label, name)
			}
		}
	}
	for _, entry := range pcfg.SecondaryIndices {
		label, field, ok := strings.Cut(entry, ".")
		if !ok {
			continue
		}
		add(label, field)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	specs := make([]graph.IndexSpec, 0, len(byLabel))
	for _, label := range labels {
		fields := make([]string, 0, len(byLabel[label]))
		for f := range byLabel[label] {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		specs = append(specs, graph.IndexSpec{Label: label, Fields: fields})
	}
	return specs
}

// buildVectorIndices constructs one vector.Index per V::Label declared in
// the schema whose dimensionality is given by config.hx.json's
// vector_config.dims map, since the HQL grammar has no vector-dimension
// syntax of its own. A declared V::Label absent from dims gets no index
// and later SearchV/InsertV calls against it fail with
// herr.ErrLabelNotFound, the same error an undeclared label already
// produces.
func buildVectorIndices(src *parser.Source, pcfg config.Config) (map[string]*vector.Index, error) {
	vcfg := vector.DefaultConfig()
	if pcfg.VectorConfig.M > 0 {
		vcfg.M = pcfg.VectorConfig.M
		vcfg.M0 = 2 * pcfg.VectorConfig.M
	}
	if pcfg.VectorConfig.EfConstruction > 0 {
		vcfg.EfConstruction = pcfg.VectorConfig.EfConstruction
	}
	if pcfg.VectorConfig.EfSearch > 0 {
		vcfg.EfSearch = pcfg.VectorConfig.EfSearch
	}

	out := make(map[string]*vector.Index, len(src.Vectors))
	for _, v := range src.Vectors {
		dim, ok := pcfg.VectorConfig.Dims[v.Label]
		if !ok {
			continue
		}
		out[v.Label] = vector.New(vcfg, dim)
	}
	return out, nil
}

// --- query execution ---

// Run executes the named, pre-compiled query plan. Mutating plans
// (codegen.Plan.Mutating) run in a read-write transaction that commits on
// success and discards on error; read-only plans run in a read-only
// transaction.
func (db *DB) Run(name string, params map[string]codec.Value) ([]codec.Value, error) {
	plan, ok := db.plans[name]
	if !ok {
		return nil, fmt.Errorf("%w: query %q", herr.ErrLabelNotFound, name)
	}
	return db.execute(plan, params)
}

// RunSource parses, analyzes, compiles (or fetches from the ad hoc plan
// cache), and executes one inline query source string not registered as
// part of the project -- the REPL / cmd/helixctl "query run" path.
func (db *DB) RunSource(src string, params map[string]codec.Value) ([]codec.Value, error) {
	key := db.adhoc.Key(src)
	plan, ok := db.adhoc.Get(key)
	if !ok {
		parsed, err := parser.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", herr.ErrDecode, err)
		}
		_, irs, diags := analyzer.Analyze(parsed)
		if errDiag := firstError(diags); errDiag != nil {
			return nil, fmt.Errorf("%w: %s", herr.ErrDecode, errDiag.Render())
		}
		if len(irs) != 1 {
			return nil, fmt.Errorf("%w: ad hoc source must declare exactly one query", herr.ErrInvalidData)
		}
		plan = codegen.Compile(irs[0])
		db.adhoc.Put(key, plan)
	}
	return db.execute(plan, params)
}

func (db *DB) execute(plan *codegen.Plan, params map[string]codec.Value) ([]codec.Value, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return nil, herr.ErrStorage
	}

	if plan.Mutating() {
		txn := db.env.BeginWrite()
		out, err := plan.Execute(txn, db, params)
		if err != nil {
			txn.Discard()
			return nil, err
		}
		if err := txn.Commit(); err != nil {
			return nil, herr.Storage(err)
		}
		return out, nil
	}

	txn := db.env.BeginRead()
	defer txn.Discard()
	return plan.Execute(txn, db, params)
}

// Ingest streams a JSONL bulk-load payload into the
// project's graph and vector indices under one read-write transaction.
func (db *DB) Ingest(r io.Reader) (ingest.Stats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return ingest.Stats{}, herr.ErrStorage
	}

	txn := db.env.BeginWrite()
	in := ingest.New(db)
	stats, err := in.Stream(txn, r)
	if err != nil {
		txn.Discard()
		return stats, err
	}
	if err := txn.Commit(); err != nil {
		return stats, herr.Storage(err)
	}
	return stats, nil
}
