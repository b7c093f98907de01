// Package main provides the helixctl CLI entry point: a thin host binary
// exercising pkg/helixdb. The engine's own lifecycle management is out of
// scope, but a command surface for checking a project's schema, running
// queries against it, and bulk-loading data is ambient tooling an
// embeddable engine like this one ships regardless.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/helixdb/helix/internal/codec"
	"github.com/helixdb/helix/internal/hql/analyzer"
	"github.com/helixdb/helix/internal/hql/parser"
	"github.com/helixdb/helix/pkg/helixdb"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "helixctl",
		Short: "helixctl - HelixDB project tooling",
		Long: `helixctl checks, runs, and loads data into a HelixDB project:
a directory containing schema.hx, config.hx.json, and one or more
*.hx query files.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("helixctl v%s\n", version)
		},
	})

	schemaCmd := &cobra.Command{Use: "schema", Short: "Schema operations"}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Parse and analyze a project's schema and query files",
		RunE:  runSchemaCheck,
	}
	checkCmd.Flags().String("project", ".", "project directory containing schema.hx and *.hx files")
	schemaCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(schemaCmd)

	queryCmd := &cobra.Command{Use: "query", Short: "Query operations"}
	runCmd := &cobra.Command{
		Use:   "run [name]",
		Short: "Run a compiled query by name, or inline source with --source",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runQueryRun,
	}
	runCmd.Flags().String("project", ".", "project directory")
	runCmd.Flags().String("source", "", "inline HQL query source, instead of a named project query")
	runCmd.Flags().String("params", "{}", "JSON object of query parameters")
	queryCmd.AddCommand(runCmd)
	rootCmd.AddCommand(queryCmd)

	ingestCmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Stream a JSONL bulk-load payload into a project (reads stdin if no file given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIngest,
	}
	ingestCmd.Flags().String("project", ".", "project directory")
	rootCmd.AddCommand(ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openProject(cmd *cobra.Command) (*helixdb.DB, error) {
	dir, _ := cmd.Flags().GetString("project")
	cfg := helixdb.DefaultConfig()
	cfg.ProjectDir = dir
	return helixdb.Open(cfg)
}

func runSchemaCheck(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("project")

	data, err := os.ReadFile(dir + "/schema.hx")
	if err != nil {
		return fmt.Errorf("reading schema.hx: %w", err)
	}
	src, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parsing schema.hx: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading project directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || e.Name() == "schema.hx" || !hasHXSuffix(e.Name()) {
			continue
		}
		qdata, err := os.ReadFile(dir + "/" + e.Name())
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		qsrc, err := parser.Parse(string(qdata))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		src.Nodes = append(src.Nodes, qsrc.Nodes...)
		src.Edges = append(src.Edges, qsrc.Edges...)
		src.Vectors = append(src.Vectors, qsrc.Vectors...)
		src.Queries = append(src.Queries, qsrc.Queries...)
	}

	_, _, diags := analyzer.Analyze(src)
	hasError := false
	for _, d := range diags {
		fmt.Fprintln(os.Stderr, d.Render())
		if d.Severity == analyzer.SeverityError {
			hasError = true
		}
	}
	if hasError {
		return fmt.Errorf("schema check failed")
	}
	fmt.Printf("ok: %d node label(s), %d edge label(s), %d vector label(s), %d quer(y|ies)\n",
		len(src.Nodes), len(src.Edges), len(src.Vectors), len(src.Queries))
	return nil
}

func hasHXSuffix(name string) bool {
	return len(name) > 3 && name[len(name)-3:] == ".hx"
}

func runQueryRun(cmd *cobra.Command, args []string) error {
	db, err := openProject(cmd)
	if err != nil {
		return fmt.Errorf("opening project: %w", err)
	}
	defer db.Close()

	paramsRaw, _ := cmd.Flags().GetString("params")
	var rawParams map[string]any
	if err := json.Unmarshal([]byte(paramsRaw), &rawParams); err != nil {
		return fmt.Errorf("parsing --params: %w", err)
	}
	params := make(map[string]codec.Value, len(rawParams))
	for k, v := range rawParams {
		params[k] = codec.FromAny(v)
	}

	source, _ := cmd.Flags().GetString("source")
	var out []codec.Value
	if source != "" {
		out, err = db.RunSource(source, params)
	} else {
		if len(args) == 0 {
			return fmt.Errorf("either a query name or --source is required")
		}
		out, err = db.Run(args[0], params)
	}
	if err != nil {
		return err
	}

	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.ToAny()
	}
	enc, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}

func runIngest(cmd *cobra.Command, args []string) error {
	db, err := openProject(cmd)
	if err != nil {
		return fmt.Errorf("opening project: %w", err)
	}
	defer db.Close()

	var in *os.File
	if len(args) == 1 {
		in, err = os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer in.Close()
	} else {
		in = os.Stdin
	}

	stats, err := db.Ingest(in)
	if err != nil {
		return fmt.Errorf("ingesting: %w", err)
	}
	fmt.Printf("ingested %d node(s), %d edge(s)\n", stats.NodesCreated, stats.EdgesCreated)
	return nil
}
