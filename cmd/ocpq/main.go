// Command ocpq is a small demo CLI for the query engine: it loads an OCEL
// JSON log and a BindingBoxTree query, evaluates or filters, and prints a
// markdown table of the result.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aarkue/OCPQ"
	"github.com/aarkue/OCPQ/box"
	"github.com/aarkue/OCPQ/ocel"
)

func main() {
	var logPath string
	var queryPath string
	var filterOut string
	var verbose bool
	var measure int
	var workers int
	var help bool

	flag.StringVar(&logPath, "log", "", "path to an OCEL JSON log")
	flag.StringVar(&queryPath, "query", "", "path to a BindingBoxTree JSON query")
	flag.StringVar(&filterOut, "filter-out", "", "write a filtered OCEL JSON log here instead of evaluating")
	flag.BoolVar(&verbose, "verbose", false, "show query execution annotations")
	flag.IntVar(&measure, "measure", 0, "re-run the query this many times and report timings")
	flag.IntVar(&workers, "workers", 0, "worker pool size (0 = runtime.NumCPU())")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -log log.json -query query.json [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Evaluates an object-centric process query against an OCEL log.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -log order.json -query q.json             # evaluate and print a table\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -log order.json -query q.json -verbose    # with execution annotations\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -log order.json -query q.json -measure 5  # re-run 5x and report timings\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -log order.json -query q.json -filter-out kept.json\n", os.Args[0])
	}
	flag.Parse()

	if help || logPath == "" || queryPath == "" {
		flag.Usage()
		if help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	log, err := loadLog(logPath)
	if err != nil {
		fatalf("loading log: %v", err)
	}
	tree, err := loadTree(queryPath)
	if err != nil {
		fatalf("loading query: %v", err)
	}

	opts := ocpq.DefaultOptions()
	opts.Workers = workers
	if verbose {
		opts.Trace = ConsoleHandler()
	}

	if filterOut != "" {
		filtered, err := ocpq.FilterLog(tree, log, opts)
		if err != nil {
			fatalf("filter: %v", err)
		}
		if err := writeFilteredLog(filterOut, filtered); err != nil {
			fatalf("writing filtered log: %v", err)
		}
		fmt.Printf("Wrote %d events, %d objects to %s\n", len(filtered.Events), len(filtered.Objects), filterOut)
		return
	}

	if measure > 0 {
		result, timings, err := ocpq.EvaluateMeasured(tree, log, opts, measure)
		if err != nil {
			fatalf("evaluate: %v", err)
		}
		printResult(result, log)
		fmt.Println(formatTimings(timings))
		return
	}

	result, err := ocpq.Evaluate(tree, log, opts)
	if err != nil {
		fatalf("evaluate: %v", err)
	}
	printResult(result, log)
}

func loadLog(path string) (*ocel.Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := ocel.DecodeJSON(f)
	if err != nil {
		return nil, err
	}
	return ocel.BuildLog(raw)
}

func loadTree(path string) (*box.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return box.DecodeTreeJSON(data)
}

func writeFilteredLog(path string, o *ocel.OCEL) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ocel.EncodeJSON(f, o)
}

func printResult(result *ocpq.Result, log *ocel.Log) {
	fmt.Println(formatResult(result, log))
	if result.BindingsSkipped {
		fmt.Fprintln(os.Stderr, "warning: some bindings were skipped (MaxBindings or TreeSafetyProduct exceeded)")
	}
}

func formatTimings(timings []time.Duration) string {
	var total time.Duration
	parts := make([]string, len(timings))
	for i, d := range timings {
		total += d
		parts[i] = d.String()
	}
	avg := total / time.Duration(len(timings))
	return fmt.Sprintf("runs: %s\naverage: %s", strings.Join(parts, ", "), avg)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ocpq: "+format+"\n", args...)
	os.Exit(1)
}
