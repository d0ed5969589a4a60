package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cognicore/termex/internal/logger"
	"github.com/cognicore/termex/pkg/termex"
	"github.com/cognicore/termex/pkg/termex/config"
	"github.com/cognicore/termex/pkg/termex/export"
	"github.com/cognicore/termex/pkg/termex/reader"
	"github.com/cognicore/termex/pkg/termex/review"
	"github.com/cognicore/termex/pkg/termex/store"
	"github.com/cognicore/termex/pkg/termex/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "termex:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("termex", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		configPath  = fs.String("config", "", "Config file (optional)")
		inputPath   = fs.String("input", "", "Document to extract terms from (required)")
		minFreq     = fs.String("min-freq", "", "Minimum term frequency")
		maxChunk    = fs.Int("max-chunk", 0, "Maximum chunk size in characters")
		annotator   = fs.String("annotator", "", "Annotator: prose or lexicon")
		lexiconPath = fs.String("lexicon", "", "Tag lexicon YAML for the lexicon annotator")
		concurrency = fs.Int("concurrency", 0, "Chunks annotated in parallel")
		sortDir     = fs.String("sort", "", "Frequency order: asc or desc")
		csvPath     = fs.String("csv", "", "Export selected terms to this CSV file")
		dbPath      = fs.String("db", "", "Persist the run to this SQLite database")
		top         = fs.Int("top", 50, "Rows to print, 0 for all")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *inputPath == "" {
		return errors.New("--input required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// Flags win over the config file and environment, but only when given.
	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "min-freq":
			n, err := config.ParseMinFrequency(*minFreq)
			if err != nil {
				flagErr = err
			}
			cfg.MinFrequency = n
		case "max-chunk":
			cfg.MaxChunkSize = *maxChunk
		case "annotator":
			cfg.Annotator = *annotator
		case "lexicon":
			cfg.LexiconPath = *lexiconPath
			if cfg.Annotator == "prose" && !flagSet(fs, "annotator") {
				cfg.Annotator = "lexicon"
			}
		case "concurrency":
			cfg.Concurrency = *concurrency
		case "sort":
			cfg.Sort = *sortDir
		case "db":
			cfg.DBPath = *dbPath
		}
	})
	if flagErr != nil {
		return flagErr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Writer: stderr, Component: "termex"})
	comp, err := cfg.Build(&log)
	if err != nil {
		return err
	}

	text, err := reader.Read(*inputPath)
	if err != nil {
		return err
	}

	job := comp.Extractor.Start(ctx, cfg.Request(text))
	last := -1
	for p := range job.Progress() {
		pct := p.Completed * 100 / p.Total
		if pct != last {
			fmt.Fprintf(stderr, "\rProgress: %d%%", pct)
			last = pct
		}
	}
	if last >= 0 {
		fmt.Fprintln(stderr)
	}
	outcome := <-job.Done()
	if outcome.Err != nil {
		return outcome.Err
	}
	res := outcome.Result

	session := review.New(res.Terms)
	fmt.Fprintln(stdout, session.Summary())
	printTable(stdout, res, comp, *top)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, session); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Exported %d terms to %s\n", len(session.Selected()), *csvPath)
	}

	if cfg.DBPath != "" {
		if err := saveRun(ctx, cfg, *inputPath, res); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved run %s to %s\n", res.RunID, cfg.DBPath)
	}
	return nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func printTable(w io.Writer, res *termex.Result, comp *config.Components, top int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tFREQ\tCONTEXT")
	for _, rec := range res.View(comp.Sort).Top(top) {
		preview := strings.ReplaceAll(review.Preview(rec.FirstContext(), review.DefaultPreview), "\n", " ")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.Term, strconv.Itoa(rec.Frequency), preview)
	}
	tw.Flush()
}

func writeCSV(path string, session *review.Session) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, session.Records()); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func saveRun(ctx context.Context, cfg *config.Config, source string, res *termex.Result) error {
	st, err := sqlite.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	return st.SaveRun(ctx, store.Run{
		ID:           res.RunID,
		Source:       source,
		CreatedAt:    time.Now().UTC(),
		MaxChunkSize: cfg.MaxChunkSize,
		MinFrequency: res.MinFrequency,
		Chunks:       res.Chunks,
		Terms:        res.Terms,
	})
}
