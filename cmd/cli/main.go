package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/finnut/finnut/internal/category"
	"github.com/finnut/finnut/internal/fhi"
	"github.com/finnut/finnut/internal/gcsstore"
	"github.com/finnut/finnut/internal/logger"
	"github.com/finnut/finnut/internal/mlmodel"
	"github.com/finnut/finnut/internal/parser"
	"github.com/finnut/finnut/internal/scoring"
	"github.com/finnut/finnut/internal/session"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "parse":
		runParse(log)
	case "score":
		runScore(log)
	case "compare":
		runCompare(log)
	case "categorize":
		runCategorize(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FINNUT CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  parse       Parse push notification texts into transactions")
	fmt.Println("  score       Parse and score push texts (rule or ml mode)")
	fmt.Println("  compare     Score the same batch in rule and ml mode and diff")
	fmt.Println("  categorize  Classify a merchant name")
	fmt.Println("  help        Show this help message")
	fmt.Println("\nPush texts are read from a file (or stdin with -file -),")
	fmt.Println("one push per block, blocks separated by a line containing only ---")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runParse(log zerolog.Logger) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	file := fs.String("file", "-", "File with push texts (- for stdin)")
	fs.Parse(os.Args[2:])

	texts, err := readPushes(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read push texts")
	}

	svc := scoring.New(parser.New(log), session.NewRegistry(), nil, nil, log)
	txs := svc.Parse(texts)

	printJSON(map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

func runScore(log zerolog.Logger) {
	fs := flag.NewFlagSet("score", flag.ExitOnError)
	file := fs.String("file", "-", "File with push texts (- for stdin)")
	mode := fs.String("mode", "rule", "Scoring mode: rule or ml")
	modelPath := fs.String("model", os.Getenv("FINNUT_MODEL"), "Model artifact path or gs:// URI (required for -mode ml)")
	fs.Parse(os.Args[2:])

	if *mode != string(fhi.ModeRule) && *mode != string(fhi.ModeML) {
		log.Fatal().Str("mode", *mode).Msg("Mode must be rule or ml")
	}

	texts, err := readPushes(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read push texts")
	}

	predictor := loadPredictor(log, *modelPath)

	svc := scoring.New(parser.New(log), session.NewRegistry(), predictor, nil, log)

	ctx := logger.WithContext(context.Background(), log)
	result, txs, err := svc.ScorePush(ctx, "cli", texts, fhi.Mode(*mode))
	if err != nil {
		log.Fatal().Err(err).Msg("Scoring failed")
	}

	printJSON(map[string]interface{}{
		"result":       result,
		"transactions": txs,
	})
}

func runCompare(log zerolog.Logger) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	file := fs.String("file", "-", "File with push texts (- for stdin)")
	modelPath := fs.String("model", os.Getenv("FINNUT_MODEL"), "Model artifact path or gs:// URI (required)")
	fs.Parse(os.Args[2:])

	if *modelPath == "" {
		log.Fatal().Msg("Error: -model is required for compare")
	}

	texts, err := readPushes(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read push texts")
	}

	predictor := loadPredictor(log, *modelPath)

	svc := scoring.New(parser.New(log), session.NewRegistry(), predictor, nil, log)
	txs := svc.Parse(texts)

	cmp, err := fhi.Compare(txs, predictor)
	if err != nil {
		log.Fatal().Err(err).Msg("Comparison failed")
	}

	printJSON(cmp)
}

func runCategorize(log zerolog.Logger) {
	fs := flag.NewFlagSet("categorize", flag.ExitOnError)
	merchant := fs.String("merchant", "", "Merchant name to classify")
	fs.Parse(os.Args[2:])

	if *merchant == "" {
		log.Fatal().Msg("Error: -merchant is required")
	}

	fmt.Printf("%s -> %s\n", *merchant, category.Categorize(*merchant))
}

// loadPredictor loads the model artifact, or returns nil when no path is
// configured so rule mode keeps working without one.
func loadPredictor(log zerolog.Logger, modelPath string) fhi.Predictor {
	if modelPath == "" {
		return nil
	}

	var (
		model *mlmodel.Model
		err   error
	)
	if strings.HasPrefix(modelPath, "gs://") {
		ctx := logger.WithContext(context.Background(), log)
		model, err = mlmodel.LoadFromGCS(ctx, gcsstore.NewClient(), modelPath)
	} else {
		model, err = mlmodel.Load(modelPath)
	}
	if err != nil {
		log.Fatal().Err(err).Str("model", modelPath).Msg("Failed to load model artifact")
	}

	log.Info().Str("model_version", model.Version()).Msg("Loaded FHI scoring model")
	return model
}

// readPushes reads push texts from a file or stdin. Pushes are multi-line,
// so blocks are separated by a line containing only "---".
func readPushes(path string) ([]string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("readPushes: %w", err)
	}

	var texts []string
	for _, block := range strings.Split(string(data), "\n---\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			texts = append(texts, block)
		}
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("readPushes: no push texts found")
	}

	return texts, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
