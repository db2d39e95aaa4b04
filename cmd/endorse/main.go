// Command endorse generates one batch of endorsement images from a model
// photo and a product photo and saves the results to disk.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"endorsement/internal/batch"
	"endorsement/internal/domain"
	"endorsement/internal/encoder"
	"endorsement/internal/infra"
	"endorsement/internal/infra/credentials"
	"endorsement/internal/middleware"
	"endorsement/internal/providers/genai"
	"endorsement/internal/storage"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFailed  = 2
)

// generatorFactory builds the remote client once the API key is known.
type generatorFactory func(ctx context.Context, cfg *infra.Config, apiKey string, logger *infra.Logger) (batch.Generator, error)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, newGenerator)
	stop()
	os.Exit(code)
}

func newGenerator(ctx context.Context, cfg *infra.Config, apiKey string, logger *infra.Logger) (batch.Generator, error) {
	return genai.NewFromConfig(ctx, cfg, apiKey, logger)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, build generatorFactory) int {
	cfg, err := infra.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "invalid configuration: %v\n", err)
		return exitInvalid
	}

	fs := flag.NewFlagSet("endorse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		modelPath   = fs.String("model", "", "path to the model photo")
		productPath = fs.String("product", "", "path to the product photo")
		style       = fs.String("style", "", "scene style, e.g. \"urban street at dusk\"")
		hd          = fs.Bool("hd", false, "request the 4K high-detail preamble")
		outDir      = fs.String("out", cfg.StoragePath, "directory the images are written to")
		localeFlag  = fs.String("locale", cfg.DefaultLocale, "message language (id or en)")
		verbose     = fs.Bool("v", false, "verbose logging")
	)
	if err := fs.Parse(args); err != nil {
		return exitInvalid
	}
	locale := middleware.NormalizeLocale(*localeFlag)

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Str("cmd", "endorse").Logger()

	model, err := loadImage(*modelPath)
	if err != nil {
		logger.Debug().Err(err).Msg("model photo rejected")
		fmt.Fprintln(stderr, domain.Message(domain.MsgInvalidImage, locale))
		return exitInvalid
	}
	product, err := loadImage(*productPath)
	if err != nil {
		logger.Debug().Err(err).Msg("product photo rejected")
		fmt.Fprintln(stderr, domain.Message(domain.MsgInvalidImage, locale))
		return exitInvalid
	}

	apiKey, err := resolveAPIKey(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load gemini credentials: %v\n", err)
		return exitInvalid
	}
	generator, err := build(ctx, cfg, apiKey, &logger)
	if err != nil {
		fmt.Fprintf(stderr, "failed to build gemini client: %v\n", err)
		return exitInvalid
	}

	orchestrator := batch.NewOrchestrator(generator, batch.Options{Size: cfg.BatchSize, Logger: &logger})
	result, err := orchestrator.Run(ctx, model, product, batch.Params{Style: *style, HighQuality: *hd}, progressPrinter(stdout))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			fmt.Fprintln(stderr, domain.Message(domain.MsgMissingImages, locale))
		} else {
			fmt.Fprintf(stderr, "batch failed to start: %v\n", err)
		}
		return exitInvalid
	}

	// An interrupt does not stop the batch, so it must not discard its output.
	if err := saveImages(context.WithoutCancel(ctx), *outDir, result.Snapshot, stdout); err != nil {
		fmt.Fprintf(stderr, "failed to save images: %v\n", err)
		return exitFailed
	}
	if result.Failed {
		fmt.Fprintln(stderr, domain.Message(domain.MsgPartialFailure, locale))
		return exitFailed
	}
	return exitOK
}

// loadImage returns nil for an empty path so the orchestrator reports the
// missing photo.
func loadImage(p string) (*encoder.SourceImage, error) {
	if p == "" {
		return nil, nil
	}
	img, err := encoder.FromFile(p)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func resolveAPIKey(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (string, error) {
	if cfg.GeminiAPIKey != "" || !cfg.HasDatabase() {
		return cfg.GeminiAPIKey, nil
	}
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer pool.Close()
	return credentials.NewStore(infra.NewSQLRunner(pool, logger)).ResolveGeminiKey(ctx, "")
}

// progressPrinter prints one line per task as it settles.
func progressPrinter(w io.Writer) batch.UpdateFunc {
	title := cases.Title(language.English)
	reported := map[int]bool{}
	return func(s batch.Snapshot) {
		settled := len(s.Tasks) - s.Count(batch.StatePending)
		for _, task := range s.Tasks {
			if !task.State.Terminal() || reported[task.Index] {
				continue
			}
			reported[task.Index] = true
			fmt.Fprintf(w, "[%d/%d] image %d: %s\n", settled, len(s.Tasks), task.Index+1, title.String(string(task.State)))
		}
		if s.Done {
			fmt.Fprintf(w, "batch %s: %d succeeded, %d failed\n", s.ID, s.Count(batch.StateSucceeded), s.Count(batch.StateFailed))
		}
	}
}

func saveImages(ctx context.Context, dir string, s batch.Snapshot, w io.Writer) error {
	images, err := s.Images()
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	store, err := storage.NewFileStore(dir)
	if err != nil {
		return err
	}
	for _, img := range images {
		key, err := store.Write(ctx, path.Join(s.ID, img.Filename()), img.Data)
		if err != nil {
			return err
		}
		full, _ := store.Path(key)
		fmt.Fprintf(w, "saved %s\n", full)
	}
	return nil
}
