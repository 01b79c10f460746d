package cli

import (
	"context"
	"time"

	"github.com/Vamsi1807/AI-Call-Center/pkg/adapter"
	"github.com/Vamsi1807/AI-Call-Center/pkg/repository"
	"github.com/Vamsi1807/AI-Call-Center/pkg/service/gateway"
	"github.com/Vamsi1807/AI-Call-Center/pkg/usecase/corpus"
	"github.com/Vamsi1807/AI-Call-Center/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// config holds configuration values
type config struct {
	// Documents and artifacts
	dataDir      string
	artifactDir  string
	bucket       string
	objectPrefix string

	// Catalog
	project  string
	database string

	// Google Cloud clients
	credentials string

	// LLM
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string
	retryAttempts  int64
	retryBackoff   time.Duration
	temperature    float64
	audience       string
}

// globalFlags returns flags for documents, artifacts and the rebuild catalog
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding uploaded knowledge files",
			Value:       "excel_data",
			Sources:     cli.EnvVars("CALLCENTER_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "artifact-dir",
			Usage:       "Directory for corpus and summary artifacts when no bucket is set",
			Value:       ".",
			Sources:     cli.EnvVars("CALLCENTER_ARTIFACT_DIR"),
			Destination: &cfg.artifactDir,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for corpus and summary artifacts",
			Sources:     cli.EnvVars("CALLCENTER_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "object-prefix",
			Usage:       "Object name prefix inside the bucket",
			Sources:     cli.EnvVars("CALLCENTER_OBJECT_PREFIX"),
			Destination: &cfg.objectPrefix,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID of the Firestore rebuild catalog",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "credentials",
			Usage:       "Service account key file for Google Cloud clients",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.credentials,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key. Vertex AI is used when empty",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini on Vertex AI",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.IntFlag{
			Name:        "retry",
			Usage:       "Total attempts for transient generation failures",
			Value:       1,
			Sources:     cli.EnvVars("CALLCENTER_RETRY"),
			Destination: &cfg.retryAttempts,
		},
		&cli.DurationFlag{
			Name:        "retry-backoff",
			Usage:       "Wait before the first retry, doubled on each retry",
			Value:       time.Second,
			Sources:     cli.EnvVars("CALLCENTER_RETRY_BACKOFF"),
			Destination: &cfg.retryBackoff,
		},
		&cli.FloatFlag{
			Name:        "temperature",
			Usage:       "Sampling temperature for generation. Negative uses the model default",
			Value:       -1,
			Sources:     cli.EnvVars("GEMINI_TEMPERATURE"),
			Destination: &cfg.temperature,
		},
		&cli.StringFlag{
			Name:        "audience",
			Usage:       "Audience the corpus summary is written for",
			Value:       "educational",
			Sources:     cli.EnvVars("CALLCENTER_AUDIENCE"),
			Destination: &cfg.audience,
		},
	}
}

func (cfg *config) clientOptions() []option.ClientOption {
	if cfg.credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.credentials)}
}

// newRepository creates the rebuild catalog. Without a project the catalog
// lives in memory for the life of the process.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, func(), error) {
	if cfg.project == "" {
		logging.From(ctx).Debug("no project configured, using in-memory rebuild catalog")
		return repository.NewMemory(), func() {}, nil
	}
	if cfg.database == "" {
		return nil, nil, goerr.New("database is required")
	}

	repo, err := repository.New(ctx, cfg.project, cfg.database, cfg.clientOptions()...)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create repository")
	}
	return repo, func() { _ = repo.Close() }, nil
}

// newStorage creates artifact storage: a Cloud Storage bucket when set,
// otherwise a local directory
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket == "" {
		return adapter.NewFileStorage(cfg.artifactDir)
	}

	storage, err := adapter.NewStorage(ctx, cfg.bucket, cfg.clientOptions(), adapter.WithObjectPrefix(cfg.objectPrefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newStore creates the corpus store and restores previously persisted artifacts
func (cfg *config) newStore(ctx context.Context) (*corpus.Store, func(), error) {
	storage, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	repo, closeRepo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	store := corpus.NewStore(storage, corpus.WithRepository(repo))
	if err := store.Load(ctx); err != nil {
		closeRepo()
		return nil, nil, goerr.Wrap(err, "failed to load persisted corpus")
	}
	return store, closeRepo, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-api-key or gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
	}

	gemini, err := adapter.NewGemini(ctx, adapter.GeminiBackend{
		APIKey:   cfg.geminiAPIKey,
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	}, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newGateway creates the generation gateway
func (cfg *config) newGateway(ctx context.Context) (*gateway.Gateway, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}
	opts := []gateway.Option{gateway.WithRetry(int(cfg.retryAttempts), cfg.retryBackoff)}
	if cfg.temperature >= 0 {
		opts = append(opts, gateway.WithTemperature(float32(cfg.temperature)))
	}
	return gateway.New(gemini, opts...), nil
}

// newBigQuery creates a BigQuery client billed to the catalog project
func (cfg *config) newBigQuery(ctx context.Context) (adapter.BigQuery, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required for BigQuery sources")
	}
	bq, err := adapter.NewBigQuery(ctx, cfg.project, cfg.clientOptions())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create bigquery client")
	}
	return bq, nil
}

// newSpeech creates a speech recognizer
func (cfg *config) newSpeech(ctx context.Context, languageCode string) (adapter.Speech, error) {
	sp, err := adapter.NewSpeech(ctx, cfg.clientOptions(), adapter.WithLanguageCode(languageCode))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create speech client")
	}
	return sp, nil
}
