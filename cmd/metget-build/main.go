// Command metget-build is the Build Orchestrator worker process: it
// polls the Redis request queue and drives each request through
// orchestrator.Run until the process is asked to stop.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/waterinstitute/metget/internal/catalog"
	"github.com/waterinstitute/metget/internal/config"
	"github.com/waterinstitute/metget/internal/model"
	"github.com/waterinstitute/metget/internal/objectstore"
	"github.com/waterinstitute/metget/internal/orchestrator"
	"github.com/waterinstitute/metget/internal/queue"
	"github.com/waterinstitute/metget/internal/registry"
	"github.com/waterinstitute/metget/internal/selection"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := catalog.Connect(cfg.DatabaseURL, cfg.MaxUncommitted)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to catalog database")
	}
	defer store.Close()

	objects, err := objectstore.New(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3UseSSL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object store client")
	}

	var glacier *objectstore.GlacierClient
	if cfg.CoampsS3Bucket != "" {
		glacier, err = objectstore.NewGlacierClient(cfg.S3Endpoint, cfg.CoampsAWSKey, cfg.CoampsAWSSecret, cfg.CoampsS3Bucket)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize glacier client")
		}
	}

	reg := registry.New()
	engine := selection.New(store, reg)

	q, err := queue.New(ctx, cfg.RedisURL, cfg.RequestQueueName)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to request queue")
	}
	defer q.Close()

	orch := orchestrator.New(orchestrator.Deps{
		Store:            store,
		Objects:          objects,
		Glacier:          glacier,
		Selection:        engine,
		Registry:         reg,
		RequestSleepTime: cfg.RequestSleepTime,
		MaxRequestTime:   cfg.MaxRequestTime,
		WorkDir:          workDir(),
	})

	log.Info().Str("queue", cfg.RequestQueueName).Msg("build orchestrator worker started")
	runLoop(ctx, q, orch)
	log.Info().Msg("build orchestrator worker stopped")
}

// runLoop dequeues JSON-encoded InputRequest payloads until ctx is
// cancelled, dispatching each to the orchestrator. A dequeue error is logged and retried; a request
// failure is already recorded by Run in the request table, so the loop
// just moves on.
func runLoop(ctx context.Context, q *queue.Queue, orch *orchestrator.Orchestrator) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		payload, err := q.Dequeue(ctx, 30*time.Second)
		if err != nil {
			log.Error().Err(err).Msg("dequeue failed")
			continue
		}
		if payload == "" {
			continue
		}

		var req model.InputRequest
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			log.Error().Err(err).Str("payload", payload).Msg("dropping malformed request payload")
			continue
		}

		requestID := req.RequestID
		if requestID == "" {
			requestID = payload
		}

		if err := orch.Run(ctx, requestID, &req); err != nil {
			log.Error().Err(err).Str("request_id", requestID).Msg("build request failed")
		}
	}
}

func workDir() string {
	if v := os.Getenv("METGET_WORKDIR"); v != "" {
		return v
	}
	return os.TempDir()
}
