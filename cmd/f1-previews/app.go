// cmd/f1-previews/app.go
package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	awsclients "f1-previews/internal/common/aws"
	"f1-previews/internal/common/config"
	"f1-previews/internal/common/database"
	httpclient "f1-previews/internal/common/http"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/common/observability"
	"f1-previews/internal/common/validation"
	"f1-previews/internal/models"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"
	textgeneration "f1-previews/internal/workers/generation/text-generation"
	runnotification "f1-previews/internal/workers/notifications/run-notification"
	previewstore "f1-previews/internal/workers/persistence/preview-store"
	promptstore "f1-previews/internal/workers/prompts/prompt-store"
	"f1-previews/internal/workers/race-data/f1api"
	"f1-previews/internal/workers/race-data/openf1"
	"f1-previews/internal/workers/race-data/standings"

	"go.uber.org/zap"
)

// app holds every wired component. Commands build one, use what they need
// and close it.
type app struct {
	cfg    *config.Config
	zapLog *zap.Logger
	log    logger.Logger

	kv    database.KV
	cache *database.RedisClient

	f1api     *f1api.Client
	openf1    *openf1.Client
	standings *standings.Builder
	prompts   *promptstore.Store
	previews  *previewstore.Store
	generator *generatepreviews.Generator
	obs       *observability.Observability

	season int
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	kv, err := database.Open(ctx, cfg.Storage)
	if err != nil {
		_ = zapLog.Sync()
		return nil, fmt.Errorf("storage %s: %w", cfg.Storage.Driver, err)
	}
	log.Info("storage ready", map[string]interface{}{"driver": cfg.Storage.Driver})

	a := &app{
		cfg:    cfg,
		zapLog: zapLog,
		log:    log,
		kv:     kv,
		season: seasonOrCurrent(cfg.Generation.Season),
	}

	var cache httpclient.Cache
	if cfg.APIs.Cache.Enabled {
		if rdb, ok := kv.(*database.RedisClient); ok {
			cache = rdb
		} else if cfg.Storage.Redis.Address != "" {
			rdb, err := database.NewRedis(cfg.Storage.Redis)
			if err == nil {
				err = rdb.Ping(ctx)
			}
			if err != nil {
				log.Warn("upstream cache disabled", map[string]interface{}{"error": err.Error()})
			} else {
				a.cache = rdb
				cache = rdb
			}
		}
	}
	cacheTTL := config.GetDuration(cfg.APIs.Cache.TTL)

	f1Cfg := f1api.LoadConfig()
	f1Cfg.BaseURL = cfg.APIs.F1API.BaseURL
	f1Cfg.Timeout = config.GetDuration(cfg.APIs.F1API.Timeout)
	f1Cfg.CacheTTL = cacheTTL
	a.f1api = f1api.NewClient(f1Cfg, log, cache)

	of1Cfg := openf1.LoadConfig()
	of1Cfg.BaseURL = cfg.APIs.OpenF1.BaseURL
	of1Cfg.Timeout = config.GetDuration(cfg.APIs.OpenF1.Timeout)
	of1Cfg.CacheTTL = cacheTTL
	a.openf1 = openf1.NewClient(of1Cfg, log, cache)

	a.standings = standings.NewBuilder(&standings.Config{Season: a.season}, a.f1api, log)

	a.prompts = promptstore.NewStore(&promptstore.Config{
		DefaultModel:       cfg.APIs.OpenAI.Model,
		DefaultTemperature: cfg.APIs.OpenAI.Temperature,
		EnvAPIKey:          cfg.APIs.OpenAI.APIKey,
	}, kv, log)

	previewCfg := previewstore.LoadConfig()
	previewCfg.SnapshotPath = cfg.Storage.SnapshotPath
	a.previews = previewstore.NewStore(previewCfg, kv, log)

	validator, err := validation.NewDefaultValidator()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("schema validator: %w", err)
	}

	a.obs = observability.New(cfg.App.Name, log)

	textCfg := textgeneration.LoadConfig()
	textCfg.BaseURL = cfg.APIs.OpenAI.BaseURL
	textCfg.MaxOutputTokens = cfg.APIs.OpenAI.MaxOutputTokens
	textCfg.Timeout = config.GetDuration(cfg.APIs.OpenAI.Timeout)
	textCfg.WebSearch = cfg.APIs.OpenAI.WebSearch

	genCfg := generatepreviews.LoadConfig()
	genCfg.MaxConcurrency = cfg.Generation.MaxConcurrency
	genCfg.DefaultSeason = strconv.Itoa(a.season)
	genCfg.PredictionEnabled = cfg.Generation.PredictionEnabled
	if cfg.Generation.SessionContext {
		genCfg.SessionResults = cfg.Generation.SessionResults
	}
	genCfg.SnapshotPath = cfg.Storage.OutputPath
	if genCfg.SnapshotPath == "" {
		genCfg.SnapshotPath = cfg.Storage.SnapshotPath
	}

	a.generator = generatepreviews.NewGenerator(genCfg, generatepreviews.Dependencies{
		Prompts:       a.prompts,
		Client:        textgeneration.NewClient(textCfg, log),
		Store:         a.previews,
		Schedule:      a.f1api,
		Standings:     a.standings,
		Notifier:      a.notifier(ctx),
		Validator:     validator,
		Observability: a.obs,
	}, log)

	return a, nil
}

// notifier returns nil unless a channel is enabled and AWS config loads.
func (a *app) notifier(ctx context.Context) generatepreviews.Notifier {
	n := a.cfg.Notifications
	if !n.Email.Enabled && !n.SNS.Enabled {
		return nil
	}

	region := n.AWS.Region
	if region == "" {
		region = runnotification.LoadConfig().AWSRegion
	}
	clients, err := awsclients.NewClients(ctx, region)
	if err != nil {
		a.log.Warn("notifications disabled: AWS config failed", map[string]interface{}{"error": err.Error()})
		return nil
	}

	notifyCfg := runnotification.LoadConfig()
	notifyCfg.AWSRegion = region
	notifyCfg.EmailEnabled = n.Email.Enabled
	notifyCfg.FromEmail = n.Email.FromEmail
	notifyCfg.To = n.Email.To
	notifyCfg.SNSEnabled = n.SNS.Enabled
	notifyCfg.TopicARN = n.SNS.TopicARN
	return runnotification.NewHandler(notifyCfg, clients.SES, clients.SNS, a.log)
}

// loadState returns the stored aggregate. When storage holds nothing yet the
// static snapshot file is used instead and saved so later reads see it.
func (a *app) loadState(ctx context.Context) models.GeneratedData {
	state := a.previews.Load(ctx)
	if state.Metadata.GeneratedAt != nil || len(state.Drivers) > 0 {
		return state
	}

	snapshot, ok := a.previews.LoadSnapshot(a.cfg.Storage.SnapshotPath)
	if !ok {
		return state
	}
	saved, err := a.previews.Save(ctx, snapshot, snapshot.GeneratedTime())
	if err != nil {
		a.log.Warn("failed to store snapshot", map[string]interface{}{"error": err.Error()})
		return snapshot
	}
	a.log.Info("seeded storage from snapshot", map[string]interface{}{"path": a.cfg.Storage.SnapshotPath})
	return saved
}

func (a *app) close() {
	if a.obs != nil {
		a.obs.Shutdown()
	}
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.kv != nil {
		if err := a.kv.Close(); err != nil {
			a.log.Warn("storage close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	_ = a.zapLog.Sync()
}

func seasonOrCurrent(season string) int {
	if n, err := strconv.Atoi(season); err == nil && n > 0 {
		return n
	}
	return time.Now().Year()
}
