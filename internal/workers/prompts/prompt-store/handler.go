// internal/workers/prompts/prompt-store/handler.go
package promptstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"f1-previews/internal/common/database"
	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
)

const TaskType = "prompt-store"

// Store persists prompt templates and API settings in a KV backend, falling
// back to built-in defaults for anything never saved.
type Store struct {
	config *Config
	kv     database.KV
	logger logger.Logger
}

func NewStore(config *Config, kv database.KV, log logger.Logger) *Store {
	return &Store{
		config: config,
		kv:     kv,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Get returns the saved template or the default. A race-context template
// that no longer asks for JSON output is replaced by the default, and the
// default is written back so the repair happens once.
func (s *Store) Get(ctx context.Context, id PromptID) (string, error) {
	def, ok := Default(id)
	if !ok {
		return "", apperrors.NewUnknownPromptError(string(id))
	}

	val, found, err := s.kv.Get(ctx, string(id))
	if err != nil {
		return "", apperrors.NewStorageFailedError("get "+string(id), err)
	}
	if !found || val == "" {
		return def, nil
	}
	if id == PromptRaceContext && !strings.Contains(strings.ToLower(val), "json") {
		return s.repairRaceContext(ctx)
	}
	return val, nil
}

func (s *Store) repairRaceContext(ctx context.Context) (string, error) {
	s.logger.Warn("race context prompt does not request JSON, restoring default", nil)
	if err := s.kv.Set(ctx, string(PromptRaceContext), defaultRaceContext); err != nil {
		return "", apperrors.NewStorageFailedError("repair "+string(PromptRaceContext), err)
	}
	return defaultRaceContext, nil
}

// Set persists a template immediately.
func (s *Store) Set(ctx context.Context, id PromptID, value string) error {
	if !id.Valid() {
		return apperrors.NewUnknownPromptError(string(id))
	}
	if strings.TrimSpace(value) == "" {
		return apperrors.NewInvalidInputError(fmt.Sprintf("prompt %s must not be empty", id))
	}
	if err := s.kv.Set(ctx, string(id), value); err != nil {
		return apperrors.NewStorageFailedError("set "+string(id), err)
	}
	s.logger.Info("prompt saved", map[string]interface{}{"promptId": string(id), "length": len(value)})
	return nil
}

// All loads every template through Get.
func (s *Store) All(ctx context.Context) (map[PromptID]string, error) {
	out := make(map[PromptID]string, len(AllPrompts))
	for _, id := range AllPrompts {
		val, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = val
	}
	return out, nil
}

// Reset writes every default back.
func (s *Store) Reset(ctx context.Context) error {
	for _, id := range AllPrompts {
		if err := s.kv.Set(ctx, string(id), defaultPrompts[id]); err != nil {
			return apperrors.NewStorageFailedError("reset "+string(id), err)
		}
	}
	s.logger.Info("prompts reset to defaults", nil)
	return nil
}

// LoadSettings returns saved settings, filling gaps from config.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	settings := Settings{
		APIKey:      s.config.EnvAPIKey,
		Model:       s.config.DefaultModel,
		Temperature: s.config.DefaultTemperature,
	}

	if v, ok, err := s.kv.Get(ctx, KeyAPIKey); err != nil {
		return Settings{}, apperrors.NewStorageFailedError("get "+KeyAPIKey, err)
	} else if ok && v != "" {
		settings.APIKey = v
	}

	if v, ok, err := s.kv.Get(ctx, KeyModel); err != nil {
		return Settings{}, apperrors.NewStorageFailedError("get "+KeyModel, err)
	} else if ok && v != "" {
		settings.Model = v
	}

	if v, ok, err := s.kv.Get(ctx, KeyTemperature); err != nil {
		return Settings{}, apperrors.NewStorageFailedError("get "+KeyTemperature, err)
	} else if ok && v != "" {
		temp, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			s.logger.Warn("ignoring unparseable temperature", map[string]interface{}{"value": v})
		} else {
			settings.Temperature = temp
		}
	}

	return settings, nil
}

// SaveSettings persists all three settings.
func (s *Store) SaveSettings(ctx context.Context, settings Settings) error {
	if settings.Temperature < 0 || settings.Temperature > 2 {
		return apperrors.NewInvalidInputError("temperature must be between 0 and 2")
	}
	pairs := [][2]string{
		{KeyAPIKey, settings.APIKey},
		{KeyModel, settings.Model},
		{KeyTemperature, strconv.FormatFloat(settings.Temperature, 'f', -1, 64)},
	}
	for _, kv := range pairs {
		if err := s.kv.Set(ctx, kv[0], kv[1]); err != nil {
			return apperrors.NewStorageFailedError("set "+kv[0], err)
		}
	}
	s.logger.Info("settings saved", map[string]interface{}{"model": settings.Model})
	return nil
}
