// internal/workers/persistence/preview-store/handler.go
package previewstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"f1-previews/internal/common/database"
	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	"f1-previews/internal/models"
)

const TaskType = "preview-store"

// Store persists the GeneratedData aggregate as a single JSON blob.
type Store struct {
	config *Config
	kv     database.KV
	logger logger.Logger
	now    func() time.Time
}

func NewStore(config *Config, kv database.KV, log logger.Logger) *Store {
	return &Store{
		config: config,
		kv:     kv,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// Load returns the stored aggregate merged over the empty one. A corrupt
// blob is deleted and the empty aggregate returned; Load never fails.
func (s *Store) Load(ctx context.Context) models.GeneratedData {
	raw, ok, err := s.kv.Get(ctx, s.config.Key)
	if err != nil {
		s.logger.Error("failed to read stored previews", map[string]interface{}{"error": err.Error()})
		return models.NewGeneratedData()
	}
	if !ok || raw == "" {
		return models.NewGeneratedData()
	}

	data, reset, err := merge([]byte(raw))
	if err != nil {
		corrupt := apperrors.NewStateCorruptError(s.config.Key, err)
		s.logger.Warn("discarding corrupt stored previews", map[string]interface{}{
			"code":  string(corrupt.Code),
			"error": corrupt.Error(),
		})
		if derr := s.kv.Delete(ctx, s.config.Key); derr != nil {
			s.logger.Error("failed to delete corrupt previews", map[string]interface{}{"error": derr.Error()})
		}
		return models.NewGeneratedData()
	}
	if len(reset) > 0 {
		s.logger.Warn("reset unreadable fields in stored previews", map[string]interface{}{"fields": reset})
	}
	return data
}

// Save overwrites the blob with data stamped with now and returns the
// stamped aggregate.
func (s *Store) Save(ctx context.Context, data models.GeneratedData, now time.Time) (models.GeneratedData, error) {
	stamped := data.StampGeneratedAt(now)
	raw, err := json.Marshal(stamped)
	if err != nil {
		return data, apperrors.NewStorageFailedError("encode previews", err)
	}
	if err := s.kv.Set(ctx, s.config.Key, string(raw)); err != nil {
		return data, apperrors.NewStorageFailedError("save previews", err)
	}
	s.logger.Info("previews saved", map[string]interface{}{
		"drivers":     len(stamped.Drivers),
		"generatedAt": *stamped.Metadata.GeneratedAt,
	})
	return stamped, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.config.Key); err != nil {
		return apperrors.NewStorageFailedError("clear previews", err)
	}
	s.logger.Info("previews cleared", nil)
	return nil
}

// LoadSnapshot reads a pre-generated snapshot file. The result is stamped
// with the load time. ok is false when the file is missing or unreadable.
func (s *Store) LoadSnapshot(path string) (models.GeneratedData, bool) {
	if path == "" {
		path = s.config.SnapshotPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Info("no snapshot found", map[string]interface{}{"path": path})
		} else {
			s.logger.Warn("failed to read snapshot", map[string]interface{}{"path": path, "error": err.Error()})
		}
		return models.NewGeneratedData(), false
	}

	data, reset, err := merge(raw)
	if err != nil {
		s.logger.Warn("ignoring unparseable snapshot", map[string]interface{}{"path": path, "error": err.Error()})
		return models.NewGeneratedData(), false
	}

	if len(reset) > 0 {
		s.logger.Warn("reset unreadable fields in snapshot", map[string]interface{}{"path": path, "fields": reset})
	}
	s.logger.Info("loaded snapshot", map[string]interface{}{"path": path, "drivers": len(data.Drivers)})
	return data.StampGeneratedAt(s.now()), true
}

// WriteSnapshot writes data as indented JSON.
func (s *Store) WriteSnapshot(path string, data models.GeneratedData) error {
	if path == "" {
		path = s.config.SnapshotPath
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return apperrors.NewStorageFailedError("encode snapshot", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewStorageFailedError("write snapshot", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return apperrors.NewStorageFailedError("write snapshot", fmt.Errorf("%s: %w", path, err))
	}
	s.logger.Info("snapshot written", map[string]interface{}{"path": path})
	return nil
}

// merge decodes each top-level field over the empty aggregate on its own,
// so fields missing from older shapes keep their defaults and a field of
// the wrong type only resets itself. It fails only when raw is not a JSON
// object. reset names the fields that were dropped.
func merge(raw []byte) (data models.GeneratedData, reset []string, err error) {
	data = models.NewGeneratedData()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.NewGeneratedData(), nil, err
	}
	if fields == nil {
		return models.NewGeneratedData(), nil, errors.New("stored previews are not an object")
	}

	decode := func(name string, out interface{}) {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return
		}
		if err := json.Unmarshal(v, out); err != nil {
			reset = append(reset, name)
		}
	}

	if v, ok := fields["drivers"]; ok && !isNull(v) {
		var drivers map[string]json.RawMessage
		if err := json.Unmarshal(v, &drivers); err != nil {
			reset = append(reset, "drivers")
		}
		for name, rawPreview := range drivers {
			var preview models.DriverPreview
			if err := json.Unmarshal(rawPreview, &preview); err != nil {
				reset = append(reset, "drivers."+name)
				continue
			}
			data.Drivers[name] = preview
		}
	}

	if v, ok := fields["top5"]; ok && !isNull(v) {
		if entries, _, err := models.DecodeList[models.Top5Entry](v, "top5", "drivers"); err == nil {
			data.Top5 = entries
		} else {
			reset = append(reset, "top5")
		}
	}
	if v, ok := fields["underdogs"]; ok && !isNull(v) {
		if entries, _, err := models.DecodeList[models.UnderdogEntry](v, "underdogs", "stories"); err == nil {
			data.Underdogs = entries
		} else {
			reset = append(reset, "underdogs")
		}
	}

	if v, ok := fields["raceContext"]; ok && !isNull(v) {
		// older blobs hold the context as an object
		if err := json.Unmarshal(v, &data.RaceContext); err != nil {
			data.RaceContext = string(bytes.TrimSpace(v))
		}
	}
	var prediction string
	decode("prediction", &prediction)
	data.Prediction = prediction

	var standings models.Standings
	if v, ok := fields["standings"]; ok && !isNull(v) {
		decode("standings", &standings)
		if standings.StandingsData != nil {
			data.Standings = &standings
		}
	}

	var metadata models.Metadata
	decode("metadata", &metadata)
	data.Metadata = metadata

	sort.Strings(reset)
	return data, reset, nil
}

func isNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || string(v) == "null"
}
