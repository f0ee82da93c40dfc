// Package snapshot reads provider lists, identity registries and request
// files from YAML or JSON. Every call returns freshly decoded values, so
// callers always hold their own immutable copy.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/aidmatch/internal/cache"
	"github.com/ppiankov/aidmatch/internal/model"
)

// Loader decodes snapshot files, caching their raw bytes
type Loader struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *logrus.Logger
}

// NewLoader creates a loader. A nil cache disables caching.
func NewLoader(c cache.Cache, ttl time.Duration, logger *logrus.Logger) *Loader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Loader{cache: c, ttl: ttl, logger: logger}
}

// Snapshot is the read-only data a serving process works against
type Snapshot struct {
	Providers []model.Provider
	Registry  []model.IdentityRecord
}

// Paths names the files LoadAll reads. Empty paths are skipped.
type Paths struct {
	Providers string
	Registry  string
}

// LoadAll reads the provider list and identity registry concurrently
func (l *Loader) LoadAll(ctx context.Context, paths Paths) (*Snapshot, error) {
	snap := &Snapshot{}
	g, ctx := errgroup.WithContext(ctx)

	if paths.Providers != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			providers, err := l.Providers(paths.Providers)
			if err != nil {
				return err
			}
			snap.Providers = providers
			return nil
		})
	}
	if paths.Registry != "" {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			registry, err := l.Registry(paths.Registry)
			if err != nil {
				return err
			}
			snap.Registry = registry
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// Providers loads a provider list
func (l *Loader) Providers(path string) ([]model.Provider, error) {
	var providers []model.Provider
	if err := l.decode(path, &providers); err != nil {
		return nil, err
	}
	for i, p := range providers {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%s: provider %d has no id", path, i)
		}
	}
	return providers, nil
}

// Registry loads an identity registry
func (l *Loader) Registry(path string) ([]model.IdentityRecord, error) {
	var records []model.IdentityRecord
	if err := l.decode(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Subject loads a single verification subject
func (l *Loader) Subject(path string) (model.Subject, error) {
	var s model.Subject
	err := l.decode(path, &s)
	return s, err
}

// Subjects loads a list of verification subjects
func (l *Loader) Subjects(path string) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := l.decode(path, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// MatchRequest loads a match request
func (l *Loader) MatchRequest(path string) (model.MatchRequest, error) {
	var req model.MatchRequest
	err := l.decode(path, &req)
	return req, err
}

// StatusFields loads beneficiary status fields
func (l *Loader) StatusFields(path string) (model.StatusFields, error) {
	var f model.StatusFields
	err := l.decode(path, &f)
	return f, err
}

func (l *Loader) decode(path string, v interface{}) error {
	data, err := l.read(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, v)
	case ".json":
		err = json.Unmarshal(data, v)
	default:
		return fmt.Errorf("%s: unsupported file type (use .yaml, .yml or .json)", path)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (l *Loader) read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var key string
	if l.cache != nil {
		key = cache.SnapshotKey(path, info.ModTime(), info.Size())
		if data, ok := l.cache.Get(key); ok {
			l.logger.WithField("path", path).Debug("Snapshot cache hit")
			return data, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if l.cache != nil {
		if err := l.cache.Set(key, data, l.ttl); err != nil {
			l.logger.WithError(err).WithField("path", path).Warn("Failed to cache snapshot")
		}
	}
	return data, nil
}
