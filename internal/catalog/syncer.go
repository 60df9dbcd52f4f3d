package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"studyroom-backend/config"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/store"
)

// Syncer periodically pulls the upstream timetable and adds any slots the
// registry does not know yet. It never changes the status of existing slots.
type Syncer struct {
	cfg      config.CatalogConfig
	registry store.SlotRegistry
	client   *http.Client
	logger   *slog.Logger
}

// NewSyncer creates a syncer. An invalid proxy URL is logged and ignored.
func NewSyncer(cfg config.CatalogConfig, registry store.SlotRegistry, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}

	var transport http.RoundTripper = &http.Transport{}
	if cfg.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.HTTPProxy)
		if err != nil {
			logger.Warn("invalid catalog proxy URL, syncing without proxy", "proxy", cfg.HTTPProxy, "error", err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	return &Syncer{
		cfg:      cfg,
		registry: registry,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		logger: logger,
	}
}

// Run syncs once immediately and then every configured interval until ctx
// ends.
func (s *Syncer) Run(ctx context.Context) {
	if !s.cfg.SyncEnabled {
		s.logger.Info("catalog sync is disabled")
		return
	}
	s.logger.Info("starting catalog sync", "url", s.cfg.SyncURL, "interval", s.cfg.Interval)

	if _, err := s.SyncOnce(ctx); err != nil {
		s.logger.Error("catalog sync failed", "error", err)
	}

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("catalog sync shutting down")
			return
		case <-timer.C:
			if _, err := s.SyncOnce(ctx); err != nil {
				s.logger.Error("catalog sync failed", "error", err)
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SyncOnce fetches every upstream page and upserts the result. A fetch error
// on any page aborts the cycle before the registry is touched. Entries that
// fail validation are skipped. It returns the number of slots created.
func (s *Syncer) SyncOnce(ctx context.Context) (int64, error) {
	var descriptors []model.Descriptor
	total := 1
	for page := 1; (page-1)*s.cfg.PageSize < total; page++ {
		resp, err := s.fetchPage(ctx, page)
		if err != nil {
			return 0, fmt.Errorf("fetch page %d: %w", page, err)
		}
		if resp.Data.Total == 0 || len(resp.Data.Items) == 0 {
			break
		}
		total = resp.Data.Total
		for _, item := range resp.Data.Items {
			descriptors = append(descriptors, item.descriptor())
		}
		s.logger.Debug("fetched catalog page", "page", page, "items", len(descriptors), "total", total)
	}

	slots, err := Build(descriptors)
	if err != nil {
		s.logger.Warn("skipping invalid upstream slots", "error", err)
	}
	if len(slots) == 0 {
		s.logger.Info("catalog sync finished: nothing to import")
		return 0, nil
	}

	created, err := s.registry.Upsert(ctx, slots)
	if err != nil {
		return 0, err
	}
	s.logger.Info("catalog sync finished", "fetched", len(slots), "created", created)
	return created, nil
}

func (s *Syncer) fetchPage(ctx context.Context, page int) (*pageResponse, error) {
	jsonBody, err := json.Marshal(map[string]int{"page": page, "pageSize": s.cfg.PageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SyncURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range s.cfg.Headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var out pageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal api response: %w", err)
	}
	if out.Code != 0 {
		return nil, fmt.Errorf("API returned non-zero application code: %d", out.Code)
	}
	return &out, nil
}
