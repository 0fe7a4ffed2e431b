// workers/competitor_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"game-economy-service/models"
	"game-economy-service/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MirroredCompetitor matches the JSON response from the profile service's
// sync endpoint.
type MirroredCompetitor struct {
	ID             string    `json:"id"`
	ExternalUserID string    `json:"external_user_id"`
	GameID         string    `json:"game_id"`
	DisplayName    string    `json:"display_name"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	IsBanned       bool      `json:"is_banned"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// GetCompetitorChangesResponse is the top-level structure of the sync response
type GetCompetitorChangesResponse struct {
	Competitors []MirroredCompetitor `json:"competitors"`
}

// CompetitorSyncWorker mirrors competitor records from the profile service
// and makes sure every active competitor has a currency balance row, so
// transfers never have to auto-create accounts.
type CompetitorSyncWorker struct {
	db           *gorm.DB
	ledger       *services.LedgerService
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/competitors"
	serviceToken string
	httpClient   *http.Client
}

func NewCompetitorSyncWorker(db *gorm.DB, ledger *services.LedgerService, syncServiceBaseURL, endpointPath, serviceToken string) *CompetitorSyncWorker {
	return &CompetitorSyncWorker{
		db:           db,
		ledger:       ledger,
		interval:     1 * time.Minute,
		baseURL:      syncServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *CompetitorSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Competitor Sync Worker (profile service → competitors)…")
	go w.run(ctx)
}

func (w *CompetitorSyncWorker) run(ctx context.Context) {
	// Initial sync backfills from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial competitor sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.getLastSyncTime()); err != nil {
				log.Printf("❌ Competitor sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Competitor Sync Worker stopped")
			return
		}
	}
}

// getLastSyncTime finds the most recent UpdatedAt in the local mirror
func (w *CompetitorSyncWorker) getLastSyncTime() time.Time {
	var lastTime time.Time
	err := w.db.Raw("SELECT MAX(updated_at) FROM competitors WHERE deleted_at IS NULL").Scan(&lastTime).Error
	if err != nil || lastTime.IsZero() {
		return time.Unix(0, 0)
	}
	return lastTime
}

func (w *CompetitorSyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid sync service URL %q: %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("build request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sync service request failed: %w", err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sync service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetCompetitorChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("decode sync service response: %w", err)
	}

	if len(response.Competitors) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d competitor(s) from profile service…", len(response.Competitors))

	var upsertCount, errorCount int
	for _, remote := range response.Competitors {
		local := models.Competitor{
			ID:             remote.ID,
			ExternalUserID: remote.ExternalUserID,
			GameID:         remote.GameID,
			DisplayName:    remote.DisplayName,
			AvatarURL:      remote.AvatarURL,
			IsBanned:       remote.IsBanned,
		}

		if err := w.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}, {Name: "game_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"display_name", "avatar_url", "is_banned", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert competitor (external_id=%q, game=%q): %v",
				remote.ExternalUserID, remote.GameID, err)
			continue
		}
		upsertCount++

		// A competitor without a balance row cannot receive transfers
		if _, err := w.ledger.EnsureBalance(local.ID, local.GameID); err != nil {
			log.Printf("[SYNC] ⚠️ Failed to ensure balance for competitor %s: %v", local.ID, err)
		}
	}

	log.Printf("[SYNC] ✅ Synced %d competitor(s) (%d upserted, %d errors)",
		len(response.Competitors), upsertCount, errorCount)
	return nil
}
