// backend/database/lead_store.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/leadscout/adscraper/backend/metrics"
	"github.com/leadscout/adscraper/backend/models"
)

// LeadStore persists reconciled leads and their creatives.
//
// Upserts are serialized through a store-level mutex so that concurrent
// writers for the same domain cannot interleave the read-merge-write cycle.
// Write volume is a handful of rows per ingestion pass, so a single lock is
// not a bottleneck.
type LeadStore struct {
	db *sql.DB
	mu chan struct{} // buffered size 1, used as a ctx-aware mutex
}

// NewLeadStore wraps an open connection pool.
func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{
		db: db,
		mu: make(chan struct{}, 1),
	}
}

func (s *LeadStore) lock(ctx context.Context) error {
	select {
	case s.mu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *LeadStore) unlock() {
	<-s.mu
}

// UpsertLead writes a lead into the store. If a lead with the same domain
// already exists, the stored record is merged with the incoming one and the
// merged result replaces it; creatives already present are not duplicated.
// Returns the lead's row id.
//
// Calling UpsertLead twice with the same lead leaves the store unchanged
// after the first call.
func (s *LeadStore) UpsertLead(ctx context.Context, lead models.Lead) (int64, error) {
	if lead.Domain == "" {
		return 0, fmt.Errorf("cannot upsert lead without a domain")
	}
	if err := s.lock(ctx); err != nil {
		return 0, err
	}
	defer s.unlock()

	// DATETIME columns carry second precision; truncate up front so that a
	// stored record compares equal to its in-memory original on re-upsert.
	truncateLeadTimes(&lead)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stored, err := s.getLeadTx(ctx, tx, lead.Domain)
	if err != nil {
		return 0, err
	}

	var leadID int64
	merged := lead
	if stored == nil {
		leadID, err = s.insertLeadTx(ctx, tx, merged)
		if err != nil {
			return 0, err
		}
	} else {
		leadID = stored.ID
		merged = models.Merge(*stored, lead)
		if err := s.updateLeadTx(ctx, tx, leadID, merged); err != nil {
			return 0, err
		}
	}

	var existing []models.AdCreative
	if stored != nil {
		existing = stored.AdCreatives
	}
	if err := s.insertNewCreativesTx(ctx, tx, leadID, merged.AdCreatives, existing); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit lead upsert: %w", err)
	}
	metrics.LeadUpserts.Inc()
	return leadID, nil
}

func (s *LeadStore) insertLeadTx(ctx context.Context, tx *sql.Tx, lead models.Lead) (int64, error) {
	sourcesJSON, err := json.Marshal(lead.Sources)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize sources: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO leads (domain, company_name, first_seen, last_seen, sources,
			total_impressions, total_spend_estimate, company_info, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.Domain,
		lead.CompanyName,
		lead.FirstSeen,
		lead.LastSeen,
		string(sourcesJSON),
		nullInt64(lead.TotalImpressions),
		nullFloat64(lead.TotalSpendEstimate),
		companyInfoJSON(lead.CompanyInfo),
		lead.IsActive,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lead %s: %w", lead.Domain, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted lead id: %w", err)
	}
	return id, nil
}

func (s *LeadStore) updateLeadTx(ctx context.Context, tx *sql.Tx, id int64, lead models.Lead) error {
	sourcesJSON, err := json.Marshal(lead.Sources)
	if err != nil {
		return fmt.Errorf("failed to serialize sources: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE leads
		SET company_name = ?, first_seen = ?, last_seen = ?, sources = ?,
			total_impressions = ?, total_spend_estimate = ?, company_info = ?
		WHERE id = ?`,
		lead.CompanyName,
		lead.FirstSeen,
		lead.LastSeen,
		string(sourcesJSON),
		nullInt64(lead.TotalImpressions),
		nullFloat64(lead.TotalSpendEstimate),
		companyInfoJSON(lead.CompanyInfo),
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead %s: %w", lead.Domain, err)
	}
	return nil
}

// insertNewCreativesTx inserts the creatives in merged that are not already
// stored. Creatives with a platform ad id are matched on (ad_id, source);
// creatives without one are matched on their full content.
func (s *LeadStore) insertNewCreativesTx(ctx context.Context, tx *sql.Tx, leadID int64, merged, existing []models.AdCreative) error {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[creativeKey(c)] = true
	}

	for _, c := range merged {
		key := creativeKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true

		_, err := tx.ExecContext(ctx, `
			INSERT INTO ad_creatives (lead_id, ad_id, source, advertiser_name,
				creative_url, landing_page_url, campaign_start_date, impressions,
				spend_estimate, scraped_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			leadID,
			nullString(c.AdID),
			string(c.Source),
			c.AdvertiserName,
			nullString(c.CreativeURL),
			nullString(c.LandingPageURL),
			nullTime(c.CampaignStartDate),
			nullInt64(c.Impressions),
			nullFloat64(c.SpendEstimate),
			c.ScrapedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ad creative for lead %d: %w", leadID, err)
		}
	}
	return nil
}

// creativeKey is the dedup identity of a creative within one lead.
func creativeKey(c models.AdCreative) string {
	if c.AdID != "" {
		return fmt.Sprintf("id|%s|%s", c.Source, c.AdID)
	}
	return fmt.Sprintf("anon|%s|%s|%d|%s|%s", c.Source, c.AdvertiserName,
		c.ScrapedAt.Unix(), c.CreativeURL, c.LandingPageURL)
}

// GetLeadByDomain fetches one lead with its creatives. Returns (nil, nil)
// when no lead has that domain.
func (s *LeadStore) GetLeadByDomain(ctx context.Context, domain string) (*models.Lead, error) {
	return s.getLead(ctx, s.db, domain)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *LeadStore) getLeadTx(ctx context.Context, tx *sql.Tx, domain string) (*models.Lead, error) {
	return s.getLead(ctx, tx, domain)
}

func (s *LeadStore) getLead(ctx context.Context, q querier, domain string) (*models.Lead, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, domain, company_name, first_seen, last_seen, sources,
			total_impressions, total_spend_estimate, company_info, is_active
		FROM leads WHERE domain = ?`, domain)

	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lead %s: %w", domain, err)
	}

	creatives, err := s.loadCreatives(ctx, q, lead.ID)
	if err != nil {
		return nil, err
	}
	lead.AdCreatives = creatives
	return lead, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		lead        models.Lead
		sourcesJSON string
		impressions sql.NullInt64
		spend       sql.NullFloat64
		infoJSON    sql.NullString
	)
	err := row.Scan(&lead.ID, &lead.Domain, &lead.CompanyName, &lead.FirstSeen,
		&lead.LastSeen, &sourcesJSON, &impressions, &spend, &infoJSON, &lead.IsActive)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(sourcesJSON), &lead.Sources); err != nil {
		log.Printf("WARN: lead %s has unreadable sources column: %v", lead.Domain, err)
		lead.Sources = nil
	}
	if impressions.Valid {
		v := impressions.Int64
		lead.TotalImpressions = &v
	}
	if spend.Valid {
		v := spend.Float64
		lead.TotalSpendEstimate = &v
	}
	if infoJSON.Valid && infoJSON.String != "" {
		var info models.CompanyInfo
		if err := json.Unmarshal([]byte(infoJSON.String), &info); err != nil {
			log.Printf("WARN: lead %s has unreadable company_info column: %v", lead.Domain, err)
		} else {
			lead.CompanyInfo = &info
		}
	}
	return &lead, nil
}

func (s *LeadStore) loadCreatives(ctx context.Context, q querier, leadID int64) ([]models.AdCreative, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, ad_id, source, advertiser_name, creative_url, landing_page_url,
			campaign_start_date, impressions, spend_estimate, scraped_at
		FROM ad_creatives WHERE lead_id = ? ORDER BY id`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch creatives for lead %d: %w", leadID, err)
	}
	defer rows.Close()

	var creatives []models.AdCreative
	for rows.Next() {
		var (
			c           models.AdCreative
			adID        sql.NullString
			source      string
			creativeURL sql.NullString
			landingURL  sql.NullString
			start       sql.NullTime
			impressions sql.NullInt64
			spend       sql.NullFloat64
		)
		err := rows.Scan(&c.ID, &adID, &source, &c.AdvertiserName, &creativeURL,
			&landingURL, &start, &impressions, &spend, &c.ScrapedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad creative: %w", err)
		}
		c.AdID = adID.String
		c.Source = models.AdSource(source)
		c.CreativeURL = creativeURL.String
		c.LandingPageURL = landingURL.String
		if start.Valid {
			t := start.Time
			c.CampaignStartDate = &t
		}
		if impressions.Valid {
			v := impressions.Int64
			c.Impressions = &v
		}
		if spend.Valid {
			v := spend.Float64
			c.SpendEstimate = &v
		}
		creatives = append(creatives, c)
	}
	return creatives, rows.Err()
}

// LeadFilter narrows GetLeads. Zero value returns everything.
type LeadFilter struct {
	ActiveOnly bool
	Source     models.AdSource // filter to leads observed on this platform
	Since      *time.Time      // last_seen at or after this instant
	Limit      int
}

// GetLeads lists leads matching the filter, most recently seen first.
func (s *LeadStore) GetLeads(ctx context.Context, filter LeadFilter) ([]models.Lead, error) {
	query := `
		SELECT id, domain, company_name, first_seen, last_seen, sources,
			total_impressions, total_spend_estimate, company_info, is_active
		FROM leads WHERE 1=1`
	var args []any

	if filter.ActiveOnly {
		query += " AND is_active = 1"
	}
	if filter.Source != "" {
		// sources is a JSON array column; substring match on the quoted tag.
		query += " AND sources LIKE ?"
		args = append(args, "%\""+string(filter.Source)+"\"%")
	}
	if filter.Since != nil {
		query += " AND last_seen >= ?"
		args = append(args, *filter.Since)
	}
	query += " ORDER BY last_seen DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range leads {
		creatives, err := s.loadCreatives(ctx, s.db, leads[i].ID)
		if err != nil {
			return nil, err
		}
		leads[i].AdCreatives = creatives
	}
	return leads, nil
}

// GetStats computes aggregate counts over the store.
func (s *LeadStore) GetStats(ctx context.Context) (*models.LeadStats, error) {
	stats := &models.LeadStats{
		LeadsBySource: make(map[models.AdSource]int),
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(is_active), 0) FROM leads`).
		Scan(&stats.TotalLeads, &stats.ActiveLeads)
	if err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ad_creatives`).
		Scan(&stats.TotalCreatives)
	if err != nil {
		return nil, fmt.Errorf("failed to count creatives: %w", err)
	}

	// Per-source counts come from the JSON sources column, decoded in Go so
	// the query stays portable across MySQL and MariaDB versions.
	rows, err := s.db.QueryContext(ctx, `SELECT sources FROM leads`)
	if err != nil {
		return nil, fmt.Errorf("failed to read lead sources: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan sources: %w", err)
		}
		var sources []models.AdSource
		if err := json.Unmarshal([]byte(raw), &sources); err != nil {
			continue
		}
		for _, src := range sources {
			stats.LeadsBySource[src]++
		}
	}
	return stats, rows.Err()
}

// SetActive flips a lead's active flag. Returns false when no lead has the
// given domain.
func (s *LeadStore) SetActive(ctx context.Context, domain string, active bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET is_active = ? WHERE domain = ?`, active, domain)
	if err != nil {
		return false, fmt.Errorf("failed to update lead %s: %w", domain, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func truncateLeadTimes(lead *models.Lead) {
	lead.FirstSeen = lead.FirstSeen.UTC().Truncate(time.Second)
	lead.LastSeen = lead.LastSeen.UTC().Truncate(time.Second)
	for i := range lead.AdCreatives {
		c := &lead.AdCreatives[i]
		c.ScrapedAt = c.ScrapedAt.UTC().Truncate(time.Second)
		if c.CampaignStartDate != nil {
			t := c.CampaignStartDate.UTC().Truncate(time.Second)
			c.CampaignStartDate = &t
		}
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat64(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func companyInfoJSON(info *models.CompanyInfo) sql.NullString {
	if info == nil || info.IsEmpty() {
		return sql.NullString{}
	}
	raw, err := json.Marshal(info)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}
