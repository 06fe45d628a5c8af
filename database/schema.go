// backend/database/schema.go
package database

import (
	"database/sql"
	"fmt"
	"log"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS leads (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		domain VARCHAR(255) NOT NULL,
		company_name VARCHAR(512) NOT NULL,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		sources TEXT NOT NULL,
		total_impressions BIGINT NULL,
		total_spend_estimate DOUBLE NULL,
		company_info TEXT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uniq_leads_domain (domain),
		KEY idx_leads_last_seen (last_seen),
		KEY idx_leads_active (is_active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS ad_creatives (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		lead_id BIGINT NOT NULL,
		ad_id VARCHAR(255) NULL,
		source VARCHAR(32) NOT NULL,
		advertiser_name VARCHAR(512) NOT NULL,
		creative_url TEXT NULL,
		landing_page_url TEXT NULL,
		campaign_start_date DATETIME NULL,
		impressions BIGINT NULL,
		spend_estimate DOUBLE NULL,
		scraped_at DATETIME NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		KEY idx_creatives_lead (lead_id),
		KEY idx_creatives_ad_source (ad_id, source),
		CONSTRAINT fk_creatives_lead FOREIGN KEY (lead_id) REFERENCES leads(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// InitSchema creates the tables if they do not exist yet. Safe to run on
// every startup.
func InitSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	log.Println("Database schema is ready.")
	return nil
}
