// backend/models/export.go
package models

import (
	"strconv"
	"strings"
)

func formatInt64(v int64) string   { return strconv.FormatInt(v, 10) }
func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// LeadExportRow is the flat tabular projection of a Lead used for CSV export.
// CSV tags define the column headers.
type LeadExportRow struct {
	Domain             string `csv:"domain"`
	CompanyName        string `csv:"company_name"`
	FirstSeen          string `csv:"first_seen"`
	LastSeen           string `csv:"last_seen"`
	Sources            string `csv:"sources"`
	TotalImpressions   string `csv:"total_impressions"`
	TotalSpendEstimate string `csv:"total_spend_estimate"`
	NumCreatives       int    `csv:"num_creatives"`
	IsActive           bool   `csv:"is_active"`
	WebsiteTitle       string `csv:"website_title"`
	LinkedInURL        string `csv:"linkedin_url"`
	Phone              string `csv:"phone"`
	Email              string `csv:"email"`
	CompanySize        string `csv:"company_size"`
	Industry           string `csv:"industry"`
}

// ExportRow flattens a lead into one CSV row. Unset aggregates export as
// empty cells, not zeros.
func (l *Lead) ExportRow() LeadExportRow {
	sources := make([]string, 0, len(l.Sources))
	for _, s := range l.Sources {
		sources = append(sources, string(s))
	}

	row := LeadExportRow{
		Domain:       l.Domain,
		CompanyName:  l.CompanyName,
		FirstSeen:    l.FirstSeen.UTC().Format("2006-01-02T15:04:05Z"),
		LastSeen:     l.LastSeen.UTC().Format("2006-01-02T15:04:05Z"),
		Sources:      strings.Join(sources, ", "),
		NumCreatives: len(l.AdCreatives),
		IsActive:     l.IsActive,
	}
	if l.TotalImpressions != nil {
		row.TotalImpressions = formatInt64(*l.TotalImpressions)
	}
	if l.TotalSpendEstimate != nil {
		row.TotalSpendEstimate = formatFloat(*l.TotalSpendEstimate)
	}
	if ci := l.CompanyInfo; ci != nil {
		row.WebsiteTitle = ci.WebsiteTitle
		row.LinkedInURL = ci.LinkedInURL
		row.Phone = ci.Phone
		row.Email = ci.Email
		row.CompanySize = ci.CompanySize
		row.Industry = ci.Industry
	}
	return row
}
