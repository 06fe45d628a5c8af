// backend/database/lead_store_test.go
package database

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leadscout/adscraper/backend/models"
)

var leadColumns = []string{
	"id", "domain", "company_name", "first_seen", "last_seen", "sources",
	"total_impressions", "total_spend_estimate", "company_info", "is_active",
}

var creativeColumns = []string{
	"id", "ad_id", "source", "advertiser_name", "creative_url", "landing_page_url",
	"campaign_start_date", "impressions", "spend_estimate", "scraped_at",
}

func mockStore(t *testing.T) (*LeadStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLeadStore(db), mock
}

func TestUpsertLeadInsertsNewLead(t *testing.T) {
	store, mock := mockStore(t)
	seen := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	imp := int64(1000)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, domain").WithArgs("acme.com").
		WillReturnRows(sqlmock.NewRows(leadColumns))
	mock.ExpectExec("INSERT INTO leads").
		WithArgs("acme.com", "Acme Corp", sqlmock.AnyArg(), sqlmock.AnyArg(),
			`["google_ads"]`, int64(1000), nil, nil, true).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO ad_creatives").
		WithArgs(int64(7), "g-1", "google_ads", "Acme Corp", nil, nil, nil,
			int64(1000), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	lead := models.Lead{
		Domain:      "acme.com",
		CompanyName: "Acme Corp",
		FirstSeen:   seen,
		LastSeen:    seen,
		Sources:     []models.AdSource{models.SourceGoogleAds},
		AdCreatives: []models.AdCreative{
			{AdID: "g-1", AdvertiserName: "Acme Corp", Source: models.SourceGoogleAds, Impressions: &imp, ScrapedAt: seen},
		},
		TotalImpressions: &imp,
		IsActive:         true,
	}

	id, err := store.UpsertLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("UpsertLead returned %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want 7", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Re-upserting a lead identical to the stored record must update scalars in
// place and write no new creative rows.
func TestUpsertLeadIdempotent(t *testing.T) {
	store, mock := mockStore(t)
	seen := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	imp := int64(1000)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, domain").WithArgs("acme.com").
		WillReturnRows(sqlmock.NewRows(leadColumns).
			AddRow(7, "acme.com", "Acme Corp", seen, seen, `["google_ads"]`, 1000, nil, nil, true))
	mock.ExpectQuery("SELECT id, ad_id").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(creativeColumns).
			AddRow(1, "g-1", "google_ads", "Acme Corp", nil, nil, nil, 1000, nil, seen))
	mock.ExpectExec("UPDATE leads").
		WithArgs("Acme Corp", sqlmock.AnyArg(), sqlmock.AnyArg(),
			`["google_ads"]`, int64(1000), nil, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	lead := models.Lead{
		Domain:      "acme.com",
		CompanyName: "Acme Corp",
		FirstSeen:   seen,
		LastSeen:    seen,
		Sources:     []models.AdSource{models.SourceGoogleAds},
		AdCreatives: []models.AdCreative{
			{AdID: "g-1", AdvertiserName: "Acme Corp", Source: models.SourceGoogleAds, Impressions: &imp, ScrapedAt: seen},
		},
		TotalImpressions: &imp,
		IsActive:         true,
	}

	id, err := store.UpsertLead(context.Background(), lead)
	if err != nil {
		t.Fatalf("UpsertLead returned %v", err)
	}
	if id != 7 {
		t.Errorf("id = %d, want the stored row's id", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations (a creative insert here means a duplicate row): %v", err)
	}
}

// Merging on upsert: a second source for the same domain unions in and its
// new creative is written, with the stored record as the merge base.
func TestUpsertLeadMergesNewSource(t *testing.T) {
	store, mock := mockStore(t)
	seen1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	seen2 := seen1.Add(24 * time.Hour)
	imp := int64(500)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, domain").WithArgs("acme.com").
		WillReturnRows(sqlmock.NewRows(leadColumns).
			AddRow(7, "acme.com", "Acme Corp", seen1, seen1, `["google_ads"]`, 1000, nil, nil, true))
	mock.ExpectQuery("SELECT id, ad_id").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(creativeColumns).
			AddRow(1, "g-1", "google_ads", "Acme Corp", nil, nil, nil, 1000, nil, seen1))
	mock.ExpectExec("UPDATE leads").
		WithArgs("Acme Corp", sqlmock.AnyArg(), sqlmock.AnyArg(),
			`["google_ads","meta_ads"]`, int64(1500), nil, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ad_creatives").
		WithArgs(int64(7), "m-1", "meta_ads", "ACME", nil, nil, nil,
			int64(500), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	incoming := models.Lead{
		Domain:      "acme.com",
		CompanyName: "ACME",
		FirstSeen:   seen2,
		LastSeen:    seen2,
		Sources:     []models.AdSource{models.SourceMetaAds},
		AdCreatives: []models.AdCreative{
			{AdID: "m-1", AdvertiserName: "ACME", Source: models.SourceMetaAds, Impressions: &imp, ScrapedAt: seen2},
		},
		TotalImpressions: &imp,
		IsActive:         true,
	}

	if _, err := store.UpsertLead(context.Background(), incoming); err != nil {
		t.Fatalf("UpsertLead returned %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetLeadByDomainRoundTrip(t *testing.T) {
	store, mock := mockStore(t)
	seen := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT id, domain").WithArgs("acme.com").
		WillReturnRows(sqlmock.NewRows(leadColumns).
			AddRow(7, "acme.com", "Acme Corp", seen, seen, `["google_ads","meta_ads"]`,
				1500, nil, `{"email":"hello@acme.com"}`, true))
	mock.ExpectQuery("SELECT id, ad_id").WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(creativeColumns).
			AddRow(1, "g-1", "google_ads", "Acme Corp", nil, nil, nil, 1000, nil, seen).
			AddRow(2, "m-1", "meta_ads", "Acme Corp", nil, nil, nil, 500, nil, seen))

	lead, err := store.GetLeadByDomain(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("GetLeadByDomain returned %v", err)
	}
	if lead == nil {
		t.Fatal("GetLeadByDomain returned nil lead")
	}
	if lead.Domain != "acme.com" || lead.CompanyName != "Acme Corp" || !lead.IsActive {
		t.Errorf("scalars = %q / %q / %v", lead.Domain, lead.CompanyName, lead.IsActive)
	}
	wantSources := []models.AdSource{models.SourceGoogleAds, models.SourceMetaAds}
	if !reflect.DeepEqual(lead.Sources, wantSources) {
		t.Errorf("Sources = %v, want %v", lead.Sources, wantSources)
	}
	if lead.TotalImpressions == nil || *lead.TotalImpressions != 1500 {
		t.Errorf("TotalImpressions = %v", lead.TotalImpressions)
	}
	if lead.CompanyInfo == nil || lead.CompanyInfo.Email != "hello@acme.com" {
		t.Errorf("CompanyInfo = %+v", lead.CompanyInfo)
	}
	if len(lead.AdCreatives) != 2 || lead.AdCreatives[0].AdID != "g-1" || lead.AdCreatives[1].AdID != "m-1" {
		t.Errorf("AdCreatives = %+v", lead.AdCreatives)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetLeadByDomainAbsent(t *testing.T) {
	store, mock := mockStore(t)
	mock.ExpectQuery("SELECT id, domain").WithArgs("missing.com").
		WillReturnRows(sqlmock.NewRows(leadColumns))

	lead, err := store.GetLeadByDomain(context.Background(), "missing.com")
	if err != nil || lead != nil {
		t.Errorf("got (%v, %v), want (nil, nil)", lead, err)
	}
}

func TestCreativeKey(t *testing.T) {
	seen := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	withID := models.AdCreative{AdID: "g-1", Source: models.SourceGoogleAds, AdvertiserName: "Acme", ScrapedAt: seen}
	sameID := models.AdCreative{AdID: "g-1", Source: models.SourceGoogleAds, AdvertiserName: "ACME Corp", ScrapedAt: seen.Add(time.Hour)}
	if creativeKey(withID) != creativeKey(sameID) {
		t.Error("creatives with the same (ad id, source) should share a key")
	}

	otherSource := withID
	otherSource.Source = models.SourceMetaAds
	if creativeKey(withID) == creativeKey(otherSource) {
		t.Error("same ad id on different sources should not collide")
	}

	anon := models.AdCreative{Source: models.SourceAmazonAds, AdvertiserName: "Acme", ScrapedAt: seen}
	anonCopy := anon
	if creativeKey(anon) != creativeKey(anonCopy) {
		t.Error("identical id-less creatives should share a key")
	}
	laterSighting := anon
	laterSighting.ScrapedAt = seen.Add(time.Hour)
	if creativeKey(anon) == creativeKey(laterSighting) {
		t.Error("distinct id-less sightings should not collide")
	}
}

func TestTruncateLeadTimes(t *testing.T) {
	precise := time.Date(2026, 4, 1, 10, 0, 0, 123456789, time.UTC)
	start := precise.Add(time.Hour)
	lead := models.Lead{
		FirstSeen: precise,
		LastSeen:  precise,
		AdCreatives: []models.AdCreative{
			{ScrapedAt: precise, CampaignStartDate: &start},
		},
	}

	truncateLeadTimes(&lead)
	if lead.FirstSeen.Nanosecond() != 0 || lead.LastSeen.Nanosecond() != 0 {
		t.Error("lead timestamps not truncated to seconds")
	}
	c := lead.AdCreatives[0]
	if c.ScrapedAt.Nanosecond() != 0 || c.CampaignStartDate.Nanosecond() != 0 {
		t.Error("creative timestamps not truncated to seconds")
	}
	if &start == c.CampaignStartDate {
		t.Error("truncation should not alias the caller's time value")
	}
}

func TestNullHelpers(t *testing.T) {
	if nullString("").Valid {
		t.Error("empty string should map to NULL")
	}
	if v := nullString("acme.com"); !v.Valid || v.String != "acme.com" {
		t.Errorf("nullString = %+v", v)
	}

	if nullInt64(nil).Valid || nullFloat64(nil).Valid || nullTime(nil).Valid {
		t.Error("nil pointers should map to NULL")
	}
	n := int64(42)
	if v := nullInt64(&n); !v.Valid || v.Int64 != 42 {
		t.Errorf("nullInt64 = %+v", v)
	}

	if companyInfoJSON(nil).Valid {
		t.Error("nil CompanyInfo should map to NULL")
	}
	if companyInfoJSON(&models.CompanyInfo{}).Valid {
		t.Error("empty CompanyInfo should map to NULL")
	}
	v := companyInfoJSON(&models.CompanyInfo{Email: "hello@acme.com"})
	if !v.Valid || v.String == "" {
		t.Errorf("companyInfoJSON = %+v", v)
	}
}
