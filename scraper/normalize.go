// backend/scraper/normalize.go
package scraper

import (
	"log"

	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

// Normalize maps a raw observation into a canonical Lead candidate. It
// returns nil when the observation cannot form a lead (no advertiser name,
// or no usable domain for a source that requires one); such records are
// dropped, never treated as fatal.
//
// The returned lead always has domain, company_name, first_seen <= last_seen
// and a non-empty sources set populated. Aggregate totals are derived from
// the creatives.
func Normalize(obs RawObservation) *models.Lead {
	name := utils.CleanCompanyName(obs.AdvertiserName)
	if name == "" {
		log.Printf("WARN Normalizer: dropping %s observation with no advertiser name", obs.Source)
		return nil
	}

	domain := inferDomain(obs)
	if domain == "" {
		// Google advertisers without a resolvable website are not worth a
		// pseudo-domain: the transparency data carries no merchant page to
		// fall back on.
		if obs.Source == models.SourceGoogleAds {
			log.Printf("WARN Normalizer: no domain found for advertiser %q (%s), dropping", name, obs.Source)
			return nil
		}
		domain = utils.PseudoDomain(name, obs.Source.PseudoTLD())
		log.Printf("Normalizer: no domain found for %q, using pseudo-domain %s", name, domain)
	}

	lead := &models.Lead{
		Domain:      domain,
		CompanyName: name,
		FirstSeen:   obs.ObservedAt,
		LastSeen:    obs.ObservedAt,
		Sources:     []models.AdSource{obs.Source},
		IsActive:    true,
	}

	var impSum int64
	var impKnown bool
	var spendSum float64
	var spendKnown bool
	for _, raw := range obs.Creatives {
		creative := models.AdCreative{
			AdID:              raw.AdID,
			AdvertiserName:    name,
			CreativeURL:       raw.CreativeURL,
			LandingPageURL:    raw.LandingPageURL,
			CampaignStartDate: raw.CampaignStart,
			Impressions:       raw.Impressions,
			SpendEstimate:     raw.SpendEstimate,
			Source:            obs.Source,
			ScrapedAt:         obs.ObservedAt,
		}
		lead.AdCreatives = append(lead.AdCreatives, creative)

		if raw.Impressions != nil {
			impSum += *raw.Impressions
			impKnown = true
		}
		if raw.SpendEstimate != nil {
			spendSum += *raw.SpendEstimate
			spendKnown = true
		}
	}

	if impKnown && impSum > 0 {
		lead.TotalImpressions = &impSum
	}
	if spendKnown && spendSum > 0 {
		lead.TotalSpendEstimate = &spendSum
	}

	return lead
}

// inferDomain picks the lead key for an observation: the advertiser URL
// hint first, then — for Google only — any creative landing page that yields
// a plausible hostname. Marketplace sources never fall back to landing pages
// because those point at the marketplace itself, not the advertiser.
func inferDomain(obs RawObservation) string {
	if d := utils.ExtractDomain(obs.AdvertiserURL); utils.IsValidDomain(d) {
		return d
	}
	if obs.Source != models.SourceGoogleAds {
		return ""
	}
	for _, c := range obs.Creatives {
		if c.LandingPageURL == "" {
			continue
		}
		if d := utils.ExtractDomain(c.LandingPageURL); utils.IsValidDomain(d) {
			return d
		}
	}
	return ""
}
