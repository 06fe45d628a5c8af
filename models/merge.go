// backend/models/merge.go
package models

import "time"

// Merge combines two leads that describe the same real-world entity into one
// record. Precondition: base.Domain == incoming.Domain. The rules are
// commutative and associative apart from the documented first-writer-wins
// fields, so folding any number of observations in any grouping yields the
// same record:
//
//	domain        unchanged
//	company_name  base wins (first writer keeps the display name)
//	first_seen    min of both sides
//	last_seen     max of both sides
//	sources       set union, base's insertion order first
//	ad_creatives  base's creatives, then incoming creatives not already present
//	company_info  base wins per field, incoming fills the gaps
//	totals        recomputed from the surviving creative set, floored by the
//	              larger prior lead-level total (re-merging the same creatives
//	              cannot inflate them, and a known total never shrinks)
//	is_active     base's flag, untouched
//
// The inputs are not mutated; slices in the result are fresh.
func Merge(base, incoming Lead) Lead {
	out := base
	out.Sources = append([]AdSource(nil), base.Sources...)
	out.AdCreatives = append([]AdCreative(nil), base.AdCreatives...)

	if incoming.FirstSeen.Before(out.FirstSeen) {
		out.FirstSeen = incoming.FirstSeen
	}
	if incoming.LastSeen.After(out.LastSeen) {
		out.LastSeen = incoming.LastSeen
	}

	for _, s := range incoming.Sources {
		out.AddSource(s)
	}

	for _, c := range incoming.AdCreatives {
		if !containsCreative(out.AdCreatives, c) {
			out.AdCreatives = append(out.AdCreatives, c)
		}
	}

	out.CompanyInfo = mergeCompanyInfo(base.CompanyInfo, incoming.CompanyInfo)

	recomputeTotals(&out, base, incoming)
	return out
}

// containsCreative applies the creative-identity rule: id-bearing creatives
// match on (ad id, source); id-less creatives only match a byte-identical
// record, which keeps re-merging the same observation a no-op while still
// appending every genuinely distinct id-less sighting.
func containsCreative(have []AdCreative, c AdCreative) bool {
	for _, h := range have {
		if c.AdID != "" {
			if h.SameCreative(c) {
				return true
			}
			continue
		}
		if h.AdID == "" && identicalCreative(h, c) {
			return true
		}
	}
	return false
}

func identicalCreative(a, b AdCreative) bool {
	if a.Source != b.Source || a.AdvertiserName != b.AdvertiserName ||
		a.CreativeURL != b.CreativeURL || a.LandingPageURL != b.LandingPageURL ||
		!a.ScrapedAt.Equal(b.ScrapedAt) {
		return false
	}
	return equalInt64Ptr(a.Impressions, b.Impressions) &&
		equalFloat64Ptr(a.SpendEstimate, b.SpendEstimate) &&
		equalTimePtr(a.CampaignStartDate, b.CampaignStartDate)
}

// mergeCompanyInfo fills base's missing fields from incoming; base always
// wins on conflict. Neither input is mutated.
func mergeCompanyInfo(base, incoming *CompanyInfo) *CompanyInfo {
	if incoming == nil {
		if base == nil {
			return nil
		}
		ci := *base
		return &ci
	}
	if base == nil {
		ci := *incoming
		return &ci
	}
	ci := *base
	if ci.WebsiteTitle == "" {
		ci.WebsiteTitle = incoming.WebsiteTitle
	}
	if ci.LinkedInURL == "" {
		ci.LinkedInURL = incoming.LinkedInURL
	}
	if ci.Phone == "" {
		ci.Phone = incoming.Phone
	}
	if ci.Email == "" {
		ci.Email = incoming.Email
	}
	if ci.CompanySize == "" {
		ci.CompanySize = incoming.CompanySize
	}
	if ci.Industry == "" {
		ci.Industry = incoming.Industry
	}
	return &ci
}

// recomputeTotals derives the aggregate totals from the deduplicated creative
// set, floored by the larger of the two lead-level totals. The floor covers
// sources that only report advertiser-level numbers and guarantees a known
// total never shrinks whichever side it arrived on; creative sums only grow
// with the set and max folds are idempotent, so the rule stays commutative
// and associative. A total of zero is stored as unset to keep "unknown"
// distinct from "known zero".
func recomputeTotals(out *Lead, base, incoming Lead) {
	var impSum int64
	var impKnown bool
	var spendSum float64
	var spendKnown bool
	for _, c := range out.AdCreatives {
		if c.Impressions != nil {
			impSum += *c.Impressions
			impKnown = true
		}
		if c.SpendEstimate != nil {
			spendSum += *c.SpendEstimate
			spendKnown = true
		}
	}

	imp := maxInt64Ptr(base.TotalImpressions, incoming.TotalImpressions)
	if impKnown && (imp == nil || impSum > *imp) {
		imp = &impSum
	}
	out.TotalImpressions = nil
	if imp != nil && *imp > 0 {
		v := *imp
		out.TotalImpressions = &v
	}

	spend := maxFloat64Ptr(base.TotalSpendEstimate, incoming.TotalSpendEstimate)
	if spendKnown && (spend == nil || spendSum > *spend) {
		spend = &spendSum
	}
	out.TotalSpendEstimate = nil
	if spend != nil && *spend > 0 {
		v := *spend
		out.TotalSpendEstimate = &v
	}
}

func maxInt64Ptr(a, b *int64) *int64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func maxFloat64Ptr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloat64Ptr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
