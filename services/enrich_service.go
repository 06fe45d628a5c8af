// backend/services/enrich_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/leadscout/adscraper/backend/config"
	"github.com/leadscout/adscraper/backend/models"
	"github.com/leadscout/adscraper/backend/utils"
)

var (
	linkedinRe = regexp.MustCompile(`linkedin\.com/(?:company|in)/[a-zA-Z0-9-]+`)

	companySizeRes = []struct {
		re     *regexp.Regexp
		format string
	}{
		{regexp.MustCompile(`(?i)(\d+)-(\d+)\s*employees`), "%s-%s employees"},
		{regexp.MustCompile(`(?i)(\d+)\+?\s*employees`), "%s+ employees"},
		{regexp.MustCompile(`(?i)team of (\d+)`), "~%s employees"},
	}
)

// CompanyEnricher fills in CompanyInfo for leads that lack it, from the
// company website and optionally the Clearbit API. It never alters a lead's
// domain, sources or creatives, and it skips pseudo-domain leads: there is
// no website behind those keys to visit.
type CompanyEnricher struct {
	client      *http.Client
	limiter     *utils.RateLimiter
	clearbitKey string
	retry       utils.RetryConfig
}

func NewCompanyEnricher(cfg config.EnrichmentConfig) *CompanyEnricher {
	return &CompanyEnricher{
		client:      &http.Client{Timeout: cfg.Timeout},
		limiter:     utils.NewRateLimiter(cfg.MinDelay, cfg.MaxDelay),
		clearbitKey: cfg.ClearbitAPIKey,
		retry:       utils.RetryConfig{MaxAttempts: 2, Delay: time.Second, Backoff: 2.0},
	}
}

// EnrichLeads enriches every eligible lead in place. Failures are isolated
// per lead: an unreachable website just leaves that lead unenriched.
func (e *CompanyEnricher) EnrichLeads(ctx context.Context, leads []models.Lead) []models.Lead {
	log.Printf("Service: enriching %d leads...\n", len(leads))
	enriched := 0
	for i := range leads {
		if leads[i].CompanyInfo != nil {
			continue
		}
		if utils.IsPseudoDomain(leads[i].Domain) {
			continue
		}
		if e.enrichLead(ctx, &leads[i]) {
			enriched++
		}
		if ctx.Err() != nil {
			break
		}
	}
	log.Printf("Service: enriched %d of %d leads\n", enriched, len(leads))
	return leads
}

func (e *CompanyEnricher) enrichLead(ctx context.Context, lead *models.Lead) bool {
	info := models.CompanyInfo{}

	if e.clearbitKey != "" {
		if cb, err := e.fetchClearbit(ctx, lead.Domain); err != nil {
			log.Printf("WARN Service: Clearbit lookup for %s failed: %v\n", lead.Domain, err)
		} else if cb != nil {
			info = *cb
		}
	}

	var doc *goquery.Document
	err := utils.Retry(ctx, fmt.Sprintf("enrich %s", lead.Domain), e.retry, func() error {
		if waitErr := e.limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}
		var fetchErr error
		doc, fetchErr = e.fetchWebsite(ctx, lead.Domain)
		return fetchErr
	})
	if err != nil {
		log.Printf("WARN Service: could not fetch website for %s: %v\n", lead.Domain, err)
	} else {
		fillFromWebsite(&info, doc)
	}

	if info.IsEmpty() {
		return false
	}
	lead.CompanyInfo = &info
	return true
}

func (e *CompanyEnricher) fetchWebsite(ctx context.Context, domain string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, utils.NormalizeURL(domain), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", domain, err)
	}
	req.Header.Set("User-Agent", utils.RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", domain, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("website %s returned status %d", domain, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML from %s: %w", domain, err)
	}
	return doc, nil
}

// fillFromWebsite copies website-derived fields into info without
// overwriting anything already present (Clearbit data wins on conflict).
func fillFromWebsite(info *models.CompanyInfo, doc *goquery.Document) {
	if info.WebsiteTitle == "" {
		info.WebsiteTitle = strings.TrimSpace(doc.Find("title").First().Text())
	}

	if info.LinkedInURL == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			if linkedinRe.MatchString(href) {
				info.LinkedInURL = href
				return false
			}
			return true
		})
	}

	// Contact details tend to live in footers and contact sections; fall
	// back to the whole page text.
	contactText := doc.Find("footer, [class*=contact], [class*=footer]").Text()
	fullText := doc.Find("body").Text()

	if info.Email == "" {
		if email := utils.ExtractEmail(contactText); email != "" {
			info.Email = email
		} else {
			info.Email = utils.ExtractEmail(fullText)
		}
	}
	if info.Phone == "" {
		if phone := utils.ExtractPhone(contactText); phone != "" {
			info.Phone = phone
		} else {
			info.Phone = utils.ExtractPhone(fullText)
		}
	}

	if info.CompanySize == "" {
		for _, cs := range companySizeRes {
			if m := cs.re.FindStringSubmatch(fullText); m != nil {
				args := make([]any, 0, len(m)-1)
				for _, g := range m[1:] {
					args = append(args, g)
				}
				info.CompanySize = fmt.Sprintf(cs.format, args...)
				break
			}
		}
	}
}

type clearbitResponse struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Domain   string `json:"domain"`
	LinkedIn struct {
		Handle string `json:"handle"`
	} `json:"linkedin"`
	EmailProvider bool `json:"emailProvider"`
	Metrics       struct {
		Employees      int    `json:"employees"`
		EmployeesRange string `json:"employeesRange"`
	} `json:"metrics"`
	Category struct {
		Industry string `json:"industry"`
	} `json:"category"`
}

func (e *CompanyEnricher) fetchClearbit(ctx context.Context, domain string) (*models.CompanyInfo, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := "https://company.clearbit.com/v2/companies/find?domain=" + domain
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build Clearbit request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.clearbitKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Clearbit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no data for this domain
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Clearbit API returned status %d", resp.StatusCode)
	}

	var data clearbitResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode Clearbit response: %w", err)
	}

	info := models.CompanyInfo{
		WebsiteTitle: data.Name,
		Phone:        data.Phone,
		Industry:     data.Category.Industry,
	}
	if data.LinkedIn.Handle != "" {
		info.LinkedInURL = "https://www.linkedin.com/company/" + data.LinkedIn.Handle
	}
	if data.EmailProvider && data.Domain != "" {
		info.Email = "info@" + data.Domain
	}
	if data.Metrics.EmployeesRange != "" {
		info.CompanySize = data.Metrics.EmployeesRange
	} else if data.Metrics.Employees > 0 {
		info.CompanySize = strconv.Itoa(data.Metrics.Employees)
	}
	if info.IsEmpty() {
		return nil, nil
	}
	return &info, nil
}
