// Package linkedin scrapes job postings from LinkedIn guest listing and
// detail pages.
package linkedin

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidtran/jobpilot/internal/fetch"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/source"
)

// SourceName is the stable identifier for this source.
const SourceName = "linkedin"

const (
	// pageSize is LinkedIn's fixed guest listing page size.
	pageSize = 25

	// maxListingPages caps pagination; guest search stops serving results
	// well before this in practice.
	maxListingPages = 40
)

var (
	externalIDRe = regexp.MustCompile(`/jobs/view/(?:[^/?#]*-)?(\d+)`)
	countRe      = regexp.MustCompile(`[\d.,]+`)
)

// Config holds the source endpoints and the search the strategy runs.
type Config struct {
	BaseURL    string
	ListingURL string
	Keywords   string
	Location   string
}

// Strategy implements source.Strategy for LinkedIn.
type Strategy struct {
	cfg      Config
	sessions *fetch.Factory
	limiter  *ratelimit.Limiter
	ingestor *source.Ingestor
	logger   *logger.Logger
}

// New creates a LinkedIn strategy.
func New(cfg Config, sessions *fetch.Factory, limiter *ratelimit.Limiter, ingestor *source.Ingestor, log *logger.Logger) *Strategy {
	return &Strategy{
		cfg:      cfg,
		sessions: sessions,
		limiter:  limiter,
		ingestor: ingestor,
		logger:   log.WithField(logger.FieldSource, SourceName),
	}
}

// Name returns the source identifier.
func (s *Strategy) Name() string { return SourceName }

// MatchesURL reports whether the URL belongs to LinkedIn.
func (s *Strategy) MatchesURL(u string) bool {
	return strings.Contains(u, "linkedin.com")
}

// Crawl pages through guest search results and ingests every job card. The
// result count on the first page bounds pagination; an empty page ends the
// run early.
func (s *Strategy) Crawl(ctx context.Context, pageLimit int) (*source.RunResult, error) {
	sess := s.sessions.NewSession()
	defer sess.Close()

	res := &source.RunResult{}

	doc, err := s.fetchListing(ctx, sess, 0)
	if err != nil {
		return res, fmt.Errorf("listing page 1: %w", err)
	}

	totalPages := s.totalPages(doc)
	if pageLimit > 0 && totalPages > pageLimit {
		totalPages = pageLimit
	}
	s.logger.WithField(logger.FieldCount, totalPages).Info("Discovered listing pages")

	for page := 0; page < totalPages; page++ {
		if page > 0 {
			doc, err = s.fetchListing(ctx, sess, page)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				s.logger.WithField(logger.FieldPage, page+1).WithError(err).Warn("Listing page failed")
				res.Errors++
				continue
			}
		}

		urls := s.listingItemURLs(doc)
		if len(urls) == 0 {
			break
		}

		for _, itemURL := range urls {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.JobsFound++

			outcome, err := s.processItem(ctx, sess, itemURL)
			if err != nil {
				s.logger.WithField(logger.FieldURL, itemURL).WithError(err).Warn("Item failed")
				res.Errors++
				continue
			}
			res.Record(outcome)
		}
	}

	return res, nil
}

// CrawlURL ingests a single ad-hoc detail page.
func (s *Strategy) CrawlURL(ctx context.Context, u string) error {
	sess := s.sessions.NewSession()
	defer sess.Close()

	outcome, err := s.processItem(ctx, sess, u)
	if err != nil {
		return err
	}
	s.logger.WithFields(logger.Fields{
		logger.FieldURL: u,
		"outcome":       outcome,
	}).Info("Ad-hoc crawl finished")
	return nil
}

func (s *Strategy) fetchListing(ctx context.Context, sess *fetch.Session, page int) (*goquery.Document, error) {
	if err := s.limiter.Throttle(ctx, SourceName); err != nil {
		return nil, err
	}
	doc, err := sess.Document(ctx, s.listingPageURL(page))
	if err != nil {
		s.limiter.RecordError(SourceName)
		return nil, err
	}
	s.limiter.RecordSuccess(SourceName)
	return doc, nil
}

func (s *Strategy) listingPageURL(page int) string {
	params := url.Values{}
	params.Set("keywords", s.cfg.Keywords)
	params.Set("location", s.cfg.Location)
	if page > 0 {
		params.Set("start", strconv.Itoa(page*pageSize))
	}
	return s.cfg.ListingURL + "?" + params.Encode()
}

// totalPages derives a page count from the advertised result count, falling
// back to the hard cap when the header is missing.
func (s *Strategy) totalPages(doc *goquery.Document) int {
	text := source.FirstText(doc,
		".results-context-header__job-count",
		".results-context-header span",
	)
	if m := countRe.FindString(text); m != "" {
		cleaned := strings.NewReplacer(",", "", ".", "").Replace(m)
		if count, err := strconv.Atoi(cleaned); err == nil && count > 0 {
			pages := (count + pageSize - 1) / pageSize
			if pages > maxListingPages {
				return maxListingPages
			}
			return pages
		}
	}
	return maxListingPages
}

// listingItemURLs extracts detail URLs from the guest search cards.
func (s *Strategy) listingItemURLs(doc *goquery.Document) []string {
	selectors := []string{
		"div.base-card a.base-card__full-link",
		"ul.jobs-search__results-list li a.base-card__full-link",
		"a[href*='/jobs/view/']",
	}

	seen := make(map[string]bool)
	var urls []string
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			href = strings.TrimSpace(href)
			if !externalIDRe.MatchString(href) || seen[href] {
				return
			}
			seen[href] = true
			urls = append(urls, href)
		})
		if len(urls) > 0 {
			break
		}
	}
	return urls
}

func (s *Strategy) processItem(ctx context.Context, sess *fetch.Session, itemURL string) (source.Outcome, error) {
	if err := s.limiter.Throttle(ctx, SourceName); err != nil {
		return source.OutcomeSkipped, err
	}
	doc, err := sess.Document(ctx, itemURL)
	if err != nil {
		s.limiter.RecordError(SourceName)
		return source.OutcomeSkipped, err
	}
	s.limiter.RecordSuccess(SourceName)

	raw := s.extractDetail(doc, itemURL)
	return s.ingestor.Upsert(ctx, SourceName, raw)
}

// ExternalID derives the numeric posting id from a /jobs/view/ URL.
func ExternalID(u string) string {
	if m := externalIDRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// extractDetail pulls raw fields from a detail page: JSON-LD first, then the
// guest top-card layout.
func (s *Strategy) extractDetail(doc *goquery.Document, itemURL string) *source.RawJob {
	raw := &source.RawJob{
		ExternalID: ExternalID(itemURL),
		URL:        itemURL,
	}

	if ld, ok := source.ParseJobPostingLD(doc); ok {
		raw.Title = ld.Title
		raw.Company = ld.HiringOrganization.Name
		raw.LogoURL = ld.HiringOrganization.Logo
		raw.Location = ld.Locality()
		raw.Description = ld.Description
		raw.JobTypeText = ld.EmploymentType()
		raw.PostedAt = ld.PostedAt()
		raw.Deadline = ld.Deadline()
	}

	if raw.Title == "" {
		raw.Title = source.FirstText(doc,
			"h1.top-card-layout__title",
			"h1.topcard__title",
		)
	}
	if raw.Company == "" {
		raw.Company = source.FirstText(doc,
			"a.topcard__org-name-link",
			"span.topcard__flavor",
		)
	}
	if raw.Location == "" {
		raw.Location = source.FirstText(doc,
			"span.topcard__flavor--bullet",
			".top-card-layout__second-subline span",
		)
	}
	if raw.Description == "" {
		raw.Description = source.FirstHTML(doc,
			".show-more-less-html__markup",
			".description__text",
		)
	}
	if raw.SalaryText == "" {
		raw.SalaryText = source.FirstText(doc, ".salary.compensation__salary")
	}

	s.extractCriteria(doc, raw)

	return raw
}

// extractCriteria reads the "job criteria" list (seniority level, employment
// type) shown under the description.
func (s *Strategy) extractCriteria(doc *goquery.Document, raw *source.RawJob) {
	doc.Find(".description__job-criteria-item, li.job-criteria__item").Each(func(_ int, item *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(item.Find(
			".description__job-criteria-subheader, h3.job-criteria__subheader").First().Text()))
		value := strings.TrimSpace(item.Find(
			".description__job-criteria-text, span.job-criteria__text").First().Text())
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "seniority"):
			raw.ExperienceText = value
		case strings.Contains(label, "employment"):
			if raw.JobTypeText == "" {
				raw.JobTypeText = value
			}
		}
	})
}
