// Package topcv scrapes job postings from TopCV listing and detail pages.
package topcv

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/davidtran/jobpilot/internal/fetch"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/source"
)

// SourceName is the stable identifier for this source.
const SourceName = "topcv"

// maxListingPages caps pagination when the page count cannot be discovered.
const maxListingPages = 50

var (
	externalIDRe = regexp.MustCompile(`/(\d+)\.html`)
	pageOfRe     = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// Config holds the source endpoints.
type Config struct {
	BaseURL    string
	ListingURL string
}

// Strategy implements source.Strategy for TopCV.
type Strategy struct {
	cfg      Config
	sessions *fetch.Factory
	limiter  *ratelimit.Limiter
	ingestor *source.Ingestor
	logger   *logger.Logger
}

// New creates a TopCV strategy.
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

// MatchesURL reports whether the URL belongs to TopCV.
func (s *Strategy) MatchesURL(u string) bool {
	return strings.Contains(u, "topcv.vn")
}

// Crawl paginates the listing and ingests every discovered item. The session
// is released on every exit path; item failures are counted and skipped.
func (s *Strategy) Crawl(ctx context.Context, pageLimit int) (*source.RunResult, error) {
	sess := s.sessions.NewSession()
	defer sess.Close()

	res := &source.RunResult{}

	doc, err := s.fetchListing(ctx, sess, 1)
	if err != nil {
		return res, fmt.Errorf("listing page 1: %w", err)
	}

	totalPages := s.totalPages(doc)
	if pageLimit > 0 && totalPages > pageLimit {
		totalPages = pageLimit
	}
	s.logger.WithField(logger.FieldCount, totalPages).Info("Discovered listing pages")

	for page := 1; page <= totalPages; page++ {
		if page > 1 {
			doc, err = s.fetchListing(ctx, sess, page)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				s.logger.WithField(logger.FieldPage, page).WithError(err).Warn("Listing page failed")
				res.Errors++
				continue
			}
		}

		for _, itemURL := range s.listingItemURLs(doc) {
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
	if page <= 1 {
		return s.cfg.ListingURL
	}
	sep := "?"
	if strings.Contains(s.cfg.ListingURL, "?") {
		sep = "&"
	}
	return s.cfg.ListingURL + sep + "page=" + strconv.Itoa(page)
}

// totalPages reads the page count from the paginator, trying the "N / M"
// label first, then the highest numeric page link. Both paths are capped at
// maxListingPages. Defaults to 1.
func (s *Strategy) totalPages(doc *goquery.Document) int {
	label := source.FirstText(doc,
		"#job-listing-paginate span.hide-on-ver-mobile",
		".paginate-text",
	)
	if m := pageOfRe.FindStringSubmatch(label); m != nil {
		if total, err := strconv.Atoi(m[2]); err == nil && total > 0 {
			if total > maxListingPages {
				total = maxListingPages
			}
			return total
		}
	}

	maxPage := 1
	doc.Find(".pagination a, ul.pagination li a").Each(func(_ int, a *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(a.Text())); err == nil && n > maxPage {
			maxPage = n
		}
	})
	if maxPage > maxListingPages {
		maxPage = maxListingPages
	}
	return maxPage
}

// listingItemURLs extracts detail page URLs from a listing page, tolerating
// the historical card layouts.
func (s *Strategy) listingItemURLs(doc *goquery.Document) []string {
	selectors := []string{
		".job-item-search-result h3.title a",
		".job-item-2 h3.title a",
		".job-item h3.title a",
		"h3.title > a[href*='/viec-lam/']",
	}

	seen := make(map[string]bool)
	var urls []string
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok {
				return
			}
			abs := s.absoluteURL(href)
			if abs == "" || seen[abs] {
				return
			}
			seen[abs] = true
			urls = append(urls, abs)
		})
		if len(urls) > 0 {
			break
		}
	}
	return urls
}

func (s *Strategy) absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// processItem fetches one detail page, extracts raw fields, and runs them
// through the shared ingest pipeline.
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

// ExternalID derives the source-scoped stable identifier from the detail URL
// (numeric suffix before ".html").
func ExternalID(u string) string {
	if m := externalIDRe.FindStringSubmatch(u); m != nil {
		return m[1]
	}
	return ""
}

// extractDetail pulls raw fields from a detail page: JSON-LD structured data
// first, then ordered selector fallbacks per field for the layouts TopCV has
// shipped over time.
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
		if ld.BaseSalary.Value.MinValue > 0 || ld.BaseSalary.Value.MaxValue > 0 {
			raw.SalaryText = fmt.Sprintf("%.0f - %.0f %s",
				ld.BaseSalary.Value.MinValue, ld.BaseSalary.Value.MaxValue, ld.BaseSalary.Currency)
		}
	}

	if raw.Title == "" {
		raw.Title = source.FirstText(doc,
			"h1.job-detail__info--title",
			"h1[data-role='job-title']",
			"h2.job-title",
		)
	}
	if raw.Company == "" {
		raw.Company = source.FirstText(doc,
			".job-detail__company--name",
			"a.name-company",
			".company-name-label",
		)
	}
	if raw.LogoURL == "" {
		raw.LogoURL = source.FirstAttr(doc, "src",
			".job-detail__company--image img",
			".company-logo img",
		)
	}

	labeled := s.labeledValues(doc)
	if raw.SalaryText == "" {
		raw.SalaryText = pickLabeled(labeled, "mức lương", "salary")
	}
	if raw.Location == "" {
		raw.Location = pickLabeled(labeled, "địa điểm", "khu vực", "location")
	}
	raw.ExperienceText = pickLabeled(labeled, "kinh nghiệm", "cấp bậc", "experience")
	if raw.JobTypeText == "" {
		raw.JobTypeText = pickLabeled(labeled, "hình thức làm việc", "hình thức", "job type")
	}
	if raw.Deadline == nil {
		raw.Deadline = parseDeadline(source.FirstText(doc,
			".job-detail__info--deadline",
			".job-deadline",
		))
	}

	s.extractSections(doc, raw)

	raw.Skills = source.CollectText(doc,
		".job-tags a",
		".box-category-tags .item",
	)
	raw.Categories = source.CollectText(doc, ".box-category .box-category-tag")
	raw.Verified = doc.Find(".job-detail__company--verified, .icon-verified").Length() > 0
	raw.Branded = doc.Find(".premium-job, .job-detail--branded").Length() > 0

	return raw
}

// labeledValues collects label/value pairs from the info boxes of the two
// detail layouts currently in the wild.
func (s *Strategy) labeledValues(doc *goquery.Document) map[string]string {
	out := make(map[string]string)

	doc.Find(".job-detail__info--section").Each(func(_ int, sec *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(sec.Find(".job-detail__info--section-content-title").Text()))
		value := strings.TrimSpace(sec.Find(".job-detail__info--section-content-value").Text())
		if label != "" && value != "" {
			out[label] = value
		}
	})

	doc.Find(".box-general-group").Each(func(_ int, sec *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(sec.Find(".box-general-group-info-title").Text()))
		value := strings.TrimSpace(sec.Find(".box-general-group-info-value").Text())
		if label != "" && value != "" {
			out[label] = value
		}
	})

	return out
}

func pickLabeled(labeled map[string]string, keys ...string) string {
	for label, value := range labeled {
		for _, key := range keys {
			if strings.Contains(label, key) {
				return value
			}
		}
	}
	return ""
}

// extractSections maps the description headings onto description,
// requirements, and benefits.
func (s *Strategy) extractSections(doc *goquery.Document, raw *source.RawJob) {
	doc.Find(".job-description .job-description__item").Each(func(_ int, item *goquery.Selection) {
		heading := strings.ToLower(strings.TrimSpace(item.Find("h3").First().Text()))
		content, err := item.Find(".job-description__item--content").First().Html()
		if err != nil {
			return
		}
		content = strings.TrimSpace(content)
		if content == "" {
			return
		}
		switch {
		case strings.Contains(heading, "mô tả"):
			raw.Description = content
		case strings.Contains(heading, "yêu cầu"):
			raw.Requirements = content
		case strings.Contains(heading, "quyền lợi"):
			raw.Benefits = content
		}
	})

	// Older layout: one flat description block.
	if raw.Description == "" {
		raw.Description = source.FirstHTML(doc,
			"#job-description",
			".job-data__content",
		)
	}
}

var deadlineRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

// parseDeadline reads a dd/mm/yyyy date out of the deadline banner text.
func parseDeadline(text string) *time.Time {
	m := deadlineRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 23, 59, 59, 0, time.Local)
	return &t
}
