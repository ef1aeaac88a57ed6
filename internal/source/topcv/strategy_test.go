package topcv

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/davidtran/jobpilot/internal/dedup"
	"github.com/davidtran/jobpilot/internal/domain"
	"github.com/davidtran/jobpilot/internal/fetch"
	"github.com/davidtran/jobpilot/internal/logger"
	"github.com/davidtran/jobpilot/internal/ratelimit"
	"github.com/davidtran/jobpilot/internal/source"
)

// memStore captures writes and serves dedup lookups from memory.
type memStore struct {
	created []*domain.JobPosting
	updated map[string]map[string]interface{}

	byExternalID map[string]*domain.JobPosting
	byHash       map[string]*domain.JobPosting
}

func newMemStore() *memStore {
	return &memStore{
		updated:      make(map[string]map[string]interface{}),
		byExternalID: make(map[string]*domain.JobPosting),
		byHash:       make(map[string]*domain.JobPosting),
	}
}

func (m *memStore) Create(_ context.Context, job *domain.JobPosting) error {
	m.created = append(m.created, job)
	return nil
}

func (m *memStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	m.updated[id] = fields
	return nil
}

func (m *memStore) FindByExternalID(_ context.Context, src, externalID string) (*domain.JobPosting, error) {
	return m.byExternalID[src+"/"+externalID], nil
}

func (m *memStore) FindByContentHash(_ context.Context, hash string) (*domain.JobPosting, error) {
	return m.byHash[hash], nil
}

func (m *memStore) FindRecentByCompany(_ context.Context, _ string, _ time.Time, _ int) ([]domain.JobPosting, error) {
	return nil, nil
}

func newTestStrategy(t *testing.T, baseURL string, store *memStore) *Strategy {
	t.Helper()
	limiter := ratelimit.New(ratelimit.Profile{
		RequestsPerMinute: 10000,
		MinDelay:          time.Millisecond,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Millisecond,
	}, nil)
	sessions := fetch.NewFactory(fetch.Config{UserAgent: "test-agent", Timeout: 5 * time.Second})
	ingestor := source.NewIngestor(store, dedup.New(store))
	log := logger.New(&logger.Config{Level: "error", Format: "json", Output: io.Discard})

	return New(Config{
		BaseURL:    baseURL,
		ListingURL: baseURL + "/tim-viec-lam-it",
	}, sessions, limiter, ingestor, log)
}

const listingHTML = `<html><body>
<div id="job-listing-paginate"><span class="hide-on-ver-mobile">1 / 1</span></div>
<div class="job-item-search-result"><h3 class="title"><a href="/viec-lam/senior-go-developer-111111.html">Senior Go Developer</a></h3></div>
<div class="job-item-search-result"><h3 class="title"><a href="/viec-lam/data-engineer-222222.html">Data Engineer</a></h3></div>
<div class="job-item-search-result"><h3 class="title"><a href="/viec-lam/broken-333333.html">Broken</a></h3></div>
</body></html>`

// detailJSONLD carries full schema.org structured data.
const detailJSONLD = `<html><head>
<script type="application/ld+json">
{
  "@type": "JobPosting",
  "title": "Senior Go Developer",
  "description": "<p>Build crawling infrastructure</p>",
  "datePosted": "2025-06-01",
  "validThrough": "2025-07-15",
  "employmentType": "FULL_TIME",
  "hiringOrganization": {"name": "Acme Corp", "logo": "https://cdn.example.com/acme.png"},
  "jobLocation": {"address": {"addressLocality": "Hà Nội"}},
  "baseSalary": {"currency": "VND", "value": {"minValue": 25000000, "maxValue": 35000000}}
}
</script>
</head><body></body></html>`

// detailSelectors has no structured data and exercises the selector fallbacks
// plus the labeled info boxes.
const detailSelectors = `<html><body>
<h1 class="job-detail__info--title">Data Engineer</h1>
<div class="job-detail__company--name">Beta Analytics</div>
<div class="box-general-group">
  <div class="box-general-group-info-title">Mức lương</div>
  <div class="box-general-group-info-value">15 - 20 triệu</div>
</div>
<div class="box-general-group">
  <div class="box-general-group-info-title">Khu vực tuyển</div>
  <div class="box-general-group-info-value">Hồ Chí Minh</div>
</div>
<div class="box-general-group">
  <div class="box-general-group-info-title">Kinh nghiệm</div>
  <div class="box-general-group-info-value">3 năm</div>
</div>
<div class="job-detail__info--deadline">Hạn nộp hồ sơ: 30/09/2025</div>
<div class="job-description">
  <div class="job-description__item">
    <h3>Mô tả công việc</h3>
    <div class="job-description__item--content"><p>Own the data pipeline</p></div>
  </div>
  <div class="job-description__item">
    <h3>Yêu cầu ứng viên</h3>
    <div class="job-description__item--content"><p>SQL, Python</p></div>
  </div>
  <div class="job-description__item">
    <h3>Quyền lợi</h3>
    <div class="job-description__item--content"><p>13th month salary</p></div>
  </div>
</div>
<div class="job-tags"><a>SQL</a><a>Python</a><a>sql</a></div>
</body></html>`

func newFixtureServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/tim-viec-lam-it", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, listingHTML)
	})
	mux.HandleFunc("/viec-lam/senior-go-developer-111111.html", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, detailJSONLD)
	})
	mux.HandleFunc("/viec-lam/data-engineer-222222.html", func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, detailSelectors)
	})
	mux.HandleFunc("/viec-lam/broken-333333.html", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream error", http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func TestCrawlIngestsListingAndSurvivesItemFailures(t *testing.T) {
	srv := newFixtureServer()
	defer srv.Close()

	store := newMemStore()
	strat := newTestStrategy(t, srv.URL, store)

	res, err := strat.Crawl(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.JobsFound != 3 {
		t.Errorf("JobsFound = %d, want 3", res.JobsFound)
	}
	if res.JobsCreated != 2 {
		t.Errorf("JobsCreated = %d, want 2", res.JobsCreated)
	}
	if res.Errors != 1 {
		t.Errorf("Errors = %d, want 1 (broken detail page)", res.Errors)
	}

	if len(store.created) != 2 {
		t.Fatalf("expected 2 created postings, got %d", len(store.created))
	}

	first := store.created[0]
	if first.Title != "Senior Go Developer" || first.Company != "Acme Corp" {
		t.Errorf("structured data not extracted: %+v", first)
	}
	if first.ExternalID != "111111" {
		t.Errorf("external id = %q, want 111111", first.ExternalID)
	}
	if first.City != "Hà Nội" {
		t.Errorf("city = %q, want Hà Nội", first.City)
	}
	if first.SalaryMin != 25_000_000 || first.SalaryMax != 35_000_000 || first.SalaryCurrency != "VND" {
		t.Errorf("salary = %d-%d %s", first.SalaryMin, first.SalaryMax, first.SalaryCurrency)
	}
	if first.Deadline == nil || first.Deadline.Month() != time.July {
		t.Errorf("deadline not parsed from validThrough: %v", first.Deadline)
	}

	second := store.created[1]
	if second.Title != "Data Engineer" || second.Company != "Beta Analytics" {
		t.Errorf("selector fallback failed: %+v", second)
	}
	if second.City != "Hồ Chí Minh" {
		t.Errorf("city = %q, want Hồ Chí Minh", second.City)
	}
	if second.SalaryMin != 15_000_000 || second.SalaryMax != 20_000_000 {
		t.Errorf("salary = %d-%d, want 15M-20M", second.SalaryMin, second.SalaryMax)
	}
	if second.Experience != domain.ExperienceMiddle {
		t.Errorf("experience = %q, want middle", second.Experience)
	}
	if !strings.Contains(second.Description, "Own the data pipeline") {
		t.Errorf("description section not mapped: %q", second.Description)
	}
	if !strings.Contains(second.Requirements, "SQL, Python") {
		t.Errorf("requirements section not mapped: %q", second.Requirements)
	}
	if !strings.Contains(second.Benefits, "13th month salary") {
		t.Errorf("benefits section not mapped: %q", second.Benefits)
	}
	if len(second.Skills) != 2 {
		t.Errorf("skills should be deduplicated: %v", second.Skills)
	}
	if second.Deadline == nil || second.Deadline.Day() != 30 || second.Deadline.Month() != time.September {
		t.Errorf("deadline = %v, want 30/09/2025", second.Deadline)
	}
}

func TestCrawlURLUpdatesExistingPostingByContentHash(t *testing.T) {
	srv := newFixtureServer()
	defer srv.Close()

	store := newMemStore()
	// Same title/company/city stored under a different external id: the
	// content-hash tier must route the crawl into an update.
	hash := dedup.ContentHash("Senior Go Developer", "Acme Corp", "Hà Nội")
	store.byHash[hash] = &domain.JobPosting{ID: "existing-1", ExternalID: "999999"}

	strat := newTestStrategy(t, srv.URL, store)

	url := srv.URL + "/viec-lam/senior-go-developer-111111.html"
	if err := strat.CrawlURL(context.Background(), url); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.created) != 0 {
		t.Errorf("expected update, got %d creates", len(store.created))
	}
	fields, ok := store.updated["existing-1"]
	if !ok {
		t.Fatalf("existing posting not updated: %v", store.updated)
	}
	if fields["title"] != "Senior Go Developer" {
		t.Errorf("updated title = %v", fields["title"])
	}
	if fields["content_hash"] != hash {
		t.Errorf("content hash not refreshed: %v", fields["content_hash"])
	}
}

func TestExternalID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.topcv.vn/viec-lam/senior-go-developer-123456.html", "123456"},
		{"https://www.topcv.vn/viec-lam/khong-co-id", ""},
		{"/viec-lam/data-engineer-98765.html?from=list", "98765"},
	}
	for _, tt := range tests {
		if got := ExternalID(tt.url); got != tt.expected {
			t.Errorf("ExternalID(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestTotalPages(t *testing.T) {
	strat := &Strategy{}

	t.Run("page label", func(t *testing.T) {
		doc := mustDoc(t, `<div id="job-listing-paginate"><span class="hide-on-ver-mobile">2 / 17</span></div>`)
		if got := strat.totalPages(doc); got != 17 {
			t.Errorf("totalPages = %d, want 17", got)
		}
	})

	t.Run("numeric pagination links", func(t *testing.T) {
		doc := mustDoc(t, `<ul class="pagination"><li><a>1</a></li><li><a>2</a></li><li><a>5</a></li><li><a>Sau</a></li></ul>`)
		if got := strat.totalPages(doc); got != 5 {
			t.Errorf("totalPages = %d, want 5", got)
		}
	})

	t.Run("page label capped", func(t *testing.T) {
		doc := mustDoc(t, `<div id="job-listing-paginate"><span class="hide-on-ver-mobile">1 / 120</span></div>`)
		if got := strat.totalPages(doc); got != maxListingPages {
			t.Errorf("totalPages = %d, want cap %d", got, maxListingPages)
		}
	})

	t.Run("no paginator defaults to one page", func(t *testing.T) {
		doc := mustDoc(t, `<div>no pagination here</div>`)
		if got := strat.totalPages(doc); got != 1 {
			t.Errorf("totalPages = %d, want 1", got)
		}
	})
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}
