package linkedin

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExternalID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.linkedin.com/jobs/view/4012345678", "4012345678"},
		{"https://www.linkedin.com/jobs/view/backend-engineer-at-acme-4012345678?refId=abc", "4012345678"},
		{"https://www.linkedin.com/jobs/search?keywords=go", ""},
	}
	for _, tt := range tests {
		if got := ExternalID(tt.url); got != tt.expected {
			t.Errorf("ExternalID(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

func TestTotalPages(t *testing.T) {
	s := &Strategy{}

	t.Run("result count header", func(t *testing.T) {
		doc := mustDoc(t, `<span class="results-context-header__job-count">137</span>`)
		// 137 results at 25 per page.
		if got := s.totalPages(doc); got != 6 {
			t.Errorf("totalPages = %d, want 6", got)
		}
	})

	t.Run("formatted count", func(t *testing.T) {
		doc := mustDoc(t, `<span class="results-context-header__job-count">2,500</span>`)
		if got := s.totalPages(doc); got != maxListingPages {
			t.Errorf("totalPages = %d, want cap %d", got, maxListingPages)
		}
	})

	t.Run("missing header falls back to cap", func(t *testing.T) {
		doc := mustDoc(t, `<div>nothing here</div>`)
		if got := s.totalPages(doc); got != maxListingPages {
			t.Errorf("totalPages = %d, want %d", got, maxListingPages)
		}
	})
}

func TestListingItemURLs(t *testing.T) {
	s := &Strategy{}
	doc := mustDoc(t, `
<ul class="jobs-search__results-list">
  <li><div class="base-card"><a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/backend-engineer-4012345678">Backend</a></div></li>
  <li><div class="base-card"><a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/data-engineer-4087654321">Data</a></div></li>
  <li><div class="base-card"><a class="base-card__full-link" href="https://www.linkedin.com/jobs/view/backend-engineer-4012345678">Duplicate</a></div></li>
  <li><div class="base-card"><a class="base-card__full-link" href="https://www.linkedin.com/jobs/search?next">Not a job</a></div></li>
</ul>`)

	urls := s.listingItemURLs(doc)
	if len(urls) != 2 {
		t.Fatalf("expected 2 deduplicated job urls, got %v", urls)
	}
	if ExternalID(urls[0]) != "4012345678" || ExternalID(urls[1]) != "4087654321" {
		t.Errorf("unexpected urls: %v", urls)
	}
}

func TestExtractDetailTopCardFallback(t *testing.T) {
	s := &Strategy{}
	doc := mustDoc(t, `
<html><body>
<h1 class="top-card-layout__title">Backend Engineer</h1>
<a class="topcard__org-name-link">Acme Corp</a>
<span class="topcard__flavor--bullet">Ho Chi Minh City, Vietnam</span>
<div class="show-more-less-html__markup"><p>Design APIs</p></div>
<ul>
  <li class="description__job-criteria-item">
    <h3 class="description__job-criteria-subheader">Seniority level</h3>
    <span class="description__job-criteria-text">Mid-Senior level</span>
  </li>
  <li class="description__job-criteria-item">
    <h3 class="description__job-criteria-subheader">Employment type</h3>
    <span class="description__job-criteria-text">Full-time</span>
  </li>
</ul>
</body></html>`)

	raw := s.extractDetail(doc, "https://www.linkedin.com/jobs/view/backend-engineer-4012345678")
	if raw.ExternalID != "4012345678" {
		t.Errorf("external id = %q", raw.ExternalID)
	}
	if raw.Title != "Backend Engineer" || raw.Company != "Acme Corp" {
		t.Errorf("top card not extracted: %+v", raw)
	}
	if raw.Location != "Ho Chi Minh City, Vietnam" {
		t.Errorf("location = %q", raw.Location)
	}
	if !strings.Contains(raw.Description, "Design APIs") {
		t.Errorf("description = %q", raw.Description)
	}
	if raw.ExperienceText != "Mid-Senior level" {
		t.Errorf("seniority criteria = %q", raw.ExperienceText)
	}
	if raw.JobTypeText != "Full-time" {
		t.Errorf("employment criteria = %q", raw.JobTypeText)
	}
}

func TestExtractDetailPrefersStructuredData(t *testing.T) {
	s := &Strategy{}
	doc := mustDoc(t, `
<html><head>
<script type="application/ld+json">
{"@type":"JobPosting","title":"Platform Engineer","hiringOrganization":{"name":"Beta Inc"},"employmentType":"CONTRACTOR"}
</script>
</head><body>
<h1 class="top-card-layout__title">Stale rendered title</h1>
<li class="description__job-criteria-item">
  <h3 class="description__job-criteria-subheader">Employment type</h3>
  <span class="description__job-criteria-text">Full-time</span>
</li>
</body></html>`)

	raw := s.extractDetail(doc, "https://www.linkedin.com/jobs/view/4099999999")
	if raw.Title != "Platform Engineer" || raw.Company != "Beta Inc" {
		t.Errorf("structured data not preferred: %+v", raw)
	}
	// Criteria must not overwrite the structured employment type.
	if raw.JobTypeText != "CONTRACTOR" {
		t.Errorf("job type = %q, want CONTRACTOR", raw.JobTypeText)
	}
}
