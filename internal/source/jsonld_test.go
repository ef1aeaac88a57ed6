package source

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func docFrom(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func wrapLD(payload string) string {
	return `<html><head><script type="application/ld+json">` + payload + `</script></head><body></body></html>`
}

func TestParseJobPostingLDShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{
			"bare object",
			`{"@type":"JobPosting","title":"Backend Engineer"}`,
		},
		{
			"array of nodes",
			`[{"@type":"Organization","title":"ignored"},{"@type":"JobPosting","title":"Backend Engineer"}]`,
		},
		{
			"graph embedding",
			`{"@graph":[{"@type":"WebPage"},{"@type":"JobPosting","title":"Backend Engineer"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ld, ok := ParseJobPostingLD(docFrom(t, wrapLD(tt.payload)))
			if !ok {
				t.Fatal("JobPosting node not found")
			}
			if ld.Title != "Backend Engineer" {
				t.Errorf("title = %q", ld.Title)
			}
		})
	}

	t.Run("no job posting node", func(t *testing.T) {
		if _, ok := ParseJobPostingLD(docFrom(t, wrapLD(`{"@type":"Organization"}`))); ok {
			t.Error("expected no match")
		}
	})
}

func TestJobPostingLDFlatteners(t *testing.T) {
	t.Run("scalar employment type", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","employmentType":"FULL_TIME"}`)))
		if got := ld.EmploymentType(); got != "FULL_TIME" {
			t.Errorf("EmploymentType() = %q", got)
		}
	})

	t.Run("array employment type", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","employmentType":["FULL_TIME","CONTRACTOR"]}`)))
		if got := ld.EmploymentType(); got != "FULL_TIME CONTRACTOR" {
			t.Errorf("EmploymentType() = %q", got)
		}
	})

	t.Run("single location", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","jobLocation":{"address":{"addressLocality":"Hà Nội"}}}`)))
		if got := ld.Locality(); got != "Hà Nội" {
			t.Errorf("Locality() = %q", got)
		}
	})

	t.Run("location array uses first entry", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","jobLocation":[{"address":{"addressLocality":"Đà Nẵng"}},{"address":{"addressLocality":"Hà Nội"}}]}`)))
		if got := ld.Locality(); got != "Đà Nẵng" {
			t.Errorf("Locality() = %q", got)
		}
	})

	t.Run("region fallback", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","jobLocation":{"address":{"addressRegion":"Bình Dương"}}}`)))
		if got := ld.Locality(); got != "Bình Dương" {
			t.Errorf("Locality() = %q", got)
		}
	})

	t.Run("date-only timestamps", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","datePosted":"2025-06-01","validThrough":"2025-07-15T23:59:59"}`)))
		posted := ld.PostedAt()
		if posted == nil || posted.Day() != 1 {
			t.Errorf("PostedAt() = %v", posted)
		}
		deadline := ld.Deadline()
		if deadline == nil || deadline.Day() != 15 {
			t.Errorf("Deadline() = %v", deadline)
		}
	})

	t.Run("garbage timestamps", func(t *testing.T) {
		ld, _ := ParseJobPostingLD(docFrom(t, wrapLD(
			`{"@type":"JobPosting","datePosted":"soon"}`)))
		if got := ld.PostedAt(); got != nil {
			t.Errorf("PostedAt() = %v, want nil", got)
		}
	})
}
