package source

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// JobPostingLD is the subset of schema.org/JobPosting structured data the
// strategies consume. Sources embed it inconsistently (single object, array,
// or @graph), and several fields flip between scalar and array forms, hence
// the raw-message indirection.
type JobPostingLD struct {
	Type               string          `json:"@type"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	DatePosted         string          `json:"datePosted"`
	ValidThrough       string          `json:"validThrough"`
	EmploymentTypeRaw  json.RawMessage `json:"employmentType"`
	HiringOrganization struct {
		Name string `json:"name"`
		Logo string `json:"logo"`
	} `json:"hiringOrganization"`
	JobLocationRaw json.RawMessage `json:"jobLocation"`
	BaseSalary     struct {
		Currency string `json:"currency"`
		Value    struct {
			MinValue float64 `json:"minValue"`
			MaxValue float64 `json:"maxValue"`
			Value    float64 `json:"value"`
			UnitText string  `json:"unitText"`
		} `json:"value"`
	} `json:"baseSalary"`
}

type jsonLDLocation struct {
	Address struct {
		AddressLocality string `json:"addressLocality"`
		AddressRegion   string `json:"addressRegion"`
	} `json:"address"`
}

// EmploymentType flattens the scalar-or-array employmentType field.
func (ld *JobPostingLD) EmploymentType() string {
	if len(ld.EmploymentTypeRaw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(ld.EmploymentTypeRaw, &single); err == nil {
		return single
	}
	var list []string
	if err := json.Unmarshal(ld.EmploymentTypeRaw, &list); err == nil && len(list) > 0 {
		return strings.Join(list, " ")
	}
	return ""
}

// Locality flattens the object-or-array jobLocation field to a locality
// string.
func (ld *JobPostingLD) Locality() string {
	if len(ld.JobLocationRaw) == 0 {
		return ""
	}
	var single jsonLDLocation
	if err := json.Unmarshal(ld.JobLocationRaw, &single); err == nil {
		if loc := localityOf(single); loc != "" {
			return loc
		}
	}
	var list []jsonLDLocation
	if err := json.Unmarshal(ld.JobLocationRaw, &list); err == nil && len(list) > 0 {
		return localityOf(list[0])
	}
	return ""
}

func localityOf(l jsonLDLocation) string {
	if l.Address.AddressLocality != "" {
		return l.Address.AddressLocality
	}
	return l.Address.AddressRegion
}

// PostedAt parses datePosted, accepting date-only and full timestamps.
func (ld *JobPostingLD) PostedAt() *time.Time {
	return parseLDTime(ld.DatePosted)
}

// Deadline parses validThrough.
func (ld *JobPostingLD) Deadline() *time.Time {
	return parseLDTime(ld.ValidThrough)
}

func parseLDTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseJobPostingLD scans the document's ld+json scripts for a JobPosting
// node. Returns false when none is present or parseable.
func ParseJobPostingLD(doc *goquery.Document) (*JobPostingLD, bool) {
	var found *JobPostingLD
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		if ld := decodeJobPostingLD([]byte(raw)); ld != nil {
			found = ld
			return false
		}
		return true
	})
	return found, found != nil
}

// decodeJobPostingLD tries the common embedding shapes: a bare object, an
// array of objects, and an object with an @graph list.
func decodeJobPostingLD(raw []byte) *JobPostingLD {
	var single JobPostingLD
	if err := json.Unmarshal(raw, &single); err == nil && isJobPosting(single.Type) {
		return &single
	}

	var list []JobPostingLD
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			if isJobPosting(list[i].Type) {
				return &list[i]
			}
		}
	}

	var graph struct {
		Graph []JobPostingLD `json:"@graph"`
	}
	if err := json.Unmarshal(raw, &graph); err == nil {
		for i := range graph.Graph {
			if isJobPosting(graph.Graph[i].Type) {
				return &graph.Graph[i]
			}
		}
	}

	return nil
}

func isJobPosting(t string) bool {
	return strings.EqualFold(t, "JobPosting")
}
