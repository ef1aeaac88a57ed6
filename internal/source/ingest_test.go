package source

import (
	"context"
	"testing"
	"time"

	"github.com/davidtran/jobpilot/internal/dedup"
	"github.com/davidtran/jobpilot/internal/domain"
)

type fakeStore struct {
	created []*domain.JobPosting
	updated map[string]map[string]interface{}

	byExternalID map[string]*domain.JobPosting
	byCompany    map[string][]domain.JobPosting
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		updated:      make(map[string]map[string]interface{}),
		byExternalID: make(map[string]*domain.JobPosting),
		byCompany:    make(map[string][]domain.JobPosting),
	}
}

func (f *fakeStore) Create(_ context.Context, job *domain.JobPosting) error {
	f.created = append(f.created, job)
	return nil
}

func (f *fakeStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	f.updated[id] = fields
	return nil
}

func (f *fakeStore) FindByExternalID(_ context.Context, src, externalID string) (*domain.JobPosting, error) {
	return f.byExternalID[src+"/"+externalID], nil
}

func (f *fakeStore) FindByContentHash(_ context.Context, _ string) (*domain.JobPosting, error) {
	return nil, nil
}

func (f *fakeStore) FindRecentByCompany(_ context.Context, company string, _ time.Time, _ int) ([]domain.JobPosting, error) {
	return f.byCompany[company], nil
}

func newTestIngestor(store *fakeStore) *Ingestor {
	return NewIngestor(store, dedup.New(store))
}

func TestUpsertSkipsIncompleteJobs(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store)

	tests := []struct {
		name string
		raw  *RawJob
	}{
		{"missing title", &RawJob{Company: "Acme Corp"}},
		{"missing company", &RawJob{Title: "Senior Go Developer"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := ing.Upsert(context.Background(), "topcv", tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if outcome != OutcomeSkipped {
				t.Errorf("outcome = %v, want skipped", outcome)
			}
		})
	}
	if len(store.created) != 0 {
		t.Errorf("incomplete jobs must not be persisted, created %d", len(store.created))
	}
}

func TestUpsertCreatesNormalizedPosting(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store)

	outcome, err := ing.Upsert(context.Background(), "topcv", &RawJob{
		ExternalID:     "12345",
		Title:          "Senior Go Developer",
		Company:        "Acme Corp",
		Location:       "ha noi",
		SalaryText:     "20 - 30 triệu",
		JobTypeText:    "Toàn thời gian",
		ExperienceText: "Senior",
		Skills:         []string{"Go", "go", "Docker"},
		URL:            "https://www.topcv.vn/viec-lam/x-12345.html",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("outcome = %v, want created", outcome)
	}

	job := store.created[0]
	if job.ID == "" {
		t.Error("created posting must get an id")
	}
	if job.City != "Hà Nội" {
		t.Errorf("city = %q, want canonical Hà Nội", job.City)
	}
	if job.SalaryMin != 20_000_000 || job.SalaryMax != 30_000_000 {
		t.Errorf("salary = %d-%d", job.SalaryMin, job.SalaryMax)
	}
	if job.JobType != domain.JobTypeFullTime {
		t.Errorf("job type = %q", job.JobType)
	}
	if job.Experience != domain.ExperienceSenior {
		t.Errorf("experience = %q", job.Experience)
	}
	if len(job.Skills) != 2 {
		t.Errorf("skills = %v, want deduplicated pair", job.Skills)
	}
	if job.ContentHash != dedup.ContentHash("Senior Go Developer", "Acme Corp", "Hà Nội") {
		t.Error("content hash not derived from normalized fields")
	}
}

func TestUpsertUpdatesOnExternalIDMatch(t *testing.T) {
	store := newFakeStore()
	store.byExternalID["topcv/12345"] = &domain.JobPosting{ID: "existing-1"}
	ing := newTestIngestor(store)

	outcome, err := ing.Upsert(context.Background(), "topcv", &RawJob{
		ExternalID: "12345",
		Title:      "Senior Go Developer (Updated)",
		Company:    "Acme Corp",
		Location:   "Hà Nội",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeUpdated {
		t.Fatalf("outcome = %v, want updated", outcome)
	}
	fields, ok := store.updated["existing-1"]
	if !ok {
		t.Fatalf("no update recorded: %v", store.updated)
	}
	if fields["title"] != "Senior Go Developer (Updated)" {
		t.Errorf("title not updated: %v", fields["title"])
	}
	if len(store.created) != 0 {
		t.Error("external id match must not create a new posting")
	}
}

func TestUpsertSkipsFuzzyDuplicates(t *testing.T) {
	store := newFakeStore()
	store.byCompany["Acme Corp"] = []domain.JobPosting{
		{ID: "existing-2", Title: "Senior Golang Developers"},
	}
	ing := newTestIngestor(store)

	outcome, err := ing.Upsert(context.Background(), "topcv", &RawJob{
		Title:    "Senior Golang Developer",
		Company:  "Acme Corp",
		Location: "Hà Nội",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %v, want duplicate", outcome)
	}
	// Fuzzy matches are skipped, never merged onto the similar posting.
	if len(store.created) != 0 || len(store.updated) != 0 {
		t.Errorf("fuzzy duplicate must not write: created=%d updated=%d", len(store.created), len(store.updated))
	}
}

func TestRunResultRecord(t *testing.T) {
	var res RunResult
	for _, o := range []Outcome{OutcomeCreated, OutcomeCreated, OutcomeUpdated, OutcomeSkipped, OutcomeDuplicate} {
		res.Record(o)
	}
	if res.JobsCreated != 2 || res.JobsUpdated != 1 || res.JobsSkipped != 1 || res.DuplicatesSkipped != 1 {
		t.Errorf("counters wrong: %+v", res)
	}
}
