// Package dedup matches candidate postings against stored ones through three
// graduated tiers: external-id equality, content-hash equality, and fuzzy
// title similarity. Cheapest tier first; the first hit wins. The fuzzy tier
// is bounded to recent postings from the same company to stay cheap and to
// avoid cross-company false positives.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/davidtran/jobpilot/internal/domain"
)

// MatchType identifies which tier produced a duplicate match.
type MatchType string

const (
	MatchExternalID MatchType = "external_id"
	MatchExactHash  MatchType = "exact_hash"
	MatchFuzzyTitle MatchType = "fuzzy_title"
	MatchNone       MatchType = "none"
)

const (
	// fuzzyThreshold: similarity strictly above this counts as a duplicate.
	fuzzyThreshold = 0.90

	// fuzzyWindow bounds the fuzzy tier to recently created postings.
	fuzzyWindow = 30 * 24 * time.Hour

	// fuzzyCandidateLimit bounds the per-company candidate set.
	fuzzyCandidateLimit = 50
)

// JobFinder is the narrow repository surface the engine needs.
type JobFinder interface {
	FindByExternalID(ctx context.Context, source, externalID string) (*domain.JobPosting, error)
	FindByContentHash(ctx context.Context, hash string) (*domain.JobPosting, error)
	FindRecentByCompany(ctx context.Context, company string, since time.Time, limit int) ([]domain.JobPosting, error)
}

// Candidate is the minimal posting identity used for duplicate checks.
type Candidate struct {
	Source     string
	ExternalID string
	Title      string
	Company    string
	Location   string
}

// Result describes the outcome of a duplicate check.
type Result struct {
	IsDuplicate bool
	ExistingID  string
	MatchType   MatchType
	Similarity  float64
}

// Engine runs the tiered duplicate checks against a JobFinder.
type Engine struct {
	jobs JobFinder
	now  func() time.Time
}

// New creates an Engine backed by the given finder.
func New(jobs JobFinder) *Engine {
	return &Engine{jobs: jobs, now: time.Now}
}

// CheckDuplicate runs the three tiers in order. An external-id match takes
// precedence over everything else, even when title or company differ.
func (e *Engine) CheckDuplicate(ctx context.Context, cand Candidate) (Result, error) {
	if cand.ExternalID != "" {
		existing, err := e.jobs.FindByExternalID(ctx, cand.Source, cand.ExternalID)
		if err != nil {
			return Result{MatchType: MatchNone}, fmt.Errorf("external id lookup: %w", err)
		}
		if existing != nil {
			return Result{IsDuplicate: true, ExistingID: existing.ID, MatchType: MatchExternalID}, nil
		}
	}

	hash := ContentHash(cand.Title, cand.Company, cand.Location)
	existing, err := e.jobs.FindByContentHash(ctx, hash)
	if err != nil {
		return Result{MatchType: MatchNone}, fmt.Errorf("content hash lookup: %w", err)
	}
	if existing != nil {
		return Result{IsDuplicate: true, ExistingID: existing.ID, MatchType: MatchExactHash}, nil
	}

	since := e.now().Add(-fuzzyWindow)
	candidates, err := e.jobs.FindRecentByCompany(ctx, cand.Company, since, fuzzyCandidateLimit)
	if err != nil {
		return Result{MatchType: MatchNone}, fmt.Errorf("fuzzy candidate lookup: %w", err)
	}

	normTitle := normalizeKey(cand.Title)
	for i := range candidates {
		sim := similarity(normTitle, normalizeKey(candidates[i].Title))
		if sim > fuzzyThreshold {
			return Result{
				IsDuplicate: true,
				ExistingID:  candidates[i].ID,
				MatchType:   MatchFuzzyTitle,
				Similarity:  sim,
			}, nil
		}
	}

	return Result{MatchType: MatchNone}, nil
}

// FindExisting resolves a stored posting by external id first, then by
// content hash. Returns nil when neither matches.
func (e *Engine) FindExisting(ctx context.Context, source, externalID, contentHash string) (*domain.JobPosting, error) {
	if externalID != "" {
		existing, err := e.jobs.FindByExternalID(ctx, source, externalID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	if contentHash != "" {
		return e.jobs.FindByContentHash(ctx, contentHash)
	}
	return nil, nil
}

// ContentHash fingerprints the normalized title|company|location triple. It
// is stable across case, whitespace, and punctuation differences in the raw
// fields.
func ContentHash(title, company, location string) string {
	payload := normalizeKey(title) + "|" + normalizeKey(company) + "|" + normalizeKey(location)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Similarity returns the normalized Levenshtein similarity of two titles
// after key normalization: 1 - distance/maxLen, in [0, 1].
func Similarity(a, b string) float64 {
	return similarity(normalizeKey(a), normalizeKey(b))
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes edit distance with a two-row matrix.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

// normalizeKey lowercases, strips punctuation, and collapses whitespace so
// formatting differences never change identity.
func normalizeKey(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
