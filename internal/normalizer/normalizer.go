// Package normalizer maps raw scraped strings onto the canonical posting
// vocabulary. Every function is total: bad input falls back to a safe default
// instead of returning an error. Keyword tables cover both English and
// Vietnamese phrasings since the sources mix the two freely.
package normalizer

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/davidtran/jobpilot/internal/domain"
)

// jobTypeKeywords is checked in order; the first matching set wins.
var jobTypeKeywords = []struct {
	jobType  domain.JobType
	keywords []string
}{
	{domain.JobTypeInternship, []string{"internship", "intern", "thực tập", "thuc tap"}},
	{domain.JobTypePartTime, []string{"part-time", "part time", "parttime", "bán thời gian", "ban thoi gian"}},
	{domain.JobTypeFreelance, []string{"freelance", "freelancer", "tự do", "tu do"}},
	{domain.JobTypeContract, []string{"contract", "contractor", "hợp đồng", "hop dong"}},
	{domain.JobTypeRemote, []string{"remote", "từ xa", "tu xa", "làm việc tại nhà", "work from home", "wfh"}},
	{domain.JobTypeHybrid, []string{"hybrid"}},
	{domain.JobTypeFullTime, []string{"full-time", "full time", "fulltime", "toàn thời gian", "toan thoi gian"}},
}

// JobType maps a raw employment-type string onto the canonical enum,
// defaulting to full-time.
func JobType(raw string) domain.JobType {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return domain.JobTypeFullTime
	}
	for _, entry := range jobTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.jobType
			}
		}
	}
	return domain.JobTypeFullTime
}

// experienceKeywords is checked in order; seniority words outrank the
// years-of-experience heuristic below.
var experienceKeywords = []struct {
	level    domain.ExperienceLevel
	keywords []string
}{
	{domain.ExperienceIntern, []string{"intern", "thực tập sinh", "thực tập", "thuc tap"}},
	{domain.ExperienceDirector, []string{"director", "giám đốc", "giam doc"}},
	{domain.ExperienceManager, []string{"manager", "quản lý", "quan ly", "trưởng phòng", "truong phong"}},
	{domain.ExperienceLead, []string{"lead", "leader", "trưởng nhóm", "truong nhom"}},
	{domain.ExperienceSenior, []string{"senior", "cao cấp", "cao cap"}},
	{domain.ExperienceMiddle, []string{"middle", "mid-level", "mid level"}},
	{domain.ExperienceJunior, []string{"junior"}},
	{domain.ExperienceFresher, []string{
		"fresher", "fresh graduate", "mới tốt nghiệp", "moi tot nghiep",
		"no experience", "không yêu cầu kinh nghiệm", "khong yeu cau kinh nghiem",
		"chưa có kinh nghiệm", "chua co kinh nghiem",
	}},
}

var yearsRe = regexp.MustCompile(`(\d+)\s*\+?\s*(?:năm|nam|years?|yrs?)`)

// ExperienceLevel maps a raw seniority string onto the canonical enum. Tiered
// matching: explicit seniority words first, then years-of-experience phrases;
// defaults to not-specified.
func ExperienceLevel(raw string) domain.ExperienceLevel {
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return domain.ExperienceNotSpecified
	}

	for _, entry := range experienceKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.level
			}
		}
	}

	if m := yearsRe.FindStringSubmatch(lower); m != nil {
		years, err := strconv.Atoi(m[1])
		if err == nil {
			switch {
			case years >= 5:
				return domain.ExperienceSenior
			case years >= 3:
				return domain.ExperienceMiddle
			case years >= 1:
				return domain.ExperienceJunior
			default:
				return domain.ExperienceFresher
			}
		}
	}

	return domain.ExperienceNotSpecified
}

// Skills trims, deduplicates (case-insensitively) and drops empty entries
// while preserving first-seen order and original casing.
func Skills(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	result := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, s)
	}
	return result
}
