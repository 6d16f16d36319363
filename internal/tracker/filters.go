package tracker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/recruit-tracker/internal/types"
)

// DateRange is an inclusive calendar range; nil bounds are open.
type DateRange struct {
	From *types.Date `json:"from,omitempty"`
	To   *types.Date `json:"to,omitempty"`
}

// Empty reports whether neither bound is set.
func (r DateRange) Empty() bool {
	return r.From == nil && r.To == nil
}

// ListFilter narrows a candidate listing. Date ranges only apply when Status
// names the lifecycle step that sets the date: Selection and ExpectedJoining
// with Selected, Joining with Joined. Otherwise they are ignored.
type ListFilter struct {
	Search          string       `json:"search,omitempty"`
	Status          types.Status `json:"status,omitempty"`
	Client          string       `json:"client,omitempty"`
	JobTitle        string       `json:"job_title,omitempty"`
	JobID           uuid.UUID    `json:"job_id,omitempty"`
	Stage           string       `json:"stage,omitempty"`
	Selection       DateRange    `json:"selection,omitempty"`
	ExpectedJoining DateRange    `json:"expected_joining,omitempty"`
	Joining         DateRange    `json:"joining,omitempty"`
}

// Page is one page of a filtered candidate listing.
type Page struct {
	Items      []types.Candidate `json:"items"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func (f ListFilter) matches(c *types.Candidate, job *types.Job) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.JobID != uuid.Nil && c.JobID != f.JobID {
		return false
	}
	if f.Client != "" && (job == nil || !strings.EqualFold(job.Client, f.Client)) {
		return false
	}
	if f.JobTitle != "" && (job == nil || !containsFold(job.Title, f.JobTitle)) {
		return false
	}
	if f.Stage != "" && c.InterviewStage != f.Stage {
		return false
	}
	switch f.Status {
	case types.StatusSelected:
		if !f.Selection.Empty() && !c.SelectionDate.Within(f.Selection.From, f.Selection.To) {
			return false
		}
		if !f.ExpectedJoining.Empty() && !c.ExpectedJoiningDate.Within(f.ExpectedJoining.From, f.ExpectedJoining.To) {
			return false
		}
	case types.StatusJoined:
		if !f.Joining.Empty() && !c.JoiningDate.Within(f.Joining.From, f.Joining.To) {
			return false
		}
	}
	if f.Search != "" && !searchFields(c, f.Search) {
		return false
	}
	return true
}

// searchFields matches the term against intake field values and notes.
func searchFields(c *types.Candidate, term string) bool {
	term = strings.TrimSpace(term)
	if term == "" {
		return true
	}
	for _, v := range c.Fields {
		if v == nil {
			continue
		}
		if containsFold(fmt.Sprint(v), term) {
			return true
		}
	}
	return containsFold(c.Notes, term)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// normalizePage clamps paging input: pages are 1-based.
func normalizePage(page, size, defaultSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func paginate(items []types.Candidate, page, size int) Page {
	total := len(items)
	pages := (total + size - 1) / size
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page{
		Items:      append([]types.Candidate{}, items[start:end]...),
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
}

// sortNewestFirst orders by creation time descending with ID as tie-break.
func sortNewestFirst(cs []types.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID.String() < cs[j].ID.String()
	})
}
