package analysis

import "github.com/vanderheijden86/teamboard/pkg/model"

// Paginate slices records into the requested page. pageSize values below 1
// are treated as 1 and out-of-range pages are clamped into [1, TotalPages];
// callers compare CurrentPage with what they asked for to resynchronize.
func Paginate(records []model.StatRecord, page, pageSize int) model.Page {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(records)

	totalPages := 1
	if total > 0 {
		totalPages = (total-1)/pageSize + 1
	}
	current := min(max(page, 1), totalPages)

	start := (current - 1) * pageSize
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	data := make([]model.StatRecord, 0, end-start)
	data = append(data, records[start:end]...)

	return model.Page{
		Data:        data,
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: current,
	}
}
