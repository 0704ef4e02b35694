package devserver

import (
	"strings"
	"unicode/utf8"

	"taskmgr/internal/service"
)

// taskRequest is the body of a create or update. Fields are decoded loosely
// so that each problem can be reported against its field.
type taskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	DueDate     *string `json:"dueDate"`
}

// validate checks the request and returns the draft to store, or the
// per-field error messages.
func (r taskRequest) validate() (service.Draft, map[string]string) {
	errs := make(map[string]string)
	d := service.Draft{
		Title:       strings.TrimSpace(r.Title),
		Description: r.Description,
		Status:      service.Status(r.Status),
	}

	switch {
	case d.Title == "":
		errs["title"] = "Title is required"
	case utf8.RuneCountInString(d.Title) > service.MaxTitleLength:
		errs["title"] = "Title must not exceed 100 characters"
	}

	if utf8.RuneCountInString(d.Description) > service.MaxDescriptionLength {
		errs["description"] = "Description must not exceed 500 characters"
	}

	switch {
	case r.Status == "":
		errs["status"] = "Status is required"
	case !d.Status.Valid():
		errs["status"] = "Status must be one of TODO, IN_PROGRESS, DONE"
	}

	if r.DueDate != nil && strings.TrimSpace(*r.DueDate) != "" {
		due, err := service.ParseDate(*r.DueDate)
		if err != nil {
			errs["dueDate"] = "Due date must be YYYY-MM-DD"
		} else {
			d.DueDate = &due
		}
	}

	if len(errs) > 0 {
		return service.Draft{}, errs
	}
	return d, nil
}
