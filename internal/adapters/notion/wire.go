package notion

import (
	"encoding/json"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
)

type queryRequest struct {
	Filter      any    `json:"filter,omitempty"`
	StartCursor string `json:"start_cursor,omitempty"`
	PageSize    int    `json:"page_size"`
}

type propertyFilter struct {
	Property string      `json:"property"`
	URL      *textFilter `json:"url,omitempty"`
	Date     *dateFilter `json:"date,omitempty"`
}

type textFilter struct {
	Equals string `json:"equals"`
}

type dateFilter struct {
	OnOrAfter string `json:"on_or_after"`
}

type orFilter struct {
	Or []propertyFilter `json:"or"`
}

func urlFilter(property string, urls []string) orFilter {
	conditions := make([]propertyFilter, 0, len(urls))
	for _, u := range urls {
		conditions = append(conditions, propertyFilter{Property: property, URL: &textFilter{Equals: u}})
	}
	return orFilter{Or: conditions}
}

func editedSinceFilter(property string, since time.Time) propertyFilter {
	return propertyFilter{
		Property: property,
		Date:     &dateFilter{OnOrAfter: since.UTC().Format("2006-01-02T15:04:05.000Z07:00")},
	}
}

type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type page struct {
	ID         string                     `json:"id"`
	URL        string                     `json:"url"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type urlProperty struct {
	URL *string `json:"url"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r queryResponse) page(property string) domain.RecordPage {
	out := domain.RecordPage{
		Records: make([]domain.Record, 0, len(r.Results)),
		HasMore: r.HasMore,
	}
	if r.NextCursor != nil {
		out.NextCursor = *r.NextCursor
	}
	for _, p := range r.Results {
		out.Records = append(out.Records, domain.Record{
			ID:      p.ID,
			URL:     p.propertyURL(property),
			PageURL: p.URL,
		})
	}
	return out
}

// propertyURL returns the value of a url-typed property, or "" when unset or of another type.
func (p page) propertyURL(property string) string {
	raw, ok := p.Properties[property]
	if !ok {
		return ""
	}
	var prop urlProperty
	if err := json.Unmarshal(raw, &prop); err != nil || prop.URL == nil {
		return ""
	}
	return *prop.URL
}
