// Package catalog defines the persisted collection document and its
// normalization rules.
package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Collection is the root document: every figure the owner has or wants.
// It is persisted wholesale; there are no partial updates.
type Collection struct {
	Owned     []Entry    `json:"owned"`
	Wishlist  []Entry    `json:"wishlist"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// Entry is one catalogued figure, owned or wished-for.
type Entry struct {
	Slug           string    `json:"slug,omitempty"`
	MfcID          *ItemID   `json:"mfcId,omitempty"`
	Name           string    `json:"name,omitempty"`
	Series         string    `json:"series,omitempty"`
	Origin         string    `json:"origin,omitempty"`
	Character      string    `json:"character,omitempty"`
	Manufacturer   string    `json:"manufacturer,omitempty"`
	Companies      []Company `json:"companies,omitempty"`
	Scale          string    `json:"scale,omitempty"`
	Classification string    `json:"classification,omitempty"`
	ProductLine    string    `json:"productLine,omitempty"`
	Version        string    `json:"version,omitempty"`
	ReleaseDate    string    `json:"releaseDate,omitempty"`
	Releases       []Release `json:"releases,omitempty"`
	Materials      []string  `json:"materials,omitempty"`
	Dimensions     string    `json:"dimensions,omitempty"`
	Image          string    `json:"image,omitempty"`
	Caption        string    `json:"caption,omitempty"`
	Description    string    `json:"description,omitempty"`
	Tags           TagList   `json:"tags"`
	Alt            *string   `json:"alt,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	Links          *Links    `json:"links,omitempty"`
}

// Company is a producing entity with its role on the item.
type Company struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Release is one dated release variant of an item.
type Release struct {
	Label  string `json:"label,omitempty"`
	Date   string `json:"date,omitempty"`
	Type   string `json:"type,omitempty"`
	Region string `json:"region,omitempty"`
}

// Links holds back-references to external sources.
type Links struct {
	MFC string `json:"mfc,omitempty"`
}

// ItemID is the numeric MyFigureCollection identifier. Admin form submissions
// carry it as a string, so it accepts both JSON numbers and numeric strings
// and always marshals back to a number.
type ItemID int64

// UnmarshalJSON accepts a JSON number, a numeric string, or null.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil // non-numeric ids are treated as unset, not as errors
		}
		*id = ItemID(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ItemID(n)
	return nil
}

// TagList is a set-like sequence of tag strings. The admin form submits either
// a JSON array or a single comma-separated string.
type TagList []string

// UnmarshalJSON accepts a JSON array of strings or a comma-separated string.
func (t *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = splitTags(s)
		return nil
	}
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = raw
	return nil
}

func splitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// Normalize compacts both lists. The result always carries non-nil slices so
// the serialized document has stable shape.
func Normalize(c Collection) Collection {
	out := Collection{
		Owned:     make([]Entry, 0, len(c.Owned)),
		Wishlist:  make([]Entry, 0, len(c.Wishlist)),
		UpdatedAt: c.UpdatedAt,
	}
	for _, e := range c.Owned {
		out.Owned = append(out.Owned, NormalizeEntry(e))
	}
	for _, e := range c.Wishlist {
		out.Wishlist = append(out.Wishlist, NormalizeEntry(e))
	}
	return out
}

// NormalizeEntry trims every string field and drops empty optional values.
// Tags, alt and notes are kept even when empty: an explicitly cleared value is
// distinct from one that was never set.
func NormalizeEntry(e Entry) Entry {
	out := Entry{
		Slug:           strings.TrimSpace(e.Slug),
		Name:           strings.TrimSpace(e.Name),
		Series:         strings.TrimSpace(e.Series),
		Origin:         strings.TrimSpace(e.Origin),
		Character:      strings.TrimSpace(e.Character),
		Manufacturer:   strings.TrimSpace(e.Manufacturer),
		Scale:          strings.TrimSpace(e.Scale),
		Classification: strings.TrimSpace(e.Classification),
		ProductLine:    strings.TrimSpace(e.ProductLine),
		Version:        strings.TrimSpace(e.Version),
		ReleaseDate:    strings.TrimSpace(e.ReleaseDate),
		Dimensions:     strings.TrimSpace(e.Dimensions),
		Image:          strings.TrimSpace(e.Image),
		Caption:        strings.TrimSpace(e.Caption),
		Description:    strings.TrimSpace(e.Description),
	}

	// An id that decoded from "" or a non-numeric string is left at zero by
	// UnmarshalJSON, with the pointer already allocated. Zero means unset.
	if e.MfcID != nil && *e.MfcID != 0 {
		out.MfcID = e.MfcID
	}

	out.Tags = normalizeTags(e.Tags)
	if e.Alt != nil {
		alt := strings.TrimSpace(*e.Alt)
		out.Alt = &alt
	}
	if e.Notes != nil {
		notes := strings.TrimSpace(*e.Notes)
		out.Notes = &notes
	}

	for _, c := range e.Companies {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		out.Companies = append(out.Companies, Company{Name: name, Role: strings.TrimSpace(c.Role)})
	}
	for _, r := range e.Releases {
		nr := Release{
			Label:  strings.TrimSpace(r.Label),
			Date:   strings.TrimSpace(r.Date),
			Type:   strings.TrimSpace(r.Type),
			Region: strings.TrimSpace(r.Region),
		}
		if nr == (Release{}) {
			continue
		}
		out.Releases = append(out.Releases, nr)
	}
	for _, m := range e.Materials {
		if m = strings.TrimSpace(m); m != "" {
			out.Materials = append(out.Materials, m)
		}
	}
	if e.Links != nil {
		mfc := strings.TrimSpace(e.Links.MFC)
		if mfc != "" {
			out.Links = &Links{MFC: mfc}
		}
	}
	return out
}

func normalizeTags(tags TagList) TagList {
	out := make(TagList, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
