// Package mfc fetches MyFigureCollection item pages and normalizes them into
// structured figure records. Pages are parsed by three independent sources
// (meta tags, JSON-LD, field table) merged under a declared precedence.
package mfc

import "errors"

// Sentinel errors surfaced to the API layer for status mapping.
var (
	// ErrNotFound means the upstream site reported the item does not exist.
	ErrNotFound = errors.New("item not found upstream")

	// ErrUpstream covers network failures and unexpected upstream statuses.
	ErrUpstream = errors.New("upstream fetch failed")

	// ErrChallenge means a bot-protection interstitial was served instead of
	// the item page. Retrying later usually succeeds.
	ErrChallenge = errors.New("upstream served a bot challenge")

	// ErrEmpty means the page fetched fine but no field could be extracted.
	ErrEmpty = errors.New("unable to parse item page")
)

// Record is the normalized scrape output. It mirrors the descriptive fields
// of a catalog entry; the admin panel copies it into a new entry.
type Record struct {
	Name           string    `json:"name,omitempty"`
	Image          string    `json:"image,omitempty"`
	Description    string    `json:"description,omitempty"`
	Caption        string    `json:"caption,omitempty"`
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
	Tags           []string  `json:"tags,omitempty"`
	Links          *Links    `json:"links,omitempty"`
}

// Company is a producing entity with its role on the item.
type Company struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Release is one parsed release line from the item page.
type Release struct {
	Label  string `json:"label,omitempty"`
	Date   string `json:"date,omitempty"`
	Type   string `json:"type,omitempty"`
	Region string `json:"region,omitempty"`
}

// Links holds the back-reference to the scraped page.
type Links struct {
	MFC string `json:"mfc,omitempty"`
}

// Empty reports whether nothing at all was extracted. Links are excluded:
// they are attached by the client, not parsed from the page.
func (r Record) Empty() bool {
	return r.Name == "" && r.Image == "" && r.Description == "" &&
		r.Series == "" && r.Origin == "" && r.Character == "" &&
		r.Manufacturer == "" && len(r.Companies) == 0 &&
		r.Scale == "" && r.Classification == "" && r.ProductLine == "" &&
		r.Version == "" && r.ReleaseDate == "" && len(r.Releases) == 0 &&
		len(r.Materials) == 0 && r.Dimensions == "" && len(r.Tags) == 0
}
