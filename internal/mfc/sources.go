package mfc

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Source extracts a partial record from a parsed item page. Each source is
// independent: fields it cannot find stay zero and fall through to the next
// source in precedence order.
type Source interface {
	Name() string
	Extract(doc *goquery.Document) Record
}

// mergeOrder lists the sources from lowest to highest precedence. Meta tags
// are machine-generated summaries, JSON-LD is structured but sparse, and the
// hand-authored field table is the most reliable signal on the source site.
var mergeOrder = []Source{
	metaSource{},
	jsonldSource{},
	tableSource{},
}

// Parse runs every source over the page and merges the partial records under
// the declared precedence.
func Parse(page string) (Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Record{}, err
	}

	var merged Record
	for _, source := range mergeOrder {
		merged = merge(merged, source.Extract(doc))
	}
	merged = finalize(merged)
	if merged.Empty() {
		return Record{}, ErrEmpty
	}
	return merged, nil
}

// merge overlays higher-precedence values onto the accumulator. Scalars and
// lists override when non-empty; tags accumulate as a union across sources.
func merge(base, next Record) Record {
	out := base
	overrideString(&out.Name, next.Name)
	overrideString(&out.Image, next.Image)
	overrideString(&out.Description, next.Description)
	overrideString(&out.Caption, next.Caption)
	overrideString(&out.Series, next.Series)
	overrideString(&out.Origin, next.Origin)
	overrideString(&out.Character, next.Character)
	overrideString(&out.Manufacturer, next.Manufacturer)
	overrideString(&out.Scale, next.Scale)
	overrideString(&out.Classification, next.Classification)
	overrideString(&out.ProductLine, next.ProductLine)
	overrideString(&out.Version, next.Version)
	overrideString(&out.ReleaseDate, next.ReleaseDate)
	overrideString(&out.Dimensions, next.Dimensions)
	if len(next.Companies) > 0 {
		out.Companies = next.Companies
	}
	if len(next.Releases) > 0 {
		out.Releases = next.Releases
	}
	if len(next.Materials) > 0 {
		out.Materials = next.Materials
	}
	out.Tags = unionTags(out.Tags, next.Tags)
	return out
}

func overrideString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func unionTags(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	for _, tag := range base {
		seen[strings.ToLower(tag)] = struct{}{}
	}
	out := base
	for _, tag := range extra {
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// finalize fills derived fields after the merge: the series alias, the bare
// manufacturer name, and the representative scalar release date.
func finalize(r Record) Record {
	if r.Series == "" {
		r.Series = r.Origin
	}
	if r.Manufacturer == "" {
		for _, c := range r.Companies {
			if strings.Contains(strings.ToLower(c.Role), "manufacturer") {
				r.Manufacturer = c.Name
				break
			}
		}
		if r.Manufacturer == "" && len(r.Companies) > 0 {
			r.Manufacturer = r.Companies[0].Name
		}
	}
	if derived := earliestReleaseDate(r.Releases); derived != "" {
		r.ReleaseDate = derived
	} else if r.ReleaseDate != "" {
		if _, normalized := findDate(r.ReleaseDate); normalized != "" {
			r.ReleaseDate = normalized
			if len(r.ReleaseDate) > len("2006-01") {
				r.ReleaseDate = r.ReleaseDate[:len("2006-01")]
			}
		}
	}
	return r
}

// metaSource reads OpenGraph and keyword meta tags.
type metaSource struct{}

func (metaSource) Name() string { return "meta" }

func (metaSource) Extract(doc *goquery.Document) Record {
	var r Record
	r.Name = metaContent(doc, `meta[property="og:title"]`)
	r.Image = metaContent(doc, `meta[property="og:image"]`)
	r.Description = metaContent(doc, `meta[property="og:description"]`)
	r.Caption = summarize(r.Description)
	if keywords := metaContent(doc, `meta[name="keywords"]`); keywords != "" {
		r.Tags = splitTags(keywords)
	}
	return r
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// jsonldSource reads the first embedded schema.org Product object.
type jsonldSource struct{}

func (jsonldSource) Name() string { return "jsonld" }

// ldProduct tolerates the loose typing of real-world JSON-LD: values that are
// sometimes strings, sometimes arrays, sometimes nested objects.
type ldProduct struct {
	Type        string      `json:"@type"`
	Name        string      `json:"name"`
	Image       ldStrings   `json:"image"`
	Description string      `json:"description"`
	Brand       ldEntities  `json:"brand"`
	Scale       string      `json:"scale"`
	Category    ldStrings   `json:"category"`
	Keywords    ldStrings   `json:"keywords"`
	Offers      *ldOffer    `json:"offers"`
	Graph       []ldProduct `json:"@graph"`
}

type ldOffer struct {
	ReleaseDate string `json:"releaseDate"`
}

// ldStrings decodes a JSON string or array of strings.
type ldStrings []string

func (s *ldStrings) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// ldEntities decodes a name-bearing object, a string, or an array of either.
type ldEntities []string

func (e *ldEntities) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		for _, item := range raw {
			var one ldEntities
			if err := one.UnmarshalJSON(item); err != nil {
				return err
			}
			*e = append(*e, one...)
		}
		return nil
	case '{':
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Name != "" {
			*e = append(*e, obj.Name)
		}
		return nil
	default:
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		if one != "" {
			*e = append(*e, one)
		}
		return nil
	}
}

func (jsonldSource) Extract(doc *goquery.Document) Record {
	var r Record
	product, ok := findProduct(doc)
	if !ok {
		return r
	}
	r.Name = strings.TrimSpace(product.Name)
	if len(product.Image) > 0 {
		r.Image = strings.TrimSpace(product.Image[0])
	}
	r.Description = strings.TrimSpace(product.Description)
	r.Caption = summarize(r.Description)
	for _, brand := range product.Brand {
		name, role := stripRole(brand)
		if name != "" {
			r.Companies = append(r.Companies, Company{Name: name, Role: role})
		}
	}
	if product.Scale != "" {
		r.Scale, _ = stripRole(product.Scale)
	}
	for _, category := range product.Category {
		if tag, _ := stripRole(category); tag != "" {
			r.Tags = append(r.Tags, tag)
		}
	}
	for _, keyword := range product.Keywords {
		if tag, _ := stripRole(keyword); tag != "" {
			r.Tags = unionTags(r.Tags, []string{tag})
		}
	}
	if product.Offers != nil {
		if _, normalized := findDate(product.Offers.ReleaseDate); normalized != "" {
			r.ReleaseDate = normalized
		}
	}
	return r
}

func findProduct(doc *goquery.Document) (ldProduct, bool) {
	var product ldProduct
	found := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		candidates := decodeJSONLD(s.Text())
		for _, c := range candidates {
			if strings.EqualFold(c.Type, "Product") {
				product = c
				found = true
				return false
			}
		}
		return true
	})
	return product, found
}

func decodeJSONLD(raw string) []ldProduct {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var one ldProduct
	if err := json.Unmarshal([]byte(raw), &one); err == nil {
		if len(one.Graph) > 0 {
			return one.Graph
		}
		return []ldProduct{one}
	}
	var many []ldProduct
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		return many
	}
	return nil
}

// tableSource reads the hand-authored field table (and definition lists),
// matching rows by fuzzy label containment.
type tableSource struct{}

func (tableSource) Name() string { return "table" }

// fieldLabels maps record fields to accepted label synonyms, in declared
// precedence order: a heading that matches several fields resolves to the
// earliest entry. A row matches when its heading equals, contains, or is
// contained by a synonym.
var fieldLabels = []struct {
	field    string
	synonyms []string
}{
	{"origin", []string{"origin", "source", "series"}},
	{"character", []string{"character"}},
	{"companies", []string{"manufacturer", "company", "companies"}},
	{"scale", []string{"scale"}},
	{"classification", []string{"classification"}},
	{"productLine", []string{"product line"}},
	{"version", []string{"version"}},
	{"releases", []string{"release", "released", "release date"}},
	{"materials", []string{"materials", "material"}},
	{"dimensions", []string{"dimensions", "size"}},
}

func (tableSource) Extract(doc *goquery.Document) Record {
	var r Record
	assign := func(label, value string) {
		if value == "" {
			return
		}
		switch matchField(label) {
		case "origin":
			r.Origin, _ = stripRole(value)
		case "character":
			r.Character, _ = stripRole(value)
		case "companies":
			r.Companies = parseCompanies(value)
		case "scale":
			r.Scale, _ = stripRole(value)
		case "classification":
			r.Classification, _ = stripRole(value)
		case "productLine":
			r.ProductLine, _ = stripRole(value)
		case "version":
			r.Version, _ = stripRole(value)
		case "releases":
			r.Releases = parseReleases(value)
		case "materials":
			r.Materials = splitMaterials(value)
		case "dimensions":
			r.Dimensions = value
		}
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		th := row.Find("th").First()
		td := row.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		assign(strings.TrimSpace(th.Text()), cellText(td))
	})
	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		values := dl.Find("dd")
		terms.Each(func(i int, dt *goquery.Selection) {
			if i < values.Length() {
				assign(strings.TrimSpace(dt.Text()), cellText(values.Eq(i)))
			}
		})
	})
	return r
}

// matchField resolves a row heading to a record field by case-insensitive
// containment in either direction, taking the first match in fieldLabels
// order.
func matchField(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ""
	}
	for _, fl := range fieldLabels {
		for _, syn := range fl.synonyms {
			if label == syn || strings.Contains(label, syn) || strings.Contains(syn, label) {
				return fl.field
			}
		}
	}
	return ""
}

// cellText extracts the text of a table cell, translating <br> into newlines
// so multi-valued cells keep their line structure.
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(b.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
