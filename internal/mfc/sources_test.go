package mfc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html><html><head>
<meta property="og:title" content="Rem" />
<meta property="og:image" content="https://example.com/rem.jpg" />
<meta property="og:description" content="Rem figure with blue hair." />
<meta name="keywords" content="rem, demon, Re:Zero as Franchise" />
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@type": "Product",
  "name": "Rem",
  "image": "https://example.com/rem.jpg",
  "description": "Rem figure with blue hair.",
  "brand": { "@type": "Organization", "name": "SEGA as Manufacturer" },
  "scale": "Prize Figure as Classification",
  "category": ["Re:Zero kara Hajimeru Isekai Seikatsu as Franchise"],
  "keywords": ["rem", "demon", "Re:Zero as Franchise"],
  "offers": { "@type": "Offer", "price": "0", "releaseDate": "2024-05-01" }
}
</script>
</head><body>
<table>
  <tr><th>Classification</th><td>Prize</td></tr>
  <tr><th>Product line</th><td>Luminasta</td></tr>
  <tr><th>Origin</th><td>Re:Zero kara Hajimeru Isekai Seikatsu</td></tr>
  <tr><th>Character</th><td>Rem</td></tr>
  <tr><th>Company</th><td>SEGA as Manufacturer</td></tr>
  <tr><th>Version</th><td>Ameagari Day</td></tr>
  <tr><th>Release</th><td>01/31/2024 as Prize (Japan)<br/>04/14/2023 as Prize (Japan)</td></tr>
  <tr><th>Materials</th><td>ABS, PVC</td></tr>
  <tr><th>Dimensions</th><td>W=130mm (5.07in)<br/>H=210mm (8.19in)</td></tr>
</table>
</body></html>`

func TestParseSamplePage(t *testing.T) {
	record, err := Parse(samplePage)
	require.NoError(t, err)

	require.Equal(t, "Rem", record.Name)
	require.Equal(t, "https://example.com/rem.jpg", record.Image)
	require.Equal(t, "Rem figure with blue hair.", record.Description)
	require.Equal(t, "Rem figure with blue hair.", record.Caption)
	require.Equal(t, "Prize", record.Classification)
	require.Equal(t, "Luminasta", record.ProductLine)
	require.Equal(t, "Re:Zero kara Hajimeru Isekai Seikatsu", record.Origin)
	require.Equal(t, "Re:Zero kara Hajimeru Isekai Seikatsu", record.Series)
	require.Equal(t, "Rem", record.Character)
	require.Equal(t, []Company{{Name: "SEGA", Role: "Manufacturer"}}, record.Companies)
	require.Equal(t, "SEGA", record.Manufacturer)
	require.Equal(t, "Prize Figure", record.Scale)
	require.Equal(t, "Ameagari Day", record.Version)
	require.Equal(t, "2023-04", record.ReleaseDate)
	require.Equal(t, []Release{
		{Label: "01/31/2024 as Prize (Japan)", Date: "2024-01-31", Type: "Prize", Region: "Japan"},
		{Label: "04/14/2023 as Prize (Japan)", Date: "2023-04-14", Type: "Prize", Region: "Japan"},
	}, record.Releases)
	require.Equal(t, []string{"ABS", "PVC"}, record.Materials)
	require.Equal(t, "W=130mm (5.07in)\nH=210mm (8.19in)", record.Dimensions)
	require.Equal(t, []string{
		"rem",
		"demon",
		"Re:Zero",
		"Re:Zero kara Hajimeru Isekai Seikatsu",
	}, record.Tags)
}

func TestParseMetaOnly(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Sakura" />
<meta property="og:description" content="Magical girl figure. Comes with a wand." />
</head><body></body></html>`

	record, err := Parse(page)
	require.NoError(t, err)
	require.Equal(t, "Sakura", record.Name)
	require.Equal(t, "Magical girl figure. Comes with a wand.", record.Description)
	require.Equal(t, "Magical girl figure.", record.Caption)
}

func TestParseTableOverridesLowerSources(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Meta Name" />
</head><body>
<dl>
  <dt>Character</dt><dd>Rem as Main</dd>
  <dt>Source</dt><dd>Re:Zero</dd>
</dl>
</body></html>`

	record, err := Parse(page)
	require.NoError(t, err)
	require.Equal(t, "Meta Name", record.Name)
	require.Equal(t, "Rem", record.Character)
	require.Equal(t, "Re:Zero", record.Origin)
	require.Equal(t, "Re:Zero", record.Series)
}

func TestParseJSONLDGraphAndArrays(t *testing.T) {
	page := `<html><head>
<script type="application/ld+json">
{
  "@graph": [
    { "@type": "WebPage", "name": "ignored" },
    {
      "@type": "Product",
      "name": "Emilia",
      "image": ["https://example.com/emilia.jpg", "https://example.com/alt.jpg"],
      "brand": ["SEGA as Manufacturer", { "name": "FuRyu" }],
      "offers": { "releaseDate": "2022-11-30" }
    }
  ]
}
</script>
</head><body></body></html>`

	record, err := Parse(page)
	require.NoError(t, err)
	require.Equal(t, "Emilia", record.Name)
	require.Equal(t, "https://example.com/emilia.jpg", record.Image)
	require.Equal(t, []Company{
		{Name: "SEGA", Role: "Manufacturer"},
		{Name: "FuRyu"},
	}, record.Companies)
	require.Equal(t, "SEGA", record.Manufacturer)
	require.Equal(t, "2022-11", record.ReleaseDate)
}

func TestParseIgnoresMalformedJSONLD(t *testing.T) {
	page := `<html><head>
<meta property="og:title" content="Still Works" />
<script type="application/ld+json">{not json at all</script>
</head><body></body></html>`

	record, err := Parse(page)
	require.NoError(t, err)
	require.Equal(t, "Still Works", record.Name)
}

func TestMatchField(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Origin", "origin"},
		{"Company", "companies"},
		{"Release Date(s)", "releases"},
		{"Size", "dimensions"},
		{"Unknown heading", ""},
		{"", ""},
		// Matches both origin ("source") and materials ("material");
		// fieldLabels order makes origin win every run.
		{"Source Material", "origin"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, matchField(tt.label), "label %q", tt.label)
	}
}

func TestParseEmptyPage(t *testing.T) {
	_, err := Parse("<html><head></head><body><p>nothing here</p></body></html>")
	require.ErrorIs(t, err, ErrEmpty)
}
