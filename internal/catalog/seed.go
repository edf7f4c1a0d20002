package catalog

// Seed returns the builtin starter collection used when the durable store has
// never been written. The entries are placeholders the owner replaces through
// the admin panel.
func Seed() Collection {
	return Collection{
		Owned: []Entry{
			{
				Slug:         "sakura-star-wand",
				Name:         "Sakura with Star Wand",
				Series:       "Cardcaptor Cuties",
				Manufacturer: "DreamForge Studio",
				Scale:        "1/7 Scale PVC",
				ReleaseDate:  "2024-06",
				Image:        "https://placekitten.com/480/640",
				Caption:      "Placeholder image—replace with your own magical photo!",
				Description:  "A limited edition release featuring a translucent wand and layers of fluttery ribbons.",
				Tags:         TagList{"Magical girl", "Limited", "Pastel"},
			},
			{
				Slug:         "mecha-idol-twinkle",
				Name:         "Twinkle Idol Type-02",
				Series:       "Starship Serenade",
				Manufacturer: "Celestial Works",
				Scale:        "1/6 Scale ABS",
				ReleaseDate:  "2023-11",
				Image:        "https://placebear.com/480/640",
				Caption:      "Swap me with your real figure glam shot!",
				Description:  "Metallic gradients, glowing armor plates, and an adorable mic drone companion accompany this idol.",
				Tags:         TagList{"Idol", "Mecha", "Hologram"},
			},
			{
				Slug:         "moonlight-tea-party",
				Name:         "Moonlight Tea Party",
				Series:       "Dreamscape Stories",
				Manufacturer: "Lumière Atelier",
				Scale:        "1/8 Scale Resin",
				ReleaseDate:  "2022-03",
				Image:        "https://placebeard.it/480x640",
				Caption:      "Imagine your own serene tea time photo here!",
				Description:  "A serene moonlit balcony scene complete with porcelain tea set and luminescent fireflies.",
				Tags:         TagList{"Diorama", "Pastel", "Scenery"},
			},
		},
		Wishlist: []Entry{},
	}
}
