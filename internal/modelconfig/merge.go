package modelconfig

// Merge combines the stored base configuration of model name with an
// externally fetched document.
//
// Without an external document the normalized base is returned. Otherwise the
// unwrapped external document replaces the base, except that a missing asset
// path falls back to the base path and a missing section to the base section.
func (n Normalizer) Merge(name string, base, external Document) Document {
	if external == nil {
		return n.Normalize(base)
	}

	ext, _ := Unwrap(name, external)
	combined := n.Normalize(ext)

	if combined == nil {
		combined = Document{}
	}

	hasAssetsBase := truthy(combined.Map("assets")["base"])
	if !hasAssetsBase && !truthy(combined["path"]) && base.String("path") != "" {
		combined["path"] = n.URL(base.String("path"))
	}

	if !truthy(combined["section"]) && truthy(base["section"]) {
		combined["section"] = base["section"]
	}

	return combined
}
