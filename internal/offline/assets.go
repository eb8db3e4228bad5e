package offline

// PageAssets are the site-relative assets of the map page.
var PageAssets = []string{
	"/",
	"/index.html",
	"/style.css",
	"/script.js",
	"/manifest.json",
}

// LeafletAssets returns the mapping library assets under base.
func LeafletAssets(base string) []string {
	return []string{
		base + "/leaflet.css",
		base + "/leaflet.js",
	}
}

// Assets is the fixed list cached at install time.
func Assets(leafletBase string) []string {
	return append(append([]string(nil), PageAssets...), LeafletAssets(leafletBase)...)
}
