package pages

// Page describes one content route: the fixed, ordered sections it renders.
// Aside and Main, when set, form a two-region layout placed after Sections.
type Page struct {
	Path        string
	Title       string
	Description string
	Sections    []string
	Aside       []string
	Main        []string
}

// All lists every content route. It drives routing, the sitemap and the
// page listing exposed to tooling.
var All = []Page{
	{
		Path:        "/",
		Title:       "Conseil Orientation",
		Description: "Conseil Orientation",
		Sections:    []string{"Hero"},
	},
	{
		Path:        "/about",
		Title:       "About",
		Description: "About Conseil Orientation",
		Sections:    []string{"Hero", "Mission", "Story", "Values", "Stats", "Team"},
	},
	{
		Path:        "/docs",
		Title:       "Documentation",
		Description: "Conseil Orientation documentation",
		Sections:    []string{"Hero"},
		Aside:       []string{"Nav"},
		Main:        []string{"QuickStart", "API"},
	},
	{
		Path:        "/download",
		Title:       "Download",
		Description: "Download Conseil Orientation",
		Sections:    []string{"Hero", "Download", "SystemRequirements", "InstallationGuide"},
	},
	{
		Path:        "/features",
		Title:       "Features",
		Description: "Conseil Orientation features",
		Sections:    []string{"Hero", "Features", "ComparisonTable", "Integration"},
	},
	{
		Path:        "/support",
		Title:       "Support",
		Description: "Conseil Orientation support",
		Sections:    []string{"Hero", "FAQ", "Troubleshooting", "SupportChannels", "ContactForm"},
	},
}

// Lookup returns the page registered for path.
func Lookup(path string) (Page, bool) {
	for _, p := range All {
		if p.Path == path {
			return p, true
		}
	}
	return Page{}, false
}

// SectionOrder flattens the page into the order its sections appear in the
// document.
func (p Page) SectionOrder() []string {
	out := make([]string, 0, len(p.Sections)+len(p.Aside)+len(p.Main))
	out = append(out, p.Sections...)
	out = append(out, p.Aside...)
	out = append(out, p.Main...)
	return out
}
