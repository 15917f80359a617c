package views

import "strings"

// NavItem ist ein Eintrag der Seitennavigation.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

var navItems = []NavItem{
	{Label: "Dashboard", Href: "/"},
	{Label: "Donors", Href: "/donors"},
	{Label: "Tissues", Href: "/tissues"},
	{Label: "Drugs", Href: "/drugs"},
	{Label: "Operations", Href: "/operations"},
}

// IsActive meldet, ob href zum Pfad gehört: exakt gleich oder Präfix eines Unterpfads.
func IsActive(path, href string) bool {
	return path == href || strings.HasPrefix(path, href+"/")
}

// Nav baut die Navigation für den aktuellen Pfad.
func Nav(path string) []NavItem {
	items := make([]NavItem, len(navItems))
	for i, item := range navItems {
		item.Active = IsActive(path, item.Href)
		items[i] = item
	}
	return items
}
