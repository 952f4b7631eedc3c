package site

// NavLink is one entry of the header navigation.
type NavLink struct {
	Href   string
	Label  string
	Active bool
}

var navItems = []NavLink{
	{Href: "/", Label: "Home"},
	{Href: "/services", Label: "Services"},
	{Href: "/about", Label: "About"},
	{Href: "/contact", Label: "Contact"},
}

// NavLinks returns the navigation with exactly the link for path marked
// active. Unknown paths mark nothing.
func NavLinks(path string) []NavLink {
	if path == "" {
		path = "/"
	}
	links := make([]NavLink, len(navItems))
	for i, l := range navItems {
		l.Active = l.Href == path
		links[i] = l
	}
	return links
}
