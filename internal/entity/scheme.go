package entity

// SchemeEntry is one row of the top-level schemes listing. The organism and
// scheme names are both derived from the raw href, so for directory entries
// Organism + "." + Scheme + "/" reassembles URLPath.
type SchemeEntry struct {
	URLPath     string // raw relative href, e.g. "Salmonella.Achtman7GeneMLST/"
	Organism    string // href up to the first dot
	Scheme      string // remainder of the href, trailing slash stripped
	SchemeID    string // full href, trailing slash stripped
	FullPath    string // absolute URL of the scheme directory
	Date        string
	Time        string
	LastUpdated string // Date and Time joined with "_"
}

// SchemeIndex is the ordered snapshot of the schemes listing, built once per
// run. Rows keep listing order and are never deduplicated here.
type SchemeIndex []SchemeEntry
