package entity

// FileEntry is one downloadable file inside a scheme's own directory page,
// built fresh from the live listing on every download run.
type FileEntry struct {
	Name        string // raw href of the file anchor
	DownloadURL string // scheme directory URL + Name
	Date        string
	Time        string
}

type OutcomeStatus string

const (
	OutcomeDownloaded OutcomeStatus = "downloaded"
	OutcomeWarning    OutcomeStatus = "warning"
	OutcomeError      OutcomeStatus = "error"
)

// FileOutcome is the per-file result of a download run. Failures never
// escalate past the file they belong to.
type FileOutcome struct {
	Name    string
	Path    string // destination path relative to the run directory
	Status  OutcomeStatus
	Message string
}

type DownloadSummary struct {
	RunID      string
	Dir        string
	Downloaded int
	Warnings   int
	Errors     int
	Outcomes   []FileOutcome
}

func (s *DownloadSummary) Problems() int {
	return s.Errors + s.Warnings
}
