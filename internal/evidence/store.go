package evidence

// DefaultDBPath is the default relative path for the SQLite DB
// (per-workspace). Open() creates the parent dir if needed.
const DefaultDBPath = ".orthocheck/orthocheck.db"

// Store is the persistence facade for score evidence, cutoff profiles and
// finished reports. The engines and the CLI use only this interface; the
// implementation is SQLite or in-memory.
type Store interface {
	// Reference pair scores
	SavePairScores(coreSet string, scores []PairScore) error
	PairScores(coreSet, group string) ([]PairScore, error)
	AllPairScores(coreSet string) (map[string][]PairScore, error)

	// Cutoff profiles
	SaveProfile(coreSet string, p *Profile) error
	Profile(coreSet, group string) (*Profile, error)
	Profiles(coreSet string) (map[string]*Profile, error)

	// Reports
	SaveReport(rec *ReportRecord) error
	GetReport(id string) (*ReportRecord, error)
	ListReports(coreSet string) ([]*ReportRecord, error)

	Close() error
}
