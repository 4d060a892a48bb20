package institution

// Institution is a single directory search result. Results are sourced
// fresh on every search and never mutated by the flow.
type Institution struct {
	ID          string
	Name        string
	Logo        string
	Provider    string
	CountryCode string
	// AvailableHistory is the number of months of transaction history
	// the aggregator offers for this institution, 0 if unknown.
	AvailableHistory int
}
