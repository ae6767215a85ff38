package metrics

var _ Metrics = Nop{}

// Nop discards everything. Used when no metrics backend is configured.
type Nop struct{}

func (Nop) IncIntercepted(string)      {}
func (Nop) IncMalformed(string)        {}
func (Nop) SetStoredMatches(int)       {}
func (Nop) IncPasses()                 {}
func (Nop) IncCardsTransformed(string) {}
func (Nop) IncFallback(string)         {}
