package domain

// TraceabilityLink is one row of the requirement -> story -> case join.
// Empty StoryID or UATCaseID marks a coverage gap. Links are derived and
// always recomputed; they are never edited in place.
type TraceabilityLink struct {
	RequirementID string
	StoryID       string
	UATCaseID     string
	// CaseStatus mirrors the linked case status at generation time.
	CaseStatus UATStatus
}

// Coverage summarises a traceability matrix.
type Coverage struct {
	Requirements int
	WithStories  int
	WithCases    int
	// Verified counts requirements whose every linked case passed.
	Verified int
}

// TraceabilityMatrix is the full recomputed join plus its summary.
type TraceabilityMatrix struct {
	Links    []TraceabilityLink
	Coverage Coverage
}
