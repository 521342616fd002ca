package domain

// DiagramNode is a labelled shape from a diagram export.
type DiagramNode struct {
	// ID is the shape id inside the diagram.
	ID string

	// DocumentRef names the diagram file.
	DocumentRef string

	// Page is the diagram page (tab) name.
	Page string

	Label string
	Shape string

	// RequirementID is set when the node carries a requirement id.
	RequirementID string

	// Attributes holds custom shape attributes, sorted by key on export.
	Attributes map[string]string
}

// DiagramEdge connects two diagram nodes.
type DiagramEdge struct {
	ID          string
	DocumentRef string
	Page        string
	SourceID    string
	TargetID    string
	Label       string
}
