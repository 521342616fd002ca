package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/reqtrace/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for reqtrace resources.
	uriScheme = "reqtrace://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "requirements",
		Name:        "requirements",
		Description: "All imported requirements",
		MIMEType:    "application/json",
	}, s.handleRequirementsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "requirements/{requirementId}",
		Name:        "requirement",
		Description: "One requirement with its user stories and UAT cases",
		MIMEType:    "application/json",
	}, s.handleRequirementResource)
}

type requirementInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	Source      string   `json:"source"`
	Feature     string   `json:"feature,omitempty"`
	Criteria    []string `json:"acceptance_criteria,omitempty"`
}

func toRequirementInfo(r domain.Requirement) requirementInfo {
	return requirementInfo{
		ID:          r.ID,
		Description: r.Description,
		Priority:    r.Priority.String(),
		Status:      string(r.Status),
		Source:      r.SourceRef,
		Feature:     r.FeatureTag,
		Criteria:    r.AcceptanceCriteria,
	}
}

// handleRequirementsResource returns every imported requirement.
func (s *Server) handleRequirementsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return jsonResource(req.Params.URI, []requirementInfo{})
	}

	reqs, err := s.ports.Records.Requirements(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing requirements: %w", err)
	}

	infos := make([]requirementInfo, len(reqs))
	for i := range reqs {
		infos[i] = toRequirementInfo(reqs[i])
	}
	return jsonResource(req.Params.URI, infos)
}

// handleRequirementResource returns one requirement with its derived records.
func (s *Server) handleRequirementResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Records == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractRequirementID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	target, err := s.ports.Records.Requirement(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting requirement: %w", err)
	}

	type storyInfo struct {
		ID    string   `json:"id"`
		Text  string   `json:"text"`
		Cases []string `json:"uat_cases"`
	}
	detail := struct {
		requirementInfo
		Stories []storyInfo `json:"stories"`
	}{requirementInfo: toRequirementInfo(target.Requirement), Stories: []storyInfo{}}

	for _, story := range target.Stories {
		info := storyInfo{ID: story.ID, Text: story.Text(), Cases: []string{}}
		for _, c := range target.Cases {
			if c.StoryID == story.ID {
				info.Cases = append(info.Cases, c.ID)
			}
		}
		detail.Stories = append(detail.Stories, info)
	}
	return jsonResource(req.Params.URI, detail)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRequirementID extracts the id from a URI like reqtrace://requirements/{requirementId}.
func extractRequirementID(uri string) string {
	const prefix = uriScheme + "requirements/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
