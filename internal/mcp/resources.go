package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/mcp/tools"
	"github.com/usestring/nfextract-mcp/pkg/fiscal"
	"github.com/usestring/nfextract-mcp/pkg/types"
)

// Resource URI scheme: nfextract://
// Supported URIs:
//   nfextract://record/{digest}
//   nfextract://records
//   nfextract://catalog

const uriScheme = "nfextract://"

// registerResources registers resources, resource templates and their handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "record/{digest}",
		Name:        "Extraction Record",
		Description: "A previously extracted record with labelled fields, by the digest the extract tools return. Records live in a bounded cache and are evicted oldest first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.7,
		},
	}, s.handleResourceRecord)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "records",
		Name:        "Cached Records",
		Description: "Digests of the cached records, oldest first.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.4,
		},
	}, s.handleResourceRecords)

	s.mcpServer.AddResource(&sdkmcp.Resource{
		URI:         uriScheme + "catalog",
		Name:        "Rule Catalog",
		Description: "Every text pattern, XML path and freight table the extractors evaluate, in evaluation order. Medium context cost; read it when a field is unexpectedly not found.",
		MIMEType:    tools.MimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.3,
		},
	}, s.handleResourceCatalog)
}

// Resource handlers

// recordResource is the body of nfextract://record/{digest}.
type recordResource struct {
	Digest   string              `json:"digest"`
	Source   string              `json:"source"`
	Category string              `json:"category"`
	Record   *fiscal.Record      `json:"record"`
	Fields   []types.FieldResult `json:"fields"`
}

func (s *Server) handleResourceRecord(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	params, err := parseResourceURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	res, ok := s.deps.Service.Lookup(params["digest"])
	if !ok {
		return nil, sdkmcp.ResourceNotFoundError(req.Params.URI)
	}

	return toResourceResult(req.Params.URI, recordResource{
		Digest:   res.Digest,
		Source:   string(res.Source),
		Category: string(res.Category),
		Record:   res.Record,
		Fields:   types.FieldResults(res.Record),
	})
}

func (s *Server) handleResourceRecords(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	digests := s.deps.Service.Recent()
	if digests == nil {
		digests = []string{}
	}
	return toResourceResult(req.Params.URI, map[string]any{
		"count":   len(digests),
		"digests": digests,
	})
}

// catalogResource is the body of nfextract://catalog.
type catalogResource struct {
	NotFound        string            `json:"not_found"`
	Unspecified     string            `json:"unspecified"`
	Text            []textRuleView    `json:"text_rules"`
	Tree            []treeRuleView    `json:"tree_rules"`
	Freight         freightView       `json:"freight_rules"`
	FreightCodes    map[string]string `json:"freight_codes"`
	FreightCodePath string            `json:"freight_code_path"`
}

type textRuleView struct {
	Field      string   `json:"field"`
	Label      string   `json:"label"`
	Patterns   []string `json:"patterns"`
	Group      int      `json:"group"`
	Occurrence int      `json:"occurrence,omitempty"`
}

type treeRuleView struct {
	Field    string   `json:"field"`
	Label    string   `json:"label"`
	Paths    []string `json:"paths"`
	Optional bool     `json:"optional,omitempty"`
}

type freightView struct {
	Window        string   `json:"window"`
	SenderPays    []string `json:"sender_pays"`
	RecipientPays []string `json:"recipient_pays"`
}

func (s *Server) handleResourceCatalog(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
	return toResourceResult(req.Params.URI, describeCatalog(s.deps.Catalog()))
}

// describeCatalog renders a catalog as plain data.
func describeCatalog(c *fiscal.Catalog) catalogResource {
	out := catalogResource{
		NotFound:        fiscal.NotFound,
		Unspecified:     fiscal.Unspecified,
		Text:            make([]textRuleView, 0, len(c.Text)),
		Tree:            make([]treeRuleView, 0, len(c.Tree)),
		FreightCodes:    make(map[string]string, len(c.FreightCodes)),
		FreightCodePath: c.FreightCodePath,
		Freight: freightView{
			SenderPays:    patternStrings(c.Freight.SenderPays),
			RecipientPays: patternStrings(c.Freight.RecipientPays),
		},
	}
	if c.Freight.Window != nil {
		out.Freight.Window = c.Freight.Window.String()
	}

	for _, r := range c.Text {
		out.Text = append(out.Text, textRuleView{
			Field:      string(r.Field),
			Label:      r.Field.Label(),
			Patterns:   patternStrings(r.Patterns),
			Group:      r.Group,
			Occurrence: r.Occurrence,
		})
	}
	for _, r := range c.Tree {
		out.Tree = append(out.Tree, treeRuleView{
			Field:    string(r.Field),
			Label:    r.Field.Label(),
			Paths:    append([]string{}, r.Paths...),
			Optional: r.Optional,
		})
	}
	for code, party := range c.FreightCodes {
		out.FreightCodes[code] = party.String()
	}
	return out
}

func patternStrings[T fmt.Stringer](res []T) []string {
	out := make([]string, 0, len(res))
	for _, re := range res {
		out = append(out, re.String())
	}
	return out
}

// Helper functions

// parseResourceURI extracts parameters from an nfextract:// URI.
func parseResourceURI(uri string) (map[string]string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return nil, tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	path := strings.Trim(strings.TrimPrefix(uri, uriScheme), "/")
	if path == "" {
		return nil, tools.ErrInvalidInput("empty resource path")
	}
	parts := strings.Split(path, "/")

	params := make(map[string]string)
	resourceType := parts[0]

	switch resourceType {
	case "record":
		if len(parts) != 2 || parts[1] == "" {
			return nil, tools.ErrInvalidInput("record URI requires a digest")
		}
		params["digest"] = strings.ToLower(parts[1])

	case "records", "catalog":
		if len(parts) != 1 {
			return nil, tools.ErrInvalidInput(fmt.Sprintf("%s URI takes no parameters", resourceType))
		}

	default:
		return nil, tools.ErrInvalidInput(fmt.Sprintf("unknown resource type: %s", resourceType))
	}

	return params, nil
}

// toResourceResult serializes content to a ReadResourceResult.
func toResourceResult(uri string, content any) (*sdkmcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serializing resource: %w", err)
	}

	return &sdkmcp.ReadResourceResult{
		Contents: []*sdkmcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: tools.MimeJSON,
				Text:     string(data),
			},
		},
	}, nil
}
