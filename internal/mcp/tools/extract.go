package tools

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/nfextract-mcp/internal/extract"
)

// ExtractTextInput is the input for nfe_extract_text.
type ExtractTextInput struct {
	Content       string `json:"content" jsonschema:"required,Text layer of a DANFE (PDF text, OCR output or copied page text)"`
	IncludeFields bool   `json:"include_fields,omitempty" jsonschema:"Also return labelled field rows in record order"`
}

// ToolExtractText runs the text pipeline over already-extracted DANFE text.
func ToolExtractText(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractTextInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractTextInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
		res, err := d.Service.ExtractText(ctx, input.Content)
		if err != nil {
			return nil, ExtractionOutput{}, WrapExtractError(err)
		}
		out := toExtractionOutput(res, input.IncludeFields)
		return orderedResult(out), out, nil
	}
}

// ExtractXMLInput is the input for nfe_extract_xml.
type ExtractXMLInput struct {
	XML           string `json:"xml" jsonschema:"required,NF-e XML document (nfeProc or bare NFe)"`
	IncludeFields bool   `json:"include_fields,omitempty" jsonschema:"Also return labelled field rows in record order"`
}

// ToolExtractXML runs the structured pipeline over an NF-e XML document.
func ToolExtractXML(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractXMLInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractXMLInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
		if strings.TrimSpace(input.XML) == "" {
			return nil, ExtractionOutput{}, ErrInvalidInput("xml is required")
		}
		res, err := d.Service.ExtractXML(ctx, []byte(input.XML))
		if err != nil {
			return nil, ExtractionOutput{}, WrapExtractError(err)
		}
		out := toExtractionOutput(res, input.IncludeFields)
		return orderedResult(out), out, nil
	}
}

// ExtractDocumentInput is the input for nfe_extract_document.
type ExtractDocumentInput struct {
	Body          string `json:"body" jsonschema:"required,Document body, base64 encoded unless base64 is false"`
	Base64        *bool  `json:"base64,omitempty" jsonschema:"Whether body is base64 encoded (default: true)"`
	ContentType   string `json:"content_type,omitempty" jsonschema:"Content-Type of the document; sniffed from the body when empty"`
	Source        string `json:"source,omitempty" jsonschema:"Force the pipeline: text, xml, or auto (default: auto)"`
	IncludeFields bool   `json:"include_fields,omitempty" jsonschema:"Also return labelled field rows in record order"`
}

// ToolExtractDocument decodes an uploaded document of any supported type
// and extracts its record.
func ToolExtractDocument(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractDocumentInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ExtractDocumentInput) (*sdkmcp.CallToolResult, ExtractionOutput, error) {
		r, err := documentRequest(input.Body, input.Base64, input.ContentType, input.Source)
		if err != nil {
			return nil, ExtractionOutput{}, err
		}
		res, err := d.Service.Extract(ctx, r)
		if err != nil {
			return nil, ExtractionOutput{}, WrapExtractError(err)
		}
		out := toExtractionOutput(res, input.IncludeFields)
		return orderedResult(out), out, nil
	}
}

// documentRequest validates document arguments into a service request.
func documentRequest(body string, isBase64 *bool, contentType, source string) (*extract.Request, error) {
	if body == "" {
		return nil, ErrInvalidInput("body is required")
	}
	src, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	raw, err := decodeBody(body, isBase64 == nil || *isBase64)
	if err != nil {
		return nil, err
	}
	return &extract.Request{Body: raw, ContentType: contentType, Source: src}, nil
}
