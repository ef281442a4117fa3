// Package mcpsrv provides an extensible MCP server that extracts fiscal
// records from Brazilian NF-e documents.
//
// The server exposes builtin extraction tools, prompts and resources over
// stdio. Users can extend it with custom tools, prompts, and resources using
// functional options.
//
// # Basic Usage
//
// Create a server with configuration loaded from the environment:
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Custom tools that need the extraction service use [WithDepsTool]:
//
//	type CountInput struct {
//	    Content string `json:"content"`
//	}
//
//	type CountOutput struct {
//	    Found int `json:"found"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_found", Description: "Count found fields"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                res, err := d.Service.ExtractText(ctx, in.Content)
//	                if err != nil {
//	                    return nil, CountOutput{}, err
//	                }
//	                return nil, CountOutput{Found: res.Record.FoundCount()}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Configure logging and rules:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/nfextract-mcp.log"),
//	    mcpsrv.WithRulesFile("/etc/nfextract/rules.yaml"),
//	)
package mcpsrv
