package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"ageorm/graph"
)

type Server struct {
	db    *graph.Database
	graph string
	mcp   *sdk.Server
}

// NewServer exposes db over MCP. defaultGraph is used by tools called
// without a graph argument.
func NewServer(db *graph.Database, defaultGraph, version string) *Server {
	s := &Server{
		db:    db,
		graph: defaultGraph,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "ageorm",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
