package tools

import (
	"context"
	"log/slog"
	"runtime/debug"

	"github.com/NERVsystems/tripmcp/pkg/version"
	"github.com/mark3labs/mcp-go/mcp"
)

// VersionInfo is the get_version payload
type VersionInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	BuildDate   string `json:"build_date"`
	GoVersion   string `json:"go_version"`
	VCSRevision string `json:"vcs_revision,omitempty"`
	Modified    bool   `json:"vcs_modified,omitempty"`

	Tools     []string `json:"tools"`
	Cities    int      `json:"cities"`
	Locations int      `json:"locations"`
	Modes     int      `json:"transport_modes"`
}

func (r *Registry) HandleGetVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_version")

	info := version.Info()
	out := VersionInfo{
		Version:   info["version"],
		Commit:    info["commit"],
		BuildDate: info["build_date"],
		GoVersion: info["go_version"],
		Tools:     r.GetToolNames(),
		Cities:    len(r.catalog.Cities()),
		Locations: len(r.catalog.Locations()),
		Modes:     len(r.catalog.TransportModes()),
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				out.VCSRevision = s.Value
			case "vcs.modified":
				out.Modified = s.Value == "true"
			}
		}
	}

	return JSONResult(logger, out), nil
}
