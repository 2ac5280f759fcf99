// Package prompts holds the MCP prompts that teach a model how to drive the trip tools.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TripPlanningSystemPrompt explains the tool workflow
func TripPlanningSystemPrompt() string {
	return `You plan trips between known places in New York, San Francisco and London.

Workflow:
1. Resolve places to location ids with list_locations (filter by city or query) or get_location.
   Never invent ids; every id looks like "nyc-jfk" or "lon-stp".
2. Call search_routes with from, to and departure_time (HH:MM, 24-hour clock).
   It returns a search_id and one route per transport mode, fastest first.
3. Narrow the choice with refine_routes using the search_id. Every refinement starts
   from the full route set, so loosening a filter brings routes back.
   - sort_by: price, duration, departureTime, arrivalTime or emissions
   - max_price (USD), max_duration (minutes)
   - modes: list of mode ids to keep; omit it to keep every mode
4. Present options with their price_label, duration, arrival_label and co2_level.

Durations and prices are estimates from straight-line distance, not timetables.
Scheduled modes (bus, train, subway, tram, ferry) include a wait of 5 to 14 minutes,
so the same search can differ by a few minutes between runs.
Arrival times wrap past midnight without a date change.`
}

// PlanTripPrompt renders a user request for a concrete trip
func PlanTripPrompt(from, to, departure, priority string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find ways to travel from %s to %s", from, to)
	if departure != "" {
		fmt.Fprintf(&b, " leaving at %s", departure)
	}
	b.WriteString(".")
	switch strings.ToLower(priority) {
	case "cheapest", "price":
		b.WriteString(" I care most about cost; sort by price.")
	case "greenest", "emissions":
		b.WriteString(" I want the lowest emissions; sort by emissions.")
	case "":
	default:
		b.WriteString(" I want to arrive as early as possible; sort by arrivalTime.")
	}
	return b.String()
}

// RegisterTripPrompts adds the system prompt and the plan_trip template
func RegisterTripPrompts(srv *server.MCPServer) {
	srv.AddPrompt(
		mcp.NewPrompt("trip_planning_system",
			mcp.WithPromptDescription("System instructions for planning trips with the route tools"),
		),
		func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			return mcp.NewGetPromptResult(
				"Trip Planning Instructions",
				[]mcp.PromptMessage{
					mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(TripPlanningSystemPrompt())),
				},
			), nil
		},
	)

	srv.AddPrompt(
		mcp.NewPrompt("plan_trip",
			mcp.WithPromptDescription("Ask for route options between two locations"),
			mcp.WithArgument("from", mcp.RequiredArgument(), mcp.ArgumentDescription("Origin location id or name")),
			mcp.WithArgument("to", mcp.RequiredArgument(), mcp.ArgumentDescription("Destination location id or name")),
			mcp.WithArgument("departure_time", mcp.ArgumentDescription("Departure time as HH:MM")),
			mcp.WithArgument("priority", mcp.ArgumentDescription("fastest, cheapest or greenest")),
		),
		func(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			args := req.Params.Arguments
			if args["from"] == "" || args["to"] == "" {
				return nil, fmt.Errorf("plan_trip needs both from and to")
			}
			return mcp.NewGetPromptResult(
				"Plan a trip",
				[]mcp.PromptMessage{
					mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
						PlanTripPrompt(args["from"], args["to"], args["departure_time"], args["priority"]),
					)),
				},
			), nil
		},
	)
}
