package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/tripmcp/pkg/core"
	"github.com/NERVsystems/tripmcp/pkg/monitoring"
	"github.com/NERVsystems/tripmcp/pkg/tools"
)

// RESTHandler serves the trip tools as a JSON API under /api.
// Lookups call the instrumented tool handlers; route searches call the registry directly.
type RESTHandler struct {
	registry *tools.Registry
	logger   *slog.Logger
}

func NewRESTHandler(registry *tools.Registry, logger *slog.Logger) *RESTHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RESTHandler{registry: registry, logger: logger}
}

// Routes mounts the API on router, passing every handler through wrap
func (h *RESTHandler) Routes(router *httprouter.Router, wrap func(http.Handler) http.Handler) {
	handle := func(method, pattern string, fn httprouter.Handle) {
		router.Handle(method, pattern, h.observe(method, pattern, wrap, fn))
	}

	handle(http.MethodGet, "/api/cities", h.toolRoute("list_cities", nil))
	handle(http.MethodGet, "/api/cities/:city/locations", h.toolRoute("list_locations", pathArg("city")))
	handle(http.MethodGet, "/api/locations", h.toolRoute("list_locations", nil))
	handle(http.MethodGet, "/api/locations/:id", h.toolRoute("get_location", pathArg("id")))
	handle(http.MethodGet, "/api/nearby", h.toolRoute("find_nearby_locations", nil, "latitude", "longitude", "radius_km", "limit"))
	handle(http.MethodGet, "/api/distance", h.toolRoute("geo_distance", nil))
	handle(http.MethodGet, "/api/modes", h.toolRoute("list_transport_modes", nil))
	handle(http.MethodGet, "/api/modes/:mode/estimate", h.toolRoute("estimate_mode", pathArg("mode"), "distance_km"))

	handle(http.MethodGet, "/api/routes", h.searchRoutes)
	handle(http.MethodGet, "/api/routes/:id", h.getSearch)
	handle(http.MethodPost, "/api/routes/:id/refine", h.refineRoutes)
}

// observe records the request metric under the route pattern rather than the raw path
func (h *RESTHandler) observe(method, pattern string, wrap func(http.Handler) http.Handler, fn httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		rw := newResponseWriter(w)
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { fn(w, r, ps) })
		wrap(inner).ServeHTTP(rw, r)
		monitoring.RecordHTTPRequest(method, pattern, rw.statusCode)
	}
}

func pathArg(name string) func(httprouter.Params) map[string]any {
	return func(ps httprouter.Params) map[string]any {
		return map[string]any{name: ps.ByName(name)}
	}
}

// queryArgs copies single-valued query parameters into tool arguments.
// Keys listed in numeric are parsed as numbers.
func queryArgs(q url.Values, numeric ...string) (map[string]any, error) {
	args := make(map[string]any, len(q))
	for key := range q {
		args[key] = strings.TrimSpace(q.Get(key))
	}
	for _, key := range numeric {
		raw, ok := args[key].(string)
		if !ok || raw == "" {
			delete(args, key)
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("%s must be a number, got %q", key, raw))
		}
		args[key] = v
	}
	return args, nil
}

// toolRoute exposes a tool; path parameters override query parameters of the same name
func (h *RESTHandler) toolRoute(name string, fromPath func(httprouter.Params) map[string]any, numeric ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		handler, ok := h.registry.Handler(name)
		if !ok {
			writeError(w, core.NewError(core.ErrInternalError, "tool "+name+" is not registered"))
			return
		}

		args, err := queryArgs(r.URL.Query(), numeric...)
		if err != nil {
			writeError(w, core.FromError(err))
			return
		}
		if fromPath != nil {
			for k, v := range fromPath(ps) {
				args[k] = v
			}
		}

		result, err := handler(r.Context(), mcp.CallToolRequest{
			Params: mcp.CallToolParams{Name: name, Arguments: args},
		})
		if err != nil {
			writeError(w, core.FromError(err))
			return
		}
		h.writeToolResult(w, result)
	}
}

// writeToolResult relays the tool's JSON text, mapping error results to their HTTP status
func (h *RESTHandler) writeToolResult(w http.ResponseWriter, result *mcp.CallToolResult) {
	text := ""
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			text = tc.Text
			break
		}
	}

	if result.IsError {
		var e core.MCPError
		if err := json.Unmarshal([]byte(text), &e); err != nil || e.Code == "" {
			e = core.MCPError{Code: string(core.ErrInternalError), Message: text}
		}
		writeError(w, &e)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, text); err != nil {
		h.logger.Error("failed to write tool response", "error", err)
	}
}

// firstOf returns the first non-empty value among keys
func firstOf(q url.Values, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// searchInput reads GET /api/routes query parameters. A present but empty
// modes parameter selects no modes; an absent one selects all.
func searchInput(q url.Values) (tools.SearchRoutesInput, error) {
	in := tools.SearchRoutesInput{
		From:          strings.TrimSpace(q.Get("from")),
		To:            strings.TrimSpace(q.Get("to")),
		DepartureTime: firstOf(q, "departure_time", "time"),
	}
	in.SortBy = firstOf(q, "sort_by", "sort")

	if raw := q.Get("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return in, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("max_price must be a number, got %q", raw))
		}
		in.MaxPrice = &v
	}
	if raw := q.Get("max_duration"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return in, core.NewValidationError(core.ErrInvalidParameter, fmt.Sprintf("max_duration must be whole minutes, got %q", raw))
		}
		in.MaxDuration = &v
	}
	if q.Has("modes") {
		in.Modes = []string{}
		for _, m := range strings.Split(q.Get("modes"), ",") {
			if m = strings.TrimSpace(m); m != "" {
				in.Modes = append(in.Modes, m)
			}
		}
	}
	return in, core.ValidateStruct(in)
}

func (h *RESTHandler) searchRoutes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	in, err := searchInput(r.URL.Query())
	if err != nil {
		writeError(w, core.FromError(err))
		return
	}

	view, err := h.registry.Search(r.Context(), in)
	if err != nil {
		writeError(w, core.FromError(err))
		return
	}
	h.logger.Info("routes synthesized", "from", in.From, "to", in.To, "search_id", view.SearchID, "routes", view.Total)
	writeJSON(w, http.StatusOK, view)
}

func (h *RESTHandler) getSearch(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	out, err := h.registry.LookupSearch(ps.ByName("id"))
	if err != nil {
		writeError(w, core.FromError(err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *RESTHandler) refineRoutes(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in tools.RefineRoutesInput
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, core.NewValidationError(core.ErrInvalidInput, "request body too large"))
			return
		}
		writeError(w, core.NewValidationError(core.ErrInvalidInput, "invalid JSON body: "+err.Error()))
		return
	}
	in.SearchID = ps.ByName("id")

	if err := core.ValidateStruct(in); err != nil {
		writeError(w, core.FromError(err))
		return
	}

	view, err := h.registry.Refine(r.Context(), in)
	if err != nil {
		writeError(w, core.FromError(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
