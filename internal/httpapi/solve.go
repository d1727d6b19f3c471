package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/VladimirKondr/netsimplex/internal/domain"
	"github.com/VladimirKondr/netsimplex/internal/engine"
	"github.com/VladimirKondr/netsimplex/pkg/apperror"
	"github.com/VladimirKondr/netsimplex/pkg/cache"
	"github.com/VladimirKondr/netsimplex/pkg/historystore"
	"github.com/VladimirKondr/netsimplex/pkg/logger"
	"github.com/VladimirKondr/netsimplex/pkg/metrics"
	"github.com/VladimirKondr/netsimplex/pkg/telemetry"
)

// nodeRequest is one node of a solveRequest's graph.
type nodeRequest struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

// edgeRequest is one edge of a solveRequest's graph. Capacity of zero or
// less is treated as unbounded (domain.Infinity), matching the wire
// convention a front-end uses when it omits the field entirely.
type edgeRequest struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Cost     float64 `json:"cost"`
	Capacity float64 `json:"capacity"`
}

// solveRequest is the body of POST /v1/solve.
type solveRequest struct {
	Nodes          []nodeRequest `json:"nodes"`
	Edges          []edgeRequest `json:"edges"`
	MaxIterations  int           `json:"max_iterations,omitempty"`
	IncludeHistory bool          `json:"include_history"`
	Persist        bool          `json:"persist"`
}

// solveResponse is the body returned by POST /v1/solve.
type solveResponse struct {
	ID             string                     `json:"id,omitempty"`
	Optimal        bool                       `json:"optimal"`
	ObjectiveValue float64                     `json:"objective_value"`
	Iterations     int                         `json:"iterations"`
	Flows          map[domain.EdgeKey]float64  `json:"flows"`
	Potentials     map[string]float64          `json:"potentials"`
	History        []*engine.SolutionState     `json:"history,omitempty"`
	CachedResult   bool                        `json:"cached"`
}

func (d *Dependencies) handleSolve(w http.ResponseWriter, r *http.Request) {
	ctx, span := telemetry.StartSpan(r.Context(), "engine.Solve")
	defer span.End()

	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.NewWithField(apperror.CodeInvalidArgument, "malformed request body", "body"))
		return
	}

	graph, buildErr := buildGraph(req)
	if buildErr != nil {
		writeError(w, buildErr)
		return
	}

	telemetry.SetAttributes(ctx, telemetry.GraphAttributes(graph.NodeCount(), graph.EdgeCount(), graph.TotalBalance())...)
	metrics.Get().RecordGraphSize("solve", graph.NodeCount(), graph.EdgeCount())

	if d.SolverCache != nil && !req.IncludeHistory {
		if cached, ok, err := d.SolverCache.Get(ctx, graph); err == nil && ok {
			writeJSON(w, http.StatusOK, solveResponse{
				Optimal:        true,
				ObjectiveValue: cached.ObjectiveValue,
				Iterations:     cached.Iterations,
				Flows:          cached.Flows,
				Potentials:     cached.Potentials,
				CachedResult:   true,
			})
			return
		}
	}

	opts := []engine.Option{}
	if req.MaxIterations > 0 {
		opts = append(opts, engine.WithMaxIterations(req.MaxIterations))
	}

	start := time.Now()
	ctrl := engine.NewSolverController(graph, opts...)
	err := ctrl.SolveAll()
	duration := time.Since(start)

	if err != nil {
		metrics.Get().RecordSolveOperation(false, duration, ctrl.GetCurrentState().Iteration, 0)
		telemetry.SetError(ctx, err)
		writeError(w, translateEngineError(err))
		return
	}

	final := ctrl.GetCurrentState()
	metrics.Get().RecordSolveOperation(true, duration, final.Iteration, final.ObjectiveValue)

	resp := solveResponse{
		Optimal:        final.IsOptimal(),
		ObjectiveValue: final.ObjectiveValue,
		Iterations:     final.Iteration,
		Flows:          final.Flows,
		Potentials:     final.Potentials,
	}
	if req.IncludeHistory {
		resp.History = ctrl.GetAllStates()
	}

	if d.SolverCache != nil {
		if err := d.SolverCache.SetFromController(ctx, graph, ctrl, 0); err != nil {
			logger.Log.Warn("failed to cache solve result", "error", err)
		}
	}

	if req.Persist && d.HistoryStore != nil {
		rec := &historystore.SolveRecord{
			GraphHash:      cache.GraphHash(graph),
			ObjectiveValue: final.ObjectiveValue,
			Iterations:     final.Iteration,
			History:        ctrl.GetAllStates(),
		}
		if err := d.HistoryStore.Save(ctx, rec); err != nil {
			logger.Log.Warn("failed to persist solve history", "error", err)
		} else {
			resp.ID = rec.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func buildGraph(req solveRequest) (*domain.Graph, *apperror.Error) {
	if len(req.Nodes) == 0 {
		return nil, apperror.ErrEmptyGraph
	}

	graph := domain.NewGraph()
	for _, n := range req.Nodes {
		if err := graph.AddNode(n.ID, n.Balance); err != nil {
			return nil, apperror.NewWithField(apperror.CodeDuplicateNode, err.Error(), n.ID)
		}
	}
	for _, e := range req.Edges {
		capacity := e.Capacity
		if capacity <= 0 {
			capacity = domain.Infinity
		}
		if err := graph.AddEdge(e.From, e.To, e.Cost, capacity); err != nil {
			return nil, apperror.NewWithField(apperror.CodeDanglingEdge, err.Error(), e.From+"->"+e.To)
		}
	}
	if !graph.CheckBalanceFeasibility() {
		return nil, apperror.ErrUnbalancedGraph
	}
	return graph, nil
}

// translateEngineError maps an *engine.Error onto the module's shared
// error taxonomy so writeError can pick the right HTTP status.
func translateEngineError(err error) *apperror.Error {
	engErr, ok := err.(*engine.Error)
	if !ok {
		return apperror.Wrap(err, apperror.CodeInternal, err.Error())
	}
	switch engErr.Kind {
	case engine.KindInfeasible:
		return apperror.Wrap(engErr, apperror.CodeInfeasible, engErr.Error())
	case engine.KindIterationLimit:
		return apperror.Wrap(engErr, apperror.CodeIterationLimit, engErr.Error())
	case engine.KindInvalidInput:
		return apperror.Wrap(engErr, apperror.CodeInvalidGraph, engErr.Error())
	default:
		return apperror.Wrap(engErr, apperror.CodeInvariantViolation, engErr.Error())
	}
}

func (d *Dependencies) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" || d.HistoryStore == nil {
		writeError(w, apperror.New(apperror.CodeNotFound, "no persisted history for the given id"))
		return
	}

	rec, err := d.HistoryStore.Get(r.Context(), id)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeNotFound, "solve history not found"))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// defaultGraphHashListLimit bounds an unparameterized GET /v1/solve so one
// popular graph can't return an unbounded history.
const defaultGraphHashListLimit = 20

func (d *Dependencies) handleListByGraphHash(w http.ResponseWriter, r *http.Request) {
	graphHash := r.URL.Query().Get("graph_hash")
	if graphHash == "" || d.HistoryStore == nil {
		writeError(w, apperror.New(apperror.CodeInvalidArgument, "graph_hash query parameter is required"))
		return
	}

	limit := defaultGraphHashListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := d.HistoryStore.ListByGraphHash(r.Context(), graphHash, limit)
	if err != nil {
		writeError(w, apperror.Wrap(err, apperror.CodeInternal, "failed to list solve history"))
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err *apperror.Error) {
	writeJSON(w, err.HTTPStatus(), map[string]any{
		"code":    err.Code,
		"message": err.Message,
		"field":   err.Field,
	})
}
