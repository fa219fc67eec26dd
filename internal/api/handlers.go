package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/detangle/pkg/board"
	"github.com/matzehuels/detangle/pkg/board/mongostore"
	"github.com/matzehuels/detangle/pkg/optimize"
	"github.com/matzehuels/detangle/pkg/render"
)

// maxBodyBytes caps the request body size (boards with tens of thousands of
// items stay well under this).
const maxBodyBytes = 16 << 20

// optimizeRequest is the POST /v1/optimize request body. Exactly one of
// Board and BoardID must be set.
type optimizeRequest struct {
	// Board is an inline board document. The optimized board is returned in
	// the response.
	Board *board.Document `json:"board,omitempty"`

	// BoardID references a stored board; requires a configured board store.
	BoardID string `json:"board_id,omitempty"`

	// Selection overrides the board's stored selection.
	Selection []string `json:"selection,omitempty"`

	Options optimizeOptions `json:"options"`
}

// optimizeOptions mirrors optimize.Options with pointer fields so absent
// keys keep their defaults (AllowMovement defaults to true, which a plain
// bool cannot express).
type optimizeOptions struct {
	AllowMovement *bool    `json:"allow_movement,omitempty"`
	SpacingFactor *float64 `json:"spacing_factor,omitempty"`
	Priority      *int     `json:"priority,omitempty"`
	Seed          *uint64  `json:"seed,omitempty"`
}

func (o optimizeOptions) apply() optimize.Options {
	opts := optimize.DefaultOptions()
	if o.AllowMovement != nil {
		opts.AllowMovement = *o.AllowMovement
	}
	if o.SpacingFactor != nil {
		opts.SpacingFactor = *o.SpacingFactor
	}
	if o.Priority != nil {
		opts.Priority = *o.Priority
	}
	if o.Seed != nil {
		opts.Seed = *o.Seed
	}
	return opts
}

// optimizeResponse is the POST /v1/optimize response body.
type optimizeResponse struct {
	Result optimize.Result `json:"result"`

	// Board is the optimized document, present only for inline submissions.
	Board *board.Document `json:"board,omitempty"`
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req optimizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if (req.Board == nil) == (req.BoardID == "") {
		writeError(w, http.StatusBadRequest, "exactly one of board and board_id must be set")
		return
	}

	var (
		provider board.Provider
		memory   *board.MemoryProvider
	)
	switch {
	case req.Board != nil:
		memory = board.NewMemoryProvider(req.Board)
		provider = memory
	default:
		if s.boards == nil {
			writeError(w, http.StatusBadRequest, "no board store configured; submit the board inline")
			return
		}
		p, err := s.boards.NewProvider(ctx, req.BoardID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, mongostore.ErrBoardNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err.Error())
			return
		}
		provider = p
	}

	selection := req.Selection
	if len(selection) == 0 {
		items, err := provider.Selection(ctx)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, it := range items {
			selection = append(selection, it.ID)
		}
	}

	runner := optimize.NewRunner(provider, s.cache, s.keyer, s.logger)
	result := runner.Run(ctx, selection, req.Options.apply())

	resp := optimizeResponse{Result: result}
	if memory != nil {
		resp.Board = memory.Document()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.boards == nil {
		writeError(w, http.StatusNotFound, "no board store configured")
		return
	}

	doc, err := s.boards.Load(ctx, chi.URLParam(r, "boardID"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mongostore.ErrBoardNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}

	detailed := r.URL.Query().Get("detailed") == "true"
	svg, err := render.RenderSVG(ctx, render.ToDOT(doc, render.Options{Detailed: detailed}))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render preview: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// =============================================================================
// Response Helpers
// =============================================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
