package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/crowagent/crowagent/internal/agent"
	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/schema"
	"github.com/crowagent/crowagent/internal/tools"
)

type segmentSummary struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Buildings        []string `json:"buildings"`
	Scenarios        []string `json:"scenarios"`
	DefaultScenarios []string `json:"defaultScenarios"`
	StarterQuestions []string `json:"starterQuestions"`
}

type segmentDetail struct {
	ID               string            `json:"id"`
	Label            string            `json:"label"`
	Buildings        catalog.Buildings `json:"buildings"`
	Scenarios        catalog.Scenarios `json:"scenarios"`
	DefaultScenarios []string          `json:"defaultScenarios"`
	StarterQuestions []string          `json:"starterQuestions"`
}

type evaluateRequest struct {
	Segment      string          `json:"segment"`
	Building     json.RawMessage `json:"building"`
	Scenario     json.RawMessage `json:"scenario"`
	TemperatureC *float64        `json:"temperature_c"`
	Tariff       *float64        `json:"tariff"`
}

type evaluateResponse struct {
	TemperatureC float64        `json:"temperature_c"`
	Tariff       float64        `json:"tariff"`
	Result       physics.Result `json:"result"`
}

type turnRequest struct {
	Message string          `json:"message"`
	History schema.Messages `json:"history"`
}

type turnResponse struct {
	Reply     string                 `json:"reply"`
	State     agent.State            `json:"state"`
	Warning   string                 `json:"warning,omitempty"`
	Cycles    int                    `json:"cycles"`
	ToolCalls []agent.ToolInvocation `json:"toolCalls"`
	History   schema.Messages        `json:"history"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) listSegments(w http.ResponseWriter, _ *http.Request) {
	out := make([]segmentSummary, 0, len(s.catalog.SegmentIDs()))
	for _, id := range s.catalog.SegmentIDs() {
		seg, err := s.catalog.Segment(id)
		if err != nil {
			writeFailure(w, err)
			return
		}
		out = append(out, segmentSummary{
			ID:               seg.ID,
			Label:            seg.Label,
			Buildings:        seg.Buildings.Names(),
			Scenarios:        seg.Scenarios.Names(),
			DefaultScenarios: seg.Defaults,
			StarterQuestions: agent.StarterQuestionsFor(seg.ID),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"segments": out})
}

func (s *Server) getSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := s.catalog.Segment(mux.Vars(r)["segment"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, segmentDetail{
		ID:               seg.ID,
		Label:            seg.Label,
		Buildings:        seg.Buildings,
		Scenarios:        seg.Scenarios,
		DefaultScenarios: seg.Defaults,
		StarterQuestions: agent.StarterQuestionsFor(seg.ID),
	})
}

func (s *Server) buildingInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	seg, err := s.catalog.Segment(vars["segment"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	tariff := s.opts.Defaults.Tariff
	if raw := r.URL.Query().Get("tariff"); raw != "" {
		tariff, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "tariff must be a number")
			return
		}
	}
	info, err := tools.GetBuildingInfo(tools.NewEnv(seg.Buildings, seg.Scenarios, s.cache), vars["building"], tariff)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var seg *catalog.Segment
	if req.Segment != "" {
		found, err := s.catalog.Segment(req.Segment)
		if err != nil {
			writeFailure(w, err)
			return
		}
		seg = &found
	}

	b, err := s.resolveBuilding(seg, req.Building)
	if err != nil {
		writeFailure(w, err)
		return
	}
	sc, err := s.resolveScenario(seg, req.Scenario)
	if err != nil {
		writeFailure(w, err)
		return
	}

	resp := evaluateResponse{TemperatureC: s.opts.Defaults.TemperatureC, Tariff: s.opts.Defaults.Tariff}
	if req.TemperatureC != nil {
		resp.TemperatureC = *req.TemperatureC
	}
	if req.Tariff != nil {
		resp.Tariff = *req.Tariff
	}
	resp.Result, err = s.cache.GetOrCompute(b, sc, physics.Weather{TemperatureC: resp.TemperatureC}, resp.Tariff)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveBuilding accepts either a registry name, which needs a segment, or
// an inline building record.
func (s *Server) resolveBuilding(seg *catalog.Segment, raw json.RawMessage) (physics.Building, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return physics.Building{}, &tools.ArgumentError{Tool: "evaluate", Param: "building", Reason: "is required"}
	}
	if name, ok := nameOf(raw); ok {
		if seg == nil {
			return physics.Building{}, &tools.ArgumentError{Tool: "evaluate", Param: "segment", Reason: "is required when building is given by name"}
		}
		return seg.Buildings.Lookup(name)
	}
	var b physics.Building
	if err := json.Unmarshal(raw, &b); err != nil {
		return physics.Building{}, &tools.ArgumentError{Tool: "evaluate", Param: "building", Reason: "must be a name or a building object"}
	}
	return b, nil
}

// resolveScenario looks names up in the segment whitelist, or the full
// library when no segment was given.
func (s *Server) resolveScenario(seg *catalog.Segment, raw json.RawMessage) (physics.Scenario, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return physics.Scenario{}, &tools.ArgumentError{Tool: "evaluate", Param: "scenario", Reason: "is required"}
	}
	if name, ok := nameOf(raw); ok {
		if seg != nil {
			return seg.Scenarios.Lookup(name)
		}
		return s.catalog.Library().Lookup(name)
	}
	var sc physics.Scenario
	if err := json.Unmarshal(raw, &sc); err != nil {
		return physics.Scenario{}, &tools.ArgumentError{Tool: "evaluate", Param: "scenario", Reason: "must be a name or a scenario object"}
	}
	return sc, nil
}

func nameOf(raw json.RawMessage) (string, bool) {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", false
	}
	return name, true
}

func (s *Server) turn(w http.ResponseWriter, r *http.Request) {
	seg, err := s.catalog.Segment(mux.Vars(r)["segment"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req turnRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, history := s.orch.RunTurn(r.Context(), req.Message, req.History, s.credential(r), seg.Buildings, seg.Scenarios)
	resp := turnResponse{
		Reply:     reply.Text,
		State:     reply.State,
		Cycles:    reply.Cycles,
		ToolCalls: reply.ToolCalls,
		History:   history,
	}
	if resp.ToolCalls == nil {
		resp.ToolCalls = []agent.ToolInvocation{}
	}
	if reply.Err != nil {
		resp.Warning = reply.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// credential prefers the request's bearer token over the configured key.
func (s *Server) credential(r *http.Request) string {
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token)
	}
	return s.opts.Credential
}

func (s *Server) cacheStats(w http.ResponseWriter, _ *http.Request) {
	st := s.cache.Stats()
	writeJSON(w, http.StatusOK, map[string]any{"stats": st, "hitRatio": st.HitRatio()})
}

func (s *Server) purgeCache(w http.ResponseWriter, _ *http.Request) {
	purged := s.cache.Stats().Size
	s.cache.Purge()
	s.metrics.SetCacheEntries(0)
	slog.Info("Result cache purged", "entries", purged)
	writeJSON(w, http.StatusOK, map[string]any{"purged": purged})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// writeFailure maps domain errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var unknown *catalog.UnknownEntityError
	var invalid *physics.ValidationError
	var argErr *tools.ArgumentError
	switch {
	case errors.As(err, &unknown):
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":     err.Error(),
			"kind":      tools.KindUnknownEntity,
			"available": unknown.Available,
		})
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      err.Error(),
			"kind":       tools.KindValidation,
			"violations": invalid.Violations,
		})
	case errors.As(err, &argErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "kind": tools.KindArgument})
	default:
		slog.Error("Request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON encodes before writing the header so an unencodable body becomes
// a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Encode response", "err", err)
		buf.Reset()
		buf.WriteString(`{"error": "internal error"}` + "\n")
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
