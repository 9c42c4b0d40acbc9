// Package httpapi implements the JSON HTTP surface: five state-mutating
// endpoints under /api/debug, fixed response field names, and an
// error-handling policy where domain failures ride back on 200/
// success:false while only malformed input and unrecoverable server
// faults use non-2xx statuses.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	"tracevm/internal/apierr"
	"tracevm/internal/session"
	"tracevm/internal/trace"
)

// Server wires the session registry to the wire endpoints and, optionally,
// the live-view broadcaster.
type Server struct {
	registry *session.Registry
	hub      *Hub
}

func NewServer(registry *session.Registry) *Server {
	return &Server{registry: registry, hub: newHub()}
}

func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/debug/start", s.handleStart)
	mux.HandleFunc("/api/debug/step-forward", s.handleStepForward)
	mux.HandleFunc("/api/debug/step-backward", s.handleStepBackward)
	mux.HandleFunc("/api/debug/get-state", s.handleGetState)
	mux.HandleFunc("/api/debug/end", s.handleEnd)
	mux.HandleFunc("/api/debug/stream", s.handleStream)
}

type startRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type startResponse struct {
	Success      bool       `json:"success"`
	SessionID    string     `json:"sessionId,omitempty"`
	TotalSteps   int        `json:"totalSteps,omitempty"`
	InitialState *WireState `json:"initialState,omitempty"`
	Error        string     `json:"error,omitempty"`
	Details      string     `json:"details,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeJSON(w, http.StatusBadRequest, startResponse{Success: false, Error: "ValidationError", Details: "missing code"})
		return
	}
	if req.Language != "cpp" && req.Language != "c" {
		writeJSON(w, http.StatusBadRequest, startResponse{Success: false, Error: "ValidationError", Details: "unsupported language"})
		return
	}

	sess, aerr := s.registry.Start(req.Code)
	if aerr != nil {
		log.Printf("httpapi: start failed: %s", aerr.Error())
		writeJSON(w, aerr.HTTPStatus(), startResponse{Success: false, Error: wireError(aerr), Details: aerr.Details})
		return
	}

	initial := ToWireState(sess.States[0])
	s.hub.broadcastState(sess.ID, initial)

	writeJSON(w, http.StatusOK, startResponse{
		Success: true, SessionID: sess.ID, TotalSteps: len(sess.States), InitialState: &initial,
	})
}

type sessionRequest struct {
	SessionID string `json:"sessionId"`
}

type stepResponse struct {
	Success    bool       `json:"success"`
	State      *WireState `json:"state,omitempty"`
	Step       int        `json:"step"`
	TotalSteps int        `json:"totalSteps"`
	AtEnd      bool       `json:"atEnd,omitempty"`
	AtStart    bool       `json:"atStart,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) handleStepForward(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, stepResponse{Success: false, Error: "ValidationError"})
		return
	}
	sess, atEnd, aerr := s.registry.StepForward(req.SessionID)
	if aerr != nil {
		writeJSON(w, aerr.HTTPStatus(), stepResponse{Success: false, Error: wireError(aerr)})
		return
	}
	st := ToWireState(sess.States[sess.CurrentStep])
	s.hub.broadcastState(sess.ID, st)
	writeJSON(w, http.StatusOK, stepResponse{Success: true, State: &st, Step: sess.CurrentStep, TotalSteps: len(sess.States), AtEnd: atEnd})
}

func (s *Server) handleStepBackward(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, stepResponse{Success: false, Error: "ValidationError"})
		return
	}
	sess, atStart, aerr := s.registry.StepBackward(req.SessionID)
	if aerr != nil {
		writeJSON(w, aerr.HTTPStatus(), stepResponse{Success: false, Error: wireError(aerr)})
		return
	}
	st := ToWireState(sess.States[sess.CurrentStep])
	writeJSON(w, http.StatusOK, stepResponse{Success: true, State: &st, Step: sess.CurrentStep, TotalSteps: len(sess.States), AtStart: atStart})
}

type getStateRequest struct {
	SessionID string `json:"sessionId"`
	Step      int    `json:"step"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	var req getStateRequest
	if !decode(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		writeJSON(w, http.StatusBadRequest, stepResponse{Success: false, Error: "ValidationError"})
		return
	}
	sess, aerr := s.registry.GetState(req.SessionID, req.Step)
	if aerr != nil {
		status := aerr.HTTPStatus()
		writeJSON(w, status, stepResponse{Success: false, Error: wireError(aerr)})
		return
	}
	st := ToWireState(sess.States[sess.CurrentStep])
	writeJSON(w, http.StatusOK, stepResponse{Success: true, State: &st, Step: sess.CurrentStep, TotalSteps: len(sess.States)})
}

type endResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, &req) {
		return
	}
	if aerr := s.registry.End(req.SessionID); aerr != nil {
		writeJSON(w, aerr.HTTPStatus(), endResponse{Success: false, Error: wireError(aerr)})
		return
	}
	writeJSON(w, http.StatusOK, endResponse{Success: true})
}

// wireError maps an error Kind to the literal string the wire contract
// mandates. Compilation and internal failures carry fixed human-readable
// text; every other kind falls back to its Kind tag.
func wireError(aerr *apierr.Error) string {
	switch aerr.Kind {
	case apierr.Compilation:
		return "Compilation Error"
	case apierr.Internal:
		return "Debug Error"
	default:
		return string(aerr.Kind)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": string(apierr.Validation)})
		return false
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": string(apierr.Validation)})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("httpapi: response encode failed: %v", err)
	}
}

// WireVariable, WireHeapObject, WireFrame, WireState are the fixed JSON
// schema every endpoint and the CLI's trace dump render their state as.
type WireVariable struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Value      interface{} `json:"value"`
	VisualType string      `json:"visualType"`
	PointsTo   interface{} `json:"pointsTo,omitempty"`
}

type WireHeapField struct {
	Name       string      `json:"name"`
	Value      interface{} `json:"value"`
	VisualType string      `json:"visualType"`
}

type WireHeapObject struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Address string          `json:"address"`
	Fields  []WireHeapField `json:"fields"`
}

type WireFrame struct {
	ID           string         `json:"id"`
	FunctionName string         `json:"functionName"`
	Line         int            `json:"line"`
	Variables    []WireVariable `json:"variables"`
}

type WireState struct {
	Step        int              `json:"step"`
	CurrentLine int              `json:"currentLine"`
	SourceCode  string           `json:"sourceCode"`
	Action      *string          `json:"action"`
	Variables   []WireVariable   `json:"variables"`
	StackFrames []WireFrame      `json:"stackFrames"`
	Heap        []WireHeapObject `json:"heap"`
}

func ToWireState(st trace.State) WireState {
	return WireState{
		Step: st.Step, CurrentLine: st.Line, SourceCode: st.SourceLine, Action: st.Action,
		Variables:   ToWireVariables(st.Variables),
		StackFrames: ToWireFrames(st.Frames),
		Heap:        ToWireHeap(st.Heap),
	}
}

func ToWireVariables(vars []trace.Variable) []WireVariable {
	out := make([]WireVariable, 0, len(vars))
	for _, v := range vars {
		val := v.Value
		if v.Elems != nil {
			val = v.Elems
		}
		out = append(out, WireVariable{ID: v.ID, Name: v.Name, Type: v.Type, Value: val, VisualType: v.Visual, PointsTo: v.PointsTo})
	}
	return out
}

func ToWireFrames(frames []trace.Frame) []WireFrame {
	out := make([]WireFrame, 0, len(frames))
	for _, f := range frames {
		out = append(out, WireFrame{ID: f.ID, FunctionName: f.FunctionName, Line: f.Line, Variables: ToWireVariables(f.Variables)})
	}
	return out
}

func ToWireHeap(objs []trace.HeapObject) []WireHeapObject {
	out := make([]WireHeapObject, 0, len(objs))
	for _, o := range objs {
		fields := make([]WireHeapField, 0, len(o.Fields))
		for _, f := range o.Fields {
			fields = append(fields, WireHeapField{Name: f.Name, Value: f.Value, VisualType: f.Visual})
		}
		out = append(out, WireHeapObject{ID: o.ID, Type: o.Type, Address: o.ID, Fields: fields})
	}
	return out
}
