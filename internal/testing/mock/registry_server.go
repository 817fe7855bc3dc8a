package mock

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/justworkflowit/workflow-deployer/internal/registry"
)

// RegistryServer serves a Registry over the registry HTTP protocol.
type RegistryServer struct {
	*httptest.Server

	Registry *Registry

	mu     sync.Mutex
	tokens []string
}

// NewRegistryServer starts a server backed by reg. Close it when done.
func NewRegistryServer(reg *Registry) *RegistryServer {
	s := &RegistryServer{Registry: reg}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /organizations/{org}/workflows", s.listWorkflows)
	mux.HandleFunc("POST /organizations/{org}/workflows", s.registerWorkflow)
	mux.HandleFunc("POST /organizations/{org}/workflows/{wf}/versions", s.registerVersion)
	mux.HandleFunc("GET /organizations/{org}/workflows/{wf}/tags/{tag}", s.getLive)
	mux.HandleFunc("PUT /organizations/{org}/workflows/{wf}/tags/{tag}", s.setLive)

	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.tokens = append(s.tokens, r.Header.Get("Authorization"))
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	return s
}

// AuthorizationHeaders returns the Authorization header of every request.
func (s *RegistryServer) AuthorizationHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

func (s *RegistryServer) listWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := s.Registry.ListWorkflows(r.Context(), r.PathValue("org"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"workflows": workflows})
}

func (s *RegistryServer) registerWorkflow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, registry.NewStatusError(MethodRegisterWorkflow, http.StatusBadRequest, 0, "client", err.Error()))
		return
	}
	wf, err := s.Registry.RegisterWorkflow(r.Context(), r.PathValue("org"), body.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wf)
}

func (s *RegistryServer) registerVersion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Definition string `json:"definition"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, registry.NewStatusError(MethodRegisterWorkflowVersion, http.StatusBadRequest, 0, "client", err.Error()))
		return
	}
	v, err := s.Registry.RegisterWorkflowVersion(r.Context(), r.PathValue("org"), r.PathValue("wf"), body.Definition)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *RegistryServer) getLive(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("tag") != registry.LiveTag {
		writeError(w, registry.NewStatusError(MethodGetLiveVersion, http.StatusNotFound, 0, "client", "unknown tag"))
		return
	}
	v, err := s.Registry.GetLiveVersion(r.Context(), r.PathValue("org"), r.PathValue("wf"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *RegistryServer) setLive(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VersionID string `json:"versionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, registry.NewStatusError(MethodSetLiveTag, http.StatusBadRequest, 0, "client", err.Error()))
		return
	}
	if err := s.Registry.SetLiveTag(r.Context(), r.PathValue("org"), r.PathValue("wf"), body.VersionID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{"message": err.Error()}

	var regErr *registry.Error
	if errors.As(err, &regErr) {
		if regErr.StatusCode > 0 {
			status = regErr.StatusCode
		}
		body["message"] = regErr.Message
		body["kind"] = string(regErr.Kind)
		if regErr.Fault != "" {
			body["$fault"] = regErr.Fault
		}
	}
	writeJSON(w, status, body)
}
