// Package icatest runs an in-memory ICA REST API for tests. It serves the
// token endpoint, the project data endpoints and the signed object URLs from
// a single httptest server.
package icatest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/sequencebio/icadata/internal/ica"
)

// Route names accepted by Fail.
const (
	RouteToken       = "token"
	RouteList        = "list"
	RouteCreate      = "create"
	RouteUploadURL   = "upload-url"
	RouteDownloadURL = "download-url"
	RouteDelete      = "delete"
	RouteObjectPut   = "object-put"
	RouteObjectGet   = "object-get"
)

type Server struct {
	*httptest.Server

	Username string
	Password string
	Tenant   string
	Project  string
	Token    string

	mu          sync.Mutex
	nextID      int
	records     map[string]*ica.ProjectData
	objects     map[string][]byte
	failures    map[string]int
	authCalls   int
	listQueries []url.Values
	created     []ica.CreateData
	deleted     []string
	objectAuth  []string
}

// NewServer starts a server accepting user/secret for tenant and serving
// project proj. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		Username: "user",
		Password: "secret",
		Tenant:   "sequencebio",
		Project:  "proj",
		Token:    "token-1",
		records:  make(map[string]*ica.ProjectData),
		objects:  make(map[string][]byte),
		failures: make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/rest/api/tokens", s.handleToken).Methods(http.MethodPost)

	api := r.PathPrefix("/rest/api/projects/{projectId}").Subrouter()
	api.Use(s.requireBearer)
	api.HandleFunc("/data", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/data", s.handleCreate).Methods(http.MethodPost)
	api.HandleFunc("/data/{dataId:[^/:]+}:createUploadUrl", s.handleSignedURL(RouteUploadURL)).Methods(http.MethodPost)
	api.HandleFunc("/data/{dataId:[^/:]+}:createDownloadUrl", s.handleSignedURL(RouteDownloadURL)).Methods(http.MethodPost)
	api.HandleFunc("/data/{dataId:[^/:]+}:delete", s.handleDelete).Methods(http.MethodPost)

	r.HandleFunc("/objects/{dataId}", s.handleObjectPut).Methods(http.MethodPut)
	r.HandleFunc("/objects/{dataId}", s.handleObjectGet).Methods(http.MethodGet)

	s.Server = httptest.NewServer(r)
	return s
}

// Fail makes every request to route answer with status until cleared with a
// zero status.
func (s *Server) Fail(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// AddFile stores a FILE record at p with content and returns its id.
func (s *Server) AddFile(p string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.newRecordLocked(p, ica.DataTypeFile)
	s.objects[rec.Data.ID] = content
	return rec.Data.ID
}

func (s *Server) AuthCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCalls
}

func (s *Server) ListQueries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.listQueries...)
}

func (s *Server) Created() []ica.CreateData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ica.CreateData(nil), s.created...)
}

func (s *Server) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Object returns the bytes stored for dataID.
func (s *Server) Object(dataID string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[dataID]
	return b, ok
}

// ObjectAuthHeaders returns the Authorization header of every signed URL
// request, in arrival order.
func (s *Server) ObjectAuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.objectAuth...)
}

func (s *Server) newRecordLocked(p string, dataType ica.DataType) *ica.ProjectData {
	s.nextID++
	id := fmt.Sprintf("fil.%04d", s.nextID)
	_, name := splitPath(p)
	rec := &ica.ProjectData{
		ProjectID: s.Project,
		Data: ica.Data{
			ID:  id,
			URN: "urn:ilmn:ica:region:" + id,
			Details: ica.DataDetails{
				Name:     name,
				Path:     p,
				DataType: dataType,
				Status:   "PARTIAL",
			},
		},
	}
	s.records[id] = rec
	return rec
}

func (s *Server) failure(route string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.failures[route]
	return status, ok
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if mux.Vars(r)["projectId"] != s.Project {
			http.Error(w, `{"message":"project not found"}`, http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.authCalls++
	s.mu.Unlock()

	if status, ok := s.failure(RouteToken); ok {
		w.WriteHeader(status)
		return
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != s.Username || pass != s.Password || r.URL.Query().Get("tenant") != s.Tenant {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	s.listQueries = append(s.listQueries, q)
	s.mu.Unlock()

	if status, ok := s.failure(RouteList); ok {
		http.Error(w, `{"message":"list failed"}`, status)
		return
	}

	s.mu.Lock()
	matches := make([]ica.ProjectData, 0, len(s.records))
	for _, rec := range s.records {
		if matchesQuery(rec, q) {
			matches = append(matches, *rec)
		}
	}
	s.mu.Unlock()

	sort.Slice(matches, func(i, j int) bool {
		pi, pj := matches[i].Data.Details.Path, matches[j].Data.Details.Path
		if pi != pj {
			return pi < pj
		}
		return matches[i].Data.ID < matches[j].Data.ID
	})

	offset, _ := strconv.Atoi(q.Get("pageOffset"))
	size, err := strconv.Atoi(q.Get("pageSize"))
	if err != nil || size <= 0 {
		size = len(matches)
	}
	total := len(matches)
	if offset > len(matches) {
		offset = len(matches)
	}
	end := offset + size
	if end > len(matches) {
		end = len(matches)
	}
	items := matches[offset:end]

	writeJSON(w, http.StatusOK, ica.ProjectDataPage{
		Items:          items,
		ItemCount:      len(items),
		TotalItemCount: total,
	})
}

func matchesQuery(rec *ica.ProjectData, q url.Values) bool {
	d := rec.Data.Details
	if t := q.Get("type"); t != "" && string(d.DataType) != t {
		return false
	}
	dir, name := splitPath(d.Path)
	if names, ok := q["filename"]; ok && !contains(names, name) {
		return false
	}
	if dirs, ok := q["filePath"]; ok && !contains(dirs, dir) {
		return false
	}
	return true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.failure(RouteCreate); ok {
		http.Error(w, `{"message":"create failed"}`, status)
		return
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), ica.MediaType) {
		http.Error(w, `{"message":"unsupported media type"}`, http.StatusUnsupportedMediaType)
		return
	}

	var body ica.CreateData
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.created = append(s.created, body)
	rec := s.newRecordLocked(body.Name, body.DataType)
	out := *rec
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleSignedURL(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if status, ok := s.failure(route); ok {
			http.Error(w, `{"message":"url failed"}`, status)
			return
		}
		id := mux.Vars(r)["dataId"]
		s.mu.Lock()
		_, ok := s.records[id]
		s.mu.Unlock()
		if !ok {
			http.Error(w, `{"message":"data not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, ica.SignedURL{URL: s.URL + "/objects/" + id})
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if status, ok := s.failure(RouteDelete); ok {
		http.Error(w, `{"message":"delete failed"}`, status)
		return
	}
	id := mux.Vars(r)["dataId"]

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		http.Error(w, `{"message":"data not found"}`, http.StatusNotFound)
		return
	}
	delete(s.records, id)
	delete(s.objects, id)
	s.deleted = append(s.deleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleObjectPut(w http.ResponseWriter, r *http.Request) {
	s.recordObjectAuth(r)
	if status, ok := s.failure(RouteObjectPut); ok {
		w.WriteHeader(status)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["dataId"]
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.objects[id] = body
	rec.Data.Details.FileSizeInBytes = int64(len(body))
	rec.Data.Details.Status = "AVAILABLE"
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleObjectGet(w http.ResponseWriter, r *http.Request) {
	s.recordObjectAuth(r)
	if status, ok := s.failure(RouteObjectGet); ok {
		w.WriteHeader(status)
		return
	}

	id := mux.Vars(r)["dataId"]
	s.mu.Lock()
	body, ok := s.objects[id]
	s.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (s *Server) recordObjectAuth(r *http.Request) {
	s.mu.Lock()
	s.objectAuth = append(s.objectAuth, r.Header.Get("Authorization"))
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", ica.MediaType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// splitPath mirrors the client's directory/filename split for lookups.
func splitPath(p string) (string, string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	head := p[:i+1]
	if trimmed := strings.TrimRight(head, "/"); trimmed != "" {
		head = trimmed
	}
	return head, p[i+1:]
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
