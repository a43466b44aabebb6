// Package mcp implements a line-oriented JSON-RPC 2.0 adapter over
// stdin/stdout that exposes the task storage operations as tools. Each
// request is a single JSON object on one line; responses mirror that. The
// adapter holds no state of its own beyond the directory it resolves
// locations from.
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/entrhq/gittask/pkg/git"
	"github.com/entrhq/gittask/pkg/logging"
	"github.com/entrhq/gittask/pkg/storage"
	"github.com/entrhq/gittask/pkg/task"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server reads JSON-RPC requests line by line and serves the task tools.
type Server struct {
	in      io.Reader
	out     io.Writer
	workDir string
	log     *logging.Logger
}

// NewServer creates a server that resolves project locations starting from
// workDir and speaks JSON-RPC on the given reader/writer pair.
func NewServer(in io.Reader, out io.Writer, workDir string) *Server {
	log, _ := logging.NewLogger("mcp")
	return &Server{in: in, out: out, workDir: workDir, log: log}
}

// Run serves requests until the input stream ends.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeError(nil, codeParseError, "parse error: "+err.Error())
			continue
		}
		s.dispatch(&req)
	}
	return scanner.Err()
}

func (s *Server) dispatch(req *request) {
	// Requests without an id are notifications and get no response.
	notification := len(req.ID) == 0

	result, rpcErr := s.handle(req)
	if notification {
		return
	}
	if rpcErr != nil {
		s.writeError(req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	s.write(&response{JSONRPC: "2.0", ID: req.ID, Result: result})
}

func (s *Server) handle(req *request) (interface{}, *rpcError) {
	switch req.Method {
	case "initialize":
		return map[string]interface{}{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]interface{}{"tools": map[string]interface{}{}},
			"serverInfo":      map[string]string{"name": "gittask", "version": "0.1.0"},
		}, nil
	case "notifications/initialized", "initialized":
		return nil, nil
	case "tools/list":
		return map[string]interface{}{"tools": toolDescriptors()}, nil
	case "tools/call":
		return s.callTool(req.Params)
	default:
		return nil, &rpcError{Code: codeMethodNotFound, Message: "unknown method: " + req.Method}
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) callTool(params json.RawMessage) (interface{}, *rpcError) {
	var call toolCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &rpcError{Code: codeInvalidParams, Message: "invalid tool call: " + err.Error()}
	}
	args := call.Arguments
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	var payload interface{}
	var err error
	switch call.Name {
	case "add_task":
		payload, err = s.addTask(args)
	case "get_task":
		payload, err = s.getTask(args)
	case "list_tasks":
		payload, err = s.listTasks(args)
	case "complete_task":
		payload, err = s.completeTask(args)
	case "delete_task":
		payload, err = s.deleteTask(args)
	case "get_stats":
		payload, err = s.getStats(args)
	case "link_project":
		payload, err = s.linkProject(args)
	case "list_projects":
		payload, err = s.listProjects()
	default:
		return nil, &rpcError{Code: codeInvalidParams, Message: "unknown tool: " + call.Name}
	}
	if err != nil {
		s.log.Warnf("tool %s failed: %v", call.Name, err)
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}

	text, err := json.Marshal(payload)
	if err != nil {
		return nil, &rpcError{Code: codeInternalError, Message: err.Error()}
	}
	return map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": string(text)}},
	}, nil
}

// taskOutput is the wire shape of a task in tool results.
type taskOutput struct {
	ID           uint64   `json:"id"`
	Title        string   `json:"title"`
	Kind         string   `json:"kind"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	Tags         []string `json:"tags,omitempty"`
	Due          string   `json:"due,omitempty"`
	ClosedCommit string   `json:"closed_commit,omitempty"`
	Description  string   `json:"description,omitempty"`
}

func outputTask(t *task.Task) taskOutput {
	out := taskOutput{
		ID:           t.ID,
		Title:        t.Title,
		Kind:         string(t.Kind),
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Tags:         t.Tags,
		ClosedCommit: t.ClosedCommit,
		Description:  t.Description,
	}
	if t.Due != nil {
		out.Due = t.Due.String()
	}
	return out
}

type aggregatedOutput struct {
	taskOutput
	QualifiedID string `json:"qualified_id"`
	Project     string `json:"project"`
}

func (s *Server) resolveLocation(global bool) (*storage.Location, error) {
	if global {
		return storage.Global()
	}
	return storage.FindProjectFrom(s.workDir)
}

// resolveTask resolves an id string that may be bare or project-qualified.
func (s *Server) resolveTask(idStr string) (*storage.FileStore, uint64, error) {
	registry, err := storage.LoadRegistry()
	if err != nil {
		return nil, 0, err
	}
	defaultLocation, err := s.resolveLocation(false)
	if err != nil {
		// Outside a repository only qualified ids can resolve.
		defaultLocation = nil
	}
	location, id, err := storage.ResolveQualifiedID(idStr, registry, defaultLocation)
	if err != nil {
		return nil, 0, err
	}
	return storage.NewFileStore(location), id, nil
}

func (s *Server) addTask(args json.RawMessage) (interface{}, error) {
	var in struct {
		Kind        string   `json:"kind"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Priority    string   `json:"priority"`
		Due         string   `json:"due"`
		Tags        []string `json:"tags"`
		Global      bool     `json:"global"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	if in.Title == "" {
		return nil, fmt.Errorf("mcp: add_task requires a title")
	}
	kind := task.KindTask
	if in.Kind != "" {
		var err error
		if kind, err = task.ParseKind(in.Kind); err != nil {
			return nil, err
		}
	}
	location, err := s.resolveLocation(in.Global)
	if err != nil {
		return nil, err
	}
	if err := location.EnsureExists(); err != nil {
		return nil, err
	}
	t := task.New(0, kind, in.Title)
	t.Description = in.Description
	t.Tags = in.Tags
	if in.Priority != "" {
		if t.Priority, err = task.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}
	if in.Due != "" {
		due, err := task.ParseDate(in.Due)
		if err != nil {
			return nil, err
		}
		t.Due = &due
	}
	created, err := storage.NewFileStore(location).Create(t)
	if err != nil {
		return nil, err
	}
	return outputTask(created), nil
}

func (s *Server) getTask(args json.RawMessage) (interface{}, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	store, id, err := s.resolveTask(in.ID)
	if err != nil {
		return nil, err
	}
	t, err := store.Read(id)
	if err != nil {
		return nil, err
	}
	return outputTask(t), nil
}

func (s *Server) listTasks(args json.RawMessage) (interface{}, error) {
	var in struct {
		Kind            string   `json:"kind"`
		Status          string   `json:"status"`
		Priority        string   `json:"priority"`
		Tags            []string `json:"tags"`
		IncludeArchived bool     `json:"include_archived"`
		Aggregate       bool     `json:"aggregate"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	filter := &storage.TaskFilter{Tags: in.Tags, IncludeArchived: in.IncludeArchived}
	var err error
	if in.Kind != "" {
		if filter.Kind, err = task.ParseKind(in.Kind); err != nil {
			return nil, err
		}
	}
	if in.Status != "" {
		if filter.Status, err = task.ParseStatus(in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != "" {
		if filter.Priority, err = task.ParsePriority(in.Priority); err != nil {
			return nil, err
		}
	}

	if in.Aggregate {
		registry, err := storage.LoadRegistry()
		if err != nil {
			return nil, err
		}
		aggregated, err := storage.ListAggregated(registry, filter)
		if err != nil {
			return nil, err
		}
		out := make([]aggregatedOutput, 0, len(aggregated))
		for _, a := range aggregated {
			out = append(out, aggregatedOutput{
				taskOutput:  outputTask(a.Task),
				QualifiedID: a.QualifiedID(),
				Project:     a.Project,
			})
		}
		return map[string]interface{}{"tasks": out}, nil
	}

	location, err := s.resolveLocation(false)
	if err != nil {
		return nil, err
	}
	tasks, err := storage.NewFileStore(location).List(filter)
	if err != nil {
		return nil, err
	}
	out := make([]taskOutput, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, outputTask(t))
	}
	return map[string]interface{}{"tasks": out}, nil
}

func (s *Server) completeTask(args json.RawMessage) (interface{}, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	store, id, err := s.resolveTask(in.ID)
	if err != nil {
		return nil, err
	}
	t, err := store.Read(id)
	if err != nil {
		return nil, err
	}
	t.Complete(git.HeadCommitOptional(store.Location().Root))
	if err := store.Update(t); err != nil {
		return nil, err
	}
	return outputTask(t), nil
}

func (s *Server) deleteTask(args json.RawMessage) (interface{}, error) {
	var in struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	store, id, err := s.resolveTask(in.ID)
	if err != nil {
		return nil, err
	}
	if err := store.Delete(id); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": id}, nil
}

func (s *Server) getStats(args json.RawMessage) (interface{}, error) {
	var in struct {
		Global bool `json:"global"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	location, err := s.resolveLocation(in.Global)
	if err != nil {
		return nil, err
	}
	stats, err := storage.NewFileStore(location).Stats()
	if err != nil {
		return nil, err
	}
	return map[string]int{
		"total":       stats.Total,
		"pending":     stats.Pending,
		"in_progress": stats.InProgress,
		"completed":   stats.Completed,
		"archived":    stats.Archived,
		"overdue":     stats.Overdue,
		"tasks":       stats.Tasks,
		"todos":       stats.Todos,
		"ideas":       stats.Ideas,
	}, nil
}

func (s *Server) linkProject(args json.RawMessage) (interface{}, error) {
	var in struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, err
	}
	path := in.Path
	if path == "" {
		location, err := s.resolveLocation(false)
		if err != nil {
			return nil, err
		}
		path = location.Root
	}
	registry, err := storage.LoadRegistry()
	if err != nil {
		return nil, err
	}
	linked, err := registry.Link(path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"path": path, "linked": linked}, nil
}

func (s *Server) listProjects() (interface{}, error) {
	registry, err := storage.LoadRegistry()
	if err != nil {
		return nil, err
	}
	type projectOutput struct {
		Name        string `json:"name"`
		Path        string `json:"path"`
		Exists      bool   `json:"exists"`
		HasTasksDir bool   `json:"has_tasks_dir"`
		OpenTasks   int    `json:"open_tasks"`
		TotalTasks  int    `json:"total_tasks"`
	}
	statuses := storage.ProjectStatuses(registry)
	out := make([]projectOutput, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, projectOutput{
			Name:        st.Name,
			Path:        st.Path,
			Exists:      st.Exists,
			HasTasksDir: st.HasTasksDir,
			OpenTasks:   st.OpenTasks,
			TotalTasks:  st.TotalTasks,
		})
	}
	return map[string]interface{}{"projects": out}, nil
}

func (s *Server) write(resp *response) {
	b, err := json.Marshal(resp)
	if err != nil {
		s.log.Errorf("marshal response: %v", err)
		return
	}
	fmt.Fprintf(s.out, "%s\n", b)
}

func (s *Server) writeError(id json.RawMessage, code int, message string) {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	s.write(&response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}})
}
