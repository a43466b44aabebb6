package mcp

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve runs one or more newline-separated requests through a server
// rooted in a fresh git project with an isolated home directory, and
// returns the decoded responses.
func serve(t *testing.T, requests ...string) []map[string]interface{} {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	workDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(workDir, ".git"), 0o750))
	require.NoError(t, os.Mkdir(filepath.Join(workDir, ".tasks"), 0o750))

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer
	require.NoError(t, NewServer(in, &out, workDir).Run())

	var responses []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &resp), line)
		responses = append(responses, resp)
	}
	return responses
}

// toolText extracts the JSON payload from a tools/call response.
func toolText(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	result, ok := resp["result"].(map[string]interface{})
	require.True(t, ok, "expected a result, got %v", resp)
	content := result["content"].([]interface{})
	text := content[0].(map[string]interface{})["text"].(string)
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	return payload
}

func callLine(id int, tool string, args map[string]interface{}) string {
	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "tools/call",
		"params":  map[string]interface{}{"name": tool, "arguments": args},
	}
	b, _ := json.Marshal(req)
	return string(b)
}

func TestInitialize(t *testing.T) {
	responses := serve(t, `{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.Len(t, responses, 1)
	result := responses[0]["result"].(map[string]interface{})
	assert.Equal(t, protocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "gittask", info["name"])
}

func TestNotificationGetsNoResponse(t *testing.T) {
	responses := serve(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	assert.Empty(t, responses)
}

func TestToolsList(t *testing.T) {
	responses := serve(t, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Len(t, responses, 1)
	result := responses[0]["result"].(map[string]interface{})
	tools := result["tools"].([]interface{})
	var names []string
	for _, tool := range tools {
		names = append(names, tool.(map[string]interface{})["name"].(string))
	}
	for _, want := range []string{"add_task", "get_task", "list_tasks", "complete_task", "delete_task", "get_stats", "link_project", "list_projects"} {
		assert.Contains(t, names, want)
	}
}

func TestUnknownMethod(t *testing.T) {
	responses := serve(t, `{"jsonrpc":"2.0","id":1,"method":"bogus"}`)
	require.Len(t, responses, 1)
	rpcErr := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeMethodNotFound), rpcErr["code"])
}

func TestParseErrorResponse(t *testing.T) {
	responses := serve(t, `{not json`)
	require.Len(t, responses, 1)
	rpcErr := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeParseError), rpcErr["code"])
}

func TestAddAndGetTask(t *testing.T) {
	responses := serve(t,
		callLine(1, "add_task", map[string]interface{}{
			"kind":     "todo",
			"title":    "Fix auth bug",
			"priority": "high",
			"tags":     []string{"bug"},
		}),
		callLine(2, "get_task", map[string]interface{}{"id": "1"}),
	)
	require.Len(t, responses, 2)

	created := toolText(t, responses[0])
	assert.Equal(t, float64(1), created["id"])
	assert.Equal(t, "Fix auth bug", created["title"])
	assert.Equal(t, "todo", created["kind"])
	assert.Equal(t, "high", created["priority"])

	got := toolText(t, responses[1])
	assert.Equal(t, "Fix auth bug", got["title"])
	assert.Equal(t, "pending", got["status"])
}

func TestListTasksFiltering(t *testing.T) {
	responses := serve(t,
		callLine(1, "add_task", map[string]interface{}{"title": "First", "tags": []string{"bug"}}),
		callLine(2, "add_task", map[string]interface{}{"title": "Second"}),
		callLine(3, "list_tasks", map[string]interface{}{"tags": []string{"bug"}}),
	)
	require.Len(t, responses, 3)
	payload := toolText(t, responses[2])
	tasks := payload["tasks"].([]interface{})
	require.Len(t, tasks, 1)
	assert.Equal(t, "First", tasks[0].(map[string]interface{})["title"])
}

func TestCompleteAndStats(t *testing.T) {
	responses := serve(t,
		callLine(1, "add_task", map[string]interface{}{"title": "Ship it"}),
		callLine(2, "complete_task", map[string]interface{}{"id": "1"}),
		callLine(3, "get_stats", map[string]interface{}{}),
	)
	require.Len(t, responses, 3)

	completed := toolText(t, responses[1])
	assert.Equal(t, "completed", completed["status"])

	stats := toolText(t, responses[2])
	assert.Equal(t, float64(1), stats["total"])
	assert.Equal(t, float64(1), stats["completed"])
	assert.Equal(t, float64(0), stats["pending"])
}

func TestDeleteTask(t *testing.T) {
	responses := serve(t,
		callLine(1, "add_task", map[string]interface{}{"title": "Doomed"}),
		callLine(2, "delete_task", map[string]interface{}{"id": "1"}),
		callLine(3, "get_task", map[string]interface{}{"id": "1"}),
	)
	require.Len(t, responses, 3)
	deleted := toolText(t, responses[1])
	assert.Equal(t, float64(1), deleted["deleted"])

	rpcErr := responses[2]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeInternalError), rpcErr["code"])
	assert.Contains(t, rpcErr["message"], "not found")
}

func TestLinkAndListProjects(t *testing.T) {
	responses := serve(t,
		callLine(1, "link_project", map[string]interface{}{}),
		callLine(2, "list_projects", map[string]interface{}{}),
	)
	require.Len(t, responses, 2)

	linked := toolText(t, responses[0])
	assert.Equal(t, true, linked["linked"])

	projects := toolText(t, responses[1])["projects"].([]interface{})
	require.Len(t, projects, 1)
	project := projects[0].(map[string]interface{})
	assert.Equal(t, true, project["exists"])
	assert.Equal(t, true, project["has_tasks_dir"])
}

func TestUnknownTool(t *testing.T) {
	responses := serve(t, callLine(1, "build_spaceship", nil))
	require.Len(t, responses, 1)
	rpcErr := responses[0]["error"].(map[string]interface{})
	assert.Equal(t, float64(codeInvalidParams), rpcErr["code"])
}
