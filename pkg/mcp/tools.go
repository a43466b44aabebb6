package mcp

// toolDescriptor describes one callable tool for tools/list.
type toolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "boolean", "description": description}
}

func tagsProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string"},
		"description": "Tags; listing requires all of them to be present",
	}
}

func toolDescriptors() []toolDescriptor {
	idProp := stringProp("Task ID, bare (\"7\") or project-qualified (\"gittask:7\")")
	return []toolDescriptor{
		{
			Name:        "add_task",
			Description: "Create a task in the current project (or the global location)",
			InputSchema: objectSchema(map[string]interface{}{
				"kind":        stringProp("task, todo, or idea"),
				"title":       stringProp("Task title"),
				"description": stringProp("Free-text description body"),
				"priority":    stringProp("low, medium, high, or critical"),
				"due":         stringProp("Due date, YYYY-MM-DD"),
				"tags":        tagsProp(),
				"global":      boolProp("Store in the global location instead of the project"),
			}, "title"),
		},
		{
			Name:        "get_task",
			Description: "Read a single task by ID",
			InputSchema: objectSchema(map[string]interface{}{"id": idProp}, "id"),
		},
		{
			Name:        "list_tasks",
			Description: "List tasks, optionally filtered; aggregate spans all linked projects",
			InputSchema: objectSchema(map[string]interface{}{
				"kind":             stringProp("Filter by kind"),
				"status":           stringProp("Filter by status"),
				"priority":         stringProp("Filter by priority"),
				"tags":             tagsProp(),
				"include_archived": boolProp("Include archived tasks"),
				"aggregate":        boolProp("List across all linked projects"),
			}),
		},
		{
			Name:        "complete_task",
			Description: "Mark a task completed, recording the current HEAD commit",
			InputSchema: objectSchema(map[string]interface{}{"id": idProp}, "id"),
		},
		{
			Name:        "delete_task",
			Description: "Delete a task by ID",
			InputSchema: objectSchema(map[string]interface{}{"id": idProp}, "id"),
		},
		{
			Name:        "get_stats",
			Description: "Summarize tasks by status and kind, with overdue count",
			InputSchema: objectSchema(map[string]interface{}{
				"global": boolProp("Use the global location"),
			}),
		},
		{
			Name:        "link_project",
			Description: "Register a project for aggregated views (defaults to the current project)",
			InputSchema: objectSchema(map[string]interface{}{
				"path": stringProp("Project root path"),
			}),
		},
		{
			Name:        "list_projects",
			Description: "List linked projects with their task counts",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
	}
}
