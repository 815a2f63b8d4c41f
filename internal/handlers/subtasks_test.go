package handlers

import (
	"net/http"
	"testing"
)

func TestSubtaskEndpoints(t *testing.T) {
	router, db := setupHandlerTest(t)
	author := createUser(t, db, "author", 1)
	assignee := createUser(t, db, "assignee", 2)

	w := performRequest(router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title":        "t",
		"assignee_ids": []string{assignee.ID.String()},
	}, author)
	if w.Code != http.StatusCreated {
		t.Fatalf("Task creation failed: %d", w.Code)
	}
	taskID := decodeBody(t, w)["id"].(string)

	w = performRequest(router, http.MethodPost, "/api/v1/tasks/"+taskID+"/subtasks", map[string]string{
		"title": "step one",
	}, author)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	subtaskID := decodeBody(t, w)["id"].(string)

	// Checklist shaping belongs to the task author, not assignees.
	w = performRequest(router, http.MethodPost, "/api/v1/tasks/"+taskID+"/subtasks", map[string]string{
		"title": "nope",
	}, assignee)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for assignee add, got %d", w.Code)
	}

	w = performRequest(router, http.MethodPost, "/api/v1/subtasks/"+subtaskID+"/toggle", nil, author)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if completed := decodeBody(t, w)["completed"].(bool); !completed {
		t.Error("Expected toggled subtask to be completed")
	}

	w = performRequest(router, http.MethodPut, "/api/v1/subtasks/"+subtaskID, map[string]interface{}{
		"title": "renamed",
	}, author)
	if w.Code != http.StatusOK || decodeBody(t, w)["title"] != "renamed" {
		t.Errorf("Expected renamed subtask, got %d %s", w.Code, w.Body.String())
	}

	w = performRequest(router, http.MethodDelete, "/api/v1/subtasks/"+subtaskID, nil, assignee)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for assignee delete, got %d", w.Code)
	}
	w = performRequest(router, http.MethodDelete, "/api/v1/subtasks/"+subtaskID, nil, author)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}
