package handlers

import (
	"net/http"
	"testing"
)

func TestProjectEndpoints(t *testing.T) {
	router, db := setupHandlerTest(t)
	user := createUser(t, db, "owner", 1)

	w := performRequest(router, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":  "Alpha",
		"color": "#00ff00",
	}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	projectID := decodeBody(t, w)["id"].(string)

	w = performRequest(router, http.MethodPost, "/api/v1/projects", map[string]string{"name": "  "}, user)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank name, got %d", w.Code)
	}

	w = performRequest(router, http.MethodGet, "/api/v1/projects/"+projectID, nil, user)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}

	w = performRequest(router, http.MethodGet, "/api/v1/projects", nil, user)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if total := decodeBody(t, w)["total"].(float64); total != 1 {
		t.Errorf("Expected 1 project, got %v", total)
	}

	w = performRequest(router, http.MethodPut, "/api/v1/projects/"+projectID, map[string]string{"name": "Beta"}, user)
	if w.Code != http.StatusOK || decodeBody(t, w)["name"] != "Beta" {
		t.Errorf("Expected renamed project, got %d %s", w.Code, w.Body.String())
	}
}

func TestDeleteProjectEndpoint(t *testing.T) {
	router, db := setupHandlerTest(t)
	user := createUser(t, db, "owner", 1)

	w := performRequest(router, http.MethodPost, "/api/v1/projects", map[string]string{"name": "Alpha"}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("Project creation failed: %d", w.Code)
	}
	projectID := decodeBody(t, w)["id"].(string)

	w = performRequest(router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title":      "t",
		"project_id": projectID,
	}, user)
	if w.Code != http.StatusCreated {
		t.Fatalf("Task creation failed: %d %s", w.Code, w.Body.String())
	}
	taskID := decodeBody(t, w)["id"].(string)

	// A project holding tasks refuses deletion.
	w = performRequest(router, http.MethodDelete, "/api/v1/projects/"+projectID, nil, user)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 deleting a project with tasks, got %d", w.Code)
	}

	w = performRequest(router, http.MethodDelete, "/api/v1/tasks/"+taskID, nil, user)
	if w.Code != http.StatusNoContent {
		t.Fatalf("Task deletion failed: %d", w.Code)
	}

	w = performRequest(router, http.MethodDelete, "/api/v1/projects/"+projectID, nil, user)
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for empty project, got %d", w.Code)
	}
}
