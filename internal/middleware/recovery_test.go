package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRecoveryWithLog_PanicReturns500(t *testing.T) {
	router := setupTestGin()
	router.Use(RecoveryWithLog())
	router.GET("/api/tasks", func(c *gin.Context) {
		panic("nil project pointer")
	})

	w := requestFrom(router, "/api/tasks", "10.0.0.1:4000")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal server error") {
		t.Errorf("Expected generic error body, got %s", w.Body.String())
	}
}

func TestRecoveryWithLog_PassThrough(t *testing.T) {
	router := setupTestGin()
	router.Use(RecoveryWithLog())
	router.GET("/api/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tasks": []gin.H{}})
	})

	if w := requestFrom(router, "/api/tasks", "10.0.0.1:4000"); w.Code != http.StatusOK {
		t.Errorf("Status = %d, want 200", w.Code)
	}
}
