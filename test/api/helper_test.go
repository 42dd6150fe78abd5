//go:build e2e

package api_test

import (
	"fmt"
	"testing"
	"time"
)

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s %d", prefix, time.Now().UnixNano())
}

func createTestPatient(t *testing.T) (id, uniqueID string) {
	t.Helper()
	resp := makeRequest("POST", "/patients", map[string]interface{}{
		"name":       uniqueName("Test Patient"),
		"dob":        "1990-01-01",
		"gender":     "other",
		"contact":    "+1234567890",
		"bloodGroup": "O+",
	}, authToken)

	if !resp.IsSuccess() {
		t.Fatalf("Failed to create test patient: %s", resp.Message)
	}
	return resp.GetString("id"), resp.GetString("uniqueId")
}

func createTestVisit(t *testing.T, patientID, priority string) string {
	t.Helper()
	resp := makeRequest("POST", "/visits", map[string]interface{}{
		"patientId": patientID,
		"symptoms":  "chest pain",
		"priority":  priority,
		"vitals": map[string]interface{}{
			"bp":   "140/90",
			"temp": "37.8",
		},
	}, authToken)

	if !resp.IsSuccess() {
		t.Fatalf("Failed to create test visit: %s", resp.Message)
	}
	return resp.GetString("id")
}

func containsID(items []map[string]interface{}, id string) bool {
	for _, item := range items {
		if item["id"] == id {
			return true
		}
	}
	return false
}
