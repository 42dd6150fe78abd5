//go:build e2e

// Package api_test exercises a running server seeded with the demo data set
// (`mediconnect-api seed`). Point API_URL at it; defaults to localhost:8080.
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

var (
	baseURL   = apiURL() + "/api/v1"
	authToken string
	orgID     string
	userID    string
)

func apiURL() string {
	if u := os.Getenv("API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

// APIResponse represents the API response structure
type APIResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Field   string          `json:"field,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// TestResponse wraps the API response for testing
type TestResponse struct {
	Code    int
	Status  string
	Message string
	Field   string
	Data    map[string]interface{}
	RawData string
}

func (r TestResponse) IsSuccess() bool {
	return r.Status == "success"
}

func (r TestResponse) GetString(key string) string {
	if r.Data == nil {
		return ""
	}
	if v, ok := r.Data[key].(string); ok {
		return v
	}
	return ""
}

// List decodes a data array.
func (r TestResponse) List() []map[string]interface{} {
	var items []map[string]interface{}
	_ = json.Unmarshal([]byte(r.RawData), &items)
	return items
}

func checkAPIServer() error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/health/live")
	if err != nil {
		return fmt.Errorf("API server not reachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API server unhealthy: HTTP %d", resp.StatusCode)
	}
	return nil
}

func TestMain(m *testing.M) {
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		if err := checkAPIServer(); err != nil {
			if i == maxRetries-1 {
				fmt.Printf("Error: %v\nMake sure the API server is running at %s\n", err, baseURL)
				os.Exit(1)
			}
			fmt.Printf("Waiting for API server (attempt %d/%d)...\n", i+1, maxRetries)
			time.Sleep(2 * time.Second)
			continue
		}
		break
	}

	setupAuth()

	os.Exit(m.Run())
}

func setupAuth() {
	loginResp := login("CITY", "DOC001", "password")
	if !loginResp.IsSuccess() {
		fmt.Printf("Failed to login (is the demo seed loaded?): %s\n", loginResp.Message)
		os.Exit(1)
	}

	authToken = loginResp.GetString("token")
	if authToken == "" {
		fmt.Println("Failed to get auth token")
		os.Exit(1)
	}
	if user, ok := loginResp.Data["user"].(map[string]interface{}); ok {
		userID, _ = user["id"].(string)
	}
	if org, ok := loginResp.Data["organization"].(map[string]interface{}); ok {
		orgID, _ = org["id"].(string)
	}
}

func login(orgCode, employeeID, password string) TestResponse {
	return makeRequest("POST", "/auth/login", map[string]string{
		"orgCode":    orgCode,
		"employeeId": employeeID,
		"password":   password,
	}, "")
}

func makeRequest(method, path string, body interface{}, token string) TestResponse {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return TestResponse{Status: "error", Message: err.Error()}
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return TestResponse{Status: "error", Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	response, err := client.Do(req)
	if err != nil {
		return TestResponse{Status: "error", Message: err.Error()}
	}
	defer response.Body.Close()

	respBody, err := io.ReadAll(response.Body)
	if err != nil {
		return TestResponse{Code: response.StatusCode, Status: "error", Message: err.Error()}
	}

	if response.StatusCode == http.StatusNoContent {
		return TestResponse{Code: response.StatusCode, Status: "success"}
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return TestResponse{
			Code:    response.StatusCode,
			Status:  "error",
			Message: fmt.Sprintf("Failed to parse response: %s\nRaw response: %s", err.Error(), string(respBody)),
		}
	}

	testResp := TestResponse{
		Code:    response.StatusCode,
		Status:  apiResp.Status,
		Message: apiResp.Message,
		Field:   apiResp.Field,
		RawData: string(apiResp.Data),
	}

	if len(apiResp.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(apiResp.Data, &data); err == nil {
			testResp.Data = data
		}
	}

	return testResp
}
