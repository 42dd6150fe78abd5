//go:build e2e

package api_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientFlow(t *testing.T) {
	id, uniqueID := createTestPatient(t)
	require.NotEmpty(t, id)
	assert.Regexp(t, `^PAT-\d{6}$`, uniqueID)

	getResp := makeRequest("GET", fmt.Sprintf("/patients/%s", id), nil, authToken)
	require.True(t, getResp.IsSuccess(), getResp.Message)
	assert.Equal(t, "1990-01-01", getResp.GetString("dob"))

	searchResp := makeRequest("GET", "/patients/search?q="+uniqueID, nil, authToken)
	require.True(t, searchResp.IsSuccess(), searchResp.Message)
	assert.True(t, containsID(searchResp.List(), id))

	updateResp := makeRequest("PUT", fmt.Sprintf("/patients/%s", id), map[string]interface{}{
		"contact": "+1987654321",
	}, authToken)
	require.True(t, updateResp.IsSuccess(), updateResp.Message)
	assert.Equal(t, "+1987654321", updateResp.GetString("contact"))

	deleteResp := makeRequest("DELETE", fmt.Sprintf("/patients/%s", id), nil, authToken)
	assert.Equal(t, http.StatusNoContent, deleteResp.Code)

	goneResp := makeRequest("GET", fmt.Sprintf("/patients/%s", id), nil, authToken)
	assert.Equal(t, http.StatusNotFound, goneResp.Code)
}

func TestCreatePatientValidation(t *testing.T) {
	resp := makeRequest("POST", "/patients", map[string]interface{}{
		"dob":     "1990-01-01",
		"gender":  "other",
		"contact": "+1234567890",
	}, authToken)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "name", resp.Field)
}
