package e2etest

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

type tokenEntry struct {
	Address          string `json:"address"`
	Symbol           string `json:"symbol"`
	IsRainbowCurated bool   `json:"isRainbowCurated"`
}

type tokensBody struct {
	Timestamp string       `json:"timestamp"`
	Version   string       `json:"version"`
	Tokens    []tokenEntry `json:"tokens"`
}

// getJSON performs a GET request and decodes a 200 response into v
func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err, "Should be able to make a request to %s", url)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "Should be able to read response body")

	if resp.StatusCode == http.StatusOK && v != nil {
		require.NoError(t, json.Unmarshal(body, v), "Response should be valid JSON")
	}
	return resp
}

// postRefresh triggers an on-demand refresh and returns the status code and outcome
func postRefresh(t *testing.T, env *TestEnv) (int, string) {
	t.Helper()

	resp, err := http.Post(env.ServerBaseURL+"/api/v1/tokens/refresh", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Outcome string `json:"outcome"`
	}
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body.Outcome
}

func symbols(tokens []tokenEntry) []string {
	result := make([]string, 0, len(tokens))
	for _, token := range tokens {
		result = append(result, token.Symbol)
	}
	return result
}
