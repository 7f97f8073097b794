package oauth

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startedServer(t *testing.T, state string) *CallbackServer {
	t.Helper()
	server := NewCallbackServer(0, state)
	require.NoError(t, server.Start())
	t.Cleanup(func() {
		_ = server.Stop()
	})
	return server
}

func get(t *testing.T, server *CallbackServer, query url.Values) *http.Response {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/callback?%s",
		server.Port(), query.Encode()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func TestCallbackServer_StartPicksPort(t *testing.T) {
	server := startedServer(t, "state-1")

	assert.NotZero(t, server.Port())
	assert.Equal(t,
		fmt.Sprintf("http://localhost:%d/callback", server.Port()),
		server.RedirectURI())
}

func TestCallbackServer_FullFlow(t *testing.T) {
	server := startedServer(t, "state-abc")

	get(t, server, url.Values{
		"state": {"state-abc"},
		"code":  {"code-123"},
	})

	code, err := server.WaitForCode(2 * time.Second)

	require.NoError(t, err)
	assert.Equal(t, "code-123", code)
}

func TestCallbackServer_StateMismatch(t *testing.T) {
	server := startedServer(t, "expected-state")

	get(t, server, url.Values{
		"state": {"wrong-state"},
		"code":  {"code-123"},
	})

	_, err := server.WaitForCode(time.Second)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "state mismatch")
}

func TestCallbackServer_MissingCode(t *testing.T) {
	server := startedServer(t, "state-1")

	get(t, server, url.Values{"state": {"state-1"}})

	_, err := server.WaitForCode(time.Second)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no authorization code")
}

func TestCallbackServer_ProviderError(t *testing.T) {
	server := startedServer(t, "state-1")

	get(t, server, url.Values{
		"error":             {"access_denied"},
		"error_description": {"user declined"},
	})

	_, err := server.WaitForCode(time.Second)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "access_denied")
	assert.Contains(t, err.Error(), "user declined")
}

func TestCallbackServer_WaitForCode_Timeout(t *testing.T) {
	server := startedServer(t, "state-1")

	_, err := server.WaitForCode(50 * time.Millisecond)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestCallbackServer_Stop_NotStarted(t *testing.T) {
	server := NewCallbackServer(0, "state-1")

	assert.NoError(t, server.Stop())
}

func TestFindAvailablePort(t *testing.T) {
	port, err := FindAvailablePort(19000, 19100)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, port, 19000)
	assert.LessOrEqual(t, port, 19100)
}

func TestFindAvailablePort_InvalidRange(t *testing.T) {
	_, err := FindAvailablePort(19100, 19000)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no available port")
}
