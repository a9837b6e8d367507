package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MASTER_API_URL", "")
	t.Setenv("MASTER_API_KEY", "")
	t.Setenv("MASTER_UPLOAD_PATH", "")

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSessionIDCmd(t *testing.T) {
	out, err := run(t, "session-id")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{12}\n$`), out)
}

func TestVerifyCmd(t *testing.T) {
	var sent map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &sent)
		w.Write([]byte(`{"analysisReport":"Final Rating: 5/5"}`))
	}))
	defer server.Close()

	front := filepath.Join(t.TempDir(), "front.jpg")
	require.NoError(t, os.WriteFile(front, []byte("jpeg"), 0o644))

	out, err := run(t, "verify", "--master-url", server.URL, "--api-key", "k", "--front", front, "--session-id", "250704120000")
	require.NoError(t, err)

	assert.Equal(t, "anBlZw==", sent["frontImageData"])
	assert.Equal(t, "250704120000", sent["sessionId"])
	assert.NotContains(t, sent, "backImageData")

	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, float64(100), result["authenticityRating"])
}

func TestVerifyCmd_RequiresFront(t *testing.T) {
	_, err := run(t, "verify", "--master-url", "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestHealthCmd(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		out, err := run(t, "health", "--master-url", server.URL)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "ok "+server.URL))
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := run(t, "health")
		assert.ErrorContains(t, err, "master URL is required")
	})
}
