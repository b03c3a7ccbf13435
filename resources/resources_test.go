package resources

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelBody = `{"vocab": {}, "merges": [], "vocab_size": 0}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestReadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), MODEL_FILE, modelBody)
	entry, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, modelBody, string(*entry.Data))
	assert.NoError(t, entry.Close())
	assert.NoError(t, entry.Close())
}

func TestReadFile_Empty(t *testing.T) {
	path := writeFile(t, t.TempDir(), MODEL_FILE, "")
	entry, err := ReadFile(path)
	require.NoError(t, err)
	defer entry.Close()
	assert.Empty(t, *entry.Data)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestResolveModel_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "odia.json", modelBody)
	rsrcs, err := ResolveModel(path, "")
	require.NoError(t, err)
	defer rsrcs.Cleanup()
	assert.Equal(t, modelBody, string(*(*rsrcs)[MODEL_FILE].Data))
}

func TestResolveModel_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, MODEL_FILE, modelBody)
	rsrcs, err := ResolveModel(dir, t.TempDir())
	require.NoError(t, err)
	defer rsrcs.Cleanup()
	assert.Contains(t, *rsrcs, MODEL_FILE)
	assert.NotContains(t, *rsrcs, CONFIG_FILE)
}

func TestResolveModel_MissingRequired(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, CONFIG_FILE, `{}`)
	_, err := ResolveModel(dir, t.TempDir())
	assert.Error(t, err)
}

func TestResolveModel_NotFound(t *testing.T) {
	_, err := ResolveModel(filepath.Join(t.TempDir(), "absent"), "")
	assert.Error(t, err)
}

func TestResolveModel_Remote(t *testing.T) {
	served := t.TempDir()
	writeFile(t, served, MODEL_FILE, modelBody)
	writeFile(t, served, CONFIG_FILE, `{"vocab_size": 1000}`)
	server := httptest.NewServer(http.FileServer(http.Dir(served)))
	defer server.Close()

	cache := t.TempDir()
	rsrcs, err := ResolveModel(server.URL, cache)
	require.NoError(t, err)
	assert.Equal(t, modelBody, string(*(*rsrcs)[MODEL_FILE].Data))
	rsrcs.Cleanup()

	cached, err := os.ReadFile(filepath.Join(cache, CONFIG_FILE))
	require.NoError(t, err)
	assert.Equal(t, `{"vocab_size": 1000}`, string(cached))

	// A second resolve finds the cached copies.
	rsrcs, err = ResolveModel(server.URL, cache)
	require.NoError(t, err)
	rsrcs.Cleanup()
}

func TestFetchHTTP_Auth(t *testing.T) {
	var seen string
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get("Authorization")
			if r.URL.Path != "/"+MODEL_FILE {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(modelBody))
		}))
	defer server.Close()

	body, err := FetchHTTP(server.URL, MODEL_FILE, "secret")
	require.NoError(t, err)
	body.Close()
	assert.Equal(t, "Bearer secret", seen)

	_, err = FetchHTTP(server.URL, CONFIG_FILE, "")
	assert.Error(t, err)
	_, err = SizeHTTP(server.URL, CONFIG_FILE, "")
	assert.Error(t, err)
}

func TestIsValidUrl(t *testing.T) {
	assert.True(t, isValidUrl("https://example.com/models/odia"))
	assert.False(t, isValidUrl("models/odia"))
	assert.False(t, isValidUrl("/tmp/odia"))
}

func TestParseTrainingConfig(t *testing.T) {
	config, err := ParseTrainingConfig([]byte(
		`{"vocab_size": 8000, "normalizer": "nfc"}`))
	require.NoError(t, err)
	assert.Equal(t, 8000, IntOr(config.VocabSize, 5000))
	assert.Equal(t, 2, IntOr(config.MinFreq, 2))
	assert.Equal(t, "nfc", StringOr(config.Normalizer, ""))
	assert.Nil(t, config.MaxChars)
}

func TestParseTrainingConfig_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"vocab_size": 0}`,
		`{"min_freq": 0}`,
		`{"max_chars": -1}`,
		`{"vocab": 10}`,
		`{"vocab_size": "big"}`,
		`[`,
	} {
		_, err := ParseTrainingConfig([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestLoadTrainingConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), CONFIG_FILE,
		`{"min_freq": 3, "max_chars": 100000, "log_every": 50}`)
	config, err := LoadTrainingConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, *config.MinFreq)
	assert.Equal(t, 100000, *config.MaxChars)
	assert.Equal(t, 50, *config.LogEvery)
}
