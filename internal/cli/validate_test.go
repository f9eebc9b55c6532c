package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CiscoSecurity/tr-05-ctim-bundle-builder/internal/loader"
)

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join("testdata", "tutorial.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "Valid:")
	assert.Contains(t, out, "4 entities in bundle transient:ctim-tutorial-bundle-")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", filepath.Join("testdata", "tutorial.yaml"))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 4, resp.Data.Entities)
	assert.NotEmpty(t, resp.Data.Digest)
}

func TestValidate_ReportsEveryIssue(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "validate", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  CLIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, loader.ErrCodeInvalid, resp.Error.Code)
	assert.Equal(t, "validation failed with 5 error(s)", resp.Error.Message)

	require.Len(t, resp.Data.Issues, 5)
	assert.Equal(t, Issue{
		Index:   0,
		Entity:  "judgement",
		Code:    loader.ErrCodeInvalid,
		Path:    "confidence",
		Message: "Must be one of: 'High', 'Info', 'Low', 'Medium', 'None', 'Unknown'.",
	}, resp.Data.Issues[0])

	codes := make([]string, len(resp.Data.Issues))
	for i, is := range resp.Data.Issues {
		codes[i] = is.Code
	}
	assert.Equal(t, []string{
		loader.ErrCodeInvalid,
		loader.ErrCodeUnknownKind,
		loader.ErrCodeUnresolved,
		loader.ErrCodeInvalidAdd,
		loader.ErrCodeUnresolved,
	}, codes)
}

func TestValidate_Text(t *testing.T) {
	out, _, err := execute(t, "validate", filepath.Join("testdata", "invalid.yaml"))
	require.Error(t, err)

	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "entities[0] (judgement)")
	assert.Contains(t, out, "E110 confidence: Must be one of:")
	assert.Contains(t, out, "entities[1] (campaign)")
	assert.Contains(t, out, `E101 unknown entity kind "campaign"`)
}

func TestValidate_CUEPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "open.cue")
	require.NoError(t, os.WriteFile(path, []byte("bundle: title: string\nentities: []\n"), 0o644))

	out, _, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
	assert.Contains(t, out, path+":1:")
}
