package env

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedVariables(t *testing.T) {
	t.Setenv("IT_INT", "42")
	t.Setenv("IT_FLOAT", "0.75")
	t.Setenv("IT_BOOL", "true")
	t.Setenv("IT_LIST", "a.ttf, ,b.ttf")
	t.Setenv("IT_BAD_INT", "forty")

	assert.Equal(t, 42, IntVariable("IT_INT", 1))
	assert.Equal(t, 7, IntVariable("IT_UNSET_INT", 7))
	assert.Equal(t, 0.75, FloatVariable("IT_FLOAT", 1))
	assert.True(t, BoolVariable("IT_BOOL", false))
	assert.Equal(t, []string{"a.ttf", "b.ttf"}, ListVariable("IT_LIST", nil))
	assert.Equal(t, []string{"x"}, ListVariable("IT_UNSET_LIST", []string{"x"}))
	assert.Equal(t, "fallback", StringVariable("IT_UNSET_STRING", "fallback"))

	assert.Panics(t, func() { IntVariable("IT_BAD_INT", 0) })
	assert.Panics(t, func() { RequiredStringVariable("IT_UNSET_STRING") })
}

func TestLoadOrCreate_PromptsAndWritesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "api-data.env")
	t.Setenv("IT_BAIDU_KEY", "")
	os.Unsetenv("IT_BAIDU_KEY")
	t.Setenv("IT_DEEPSEEK_KEY", "")
	os.Unsetenv("IT_DEEPSEEK_KEY")

	out := &bytes.Buffer{}
	prompt := LinePrompter(strings.NewReader("baidu-key\n deepseek-key \n"), out)

	require.NoError(t, LoadOrCreate(path, []string{"IT_BAIDU_KEY", "IT_DEEPSEEK_KEY"}, prompt))

	assert.Equal(t, "baidu-key", os.Getenv("IT_BAIDU_KEY"))
	assert.Equal(t, "deepseek-key", os.Getenv("IT_DEEPSEEK_KEY"))
	assert.Contains(t, out.String(), "IT_BAIDU_KEY: ")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `IT_DEEPSEEK_KEY="deepseek-key"`)
}

func TestLoadOrCreate_ExistingFileDoesNotPrompt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-data.env")
	require.NoError(t, os.WriteFile(path, []byte("IT_EXISTING_KEY=value\n"), 0o600))
	t.Setenv("IT_EXISTING_KEY", "")
	os.Unsetenv("IT_EXISTING_KEY")

	err := LoadOrCreate(path, []string{"IT_EXISTING_KEY"}, func(string) (string, error) {
		return "", errors.New("should not prompt")
	})

	require.NoError(t, err)
	assert.Equal(t, "value", os.Getenv("IT_EXISTING_KEY"))
}

func TestLoadOrCreate_PromptFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api-data.env")

	err := LoadOrCreate(path, []string{"IT_KEY"}, func(string) (string, error) {
		return "", errors.New("stdin closed")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "IT_KEY")
	assert.NoFileExists(t, path)
}
