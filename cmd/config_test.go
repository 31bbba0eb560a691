package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/odit-bit/ada/ada/config"
)

func Test_printConfigRedactsSecrets(t *testing.T) {
	fs := config.NewFlagSet("test")
	require.NoError(t, fs.Parse([]string{"--p_key", "gemini-secret", "--tg_token", "123:abc"}))
	cfg, err := config.Load(fs)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printConfig(&buf, cfg))

	out := buf.String()
	assert.NotContains(t, out, "gemini-secret")
	assert.NotContains(t, out, "123:abc")

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	provider := decoded["provider"].(map[string]any)
	assert.Equal(t, "******", provider["apikey"])
	assert.Contains(t, decoded, "observability")
}
