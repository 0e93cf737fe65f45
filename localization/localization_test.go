package localization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMessages(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "messages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	got := c.Localize("RuntimeVersionCheckUpgradeRecommendedMessage", "Mono", "5.18", "5.20")
	assert.Equal(t, "Currently installed Mono version 5.18 is supported but upgrading to 5.20 is recommended.", got)

	got = c.Localize("RuntimeVersionCheckDefectMessage", "Mono", "4.4.0")
	assert.Contains(t, got, "4.4.0")
	assert.Contains(t, got, "has a bug")
}

func TestUnknownKeyFallsBackToKey(t *testing.T) {
	c := Default()
	assert.False(t, c.Has("NoSuchMessage"))
	assert.Equal(t, "NoSuchMessage", c.Localize("NoSuchMessage", "ignored"))
}

func TestOverridesAndTranslation(t *testing.T) {
	path := writeMessages(t, `
RuntimeVersionCheckUpgradeRecommendedMessage: "La version %s %s est prise en charge, mais la mise à niveau vers %s est recommandée."
CustomMessage: "custom %s"
`)

	c, err := New(Options{Language: "fr", Files: []string{path}})
	require.NoError(t, err)
	assert.Equal(t, "fr", c.Language().String())

	got := c.Localize("RuntimeVersionCheckUpgradeRecommendedMessage", "Mono", "5.18", "5.20")
	assert.Equal(t, "La version Mono 5.18 est prise en charge, mais la mise à niveau vers 5.20 est recommandée.", got)

	assert.Equal(t, "custom value", c.Localize("CustomMessage", "value"))

	// keys the translation does not cover keep the English text
	got = c.Localize("BinaryCheckMissingMessage", "mono")
	assert.Equal(t, "Required binary mono was not found in PATH", got)
}

func TestNewErrors(t *testing.T) {
	_, err := New(Options{Language: "not a tag!!"})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	_, err = New(Options{Files: []string{filepath.Join(t.TempDir(), "missing.yaml")}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	bad := writeMessages(t, "- not\n- a map\n")
	_, err = New(Options{Files: []string{bad}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)

	empty := writeMessages(t, "SomeKey: \"\"\n")
	_, err = New(Options{Files: []string{empty}})
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}
