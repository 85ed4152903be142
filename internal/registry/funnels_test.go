package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/funnel-cli/internal/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultFunnels(t *testing.T) {
	t.Parallel()

	defs := DefaultFunnels()
	require.NoError(t, Validate(defs))
	assert.Len(t, defs, 4)
	assert.Equal(t, "purchase_funnel", defs[1].Name)
	assert.Equal(t, []string{"add_to_cart", "begin_checkout", "add_payment_info", "purchase"}, defs[3].Steps)
	assert.Contains(t, DefaultConversionEvents(), "subscribe")
}

func TestLoadFile_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "funnels.yaml", `
funnels:
  - name: trial
    steps: [page_view, start_trial, subscribe]
  - name: onboarding
    steps:
      - sign_up
      - complete_profile
conversion_events: [subscribe]
`)

	f, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Funnels, 2)
	assert.Equal(t, "trial", f.Funnels[0].Name)
	assert.Equal(t, []string{"sign_up", "complete_profile"}, f.Funnels[1].Steps)
	assert.Equal(t, []string{"subscribe"}, f.ConversionEvents)
}

func TestLoadFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "funnels.json", `{"funnels":[{"name":"a","steps":["x","y"]}]}`)
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []model.FunnelDefinition{{Name: "a", Steps: []string{"x", "y"}}}, f.Funnels)
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile("/nonexistent/funnels.yaml")
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "bad.json", "{not json"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "dup.yaml", "funnels:\n  - {name: a, steps: [x]}\n  - {name: a, steps: [y]}\n"))
	require.Error(t, err)
	assert.True(t, model.IsConfigError(err))

	_, err = LoadFile(writeFile(t, "empty.yaml", "funnels:\n  - {name: a, steps: []}\n"))
	assert.True(t, model.IsConfigError(err))
}

func TestResolve(t *testing.T) {
	t.Parallel()

	defs, events, err := Resolve("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultFunnels(), defs)
	assert.Equal(t, DefaultConversionEvents(), events)

	_, events, err = Resolve("", []string{"subscribe"})
	require.NoError(t, err)
	assert.Equal(t, []string{"subscribe"}, events)

	path := writeFile(t, "f.yaml", "funnels:\n  - {name: a, steps: [x, y]}\n")
	defs, events, err = Resolve(path, []string{"y"})
	require.NoError(t, err)
	assert.Len(t, defs, 1)
	assert.Equal(t, []string{"y"}, events)

	path = writeFile(t, "g.yaml", "funnels:\n  - {name: a, steps: [x, y]}\nconversion_events: [x]\n")
	_, events, err = Resolve(path, []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, events)
}
