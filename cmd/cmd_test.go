package cmd

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"site-admin/pkg/config"
	"site-admin/pkg/handlers"
	"site-admin/pkg/services"
	"site-admin/pkg/store"
)

const testSections = `
sections:
  - name: hero
    label: Hero
    subtype: home
    mode: json
    key: hero
    defaults:
      hero:
        title: Welcome
        subtitle: ""
        background: ""
    required: [hero.title]
  - name: faq
    label: FAQ
    subtype: home
    key: faq
    defaults:
      faq:
        heading: Questions
        items: []
    list:
      path: faq.items
      template: {question: "", answer: ""}
      required: [question]
      searchable: [question, answer]
  - name: steps
    label: Steps
    subtype: home
    mode: form
    key: steps
    list:
      template: {title: ""}
      renumber: true
      order_field: step
`

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func setupApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	config.UploadDir = t.TempDir()
	config.UploadURL = "/uploads/"

	sectionsFile := filepath.Join(t.TempDir(), "sections.yml")
	require.NoError(t, os.WriteFile(sectionsFile, []byte(testSections), 0o644))
	sections, err := services.LoadSections(sectionsFile)
	require.NoError(t, err)

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ts := httptest.NewServer(handlers.NewRouter(&handlers.API{Store: s, Sections: sections}, zap.NewNop()))
	t.Cleanup(ts.Close)

	return &App{
		APIBase:      ts.URL + "/api",
		SectionsFile: sectionsFile,
		HTTPClient:   ts.Client(),
		Logger:       zap.NewNop(),
	}
}

func run(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := run(t, app, args...)
	require.NoError(t, err, out)
	return out
}

func TestSectionsCommand(t *testing.T) {
	app := setupApp(t)

	out := mustRun(t, app, "sections")
	require.Contains(t, out, "/home/json/hero")
	require.Contains(t, out, "faq.items")
	require.Contains(t, out, "(values)")
	require.Contains(t, out, "plan: default")
}

func TestShowAndSet(t *testing.T) {
	app := setupApp(t)

	out := mustRun(t, app, "show", "hero")
	require.Contains(t, out, "(not saved)")
	require.Contains(t, out, `"title": "Welcome"`)

	out = mustRun(t, app, "set", "hero", "hero.title", "Hello there")
	require.Contains(t, out, "hero: Saved")

	out = mustRun(t, app, "show", "hero")
	require.NotContains(t, out, "(not saved)")
	require.Contains(t, out, `"title": "Hello there"`)

	_, err := run(t, app, "set", "hero", "hero.title", `""`)
	require.EqualError(t, err, "hero.title is required")

	_, err = run(t, app, "show", "nope")
	require.Error(t, err)
}

func TestItemLifecycle(t *testing.T) {
	app := setupApp(t)

	mustRun(t, app, "add-item", "faq", "question=Why?", "answer=Because")
	mustRun(t, app, "add-item", "faq", "question=How much?")
	mustRun(t, app, "add-item", "faq", "question=Where?", "answer=Here")

	out := mustRun(t, app, "items", "faq")
	require.Contains(t, out, "question=Why?")
	require.Contains(t, out, "complete 3/3")

	out = mustRun(t, app, "items", "faq", "--search", "HERE")
	require.Contains(t, out, "question=Where?")
	require.NotContains(t, out, "question=Why?")

	mustRun(t, app, "move-item", "faq", "2", "0")
	out = mustRun(t, app, "show", "faq")
	require.Less(t, strings.Index(out, "Where?"), strings.Index(out, "Why?"))

	mustRun(t, app, "remove-item", "faq", "0")
	out = mustRun(t, app, "show", "faq")
	require.NotContains(t, out, "Where?")
	require.Contains(t, out, "items complete: 2/2")

	_, err := run(t, app, "move-item", "faq", "0", "9")
	require.Error(t, err)
	_, err = run(t, app, "add-item", "faq", "broken")
	require.Error(t, err)
}

func TestAddItemStopsAtLimit(t *testing.T) {
	app := setupApp(t)

	for i := 0; i < 10; i++ {
		mustRun(t, app, "add-item", "steps", "title=Step "+strconv.Itoa(i+1))
	}
	_, err := run(t, app, "add-item", "steps", "title=Too many")
	require.EqualError(t, err, "limit reached: steps allows 10 items")

	out := mustRun(t, app, "items", "steps", "--per-page", "4", "--page", "3")
	require.Contains(t, out, "page 3/3")
	require.Contains(t, out, "step=9")

	out = mustRun(t, app, "items", "steps", "--plan", "pro")
	require.Contains(t, out, "limit 20")
}

func TestClearCommand(t *testing.T) {
	app := setupApp(t)

	mustRun(t, app, "set", "hero", "hero.subtitle", "Sub")

	_, err := run(t, app, "clear", "hero")
	require.Error(t, err)
	require.NotContains(t, mustRun(t, app, "show", "hero"), "(not saved)")

	out := mustRun(t, app, "clear", "hero", "--yes")
	require.Contains(t, out, "hero: Deleted")
	require.Contains(t, mustRun(t, app, "show", "hero"), "(not saved)")
}

func TestAttachCommand(t *testing.T) {
	app := setupApp(t)

	img := filepath.Join(t.TempDir(), "bg.png")
	require.NoError(t, os.WriteFile(img, pngHeader, 0o644))

	mustRun(t, app, "attach", "hero", img, "--path", "hero.background")
	out := mustRun(t, app, "show", "hero")
	require.Contains(t, out, `"background": "/uploads/home/bg_`)

	_, err := run(t, app, "attach", "hero", img)
	require.Error(t, err)
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	require.Equal(t, "plain text", parseValue("plain text"))
	require.Equal(t, true, parseValue("true"))
	require.Equal(t, float64(3), parseValue("3"))
	require.Equal(t, map[string]interface{}{"a": "b"}, parseValue(`{"a":"b"}`))
}
