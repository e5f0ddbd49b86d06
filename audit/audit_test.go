package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/statetoggle/parser"
)

func write(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func TestDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		markup   string
		triggers int
		expected []Issue
	}{
		{
			name:     "clean",
			markup:   `<div class="panel"><button data-target=".panel" data-add-state="panel--open" data-focus="#q">x</button><input id="q"></div>`,
			triggers: 1,
		},
		{
			name:     "invalid target",
			markup:   `<button data-target="div >" data-add-state="a">x</button>`,
			triggers: 1,
			expected: []Issue{{Element: "button", Attribute: "data-target", Severity: SeverityError,
				Message: `SyntaxError: "div >" is not a valid selector: expected a selector`}},
		},
		{
			name:     "target matches nothing",
			markup:   `<button data-target=".ghost" data-add-state="a">x</button>`,
			triggers: 1,
			expected: []Issue{{Element: "button", Attribute: "data-target", Severity: SeverityWarning,
				Message: `".ghost" matches no element`}},
		},
		{
			name:     "whitespace and overlap",
			markup:   `<p id="p"></p><button data-target="#p" data-add-state="a, b,c" data-remove-state="c">x</button>`,
			triggers: 1,
			expected: []Issue{
				{Element: "button", Attribute: "data-add-state", Severity: SeverityError, Message: `" b" contains whitespace and will be skipped`},
				{Element: "button", Attribute: "data-add-state", Severity: SeverityWarning, Message: `"c" is also removed, so it is never left on`},
			},
		},
		{
			name:     "focus problems",
			markup:   `<p id="p"></p><a id="t1" data-target="#p" data-focus="#p">1</a><a id="t2" data-target="#p" data-focus="#nope">2</a><a id="t3" data-target="#p" data-focus="[">3</a>`,
			triggers: 3,
			expected: []Issue{
				{Element: "a#t1", Attribute: "data-focus", Severity: SeverityWarning, Message: "p#p is not focusable"},
				{Element: "a#t2", Attribute: "data-focus", Severity: SeverityWarning, Message: `"#nope" matches no element`},
				{Element: "a#t3", Attribute: "data-focus", Severity: SeverityError, Message: `SyntaxError: "[" is not a valid selector: expected an attribute name`},
			},
		},
		{
			name:     "no effect",
			markup:   `<p id="p"></p><button data-target="#p">x</button><button data-add-state="a">y</button>`,
			triggers: 1,
			expected: []Issue{
				{Element: "button", Attribute: "data-target", Severity: SeverityInfo, Message: "trigger changes nothing"},
				{Element: "button", Attribute: "data-add-state", Severity: SeverityWarning, Message: "data-add-state has no effect without data-target"},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := parser.ParseString(tt.markup)
			require.NoError(t, err)

			triggers, issues := Document("page.html", doc)
			assert.Equal(t, tt.triggers, triggers)
			for i := range tt.expected {
				tt.expected[i].File = "page.html"
			}
			assert.Equal(t, tt.expected, issues)
		})
	}
}

func TestRun(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write(t, root, ".gitignore", "dist/\n*.tmp.html\n")
	write(t, root, "web/index.html", `<div class="nav"><a href="#" data-target=".nav" data-add-state="nav--open" data-prevent-default>menu</a></div>`)
	write(t, root, "web/pages/about.html", `<a data-target=".missing" data-add-state="x">x</a>`)
	write(t, root, "web/pages/draft.tmp.html", `<a data-target="[" data-add-state="x">x</a>`)
	write(t, root, "dist/index.html", `<a data-target="[" data-add-state="x">x</a>`)
	write(t, root, "web/notes.txt", `<a data-target="[">x</a>`)

	logger, _ := test.NewNullLogger()
	res, err := Run(context.Background(), Config{
		Root:     root,
		Patterns: []string{"**/*.html", "web/*.html"},
		Logger:   logger,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 2, res.Triggers)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, "web/pages/about.html", res.Issues[0].File)
	assert.Equal(t, 1, res.Count(SeverityWarning))
	assert.Equal(t, 0, res.Count(SeverityError))
}

func TestRunWithoutIgnoreFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	write(t, root, "dist/index.html", `<a data-target="[" data-add-state="x">x</a>`)

	logger, _ := test.NewNullLogger()
	res, err := Run(context.Background(), Config{Root: root, Patterns: []string{"**/*.html"}, Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Files)
	assert.Equal(t, 1, res.Count(SeverityError))
}

func TestRunBadPattern(t *testing.T) {
	t.Parallel()
	_, err := Run(context.Background(), Config{Root: t.TempDir(), Patterns: []string{"[a-"}})
	require.Error(t, err)
}
