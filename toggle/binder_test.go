package toggle

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heathj/statetoggle/browser"
	"github.com/heathj/statetoggle/parser/dom"
)

type harness struct {
	w       *browser.Window
	binder  *Binder
	hook    *test.Hook
	metrics *Metrics
	reg     *prometheus.Registry
	records []dom.MutationRecord
}

// load opens body inside a document, binds the toggles and finishes loading.
func load(t *testing.T, body string) *harness {
	t.Helper()
	h := open(t, body)
	h.w.Load()
	h.hook.Reset()
	return h
}

func open(t *testing.T, body string) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	windowLogger, _ := test.NewNullLogger()

	w, err := browser.Open(strings.NewReader("<!DOCTYPE html><html><body>"+body+"</body></html>"),
		browser.WithLogger(windowLogger))
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))
	h := &harness{w: w, hook: hook, metrics: m, reg: reg}
	w.Document.Observe(func(r dom.MutationRecord) {
		h.records = append(h.records, r)
	})
	h.binder = BindStateToggles(w, WithLogger(logger), WithMetrics(m))
	return h
}

func (h *harness) click(t *testing.T, id string) *dom.Event {
	t.Helper()
	el := h.w.Document.GetElementByID(id)
	require.NotNil(t, el, id)
	return h.w.Click(el)
}

func (h *harness) class(id string) string {
	return h.w.Document.GetElementByID(id).ClassName()
}

func (h *harness) infos() []string {
	var out []string
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestPanelOpens(t *testing.T) {
	t.Parallel()
	h := load(t, `<div id="panel" class="panel"><button id="open" data-add-state="panel--open" data-target=".panel" data-prevent-default>Open</button></div>`)
	before := h.w.Document.ActiveElement()

	e := h.click(t, "open")

	assert.Equal(t, "panel panel--open", h.class("panel"))
	assert.True(t, e.DefaultPrevented())
	assert.Same(t, before, h.w.Document.ActiveElement())
	assert.Nil(t, h.w.Document.FocusedElement())
	assert.Empty(t, h.w.Submissions())
	assert.Equal(t, []string{"[PLUG/TOGGLE] Added 'panel--open' class to"}, h.infos())
	assert.Equal(t, "div#panel.panel.panel--open", h.hook.LastEntry().Data["element"])
	assert.Equal(t, "panel--open", h.hook.LastEntry().Data["class"])
}

func TestMissingGroupMemberIsIgnored(t *testing.T) {
	t.Parallel()
	h := load(t, `<p id="x" class="a b c"></p><button id="t" data-remove-state="a,b" data-target="#x,#y">Go</button>`)

	e := h.click(t, "t")

	assert.Equal(t, "c", h.class("x"))
	assert.False(t, e.DefaultPrevented())
	assert.Equal(t, []string{
		"[PLUG/TOGGLE] Removed 'a' class from",
		"[PLUG/TOGGLE] Removed 'b' class from",
	}, h.infos())
}

func TestFocusWithoutScroll(t *testing.T) {
	t.Parallel()
	h := load(t, `<form id="f" class="search"><input id="search-input" name="q"></form>
		<a id="t" href="#" data-target=".search" data-add-state="search--open" data-focus="#search-input">Search</a>`)

	h.click(t, "t")

	input := h.w.Document.GetElementByID("search-input")
	assert.Same(t, input, h.w.Document.ActiveElement())
	assert.Empty(t, h.w.Scrolls())
	assert.Equal(t, "search search--open", h.class("f"))
	require.Len(t, h.w.Navigations(), 1)
}

func TestNonTriggersAreUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		click string
	}{
		{
			name:  "no data attributes",
			body:  `<div id="p" class="panel"></div><a id="c" href="/x">x</a>`,
			click: "c",
		},
		{
			name:  "state attributes without data-target",
			body:  `<div id="p" class="panel"></div><a id="c" href="/x" data-add-state="panel--open" data-focus="#p" data-prevent-default>x</a>`,
			click: "c",
		},
		{
			name:  "child of a trigger",
			body:  `<div id="p" class="panel"></div><a href="/x" data-target=".panel" data-add-state="open" data-prevent-default><span id="c">x</span></a>`,
			click: "c",
		},
		{
			name:  "data-target on an ancestor only",
			body:  `<div id="p" class="panel" data-target=".panel" data-add-state="open" tabindex="0"><a id="c" href="/x">x</a></div>`,
			click: "c",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := load(t, tt.body)
			e := h.click(t, tt.click)

			assert.Empty(t, h.records)
			assert.Equal(t, "panel", h.class("p"))
			assert.Nil(t, h.w.Document.FocusedElement())
			assert.False(t, e.DefaultPrevented())
			assert.Len(t, h.w.Navigations(), 1)
			assert.Empty(t, h.hook.AllEntries())
			assert.Equal(t, 0.0, testutil.ToFloat64(h.metrics.triggers))
		})
	}
}

func TestClassMutation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		class    string
		add      string
		remove   string
		expected string
	}{
		{"add to empty", "", "a,b", "", "a b"},
		{"add already present", "a", "a", "", "a"},
		{"remove absent", "a", "", "z", "a"},
		{"add then remove", "x", "a,b", "x", "a b"},
		{"remove wins over add", "a", "a,b", "a", "b"},
		{"same class both lists", "", "open", "open", ""},
		{"empty entries dropped", "", ",,a,,", ",,", "a"},
		{"both empty", "a", "", "", "a"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			body := `<div id="t1" class="` + tt.class + `"></div><div id="t2" class="` + tt.class + `"></div>` +
				`<button id="b" data-target="#t1, #t2" data-add-state="` + tt.add + `" data-remove-state="` + tt.remove + `">b</button>`
			h := load(t, body)

			for i := 0; i < 3; i++ {
				h.click(t, "b")
				assert.Equal(t, tt.expected, h.class("t1"), "click %d", i+1)
				assert.Equal(t, tt.expected, h.class("t2"), "click %d", i+1)
			}
		})
	}
}

func TestTargetsProcessedInDocumentOrder(t *testing.T) {
	t.Parallel()
	h := load(t, `<i id="one" class="t"></i><b id="two" class="t"></b><button id="b" data-target="#two, .t" data-add-state="on">b</button>`)

	h.click(t, "b")

	var elements []interface{}
	for _, e := range h.hook.AllEntries() {
		elements = append(elements, e.Data["element"])
	}
	assert.Equal(t, []interface{}{"i#one.t.on", "b#two.t.on"}, elements)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.targetsMatched))
}

func TestPreventDefaultPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		attr      string
		prevented bool
	}{
		{"absent", ``, false},
		{"bare", `data-prevent-default`, true},
		{"empty", `data-prevent-default=""`, true},
		{"false is still present", `data-prevent-default="false"`, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := load(t, `<form id="f" action="/s"><button id="b" data-target="#f" `+tt.attr+`>b</button></form>`)

			e := h.click(t, "b")

			assert.Equal(t, tt.prevented, e.DefaultPrevented())
			assert.Equal(t, !tt.prevented, len(h.w.Submissions()) == 1)
		})
	}
}

func TestEmptyAndInvalidTargets(t *testing.T) {
	t.Parallel()

	for _, target := range []string{"", "#", "div >", ".nothing-here"} {
		target := target
		t.Run(target, func(t *testing.T) {
			t.Parallel()
			h := load(t, `<div id="p" class="panel"></div><button id="b" data-target="`+target+`" data-add-state="open" data-prevent-default>b</button>`)

			e := h.click(t, "b")

			assert.Equal(t, "panel", h.class("p"))
			assert.True(t, e.DefaultPrevented())
			assert.Empty(t, h.infos())
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.triggers))
		})
	}
}

func TestWhitespaceTokensAreSkipped(t *testing.T) {
	t.Parallel()
	h := load(t, `<div id="p" class="panel"></div><button id="b" data-target="#p" data-add-state="a, b,c">b</button>`)

	h.click(t, "b")

	assert.Equal(t, "panel a c", h.class("p"))
	var skipped []interface{}
	for _, e := range h.hook.AllEntries() {
		if e.Level == logrus.DebugLevel {
			skipped = append(skipped, e.Data["class"])
		}
	}
	assert.Equal(t, []interface{}{" b"}, skipped)
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.classesAdded))
}

func TestFocusMisses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		focus string
	}{
		{"no match", "#nope"},
		{"invalid selector", "#"},
		{"not focusable", "#p"},
		{"disabled", "#off"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := load(t, `<div id="p" class="panel"></div><input id="off" disabled>
				<button id="b" data-target="#p" data-add-state="open" data-focus="`+tt.focus+`">b</button>`)

			h.click(t, "b")

			assert.Equal(t, "panel open", h.class("p"))
			assert.Nil(t, h.w.Document.FocusedElement())
			assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.focusMisses))
			for _, e := range h.hook.AllEntries() {
				assert.Contains(t, []logrus.Level{logrus.InfoLevel, logrus.DebugLevel}, e.Level)
			}
		})
	}
}

func TestFocusFirstMatchMovesFocus(t *testing.T) {
	t.Parallel()
	h := load(t, `<input id="a" class="f"><input id="b" class="f"><button id="t" data-target="" data-focus=".f">t</button>`)
	a := h.w.Document.GetElementByID("a")

	var events []string
	for _, typ := range []string{"blur", "focus"} {
		typ := typ
		h.w.Document.AddEventListener(typ, func(e *dom.Event) {
			events = append(events, typ+":"+e.TargetNode().ID())
		}, dom.ListenerOptions{Capture: true})
	}

	h.click(t, "t")
	assert.Same(t, a, h.w.Document.ActiveElement())
	assert.Equal(t, []string{"focus:a"}, events)

	h.w.Document.GetElementByID("b").Focus(dom.FocusOptions{PreventScroll: true})
	h.click(t, "t")
	assert.Same(t, a, h.w.Document.ActiveElement())
	assert.Equal(t, []string{"focus:a", "blur:a", "focus:b", "blur:b", "focus:a"}, events)
	assert.Empty(t, h.w.Scrolls())
}

func TestClicksBeforeLoadAreNotObserved(t *testing.T) {
	t.Parallel()
	h := open(t, `<div id="p" class="panel"></div><a id="b" href="/x" data-target="#p" data-add-state="open" data-prevent-default>b</a>`)

	e := h.click(t, "b")
	assert.False(t, h.binder.Attached())
	assert.Equal(t, "panel", h.class("p"))
	assert.False(t, e.DefaultPrevented())

	h.w.Load()
	assert.True(t, h.binder.Attached())
	assert.Equal(t, []string{"[PLUG/TOGGLE] State toggle listener attached to document"}, h.infos())

	e = h.click(t, "b")
	assert.Equal(t, "panel open", h.class("p"))
	assert.True(t, e.DefaultPrevented())
}

func TestBindIsIdempotent(t *testing.T) {
	t.Parallel()
	h := open(t, `<div id="p" class="n"></div><button id="b" data-target="#p" data-add-state="x">b</button>`)
	h.binder.Bind()
	h.binder.Bind()
	h.w.Load()

	h.click(t, "b")

	attached := 0
	for _, m := range h.infos() {
		if strings.HasSuffix(m, "attached to document") {
			attached++
		}
	}
	assert.Equal(t, 1, attached)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.triggers))
}

func TestBindAfterLoad(t *testing.T) {
	t.Parallel()
	logger, hook := test.NewNullLogger()
	windowLogger, _ := test.NewNullLogger()
	w, err := browser.Open(strings.NewReader(`<div id="p"></div><button id="b" data-target="#p" data-add-state="x">b</button>`),
		browser.WithLogger(windowLogger))
	require.NoError(t, err)
	w.Load()

	b := BindStateToggles(w, WithLogger(logger))
	assert.True(t, b.Attached())
	require.Len(t, hook.AllEntries(), 1)

	w.Click(w.Document.GetElementByID("b"))
	assert.Equal(t, "x", w.Document.GetElementByID("p").ClassName())
}

func TestListenerIsBubblePhase(t *testing.T) {
	t.Parallel()
	h := load(t, `<div id="wrap"><button id="b" data-target="#b" data-add-state="on">b</button></div>`)

	var seen string
	h.w.Document.GetElementByID("wrap").AddEventListener("click", func(e *dom.Event) {
		seen = h.class("b")
	})
	h.click(t, "b")
	assert.Equal(t, "", seen)
	assert.Equal(t, "on", h.class("b"))

	h.w.Document.GetElementByID("wrap").AddEventListener("click", func(e *dom.Event) {
		e.StopPropagation()
	})
	require.NoError(t, h.w.Document.GetElementByID("b").ClassList().Remove("on"))
	h.click(t, "b")
	assert.Equal(t, "", h.class("b"))
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	h := load(t, `<p class="t a"></p><p class="t"></p>
		<button id="b" data-target=".t" data-add-state="x,y" data-remove-state="a" data-focus="#missing" data-prevent-default>b</button>
		<button id="plain">plain</button>`)

	h.click(t, "b")
	h.click(t, "plain")

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.triggers))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.targetsMatched))
	assert.Equal(t, 4.0, testutil.ToFloat64(h.metrics.classesAdded))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.metrics.classesRemoved))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.focusMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.defaultsPrevented))

	n, err := testutil.GatherAndCount(h.reg, "statetoggle_triggers_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestApplyWithoutEvent(t *testing.T) {
	t.Parallel()
	h := load(t, `<div id="p" class="panel panel--open"></div>`)

	h.binder.Apply(Trigger{Target: "#p", RemoveState: []string{"panel--open"}})
	assert.Equal(t, "panel", h.class("p"))
}
