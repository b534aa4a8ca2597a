package ui

import (
	"testing"

	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"termdeck/keys"
	"termdeck/log"
	"termdeck/render"
	"termdeck/session"
)

func init() {
	log.Initialize()
	zone.NewGlobal()
}

func testInstances(t *testing.T, titles ...string) []*session.Instance {
	t.Helper()
	items := make([]*session.Instance, 0, len(titles))
	for _, title := range titles {
		items = append(items, session.NewInstanceWithDeps(title, t.TempDir(), "cat", nil))
	}
	return items
}

func TestListSelectionNavigation(t *testing.T) {
	l := NewList(nil)
	l.SetSize(40, 20)
	l.SetItems(testInstances(t, "alpha", "beta", "gamma"))

	require.Equal(t, "alpha", l.Selected().Title)
	l.Down()
	require.Equal(t, "beta", l.Selected().Title)
	l.Up()
	l.Up() // clamped at the top
	require.Equal(t, "alpha", l.Selected().Title)

	l.SelectIndex(2)
	require.Equal(t, "gamma", l.Selected().Title)
	l.Down() // clamped at the bottom
	require.Equal(t, "gamma", l.Selected().Title)

	l.SelectIndex(99) // out of range is ignored
	require.Equal(t, "gamma", l.Selected().Title)
}

func TestListClampsSelectionWhenItemsShrink(t *testing.T) {
	l := NewList(nil)
	l.SetItems(testInstances(t, "a", "b", "c"))
	l.SelectIndex(2)
	require.Equal(t, 3, l.NumItems())

	l.SetItems(testInstances(t, "a"))
	require.Equal(t, 1, l.NumItems())
	require.Equal(t, "a", l.Selected().Title)

	l.SetItems(nil)
	require.Zero(t, l.NumItems())
	require.Nil(t, l.Selected())
}

func TestListRenderShowsTitles(t *testing.T) {
	l := NewList(nil)
	l.SetSize(40, 20)
	l.SetItems(testInstances(t, "alpha", "beta"))

	out := l.String()
	require.Contains(t, out, "alpha")
	require.Contains(t, out, "beta")
	require.Contains(t, out, "Sessions")
}

func TestListAccelerationIndicator(t *testing.T) {
	backend := &listFakeBackend{}
	pool := render.NewPool(render.Capabilities{Supported: true, MaxContexts: 2}, backend)

	items := testInstances(t, "fast", "slow")
	pool.Register("fast", items[0].Screen())
	require.True(t, pool.Acquire("fast"))

	l := NewList(pool)
	l.SetSize(40, 20)
	l.SetItems(items)

	require.Contains(t, l.String(), "⚡")
}

func TestListEmptyRender(t *testing.T) {
	l := NewList(nil)
	l.SetSize(30, 10)
	require.Contains(t, l.String(), "press n")
}

func TestHelpLineFromBindings(t *testing.T) {
	line := HelpLine(
		keys.GlobalkeyBindings[keys.KeyNew],
		keys.GlobalkeyBindings[keys.KeyQuit],
	)
	require.Equal(t, "n new · q quit", line)
}

type listFakeBackend struct{}

func (listFakeBackend) Name() string { return "fake" }
func (listFakeBackend) Init() error  { return nil }
func (listFakeBackend) Close()       {}
func (listFakeBackend) NewContext(render.Surface) (render.Context, error) {
	return &listFakeContext{}, nil
}

type listFakeContext struct{}

func (*listFakeContext) Paint(render.Frame) string { return "" }
func (*listFakeContext) Destroy() error            { return nil }
func (*listFakeContext) SetLossHandler(func())     {}
