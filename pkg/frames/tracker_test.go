package frames

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFrame struct {
	name, url string
	detached  bool
}

func (f *fakeFrame) Name() string     { return f.name }
func (f *fakeFrame) URL() string      { return f.url }
func (f *fakeFrame) IsDetached() bool { return f.detached }

type fakePage struct {
	frames    []*fakeFrame
	selectors map[string]*fakeFrame
}

func (p *fakePage) Frames() []*fakeFrame  { return p.frames }
func (p *fakePage) MainFrame() *fakeFrame { return p.frames[0] }

func (p *fakePage) FrameBySelector(selector string) (*fakeFrame, error) {
	f, ok := p.selectors[selector]
	if !ok {
		return nil, errors.New("no element")
	}
	return f, nil
}

func newPage() *fakePage {
	main := &fakeFrame{url: "https://example.com/"}
	login := &fakeFrame{name: "login", url: "https://auth.example.com/"}
	ads := &fakeFrame{name: "ads", url: "https://ads.example.com/"}
	return &fakePage{
		frames:    []*fakeFrame{main, login, ads},
		selectors: map[string]*fakeFrame{"#login-frame": login},
	}
}

func intPtr(i int) *int { return &i }

func TestSwitch(t *testing.T) {
	page := newPage()

	tests := []struct {
		name    string
		loc     Locator
		want    *fakeFrame
		wantIdx int
	}{
		{name: "by name", loc: Locator{Name: "ads"}, want: page.frames[2], wantIdx: 2},
		{name: "by selector", loc: Locator{Selector: "#login-frame"}, want: page.frames[1], wantIdx: 1},
		{name: "by index", loc: Locator{Index: intPtr(1)}, want: page.frames[1], wantIdx: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker[*fakeFrame]()
			info, err := tr.Switch(page, tt.loc)
			require.NoError(t, err)

			assert.Equal(t, tt.wantIdx, info.Index)
			assert.Equal(t, tt.want.name, info.Name)
			f, ok := tr.Current().Frame()
			require.True(t, ok)
			assert.Same(t, tt.want, f)
		})
	}
}

func TestSwitchIndexZeroIsMain(t *testing.T) {
	page := newPage()
	tr := NewTracker[*fakeFrame]()

	_, err := tr.Switch(page, Locator{Name: "ads"})
	require.NoError(t, err)
	_, err = tr.Switch(page, Locator{Index: intPtr(0)})
	require.NoError(t, err)

	assert.True(t, tr.Current().IsMain())
}

func TestSwitchFailureLeavesContextUnchanged(t *testing.T) {
	page := newPage()
	tr := NewTracker[*fakeFrame]()
	_, err := tr.Switch(page, Locator{Name: "login"})
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  Locator
		want error
	}{
		{name: "index out of range", loc: Locator{Index: intPtr(5)}, want: ErrNotFound},
		{name: "negative index", loc: Locator{Index: intPtr(-1)}, want: ErrNotFound},
		{name: "unknown name", loc: Locator{Name: "nope"}, want: ErrNotFound},
		{name: "unknown selector", loc: Locator{Selector: "#nope"}, want: ErrNotFound},
		{name: "no locator", loc: Locator{}, want: ErrLocator},
		{name: "two locators", loc: Locator{Name: "ads", Index: intPtr(2)}, want: ErrLocator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Switch(page, tt.loc)
			assert.ErrorIs(t, err, tt.want)

			f, ok := tr.Current().Frame()
			require.True(t, ok)
			assert.Equal(t, "login", f.Name())
		})
	}
}

func TestIndexErrorNamesRange(t *testing.T) {
	_, err := NewTracker[*fakeFrame]().Switch(newPage(), Locator{Index: intPtr(7)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 7 out of range (0-2)")
}

func TestResolveDetachedResetsToMain(t *testing.T) {
	page := newPage()
	tr := NewTracker[*fakeFrame]()
	_, err := tr.Switch(page, Locator{Name: "ads"})
	require.NoError(t, err)

	ctx, err := tr.Resolve()
	require.NoError(t, err)
	assert.False(t, ctx.IsMain())

	page.frames[2].detached = true
	ctx, err = tr.Resolve()
	assert.ErrorIs(t, err, ErrDetached)
	assert.True(t, ctx.IsMain())
	assert.True(t, tr.Current().IsMain())
}

func TestSwitchToMain(t *testing.T) {
	tr := NewTracker[*fakeFrame]()
	_, err := tr.Switch(newPage(), Locator{Name: "login"})
	require.NoError(t, err)

	tr.SwitchToMain()
	assert.True(t, tr.Current().IsMain())
}

func TestListExcludesMain(t *testing.T) {
	infos := List[*fakeFrame](newPage())

	assert.Equal(t, []Info{
		{Index: 1, Name: "login", URL: "https://auth.example.com/"},
		{Index: 2, Name: "ads", URL: "https://ads.example.com/"},
	}, infos)

	only := &fakePage{frames: []*fakeFrame{{url: "about:blank"}}}
	assert.Empty(t, List[*fakeFrame](only))
}
