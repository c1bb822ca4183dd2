package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title>Shop</title></head><body>
<h1>  Catalog  </h1>
<ul id="items">
  <li class="item"><a href="/1">One</a></li>
  <li class="item"><a href="/2">Two</a></li>
  <li class="item"><a href="/3">Three</a></li>
  <li class="item"><a href="/4">Four</a></li>
  <li class="item"><a href="/5">Five</a></li>
  <li class="item"><a href="/6">Six</a></li>
  <li class="item"><a href="/7">Seven</a></li>
</ul>
<div id="blurb">Hello <script>var x = 1;</script><b>world</b></div>
</body></html>`

func intPtr(i int) *int { return &i }

func source(t *testing.T, html string) *HTMLSource {
	t.Helper()
	src, err := NewHTMLSource(strings.NewReader(html))
	require.NoError(t, err)
	return src
}

func TestRunSelection(t *testing.T) {
	src := source(t, page)

	tests := []struct {
		name     string
		spec     QuerySpec
		want     any
		wantMeta *Meta
	}{
		{
			name:     "default caps at five",
			spec:     QuerySpec{Name: "q", Selector: "li.item"},
			want:     []string{"One", "Two", "Three", "Four", "Five"},
			wantMeta: &Meta{Returned: 5, Total: 7},
		},
		{
			name:     "max results one is a scalar",
			spec:     QuerySpec{Name: "q", Selector: "li.item", MaxResults: intPtr(1)},
			want:     "One",
			wantMeta: &Meta{Returned: 1, Total: 7},
		},
		{
			name:     "max results zero returns all",
			spec:     QuerySpec{Name: "q", Selector: "li.item", MaxResults: intPtr(0)},
			want:     []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
			wantMeta: &Meta{Returned: 7, Total: 7},
		},
		{
			name:     "max results above total",
			spec:     QuerySpec{Name: "q", Selector: "li.item", MaxResults: intPtr(50)},
			want:     []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"},
			wantMeta: &Meta{Returned: 7, Total: 7},
		},
		{
			name:     "negative index counts from the end",
			spec:     QuerySpec{Name: "q", Selector: "li.item", Index: intPtr(-1)},
			want:     "Seven",
			wantMeta: &Meta{Returned: 1, Total: 7},
		},
		{
			name:     "index wins over max results",
			spec:     QuerySpec{Name: "q", Selector: "li.item", Index: intPtr(2), MaxResults: intPtr(0)},
			want:     "Three",
			wantMeta: &Meta{Returned: 1, Total: 7},
		},
		{
			name: "index out of range",
			spec: QuerySpec{Name: "q", Selector: "li.item", Index: intPtr(7)},
			want: nil,
		},
		{
			name: "no matches",
			spec: QuerySpec{Name: "q", Selector: ".missing"},
			want: nil,
		},
		{
			name:     "text is trimmed",
			spec:     QuerySpec{Name: "q", Selector: "h1"},
			want:     []string{"Catalog"},
			wantMeta: &Meta{Returned: 1, Total: 1},
		},
		{
			name:     "inner html",
			spec:     QuerySpec{Name: "q", Selector: "li.item", Extract: ModeHTML, MaxResults: intPtr(1)},
			want:     `<a href="/1">One</a>`,
			wantMeta: &Meta{Returned: 1, Total: 7},
		},
		{
			name:     "outer html",
			spec:     QuerySpec{Name: "q", Selector: "li.item", Extract: ModeOuterHTML, Index: intPtr(0)},
			want:     `<li class="item"><a href="/1">One</a></li>`,
			wantMeta: &Meta{Returned: 1, Total: 7},
		},
		{
			name:     "inner text skips scripts",
			spec:     QuerySpec{Name: "q", Selector: "#blurb", Extract: ModeInnerText, MaxResults: intPtr(1)},
			want:     "Hello world",
			wantMeta: &Meta{Returned: 1, Total: 1},
		},
		{
			name:     "unknown mode falls back to text",
			spec:     QuerySpec{Name: "q", Selector: "h1", Extract: "bogus", MaxResults: intPtr(1)},
			want:     "Catalog",
			wantMeta: &Meta{Returned: 1, Total: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(context.Background(), src, []QuerySpec{tt.spec})
			require.NoError(t, err)

			require.Contains(t, res.Results, "q")
			assert.Equal(t, tt.want, res.Results["q"])
			meta, ok := res.Metadata["q"]
			if tt.wantMeta == nil {
				assert.False(t, ok, "no metadata expected")
				return
			}
			require.True(t, ok)
			assert.Equal(t, *tt.wantMeta, meta)
		})
	}
}

func TestRunNotesPartialResults(t *testing.T) {
	res, err := Run(context.Background(), source(t, page), []QuerySpec{
		{Name: "few", Selector: "li.item", MaxResults: intPtr(2)},
		{Name: "all", Selector: "li.item", MaxResults: intPtr(0)},
		{Name: "title", Selector: "h1"},
	})
	require.NoError(t, err)

	require.Len(t, res.Notes, 1)
	assert.Contains(t, res.Notes[0], `"few" returned 2 of 7`)
}

func TestMarkupTruncation(t *testing.T) {
	long := strings.Repeat("x", 1500)
	html := fmt.Sprintf(`<div id="big"><p>%s</p></div><p id="plain">%s</p>`, long, long)
	src := source(t, html)

	res, err := Run(context.Background(), src, []QuerySpec{
		{Name: "cut", Selector: "#big", Extract: ModeHTML, MaxResults: intPtr(1)},
		{Name: "full", Selector: "#big", Extract: ModeOuterHTML, MaxResults: intPtr(1), AllowLargeResults: true},
		{Name: "text", Selector: "#plain", MaxResults: intPtr(1)},
	})
	require.NoError(t, err)

	cut := res.Results["cut"].(string)
	assert.True(t, strings.HasPrefix(cut, "<p>xxx"))
	assert.Contains(t, cut, "truncated")
	assert.Equal(t, MarkupLimit, len(cut[:strings.Index(cut, "... [truncated")]))

	assert.NotContains(t, res.Results["full"].(string), "truncated")
	assert.Equal(t, long, res.Results["text"], "text modes are never truncated")
}

func TestMarkupTruncationPerElement(t *testing.T) {
	long := strings.Repeat("y", 1200)
	html := fmt.Sprintf(`<section><b>%s</b></section><section><i>ok</i></section><section><b>%s</b></section>`, long, long)

	for _, limit := range []*int{nil, intPtr(0)} {
		res, err := Run(context.Background(), source(t, html), []QuerySpec{
			{Name: "sections", Selector: "section", Extract: ModeHTML, MaxResults: limit},
		})
		require.NoError(t, err)

		values, ok := res.Results["sections"].([]string)
		require.True(t, ok)
		require.Len(t, values, 3)

		assert.Contains(t, values[0], "... [truncated")
		assert.True(t, strings.HasPrefix(values[0], "<b>yyy"))
		assert.Equal(t, "<i>ok</i>", values[1])
		assert.Contains(t, values[2], "... [truncated")
		assert.Equal(t, Meta{Returned: 3, Total: 3}, res.Metadata["sections"])
	}
}

func TestTruncateCountsCharacters(t *testing.T) {
	s := strings.Repeat("é", MarkupLimit)
	assert.Equal(t, s, truncate(s, false))

	out := truncate(s+"é", false)
	assert.True(t, strings.HasPrefix(out, s+"... [truncated 1 of 1001"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		specs []QuerySpec
	}{
		{name: "empty batch", specs: nil},
		{name: "missing name", specs: []QuerySpec{{Selector: "a"}}},
		{name: "missing selector", specs: []QuerySpec{{Name: "a", Selector: " "}}},
		{name: "duplicate name", specs: []QuerySpec{{Name: "a", Selector: "a"}, {Name: "a", Selector: "b"}}},
		{name: "negative max", specs: []QuerySpec{{Name: "a", Selector: "a", MaxResults: intPtr(-1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.specs), ErrInvalidQuery)
		})
	}
}

type failingSource struct{ calls int }

func (s *failingSource) QueryAll(context.Context, string) ([]Element, error) {
	s.calls++
	return nil, errors.New("boom")
}

func TestRunStopsOnSourceError(t *testing.T) {
	src := &failingSource{}
	_, err := Run(context.Background(), src, []QuerySpec{{Name: "a", Selector: "a"}, {Name: "b", Selector: "b"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `query "a"`)
	assert.Equal(t, 1, src.calls)
}

func TestRunValidatesBeforeQuerying(t *testing.T) {
	src := &failingSource{}
	_, err := Run(context.Background(), src, []QuerySpec{{Name: "a", Selector: "a"}, {Name: "a", Selector: "b"}})

	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.Equal(t, 0, src.calls)
}
