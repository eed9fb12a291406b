package directive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ProductRef(t *testing.T) {
	t.Parallel()
	d, err := Parse("@load product:api")
	require.NoError(t, err)
	assert.Equal(t, ProductRef{Name: "api", Offset: 6}, d)
}

func TestParse_BareCodeRef(t *testing.T) {
	t.Parallel()
	d, err := Parse("CS:python")
	require.NoError(t, err)
	assert.Equal(t, CodeRef{Category: "CS", Code: "python", Offset: 0}, d)
}

func TestParse_WildcardPreserved(t *testing.T) {
	t.Parallel()
	d, err := Parse("@load SEC:*")
	require.NoError(t, err)
	ref, ok := d.(CodeRef)
	require.True(t, ok)
	assert.True(t, ref.Wildcard())
	assert.Equal(t, "SEC:*", ref.String())
}

func TestParse_Combination(t *testing.T) {
	t.Parallel()
	d, err := Parse("@load [product:api + CS:python + TS:* + NIST-IG:base]")
	require.NoError(t, err)

	c, ok := d.(Combination)
	require.True(t, ok)
	assert.Equal(t, 6, c.Offset)
	assert.Equal(t, []Directive{
		ProductRef{Name: "api", Offset: 7},
		CodeRef{Category: "CS", Code: "python", Offset: 21},
		CodeRef{Category: "TS", Code: "*", Offset: 33},
		CodeRef{Category: "NIST-IG", Code: "base", Offset: 40},
	}, c.Terms)
	assert.Equal(t, "[product:api + CS:python + TS:* + NIST-IG:base]", c.String())
}

func TestParse_CompactCombination(t *testing.T) {
	t.Parallel()
	d, err := Parse("[product:api+SEC:*]")
	require.NoError(t, err)
	assert.Len(t, Terms(d), 2)
}

func TestParse_SingleTermCombination(t *testing.T) {
	t.Parallel()
	d, err := Parse("[CS:go]")
	require.NoError(t, err)
	_, ok := d.(Combination)
	assert.True(t, ok)
}

func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"product:api", "SEC:*", "[product:api + CS:python + SEC:*]"} {
		d, err := Parse(in)
		require.NoError(t, err)
		again, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d.String(), again.String())
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in  string
		pos int
	}{
		{"", 0},
		{"@load", 5},
		{"@load product:", 14},
		{"@load :python", 6},
		{"@load [product:api +", 20},
		{"@load [product:api", 18},
		{"@load product api", 13},
		{"[]", 1},
		{"@loadproduct:api", 5},
		{"@load CS:python extra", 16},
		{"@load [CS:python, TS:pytest]", 16},
		{"@load product:API", 14},
		{"@load product:apiV2", 17},
		{"@load CS:Python", 9},
		{"@load [product:api + SEC:Auth]", 25},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			_, err := Parse(c.in)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "expected ParseError, got %v", err)
			assert.Equal(t, c.pos, pe.Pos)
			assert.NotEmpty(t, pe.Reason)
			assert.Contains(t, pe.Error(), "offset")
		})
	}
}

func TestTerms_Flattens(t *testing.T) {
	t.Parallel()
	d := Combination{Terms: []Directive{ProductRef{Name: "a"}, CodeRef{Category: "X", Code: "y"}}}
	assert.Len(t, Terms(d), 2)
	assert.Equal(t, []Directive{ProductRef{Name: "a"}}, Terms(ProductRef{Name: "a"}))
	assert.Nil(t, Terms(nil))
}

func TestExtract_FromFreeText(t *testing.T) {
	t.Parallel()
	text := "Before coding, @load product:api. Then for reviews @load [SEC:* + CS:python] please.\nemail me@loadbalancer.io"
	ds, err := Extract(text)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "product:api", ds[0].String())
	assert.Equal(t, "[SEC:* + CS:python]", ds[1].String())
	assert.Equal(t, 21, ds[0].Pos())
}

func TestExtract_ErrorOffsetIsAbsolute(t *testing.T) {
	t.Parallel()
	_, err := Extract("ok @load product:api and @load :bad")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 31, pe.Pos)
}

func TestExtract_None(t *testing.T) {
	t.Parallel()
	ds, err := Extract("nothing to load here")
	require.NoError(t, err)
	assert.Empty(t, ds)
}
