package resolve

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/skill-loader/internal/directive"
	"github.com/rcliao/skill-loader/internal/index"
	"github.com/rcliao/skill-loader/internal/matrix"
	"github.com/rcliao/skill-loader/internal/model"
	"github.com/rcliao/skill-loader/internal/testutil"
)

func newResolver(t *testing.T, matrixDoc string) *Resolver {
	t.Helper()
	root := testutil.SampleCorpus(t)
	idx, err := index.Build(root, index.Options{})
	require.NoError(t, err)
	if matrixDoc == "" {
		m, err := matrix.Load(filepath.Join(root, "product-matrix.yaml"))
		require.NoError(t, err)
		return New(idx, m, nil)
	}
	m, err := matrix.Parse([]byte(matrixDoc))
	require.NoError(t, err)
	return New(idx, m, nil)
}

func resolveText(t *testing.T, r *Resolver, text string, level model.Level) (model.ResolvedSet, error) {
	t.Helper()
	d, err := directive.Parse(text)
	require.NoError(t, err)
	return r.Resolve(d, level)
}

func TestResolve_Product(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	set, err := resolveText(t, r, "@load product:api", model.Level1)
	require.NoError(t, err)
	assert.Equal(t, []string{"coding-python", "testing-pytest", "security-auth"}, set.IDs)
	assert.Equal(t, model.Level1, set.Level)
}

func TestResolve_NestedProduct(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	set, err := resolveText(t, r, "product:web-service", model.Level2)
	require.NoError(t, err)
	assert.Equal(t, []string{"coding-python", "testing-pytest", "security-auth", "coding-typescript"}, set.IDs)
}

func TestResolve_UnknownProduct(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	_, err := resolveText(t, r, "@load product:does-not-exist", model.Level2)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, UnknownProduct, re.Kind)
	assert.Equal(t, "does-not-exist", re.Ref)
	assert.Equal(t, 6, re.Pos)
}

func TestResolve_WildcardSortedByID(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	set, err := resolveText(t, r, "@load SEC:*", model.Level2)
	require.NoError(t, err)
	assert.Equal(t, []string{"security-auth", "security-secrets"}, set.IDs)
}

func TestResolve_WildcardAutoInclude(t *testing.T) {
	t.Parallel()
	doc := testutil.SampleMatrix + "  \"SEC:*\": [NIST-IG:base]\n"
	r := newResolver(t, doc)
	set, err := resolveText(t, r, "@load SEC:*", model.Level2)
	require.NoError(t, err)
	assert.Equal(t, []string{"security-auth", "security-secrets", "nist-baseline"}, set.IDs)
}

func TestResolve_CombinationDedupes(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	set, err := resolveText(t, r, "@load [product:api + SEC:*]", model.Level2)
	require.NoError(t, err)
	assert.Equal(t, []string{"coding-python", "testing-pytest", "security-auth", "security-secrets"}, set.IDs)
}

func TestResolve_ConcreteCodes(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")

	set, err := resolveText(t, r, "[TS:pytest + CS:python + NIST-IG:base]", model.Level1)
	require.NoError(t, err)
	assert.Equal(t, []string{"testing-pytest", "coding-python", "nist-baseline"}, set.IDs)

	// a bare unit id works as a code too
	set, err = resolveText(t, r, "SEC:security-secrets", model.Level1)
	require.NoError(t, err)
	assert.Equal(t, []string{"security-secrets"}, set.IDs)
}

func TestResolve_UnknownCode(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	for _, text := range []string{"CS:rust", "XYZ:*", "[product:api + TS:jest]"} {
		_, err := resolveText(t, r, text, model.Level2)
		var re *Error
		require.True(t, errors.As(err, &re), text)
		assert.Equal(t, UnknownCode, re.Kind, text)
	}
}

func TestResolve_MatrixIDMissingFromIndex(t *testing.T) {
	t.Parallel()
	doc := `categories:
  CS: coding
products:
  ghost: [coding-python, coding-cobol]
`
	r := newResolver(t, doc)
	_, err := resolveText(t, r, "product:ghost", model.Level2)

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, UnknownCode, re.Kind)
	assert.Equal(t, "coding-cobol", re.Ref)
	assert.Equal(t, "product:ghost", re.Via)
}

func TestResolve_Deterministic(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	d, err := directive.Parse("[SEC:* + product:api + CS:typescript]")
	require.NoError(t, err)

	first, err := r.Resolve(d, model.Level2)
	require.NoError(t, err)
	for range 10 {
		again, err := r.Resolve(d, model.Level2)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Len(t, first.IDs, len(model.Dedupe(first.IDs)))
}

func TestResolve_InvalidLevel(t *testing.T) {
	t.Parallel()
	r := newResolver(t, "")
	_, err := resolveText(t, r, "product:api", model.Level(4))
	assert.Error(t, err)
}

func TestResolve_NoMatrix(t *testing.T) {
	t.Parallel()
	root := testutil.SampleCorpus(t)
	idx, err := index.Build(root, index.Options{})
	require.NoError(t, err)
	r := New(idx, nil, nil)

	d, err := directive.Parse("security:*")
	require.NoError(t, err)
	set, err := r.Resolve(d, model.Level1)
	require.NoError(t, err)
	assert.Equal(t, []string{"security-auth", "security-secrets"}, set.IDs)

	d, err = directive.Parse("product:api")
	require.NoError(t, err)
	_, err = r.Resolve(d, model.Level1)
	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, UnknownProduct, re.Kind)
}

func TestMerge(t *testing.T) {
	t.Parallel()
	got := Merge(
		model.ResolvedSet{IDs: []string{"a", "b"}, Level: model.Level1},
		model.ResolvedSet{IDs: []string{"b", "c"}, Level: model.Level3},
	)
	assert.Equal(t, model.ResolvedSet{IDs: []string{"a", "b", "c"}, Level: model.Level3}, got)
}
