package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/skill-loader/internal/index"
	"github.com/rcliao/skill-loader/internal/testutil"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	idx, err := index.Build(testutil.SampleCorpus(t), index.Options{})
	require.NoError(t, err)
	return New(idx)
}

func resultIDs(rs []Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestDiscover_Keyword(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	assert.Equal(t, []string{"coding-python", "testing-pytest"}, resultIDs(e.Discover(Query{Keyword: "python"})))
	assert.Equal(t, []string{"security-secrets"}, resultIDs(e.Discover(Query{Keyword: "Vault"})))
	assert.Empty(t, e.Discover(Query{Keyword: "kubernetes"}))
}

func TestDiscover_KeywordAndCategory(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	got := e.Discover(Query{Keyword: "python", Category: "Testing"})
	assert.Equal(t, []string{"testing-pytest"}, resultIDs(got))
}

func TestDiscover_CategoryOnly(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	got := e.Discover(Query{Category: "security"})
	assert.Equal(t, []string{"security-auth", "security-secrets"}, resultIDs(got))
	assert.Equal(t, "security", got[0].Category)
	assert.Equal(t, []string{"auth", "oauth", "jwt"}, got[0].Tags)
}

func TestDiscover_EmptyQueryListsAll(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	assert.Equal(t, []string{
		"coding-python", "coding-typescript", "nist-baseline",
		"security-auth", "security-secrets", "testing-pytest",
	}, resultIDs(e.Discover(Query{})))
}

func TestRecommend_ScoresAndOrders(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	got := e.Recommend("We need a Python API with pytest testing", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "testing-pytest", got[0].ID)
	assert.Equal(t, 15, got[0].Score)
	assert.Equal(t, "coding-python", got[1].ID)
	assert.Equal(t, 6, got[1].Score)
}

func TestRecommend_TopN(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	got := e.Recommend("python pytest", 1)
	assert.Equal(t, []string{"testing-pytest"}, resultIDs(got))
}

func TestRecommend_TiesBrokenByID(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	// both coding units carry "coding" in their id and summary
	got := e.Recommend("coding", 0)
	assert.Equal(t, []string{"coding-python", "coding-typescript"}, resultIDs(got))
	assert.Equal(t, got[0].Score, got[1].Score)
}

func TestRecommend_StopWordsOnly(t *testing.T) {
	t.Parallel()
	e := newEngine(t)
	assert.Empty(t, e.Recommend("the and of with", 5))
}

func TestTokenize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"oauth2", "jwt", "api", "s"}, Tokenize("OAuth2/JWT for the API's"))
}
