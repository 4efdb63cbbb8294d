package reward

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemeClientRandom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gimme", r.URL.Path)
		w.Write([]byte(`{"url":"https://i.redd.it/abc.jpg","title":"gains"}`))
	}))
	t.Cleanup(srv.Close)

	c := &MemeClient{BaseURL: srv.URL}
	meme, err := c.Random(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://i.redd.it/abc.jpg", meme.URL)
	assert.Equal(t, "gains", meme.Title)
}

func TestMemeClientUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := &MemeClient{BaseURL: srv.URL}
	_, err := c.Random(context.Background())
	assert.Error(t, err)
}

func TestEligibleItems(t *testing.T) {
	assert.Empty(t, EligibleItems(0))
	assert.Empty(t, EligibleItems(9))

	level1 := EligibleItems(10)
	require.Len(t, level1, 2)
	assert.Equal(t, "cap", level1[0].ID)
	assert.Equal(t, "shades", level1[1].ID)

	all := EligibleItems(1000)
	assert.Len(t, all, len(Catalog))
}
