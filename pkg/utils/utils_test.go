package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	var dst struct {
		Link string `json:"link"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"link":"http://x","extra":1}`))
	require.NoError(t, ReadJSON(httptest.NewRecorder(), r, &dst))
	assert.Equal(t, "http://x", dst.Link)

	r = httptest.NewRequest("POST", "/", strings.NewReader(""))
	assert.ErrorIs(t, ReadJSON(httptest.NewRecorder(), r, &dst), ErrEmptyBody)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"link":`))
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &dst))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{} {}`))
	assert.Error(t, ReadJSON(httptest.NewRecorder(), r, &dst))
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/?page=3&limit=abc&cert=true&bad=maybe&tags=go,sql&tags=web", nil)

	assert.Equal(t, 3, QueryInt(r, "page", 1))
	assert.Equal(t, 60, QueryInt(r, "limit", 60))
	assert.Equal(t, 7, QueryInt(r, "missing", 7))

	cert := QueryBool(r, "cert")
	require.NotNil(t, cert)
	assert.True(t, *cert)
	assert.Nil(t, QueryBool(r, "bad"))
	assert.Nil(t, QueryBool(r, "missing"))

	assert.Equal(t, []string{"go", "sql", "web"}, QueryList(r, "tags"))
	assert.Nil(t, QueryList(r, "missing"))
}
