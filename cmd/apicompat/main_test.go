package main

import (
	"testing"

	"snapfeed/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
paths:
  /posts:
    get:
      responses:
        "200": {description: OK}
    post:
      responses:
        "200": {description: OK}
        "401": {description: Unauthorized}
  /legacy:
    get:
      responses:
        "200": {description: OK}
`

func TestBreakingChanges(t *testing.T) {
	base, err := parseSurface([]byte(baseYAML))
	require.NoError(t, err)

	revision, err := parseSurface([]byte(`{"paths": {"/posts": {"get": {"responses": {"200": {}}}, "post": {"responses": {"200": {}}}}}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"removed path: /legacy",
		"removed response code: POST /posts -> 401",
	}, breakingChanges(base, revision))
}

func TestParseSurface_RequiresPaths(t *testing.T) {
	_, err := parseSurface([]byte("swagger: '2.0'"))
	assert.Error(t, err)
}

func TestCompiledDocsCoverFeedRoutes(t *testing.T) {
	surface, err := parseSurface([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)

	for path, method := range map[string]string{
		"/posts":                   "get",
		"/posts/{postId}/like":     "post",
		"/posts/{postId}/comments": "post",
		"/auth/login":              "post",
	} {
		require.Contains(t, surface, path)
		assert.Contains(t, surface[path], method)
	}
	assert.Empty(t, breakingChanges(surface, surface))
}
