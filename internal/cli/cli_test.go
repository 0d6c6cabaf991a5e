package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosspost-dev/go-crosspost/internal/cli"
)

func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRootCommand(func(key string) string { return env[key] })
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolveJSON(t *testing.T) {
	out, err := run(t, nil, "resolve", "--submission", filepath.Join("testdata", "post.yaml"),
		"--destination", "bluesky", "--destination", "discord", "--format", "json")
	require.NoError(t, err)

	var payload []struct {
		Destination string `json:"destination"`
		Result      struct {
			Title       string   `json:"title"`
			Tags        []string `json:"tags"`
			Description *string  `json:"description"`
		} `json:"result"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload, 2)

	assert.Equal(t, "bluesky", payload[0].Destination)
	assert.Equal(t, "Harbour", payload[0].Result.Title)
	assert.Equal(t, []string{"#harbour", "#sunset"}, payload[0].Result.Tags)
	require.NotNil(t, payload[0].Result.Description)
	assert.Equal(t, "Painted live.", *payload[0].Result.Description)

	assert.Equal(t, "discord", payload[1].Destination)
	assert.Empty(t, payload[1].Result.Tags)
	assert.Equal(t, "Painted **live**.", *payload[1].Result.Description)
}

func TestResolveTextUsesSubmissionOrder(t *testing.T) {
	out, err := run(t, nil, "resolve", "-s", filepath.Join("testdata", "post.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "== bluesky\ntitle: Harbour\n")
	assert.Contains(t, out, "== tumblr\ntitle: Harbour at dusk\nrating: general\ntags: harbour, sunset\ndescription: (none)\n")
	assert.Less(t, bytes.Index([]byte(out), []byte("== bluesky")), bytes.Index([]byte(out), []byte("== tumblr")))
}

func TestResolveReportsFailedDestinations(t *testing.T) {
	env := map[string]string{"CROSSPOST_SCHEMA_DIR": filepath.Join("testdata", "schemas")}
	out, err := run(t, env, "resolve", "-s", filepath.Join("testdata", "post.yaml"), "-d", "broken", "-d", "elsewhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 destinations failed")
	assert.Contains(t, out, "== broken\nerror:")
	assert.Contains(t, out, "== elsewhere\ntitle: Harbour at dusk\n")
}

func TestResolveFlagErrors(t *testing.T) {
	_, err := run(t, nil, "resolve")
	assert.Error(t, err)

	_, err = run(t, nil, "resolve", "-s", filepath.Join("testdata", "post.yaml"), "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, map[string]string{"CROSSPOST_LOG_LEVEL": "loud"}, "resolve", "-s", filepath.Join("testdata", "post.yaml"))
	assert.Error(t, err)
}

func TestSchemaCheck(t *testing.T) {
	out, err := run(t, nil, "schema", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "bluesky: tags cap<=8, description plaintext<=300, transforms strip-spaces+hashtag\n")
	assert.Contains(t, out, "pixiv: tags cap<=10, description custom<=3000 template=pixiv\n")
	assert.Contains(t, out, "\nok\n")

	out, err = run(t, nil, "schema", "check", "--dir", filepath.Join("testdata", "schemas"))
	require.NoError(t, err)
	assert.Contains(t, out, "broken: no tags, description custom")
}

func TestConverters(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "converters.db")

	out, err := run(t, nil, "converters", "add", "cat", "--dsn", dsn, "--to", "default=feline", "--to", "furaffinity=")
	require.NoError(t, err)
	assert.Contains(t, out, "added cat")

	out, err = run(t, nil, "converters", "list", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "cat\tdefault=\"feline\" furaffinity=\"\"\n", out)

	_, err = run(t, nil, "converters", "add", "dog", "--dsn", dsn, "--to", "nonsense")
	assert.ErrorContains(t, err, "destination=tag")

	out, err = run(t, map[string]string{"CROSSPOST_CONVERTERS_DSN": dsn}, "resolve",
		"-s", filepath.Join("testdata", "post.yaml"), "-d", "mastodon", "-f", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"#harbour"`)

	out, err = run(t, nil, "converters", "rm", "cat", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "removed cat\n", out)

	_, err = run(t, nil, "converters", "remove", "cat", "--dsn", dsn)
	assert.Error(t, err)

	_, err = run(t, nil, "converters", "list")
	assert.ErrorContains(t, err, "no converter store configured")
}
