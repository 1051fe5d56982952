package fixture

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, behavior Behavior) (*httptest.Server, *Registry) {
	t.Helper()
	reg, err := NewRegistry("@test/fix-package")
	require.NoError(t, err)
	srv := httptest.NewServer(NewServer(reg, behavior))
	t.Cleanup(srv.Close)
	return srv, reg
}

func fetchDoc(t *testing.T, url string) (*goquery.Document, int) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc, resp.StatusCode
}

func TestRepoPageAddressingModes(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{})

	for _, path := range []string{
		"/@test/fix-package",
		"/@test/fix-package/settings",
		"/?view=repo&package=%40test%2Ffix-package",
	} {
		t.Run(path, func(t *testing.T) {
			doc, status := fetchDoc(t, srv.URL+path)
			require.Equal(t, http.StatusOK, status)
			assert.Equal(t, "Loading repository...", strings.TrimSpace(doc.Find("#loading").Text()))
			assert.Contains(t, doc.Find("title").Text(), "@test/fix-package")
			assert.Contains(t, doc.Find("script").Text(), `"package":"@test/fix-package"`)
		})
	}
}

func TestRepoPageCarriesBehavior(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{OmitSettings: true, CheckmarkOnly: true})

	doc, status := fetchDoc(t, srv.URL+"/@test/fix-package")
	require.Equal(t, http.StatusOK, status)
	script := doc.Find("script").Text()
	assert.Contains(t, script, `"omit_settings":true`)
	assert.Contains(t, script, `"checkmark_only":true`)
	assert.Contains(t, script, `"omit_modal":false`)
}

func TestRepoPageRequiresScope(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{})

	resp, err := http.Get(srv.URL + "/test/fix-package")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIndexListsPackages(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{})

	doc, status := fetchDoc(t, srv.URL+"/")
	require.Equal(t, http.StatusOK, status)
	href, ok := doc.Find("#packages a").First().Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/@test/fix-package", href)
}

func TestGetPackageAPI(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{})

	resp, err := http.Get(srv.URL + "/api/v1/packages/@test/fix-package")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pkg Package
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pkg))
	assert.Equal(t, "@test/fix-package", pkg.Name)
	assert.Contains(t, pkg.Settings, "auto_merge")

	missing, err := http.Get(srv.URL + "/api/v1/packages/@nobody/nothing")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func putSettings(t *testing.T, base string, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPut, base+"/api/v1/packages/@test/fix-package/settings", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestSaveThenApplyFlow(t *testing.T) {
	srv, reg := newTestServer(t, Behavior{})

	resp, out := putSettings(t, srv.URL, `{"settings":{"private":true,"auto_merge":false}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "botkit repo update @test/fix-package --set auto_merge=false --set private=true", out["command"])
	assert.Equal(t, true, out["pending"])

	apply, err := http.Post(srv.URL+"/api/v1/packages/@test/fix-package/settings/apply", "application/json", nil)
	require.NoError(t, err)
	apply.Body.Close()
	require.Equal(t, http.StatusOK, apply.StatusCode)

	pkg, err := reg.Get("@test/fix-package")
	require.NoError(t, err)
	assert.True(t, pkg.Settings["private"])

	again, err := http.Post(srv.URL+"/api/v1/packages/@test/fix-package/settings/apply", "application/json", nil)
	require.NoError(t, err)
	again.Body.Close()
	assert.Equal(t, http.StatusConflict, again.StatusCode)
}

func TestWrongCommandBehavior(t *testing.T) {
	srv, _ := newTestServer(t, Behavior{WrongCommand: true})

	resp, out := putSettings(t, srv.URL, `{"settings":{"private":true}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	command, _ := out["command"].(string)
	assert.True(t, strings.HasPrefix(command, "botkit repo sync "), command)
	assert.NotContains(t, command, "botkit repo update")
}
