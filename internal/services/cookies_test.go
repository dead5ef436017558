package services

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func netscapeFixture(expiry int64) string {
	exp := strconv.FormatInt(expiry, 10)
	return "# Netscape HTTP Cookie File\n" +
		"# This is a generated file! Do not edit.\n\n" +
		".youtube.com\tTRUE\t/\tTRUE\t" + exp + "\tSID\tabc123\n" +
		"#HttpOnly_.youtube.com\tTRUE\t/\tTRUE\t" + exp + "\tHSID\tsecret\n" +
		"www.youtube.com\tFALSE\t/\tFALSE\t0\tPREF\thl=ja\n" +
		".youtube.com\tTRUE\t/\tTRUE\t1\tOLD\texpired\n"
}

func TestStripHttpOnlyMarkers(t *testing.T) {
	normalized, httpOnly := stripHttpOnlyMarkers([]byte(netscapeFixture(42)))

	assert.NotContains(t, string(normalized), httpOnlyPrefix)
	assert.Contains(t, string(normalized), "# Netscape HTTP Cookie File\n")
	assert.Contains(t, string(normalized), "\n.youtube.com\tTRUE\t/\tTRUE\t42\tHSID\tsecret\n")
	assert.Equal(t, map[string]bool{"youtube.com\tHSID": true}, httpOnly)
}

func TestStripHttpOnlyMarkers_NoMarkers(t *testing.T) {
	data := []byte(".youtube.com\tTRUE\t/\tTRUE\t0\tSID\tv\n")
	normalized, httpOnly := stripHttpOnlyMarkers(data)

	assert.Equal(t, data, normalized)
	assert.Empty(t, httpOnly)
}

func TestGroupByHost(t *testing.T) {
	now := time.Now()
	cookies := []*http.Cookie{
		{Name: "SID", Value: "abc123", Domain: ".youtube.com", Expires: now.Add(time.Hour), Secure: true},
		{Name: "HSID", Value: "secret", Domain: ".youtube.com", Expires: now.Add(time.Hour)},
		{Name: "PREF", Value: "hl=ja", Domain: "www.youtube.com", Expires: time.Unix(0, 0)},
		{Name: "OLD", Value: "expired", Domain: ".youtube.com", Expires: time.Unix(1, 0)},
		{Name: "", Value: "nameless", Domain: ".youtube.com"},
		nil,
	}

	byHost := groupByHost(cookies, map[string]bool{"youtube.com\tHSID": true}, now)

	require.Len(t, byHost["youtube.com"], 2, "expired cookie must be dropped")
	assert.Equal(t, "SID", byHost["youtube.com"][0].Name)
	assert.False(t, byHost["youtube.com"][0].HttpOnly)
	assert.True(t, byHost["youtube.com"][1].HttpOnly)

	require.Len(t, byHost["www.youtube.com"], 1)
	assert.True(t, byHost["www.youtube.com"][0].Expires.IsZero(), "session cookie")
}

func TestLoadNetscapeCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	future := time.Now().Add(time.Hour).Unix()
	require.NoError(t, os.WriteFile(path, []byte(netscapeFixture(future)), 0o600))

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	count, err := LoadNetscapeCookies(jar, path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	u, _ := url.Parse("https://www.youtube.com/watch")
	names := map[string]bool{}
	for _, c := range jar.Cookies(u) {
		names[c.Name] = true
	}
	assert.True(t, names["SID"])
	assert.True(t, names["HSID"])
	assert.True(t, names["PREF"])
	assert.False(t, names["OLD"])
}

func TestLoadNetscapeCookies_MissingFile(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	_, err = LoadNetscapeCookies(jar, filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewFetchSession_MissingCookieFileIsAnonymous(t *testing.T) {
	session, err := NewFetchSession(SessionOptions{
		CookieFile: filepath.Join(t.TempDir(), "missing.txt"),
	})

	require.NoError(t, err)
	assert.False(t, session.Authenticated)
	assert.NotNil(t, session.HTTPClient)
	assert.Equal(t, 30*time.Second, session.HTTPClient.Timeout)
}

func TestNewFetchSession_WithCookies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.txt")
	require.NoError(t, os.WriteFile(path, []byte(netscapeFixture(time.Now().Add(time.Hour).Unix())), 0o600))

	session, err := NewFetchSession(SessionOptions{CookieFile: path, RequestsPerMinute: 120, Timeout: 5 * time.Second})

	require.NoError(t, err)
	assert.True(t, session.Authenticated)
	assert.Equal(t, 3, session.CookieCount)
	assert.Equal(t, 5*time.Second, session.HTTPClient.Timeout)
}
