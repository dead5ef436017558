package services

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"

	cookiemonster "github.com/MercuryEngineering/CookieMonster"
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadNetscapeCookies reads a Netscape cookie export into jar and returns
// the number of cookies loaded.
func LoadNetscapeCookies(jar *cookiejar.Jar, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	parsePath := path
	normalized, httpOnly := stripHttpOnlyMarkers(data)
	if len(httpOnly) > 0 {
		tmp, err := writeTempCookieFile(normalized)
		if err != nil {
			return 0, err
		}
		defer os.Remove(tmp)
		parsePath = tmp
	}

	cookies, err := cookiemonster.ParseFile(parsePath)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	count := 0
	for host, hostCookies := range groupByHost(cookies, httpOnly, time.Now()) {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, hostCookies)
		count += len(hostCookies)
	}
	return count, nil
}

// stripHttpOnlyMarkers turns "#HttpOnly_<domain>" lines, which browsers
// emit for HttpOnly cookies, into plain cookie lines and records which
// domain/name pairs carried the marker.
func stripHttpOnlyMarkers(data []byte) ([]byte, map[string]bool) {
	httpOnly := make(map[string]bool)
	lines := bytes.Split(data, []byte("\n"))
	for i, line := range lines {
		if !bytes.HasPrefix(line, []byte(httpOnlyPrefix)) {
			continue
		}
		line = line[len(httpOnlyPrefix):]
		lines[i] = line

		fields := strings.Split(strings.TrimRight(string(line), "\r"), "\t")
		if len(fields) >= 7 {
			httpOnly[cookieKey(fields[0], fields[5])] = true
		}
	}
	return bytes.Join(lines, []byte("\n")), httpOnly
}

func cookieKey(domain, name string) string {
	return strings.TrimPrefix(domain, ".") + "\t" + name
}

func writeTempCookieFile(data []byte) (string, error) {
	f, err := os.CreateTemp("", "cookies-*.txt")
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// groupByHost drops expired cookies and keys the rest by host without the
// leading dot. A zero or epoch expiry is a session cookie.
func groupByHost(cookies []*http.Cookie, httpOnly map[string]bool, now time.Time) map[string][]*http.Cookie {
	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		if c == nil || c.Name == "" {
			continue
		}
		if c.Expires.Unix() <= 0 {
			c.Expires = time.Time{}
		} else if c.Expires.Before(now) {
			continue
		}

		host := strings.TrimPrefix(c.Domain, ".")
		if host == "" {
			continue
		}
		if httpOnly[cookieKey(host, c.Name)] {
			c.HttpOnly = true
		}
		byHost[host] = append(byHost[host], c)
	}
	return byHost
}
