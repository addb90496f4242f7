package report

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// acronyms are upper-cased whole when they appear as a header-name segment.
var acronyms = map[string]bool{
	"xss":  true,
	"csp":  true,
	"hsts": true,
	"hpkp": true,
	"sri":  true,
	"cors": true,
}

// FormatRuleName turns an observatory rule slug into a title.
// Header-style slugs ("x-xss-protection") become "X-XSS-Protection"; anything
// else ("subresource-integrity") becomes "Subresource integrity".
func FormatRuleName(slug string) string {
	if strings.HasPrefix(slug, "x-") {
		parts := strings.Split(slug, "-")
		for i, p := range parts {
			if i == 0 || acronyms[strings.ToLower(p)] {
				parts[i] = strings.ToUpper(p)
				continue
			}
			parts[i] = capitalize(p)
		}
		return strings.Join(parts, "-")
	}
	return capitalize(strings.ReplaceAll(slug, "-", " "))
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}

// HostOf returns the host of rawURL with scheme, port and path removed.
func HostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" && u.Scheme == "" {
		// "example.com/path" parses as a bare path.
		u, err = url.Parse("//" + rawURL)
		if err != nil {
			return "", err
		}
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return u.Hostname(), nil
}

// scalarString renders a context value for substitution.
func scalarString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case bool:
		return strconv.FormatBool(t), nil
	case fmt.Stringer:
		return t.String(), nil
	case nil:
		return "", fmt.Errorf("value is null")
	case map[string]any, []Record, []any:
		return "", fmt.Errorf("value is %T, not a scalar", v)
	}
	return fmt.Sprint(v), nil
}

func escape(s string) string { return html.EscapeString(s) }
