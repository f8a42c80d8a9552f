package fetcher

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

var shellMounts = []string{"root", "app", "__next", "__nuxt", "svelte"}

// IsShell reports whether body looks like a single-page-app shell: an
// empty mount point, or almost no visible text next to its markup.
// Audits of such pages should run against a live browser.
func IsShell(body []byte) bool {
	if len(body) < 256 {
		return true
	}

	var text, markup int
	emptyMount := false
	z := html.NewTokenizer(bytes.NewReader(body))
	var skip int // depth inside script/style
	var pendingMount bool

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if text < 200 || float64(text)/float64(text+markup) < 0.10 {
				return true
			}
			return emptyMount
		case html.TextToken:
			raw := z.Raw()
			if skip > 0 {
				markup += len(raw)
				continue
			}
			n := len(strings.Join(strings.Fields(string(raw)), ""))
			text += n
			if n > 0 {
				pendingMount = false
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			markup += len(z.Raw())
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if tag != "div" {
				pendingMount = false
				continue
			}
			switch tt {
			case html.StartTagToken:
				pendingMount = hasAttr && isMount(z)
			case html.EndTagToken:
				if pendingMount {
					emptyMount = true
				}
				pendingMount = false
			}
		default:
			markup += len(z.Raw())
		}
	}
}

func isMount(z *html.Tokenizer) bool {
	for {
		key, val, more := z.TagAttr()
		if string(key) == "id" {
			for _, m := range shellMounts {
				if string(val) == m {
					return true
				}
			}
		}
		if !more {
			return false
		}
	}
}
