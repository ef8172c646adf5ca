package handlers

import (
	"strconv"
	"strings"

	html "github.com/gofiber/template/html/v2"
)

// NewViews loads the HTML templates under dir with the helpers they use.
func NewViews(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFunc("money", money)
	engine.AddFunc("baths", func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) })
	engine.AddFunc("add", func(a, b int) int { return a + b })
	engine.AddFunc("upper", strings.ToUpper)
	engine.AddFunc("day", func(ts string) string {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	})
	return engine
}

// money formats whole currency units with thousands separators: 500000 -> "$500,000".
func money(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
