package client

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Highlighter turns source code into a decorated form for the terminal.
type Highlighter func(code string) (string, error)

var goKeywords = regexp.MustCompile(`\b(func|return|package|import|const|var|if|nil)\b`)

// HighlightGo colors Go keywords. It fails when colors are disabled so the
// caller falls back to plain text.
func HighlightGo(code string) (string, error) {
	if color.NoColor {
		return "", fmt.Errorf("color output disabled")
	}
	kw := color.New(color.FgMagenta).SprintFunc()
	return goKeywords.ReplaceAllStringFunc(code, func(s string) string { return kw(s) }), nil
}

// RouteCode is the sample shown in the "Route Handler Code" section.
func RouteCode(route string, window time.Duration) string {
	return fmt.Sprintf(`const revalidate = %d * time.Second

// GET %s
func handleToken(w http.ResponseWriter, r *http.Request) {
	res, err := cache.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{UUID: res.Value})
}`, int64(window/time.Second), route)
}

// Render prints the page for view. A highlighting failure never stops the
// rest of the page; the code is printed as plain text instead.
func Render(w io.Writer, view View, code string, hl Highlighter) {
	heading := color.New(color.Bold).SprintFunc()

	var b strings.Builder

	b.WriteString(heading("Route Handler ISR Demo") + "\n")
	b.WriteString("Demonstrating time-based revalidation of a route handler\n\n")

	b.WriteString(heading("Route Handler Code") + "\n")
	b.WriteString(highlight(code, hl) + "\n\n")

	if view.Error != "" {
		b.WriteString(color.RedString("error: ") + view.Error + "\n\n")
	}

	if view.Response != nil {
		b.WriteString(heading("API Response") + "\n")
		b.WriteString(view.Response.Body + "\n\n")

		b.WriteString(heading("Response Headers") + "\n")
		headers := view.Response.Headers
		if headers == "" {
			headers = "No headers available"
		}
		b.WriteString(headers + "\n\n")
	}

	if view.State == StateLoading {
		b.WriteString(color.YellowString("[ Loading... ]") + "\n")
	} else {
		b.WriteString(color.GreenString("[ Refresh ]") + "\n")
	}

	_, _ = io.WriteString(w, b.String())
}

func highlight(code string, hl Highlighter) string {
	if hl == nil {
		return code
	}
	out, err := hl(code)
	if err != nil || out == "" {
		return code
	}
	return out
}
