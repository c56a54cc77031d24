// Package content turns owner and visitor supplied text into safe HTML and
// builds the order links shown on storefronts.
package content

import (
	"bytes"
	"html/template"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownOnce sync.Once
	md           goldmark.Markdown
	ugcPolicy    *bluemonday.Policy
)

func renderer() (goldmark.Markdown, *bluemonday.Policy) {
	markdownOnce.Do(func() {
		md = goldmark.New(
			goldmark.WithExtensions(
				extension.Linkify,
				extension.Strikethrough,
				extension.Table,
			),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
			),
		)
		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.AllowAttrs("class").Globally()
		ugcPolicy.RequireNoFollowOnLinks(true)
		ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return md, ugcPolicy
}

// RenderMarkdown converts a business description to sanitized HTML with the
// storefront typography classes applied. Raw HTML in the source is escaped
// by goldmark and anything left over is stripped by the policy.
func RenderMarkdown(source string) template.HTML {
	source = strings.TrimSpace(source)
	if source == "" {
		return ""
	}
	m, policy := renderer()

	var buf bytes.Buffer
	if err := m.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	safe := policy.SanitizeBytes(buf.Bytes())
	return template.HTML(AddTypographyClasses(string(safe)))
}

var typographyClasses = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`<h1(\s[^>]*)?>`), `<h1$1 class="text-2xl font-bold mb-3 mt-4">`},
	{regexp.MustCompile(`<h2(\s[^>]*)?>`), `<h2$1 class="text-xl font-bold mb-2 mt-4">`},
	{regexp.MustCompile(`<h3(\s[^>]*)?>`), `<h3$1 class="text-lg font-bold mb-2 mt-3">`},
	{regexp.MustCompile(`<p(\s[^>]*)?>`), `<p$1 class="mb-3 leading-relaxed">`},
	{regexp.MustCompile(`<ul(\s[^>]*)?>`), `<ul$1 class="list-disc list-inside mb-3 ml-4 space-y-1">`},
	{regexp.MustCompile(`<ol(\s[^>]*)?>`), `<ol$1 class="list-decimal list-inside mb-3 ml-4 space-y-1">`},
	{regexp.MustCompile(`<blockquote(\s[^>]*)?>`), `<blockquote$1 class="border-l-4 border-primary pl-4 italic mb-3">`},
	{regexp.MustCompile(`<table(\s[^>]*)?>`), `<table$1 class="table w-full mb-3">`},
	{regexp.MustCompile(`<a(\s[^>]*)?>`), `<a$1 class="link link-primary">`},
	{regexp.MustCompile(`<strong(\s[^>]*)?>`), `<strong$1 class="font-bold">`},
}

// AddTypographyClasses adds Tailwind classes to elements that have none.
func AddTypographyClasses(s string) string {
	for _, tc := range typographyClasses {
		s = tc.re.ReplaceAllStringFunc(s, func(tag string) string {
			attrs := tc.re.FindStringSubmatch(tag)[1]
			if strings.Contains(attrs, "class=") {
				return tag
			}
			return tc.re.ReplaceAllString(tag, tc.replacement)
		})
	}
	return s
}
