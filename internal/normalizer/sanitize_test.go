package normalizer

import (
	"strings"
	"testing"
)

func TestSanitizeHTML(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if got := SanitizeHTML("   "); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("plain markup preserved", func(t *testing.T) {
		in := "<p>Build <b>scalable</b> services</p>"
		got := SanitizeHTML(in)
		if !strings.Contains(got, "<b>scalable</b>") {
			t.Errorf("expected markup preserved, got %q", got)
		}
	})

	t.Run("script removed with content", func(t *testing.T) {
		got := SanitizeHTML(`<p>hello</p><script>alert("x")</script>`)
		if strings.Contains(got, "script") || strings.Contains(got, "alert") {
			t.Errorf("script not removed: %q", got)
		}
		if !strings.Contains(got, "hello") {
			t.Errorf("content lost: %q", got)
		}
	})

	t.Run("iframe and style removed", func(t *testing.T) {
		got := SanitizeHTML(`<style>.x{}</style><iframe src="evil"></iframe><p>ok</p>`)
		if strings.Contains(got, "iframe") || strings.Contains(got, ".x{}") {
			t.Errorf("disallowed tags not removed: %q", got)
		}
	})

	t.Run("event handlers stripped", func(t *testing.T) {
		got := SanitizeHTML(`<div onclick="steal()" class="desc">text</div>`)
		if strings.Contains(got, "onclick") {
			t.Errorf("onclick not stripped: %q", got)
		}
		if !strings.Contains(got, `class="desc"`) {
			t.Errorf("benign attribute lost: %q", got)
		}
	})

	t.Run("javascript urls stripped", func(t *testing.T) {
		got := SanitizeHTML(`<a href="javascript:alert(1)">link</a><a href="https://example.com">ok</a>`)
		if strings.Contains(got, "javascript:") {
			t.Errorf("javascript url not stripped: %q", got)
		}
		if !strings.Contains(got, "https://example.com") {
			t.Errorf("legitimate url lost: %q", got)
		}
	})
}
