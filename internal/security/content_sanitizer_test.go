package security

import (
	"strings"
	"testing"
)

// TestSanitize_RemovesScriptTags はscriptタグが除去されることを検証する。
func TestSanitize_RemovesScriptTags(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>本文</p><script>alert("xss")</script>`
	got := s.Sanitize(input)

	if strings.Contains(got, "<script") {
		t.Errorf("Sanitize left script tag: %q", got)
	}
	if !strings.Contains(got, "<p>本文</p>") {
		t.Errorf("Sanitize removed allowed tag: %q", got)
	}
}

// TestSanitize_RemovesEventAttributes はon*イベント属性が除去されることを検証する。
func TestSanitize_RemovesEventAttributes(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<p onclick="steal()">クリック</p>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("Sanitize left onclick attribute: %q", got)
	}
}

// TestSanitize_AllowsHTTPSImages はhttps画像のみが許可されることを検証する。
func TestSanitize_AllowsHTTPSImages(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name    string
		input   string
		wantSrc bool
	}{
		{"https画像は許可", `<img src="https://example.com/a.png" alt="図">`, true},
		{"http画像は拒否", `<img src="http://example.com/a.png">`, false},
		{"javascriptスキームは拒否", `<img src="javascript:alert(1)">`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			hasSrc := strings.Contains(got, "src=")
			if hasSrc != tt.wantSrc {
				t.Errorf("Sanitize(%q) = %q, src presence = %v, want %v", tt.input, got, hasSrc, tt.wantSrc)
			}
		})
	}
}

// TestSanitize_AddsRelNoopenerToLinks はリンクにrel属性が付与されることを検証する。
func TestSanitize_AddsRelNoopenerToLinks(t *testing.T) {
	s := NewContentSanitizer()

	got := s.Sanitize(`<a href="https://example.com/post">記事</a>`)

	if !strings.Contains(got, `target="_blank"`) {
		t.Errorf("Sanitize did not add target=_blank: %q", got)
	}
	if !strings.Contains(got, "noopener") || !strings.Contains(got, "noreferrer") {
		t.Errorf("Sanitize did not add rel=noopener noreferrer: %q", got)
	}
}

// TestSanitize_EmptyInput は空入力に空文字列を返すことを検証する。
func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()
	if got := s.Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力を返すことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()

	input := `<p>本文 <strong>強調</strong></p><iframe src="https://evil.example"></iframe>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: first=%q second=%q", first, second)
	}
}
