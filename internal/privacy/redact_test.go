package privacy

import (
	"strings"
	"testing"
)

func TestRedactPII(t *testing.T) {
	in := "email me at anna@example.com or call +31 6 1234 5678"
	out, changed := RedactPII(in)
	if !changed {
		t.Fatalf("RedactPII() reported no change for %q", in)
	}
	if strings.Contains(out, "anna@example.com") || strings.Contains(out, "1234 5678") {
		t.Fatalf("RedactPII() = %q, PII still present", out)
	}
	if !strings.Contains(out, "[REDACTED_EMAIL]") || !strings.Contains(out, "[REDACTED_PHONE]") {
		t.Fatalf("RedactPII() = %q, markers missing", out)
	}
}

func TestRedactPIILeavesPlainTextAlone(t *testing.T) {
	in := "skipped the gym again and felt guilty about it"
	out, changed := RedactPII(in)
	if changed || out != in {
		t.Fatalf("RedactPII(%q) = %q, changed=%v", in, out, changed)
	}
}

func TestLogPreviewTruncatesAfterRedaction(t *testing.T) {
	in := "write to anna@example.com about the long project update from yesterday"
	out := LogPreview(in, 30)
	if strings.Contains(out, "anna@example.com") {
		t.Fatalf("LogPreview() = %q, email leaked", out)
	}
	if len(out) > 33 {
		t.Fatalf("LogPreview() length = %d, want <= 33", len(out))
	}
}
