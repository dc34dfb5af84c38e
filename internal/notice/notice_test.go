package notice

import (
	"errors"
	"strings"
	"testing"
)

func TestMake_Success(t *testing.T) {
	n, err := Make(Success, "Success", "Your comment was posted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Parent != nil {
		t.Error("expected a detached node")
	}

	got := String(n)
	want := `<div class="alert alert-success alert-dismissable">` +
		`<button type="button" class="close" data-dismiss="alert" aria-hidden="true">×</button>` +
		`<strong>Success</strong> Your comment was posted </div>`
	if got != want {
		t.Errorf("unexpected markup\n got: %s\nwant: %s", got, want)
	}
}

func TestMake_Accessors(t *testing.T) {
	n := MustMake(Danger, "Error", "Your comment was not posted")

	if !IsNotice(n) {
		t.Fatal("expected IsNotice=true")
	}
	if sev := SeverityOf(n); sev != Danger {
		t.Errorf("expected severity=danger, got %q", sev)
	}
	if title := TitleOf(n); title != "Error" {
		t.Errorf("expected title=Error, got %q", title)
	}
	if body := BodyOf(n); body != "Your comment was not posted" {
		t.Errorf("expected body, got %q", body)
	}
	if !IsDismissControl(n.FirstChild) {
		t.Error("expected first child to be the dismiss control")
	}
}

func TestMake_UnknownSeverity(t *testing.T) {
	for _, sev := range []Severity{"", "warning", "SUCCESS", "success extra"} {
		n, err := Make(sev, "t", "b")
		if !errors.Is(err, ErrUnknownSeverity) {
			t.Errorf("severity %q: expected ErrUnknownSeverity, got %v", sev, err)
		}
		if n != nil {
			t.Errorf("severity %q: expected nil node", sev)
		}
	}
}

func TestMake_EscapesTitleAndBody(t *testing.T) {
	n := MustMake(Success, `<img src=x onerror="alert(1)">`, `<script>alert("x")</script> & more`)
	got := String(n)

	if strings.Contains(got, "<script>") || strings.Contains(got, "<img") {
		t.Fatalf("markup was not escaped: %s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Errorf("expected escaped script tag, got %s", got)
	}
	if !strings.Contains(got, "&amp; more") {
		t.Errorf("expected escaped ampersand, got %s", got)
	}
	// The original strings survive as plain text.
	if title := TitleOf(n); title != `<img src=x onerror="alert(1)">` {
		t.Errorf("title text changed: %q", title)
	}
}

func TestMustMake_PanicsOnUnknownSeverity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustMake("info", "t", "b")
}

func TestIsNotice_RejectsOtherElements(t *testing.T) {
	n := MustMake(Success, "t", "b")
	if IsNotice(n.FirstChild) {
		t.Error("button must not be a notice")
	}
	if IsNotice(nil) {
		t.Error("nil must not be a notice")
	}
	if SeverityOf(n.FirstChild) != "" {
		t.Error("expected empty severity for non-notice")
	}
}
