package confirm

import (
	"strings"
	"testing"
)

const driveBase = "https://drive.google.com/uc?export=download&id=abc123"

func TestResolve_Anchor(t *testing.T) {
	html := `<html><body>
		<p>Google Drive can't scan this file for viruses.</p>
		<a id="uc-download-link" href="/uc?export=download&amp;confirm=t0k3n&amp;id=abc123">Download anyway</a>
	</body></html>`

	got, ok := Resolve(html, driveBase)
	if !ok {
		t.Fatal("Resolve() found no URL, want confirm anchor")
	}
	want := "https://drive.google.com/uc?export=download&confirm=t0k3n&id=abc123"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_HiddenForm(t *testing.T) {
	html := `<html><body>
		<form id="download-form" action="https://drive.usercontent.google.com/download" method="get">
			<input type="hidden" name="id" value="abc123">
			<input type="hidden" name="confirm" value="t">
			<input type="submit" value="Download anyway">
		</form>
	</body></html>`

	got, ok := Resolve(html, driveBase)
	if !ok {
		t.Fatal("Resolve() found no URL, want synthesized form URL")
	}
	if !strings.HasPrefix(got, "https://drive.usercontent.google.com/download?confirm=") {
		t.Errorf("Resolve() = %q, want form action with confirm param", got)
	}
}

func TestResolve_FormActionWithQuery(t *testing.T) {
	html := `<form action="/download?id=abc"><input name="confirm" value="xyz"></form>`

	got, ok := Resolve(html, driveBase)
	if !ok {
		t.Fatal("Resolve() found no URL")
	}
	want := "https://drive.google.com/download?id=abc&confirm=xyz"
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestResolve_GenuineDeadEnd(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"permission denied page", `<html><body><p>You need access</p><a href="/request">Request access</a></body></html>`},
		{"empty body", ""},
		{"form without action", `<form><input name="confirm" value="x"></form>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := Resolve(tt.html, driveBase); ok {
				t.Errorf("Resolve() = %q, want no URL", got)
			}
		})
	}
}
