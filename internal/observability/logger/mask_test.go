package logger

import "testing"

func TestMaskAuthorizationKeepsScheme(t *testing.T) {
	if got := MaskAuthorization("Bearer abcdef1234"); got != "Bearer ****1234" {
		t.Fatalf("got %q", got)
	}
	if got := MaskAuthorization("raw-token-value"); got != "****alue" {
		t.Fatalf("got %q", got)
	}
	if got := MaskAuthorization("  "); got != "" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskCookieKeepsNames(t *testing.T) {
	got := MaskCookie("session=abcdef1234; other=xyz")
	if got != "session=****1234; other=****xyz" {
		t.Fatalf("got %q", got)
	}
}

func TestMaskAPIKey(t *testing.T) {
	cases := map[string]string{
		"sk-verylongupstreamkey": "****mkey",
		"abc":                    "****abc",
		"":                       "",
	}
	for input, want := range cases {
		if got := MaskAPIKey(input); got != want {
			t.Fatalf("MaskAPIKey(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestMaskJSONMasksNestedSecrets(t *testing.T) {
	input := map[string]any{
		"password": "hunter2",
		"count":    42,
		"nested": map[string]any{
			"api_key": "key_12345678",
		},
		"list": []any{
			map[string]any{"token": "abc12345"},
		},
	}

	masked := MaskJSON(input)
	if masked["password"] != "****ter2" {
		t.Fatalf("password = %v", masked["password"])
	}
	if masked["count"] != 42 {
		t.Fatalf("non-sensitive value mutated: %v", masked["count"])
	}
	nested := masked["nested"].(map[string]any)
	if nested["api_key"] != "****5678" {
		t.Fatalf("nested api_key = %v", nested["api_key"])
	}
	entry := masked["list"].([]any)[0].(map[string]any)
	if entry["token"] != "****2345" {
		t.Fatalf("list token = %v", entry["token"])
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := map[string][]string{
		"Authorization": {"Bearer abcdef1234"},
		"Cookie":        {"session=abcdef1234"},
		"Content-Type":  {"application/json"},
	}

	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****1234" {
		t.Fatalf("authorization = %q", masked["Authorization"])
	}
	if masked["Cookie"] != "session=****1234" {
		t.Fatalf("cookie = %q", masked["Cookie"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("content-type = %q", masked["Content-Type"])
	}
}
