package format

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

type linkRow struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Visible bool   `json:"visible"`
}

func payload() map[string]any {
	return map[string]any{
		"data": []linkRow{{ID: "item-1", URL: "https://example.com", Visible: true}},
		"meta": map[string]any{"count": 1, "com.scenelinks.panel/metadata": true, "odd key": nil},
	}
}

func TestWriteJSONCompactIsOneLine(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, payload(), "", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Count(out, "\n") != 1 || !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected a single line, got %q", out)
	}
	if !strings.Contains(out, `"url":"https://example.com"`) {
		t.Fatalf("expected json tags in output, got %q", out)
	}
}

func TestWriteEDNKeywords(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, payload(), "edn", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `{:data [{:id "item-1" :url "https://example.com" :visible true}] :meta {:com.scenelinks.panel/metadata true :count 1 "odd key" nil}}` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected edn:\n got: %s\nwant: %s", buf.String(), want)
	}
}

func TestWriteEDNPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEDN(&buf, map[string]any{"a": []any{1, 2}, "b": map[string]any{}}, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "{\n  :a [\n    1\n    2\n  ]\n  :b {}\n}\n"
	if buf.String() != want {
		t.Fatalf("unexpected pretty edn:\n%q\nwant\n%q", buf.String(), want)
	}
}

func TestEDNKey(t *testing.T) {
	cases := map[string]string{
		"url":                           ":url",
		"com.scenelinks.panel/metadata": ":com.scenelinks.panel/metadata",
		"_hints":                        ":_hints",
		"1st":                           `"1st"`,
		"a/b/c":                         `"a/b/c"`,
		"":                              `""`,
		"has space":                     `"has space"`,
	}
	for in, want := range cases {
		if got := ednKey(in); got != want {
			t.Fatalf("ednKey(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, payload(), "yaml", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"data:", "url: https://example.com", "count: 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in yaml output:\n%s", want, out)
		}
	}
}

func TestWriteCBORIsDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := Write(&a, payload(), "cbor", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := Write(&b, payload(), "cbor", false); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("expected identical encodings")
	}

	var got map[string]any
	if err := cbor.Unmarshal(a.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	meta, ok := got["meta"].(map[any]any)
	if !ok {
		t.Fatalf("expected meta map, got %T", got["meta"])
	}
	if !reflect.DeepEqual(meta["count"], uint64(1)) {
		t.Fatalf("expected integer count, got %#v", meta["count"])
	}
}

func TestWriteCBORPrettyIsDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCBOR(&buf, map[string]any{"a": 1}, true); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"a"`) || !strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected diagnostic output %q", out)
	}
}

func TestUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, 1, "xml", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
