package extract

import "testing"

func TestDedupPreservesFirstOccurrence(t *testing.T) {
	in := []Url{
		{URL: "https://a.example/1", Timeout: 5},
		{URL: "https://a.example/2"},
		{URL: "https://a.example/1", Timeout: 99}, // duplicate, later value discarded
	}

	out := Dedup(in)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if out[0].URL != "https://a.example/1" || out[0].Timeout != 5 {
		t.Errorf("out[0] = %+v, want first occurrence preserved", out[0])
	}
	if out[1].URL != "https://a.example/2" {
		t.Errorf("out[1].URL = %q, want %q", out[1].URL, "https://a.example/2")
	}
}

func TestDedupEmpty(t *testing.T) {
	out := Dedup(nil)
	if len(out) != 0 {
		t.Errorf("len(out) = %d, want 0", len(out))
	}
}

func TestMetaClone(t *testing.T) {
	m := Meta{"a": []byte(`"1"`)}
	c := m.Clone()
	c["b"] = []byte(`"2"`)

	if _, ok := m["b"]; ok {
		t.Error("Clone() mutation leaked back into original map")
	}
	if len(m) != 1 {
		t.Errorf("original Meta len = %d, want 1", len(m))
	}
}

func TestMetaCloneNil(t *testing.T) {
	var m Meta
	if c := m.Clone(); c != nil {
		t.Errorf("Clone() of nil Meta = %v, want nil", c)
	}
}
