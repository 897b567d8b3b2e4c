package config

import "testing"

func TestMergeOverlayWins(t *testing.T) {
	base := &Config{Version: 1, Source: "/a", Dest: "/b", BlockSize: 100, OnError: "continue", Lock: Bool(false)}
	overlay := &Config{Dest: "/c", Strict: Bool(true)}

	got, err := Merge(base, overlay)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || got.Source != "/a" || got.Dest != "/c" || got.BlockSize != 100 || got.OnError != "continue" {
		t.Errorf("unexpected merge result: %+v", got)
	}
	if !got.StrictMode() {
		t.Error("strict from overlay lost")
	}
	if got.LockEnabled() {
		t.Error("lock from base lost")
	}
}

func TestMergeExplicitFalseOverridesTrue(t *testing.T) {
	got, err := Merge(&Config{Strict: Bool(true)}, &Config{Strict: Bool(false)})
	if err != nil {
		t.Fatal(err)
	}
	if got.StrictMode() {
		t.Error("overlay false should win")
	}
}

func TestMergePatternsDeduplicate(t *testing.T) {
	got, err := Merge(
		&Config{Exclude: []string{"a", "b"}},
		&Config{Exclude: []string{"b", "c"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "b", "c"}
	if len(got.Exclude) != len(want) {
		t.Fatalf("exclude = %v, want %v", got.Exclude, want)
	}
	for i := range want {
		if got.Exclude[i] != want[i] {
			t.Errorf("exclude[%d] = %q, want %q", i, got.Exclude[i], want[i])
		}
	}
}

func TestMergeNil(t *testing.T) {
	c := &Config{Version: 1}
	if got, _ := Merge(nil, c); got != c {
		t.Error("nil base should return overlay")
	}
	if got, _ := Merge(c, nil); got != c {
		t.Error("nil overlay should return base")
	}
}

func TestMergeAllEmpty(t *testing.T) {
	if _, err := MergeAll(nil); err == nil {
		t.Fatal("expected error for no configs")
	}
}
