package storage

import (
	"testing"
)

func TestApplyUpdates(t *testing.T) {
	doc := Fields{
		"name": "Read",
		"log": map[string]any{
			"2026-10-13": map[string]any{"streak": 2, "goal": 5},
		},
	}

	err := ApplyUpdates(doc, map[string]any{
		"name":                  "Read more",
		"log.2026-10-13.streak": 3,
		"log.2026-10-14.goal":   5,
	})
	if err != nil {
		t.Fatalf("ApplyUpdates failed: %v", err)
	}

	if doc["name"] != "Read more" {
		t.Errorf("expected name to be updated, got %v", doc["name"])
	}
	log := doc["log"].(map[string]any)
	d13 := log["2026-10-13"].(map[string]any)
	if d13["streak"] != 3 || d13["goal"] != 5 {
		t.Errorf("expected sibling fields preserved, got %v", d13)
	}
	d14 := log["2026-10-14"].(map[string]any)
	if d14["goal"] != 5 {
		t.Errorf("expected new date created, got %v", d14)
	}
}

func TestApplyUpdatesThroughScalar(t *testing.T) {
	doc := Fields{"name": "Read"}
	if err := ApplyUpdates(doc, map[string]any{"name.first": "x"}); err == nil {
		t.Error("expected error writing below a scalar field")
	}
}

func TestCloneFieldsIsDeep(t *testing.T) {
	doc := Fields{"log": map[string]any{"2026-10-14": map[string]any{"streak": 1}}}

	clone, err := CloneFields(doc)
	if err != nil {
		t.Fatalf("CloneFields failed: %v", err)
	}
	if err := ApplyUpdates(clone, map[string]any{"log.2026-10-14.streak": 9}); err != nil {
		t.Fatalf("ApplyUpdates failed: %v", err)
	}

	orig := doc["log"].(map[string]any)["2026-10-14"].(map[string]any)
	if orig["streak"] != 1 {
		t.Errorf("clone aliased the original: %v", orig)
	}
}

func TestPaths(t *testing.T) {
	col := CollectionPath{UID: "u1", Collection: "good_habits"}
	if got := col.String(); got != "users/u1/good_habits" {
		t.Errorf("unexpected collection path %q", got)
	}
	if got := col.Doc("h1").String(); got != "users/u1/good_habits/h1" {
		t.Errorf("unexpected document path %q", got)
	}
}
