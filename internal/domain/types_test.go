package domain

import (
	"errors"
	"testing"
)

func TestGroupNormalizeTrims(t *testing.T) {
	g := Group{ID: " g1 ", Name: "  Cats ", Description: " fluffy "}.Normalize()
	if g.ID != "g1" || g.Name != "Cats" || g.Description != "fluffy" {
		t.Fatalf("normalize left whitespace: %+v", g)
	}
}

func TestGroupValidate(t *testing.T) {
	if err := (Group{ID: "g1", Name: "Cats"}).Validate(); err != nil {
		t.Fatalf("valid group rejected: %v", err)
	}
	if err := (Group{Name: "Cats"}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing id: got %v, want ErrInvalid", err)
	}
	if err := (Group{ID: "g1"}).Validate(); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing name: got %v, want ErrInvalid", err)
	}
}

func TestVideoValidate(t *testing.T) {
	v := Video{GroupID: "g1", URL: "http://x", Username: "u"}
	if err := v.Validate(); err != nil {
		t.Fatalf("valid video rejected: %v", err)
	}
	cases := []Video{
		{URL: "http://x", Username: "u"},
		{GroupID: "g1", Username: "u"},
		{GroupID: "g1", URL: "http://x"},
	}
	for i, c := range cases {
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d: got %v, want ErrInvalid", i, err)
		}
	}
}

func TestGroupPatchApply(t *testing.T) {
	g := Group{ID: "g1", Name: "Cats", Description: "old"}

	name := "Dogs"
	got := (GroupPatch{Name: &name}).Apply(g)
	if got.ID != "g1" || got.Name != "Dogs" || got.Description != "old" {
		t.Fatalf("partial patch: %+v", got)
	}

	empty := ""
	got = (GroupPatch{Description: &empty}).Apply(g)
	if got.Description != "" {
		t.Fatalf("explicit empty description not applied: %+v", got)
	}

	id := " g2 "
	got = (GroupPatch{ID: &id}).Apply(g)
	if got.ID != "g2" {
		t.Fatalf("id patch not trimmed/applied: %+v", got)
	}
}

func TestValidateDatasetJSON(t *testing.T) {
	good := []byte(`{"groups":[{"id":"g1","name":"Cats"}],"videos":[{"groupId":"g1","url":"http://x","username":"u"}]}`)
	if err := ValidateDatasetJSON(good); err != nil {
		t.Fatalf("valid dataset rejected: %v", err)
	}

	empty := []byte(`{"groups":[],"videos":[]}`)
	if err := ValidateDatasetJSON(empty); err != nil {
		t.Fatalf("empty dataset rejected: %v", err)
	}

	bad := [][]byte{
		[]byte(`{}`),
		[]byte(`{"groups":[{"name":"no id"}],"videos":[]}`),
		[]byte(`{"groups":[],"videos":[{"url":"http://x"}]}`),
		[]byte(`{"groups":"nope","videos":[]}`),
	}
	for i, doc := range bad {
		if err := ValidateDatasetJSON(doc); !errors.Is(err, ErrInvalid) {
			t.Fatalf("case %d: got %v, want ErrInvalid", i, err)
		}
	}
}
