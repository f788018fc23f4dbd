package main

import (
	"encoding/json"
	"fmt"
	"testing"

	"libretto/internal/api"
)

func TestNewListShowDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	id := registerEdition(t, env)

	out, _, err := runCLI(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Callas")
	requireContains(t, out, "Casta Diva")
	requireContains(t, out, "awaiting")

	out, _, err = runCLI(t, env, "list", "--status", "failed")
	if err != nil {
		t.Fatalf("list --status failed: %v", err)
	}
	requireContains(t, out, "no editions")

	if _, _, err := runCLI(t, env, "list", "--status", "bogus"); err == nil {
		t.Fatal("expected error for unknown status filter")
	}

	out, _, err = runCLI(t, env, "show", fmt.Sprint(id))
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	requireContains(t, out, "Callas - Casta Diva [awaiting]")
	requireContains(t, out, "https://video.example/casta-diva")

	out, _, err = runCLI(t, env, "delete", fmt.Sprint(id))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("edition %d deleted", id))

	if _, _, err := runCLI(t, env, "show", fmt.Sprint(id)); err == nil {
		t.Fatal("expected show to fail after delete")
	}
}

func TestListJSONOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	registerEdition(t, env)

	out, _, err := runCLI(t, env, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var resp api.EditionsResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode list output: %v", err)
	}
	if len(resp.Editions) != 1 || resp.Editions[0].Title != "Casta Diva" {
		t.Fatalf("unexpected editions %+v", resp.Editions)
	}
}

func TestShowRejectsMalformedID(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "show", "abc"); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
	if _, _, err := runCLI(t, env, "show", "0"); err == nil {
		t.Fatal("expected error for zero id")
	}
}

func TestNewRequiresTitleAndSource(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, env, "new", "--artist", "Callas"); err == nil {
		t.Fatal("expected missing required flags to error")
	}
}
