package puzzle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"devcross/internal/crossword"
)

func TestBuiltinPackLoadsExpectedPuzzles(t *testing.T) {
	loader := NewLoader()
	packRoot := filepath.Join("..", "..", "puzzles")
	packs, err := loader.LoadPacks(context.Background(), packRoot)
	if err != nil {
		t.Fatalf("load packs: %v", err)
	}

	var builtin *Pack
	for i := range packs {
		if packs[i].PackID == "builtin" {
			builtin = &packs[i]
			break
		}
	}
	if builtin == nil {
		t.Fatalf("builtin pack not found")
	}
	if len(builtin.LoadedPuzzles) != 3 {
		t.Fatalf("expected 3 puzzles, got %d", len(builtin.LoadedPuzzles))
	}

	want := []string{"starter-shell", "build-tools", "ping-pong"}
	for i := range want {
		if got := builtin.LoadedPuzzles[i].PuzzleID; got != want[i] {
			t.Fatalf("puzzle order mismatch at %d: got %q want %q", i, got, want[i])
		}
	}

	for _, p := range builtin.LoadedPuzzles {
		if _, err := p.Grid(); err != nil {
			t.Fatalf("%s: grid: %v", p.PuzzleID, err)
		}
		if p.Scoring.PointsPerLetter != 10 || p.UI.CellWidth != 3 {
			t.Fatalf("%s: expected pack defaults, got %+v %+v", p.PuzzleID, p.Scoring, p.UI)
		}
	}
	if got := builtin.LoadedPuzzles[2].Title; got != "Ping pong" {
		t.Fatalf("expected title derived from file name, got %q", got)
	}
	if got := len(builtin.LoadedPuzzles[1].Scoring.Rules); got != 2 {
		t.Fatalf("expected build-tools to keep its own rules, got %d", got)
	}
}

func TestLoadFileAcceptsBareEntryList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "My Puzzle.json")
	body := `[
		{"answer":"cat","clue":"Feline","startx":1,"starty":1,"orientation":"across","position":1},
		{"answer":"car","clue":"Vehicle","startx":1,"starty":1,"orientation":"down","position":1}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := NewLoader().LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if p.PuzzleID != "my-puzzle" {
		t.Fatalf("unexpected puzzle id %q", p.PuzzleID)
	}
	if len(p.Entries) != 2 || p.Entries[1].Orientation != "down" || p.Entries[1].StartY != 1 {
		t.Fatalf("unexpected entries %+v", p.Entries)
	}
	if p.Scoring.CompletionBonus != 100 {
		t.Fatalf("expected default scoring, got %+v", p.Scoring)
	}
}

func TestLoadFileSurfacesInvalidEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	body := `kind: puzzle
schema_version: 1
puzzle_id: bad-one
title: Bad
difficulty: 1
entries:
  - answer: new york
    clue: City
    startx: 1
    starty: 1
    orientation: across
    position: 1
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader().LoadFile(path)
	if !errors.Is(err, crossword.ErrInvalidEntry) {
		t.Fatalf("expected invalid entry error, got %v", err)
	}
}

func TestLoadPacksScansPuzzleDirectory(t *testing.T) {
	root := t.TempDir()
	packDir := filepath.Join(root, "scan")
	if err := os.MkdirAll(filepath.Join(packDir, "puzzles"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(packDir, "pack.yaml"), "kind: pack\nschema_version: 1\npack_id: scan-pack\nname: Scan\nversion: 0.0.1\n")
	writeFile(t, filepath.Join(packDir, "puzzles", "b-two.json"), `[{"answer":"go","clue":"Language","startx":1,"starty":1,"orientation":"across","position":1}]`)
	writeFile(t, filepath.Join(packDir, "puzzles", "a-one.json"), `[{"answer":"rust","clue":"Oxide","startx":1,"starty":1,"orientation":"down","position":1}]`)
	writeFile(t, filepath.Join(packDir, "puzzles", "notes.txt"), "ignored")

	loader := NewLoader()
	packs, err := loader.LoadPacks(context.Background(), root)
	if err != nil {
		t.Fatalf("load packs: %v", err)
	}
	if len(packs) != 1 || len(packs[0].LoadedPuzzles) != 2 {
		t.Fatalf("unexpected packs %+v", packs)
	}
	if packs[0].LoadedPuzzles[0].PuzzleID != "a-one" {
		t.Fatalf("expected sorted scan, got %q first", packs[0].LoadedPuzzles[0].PuzzleID)
	}
	if _, _, err := loader.FindPuzzle(packs, "scan-pack", "b-two"); err != nil {
		t.Fatalf("find puzzle: %v", err)
	}
	if _, _, err := loader.FindPuzzle(packs, "scan-pack", "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestManifestIDMismatch(t *testing.T) {
	root := t.TempDir()
	packDir := filepath.Join(root, "p")
	if err := os.MkdirAll(packDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(packDir, "pack.yaml"), "kind: pack\nschema_version: 1\npack_id: mismatch\nname: M\nversion: \"1\"\npuzzles:\n  - puzzle_id: expected-id\n    path: one.json\n")
	writeFile(t, filepath.Join(packDir, "one.json"), `[{"answer":"go","clue":"Language","startx":1,"starty":1,"orientation":"across","position":1}]`)

	if _, err := NewLoader().LoadPacks(context.Background(), root); err == nil {
		t.Fatalf("expected id mismatch error")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}
