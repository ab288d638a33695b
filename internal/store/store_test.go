package store

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/temptemp3/reach-lang/internal/ir"
)

func testProgram() *ir.Program {
	x := ir.Var{Idx: 0, Hint: "x", Type: ir.TUInt256{}}
	return &ir.Program{
		Participants: map[string]ir.InteractSpec{
			"A": {"getX": ir.TFun{Dom: []ir.Type{}, Rng: ir.TUInt256{}}},
		},
		Body: []ir.Stmt{
			ir.Let{Var: x, Expr: ir.PrimApp{
				Op:   "ADD",
				Args: []ir.Arg{ir.ConInt{V: big.NewInt(1)}, ir.ConInt{V: big.NewInt(2)}},
				Rng:  ir.TUInt256{},
			}},
		},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	if err := s2.db.QueryRow("SELECT COUNT(*) FROM builds").Scan(&count); err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestPutBuild_RoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	prog := testProgram()
	bundleHash := ir.BundleHash([]byte(`{"modules":[]}`))

	put, err := s.PutBuild(ctx, bundleHash, prog)
	if err != nil {
		t.Fatalf("PutBuild() failed: %v", err)
	}
	if put.ID == "" {
		t.Error("PutBuild() returned empty ID")
	}

	got, err := s.GetBuild(ctx, bundleHash)
	if err != nil {
		t.Fatalf("GetBuild() failed: %v", err)
	}
	if got.ProgramHash != put.ProgramHash {
		t.Errorf("program hash = %q, want %q", got.ProgramHash, put.ProgramHash)
	}
	if got.CompilerVersion != ir.CompilerVersion {
		t.Errorf("compiler version = %q, want %q", got.CompilerVersion, ir.CompilerVersion)
	}
	if string(got.ProgramJSON) != string(put.ProgramJSON) {
		t.Error("cached program JSON does not match the stored build")
	}
}

func TestPutBuild_IdempotentOnSameBundle(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	prog := testProgram()
	bundleHash := ir.BundleHash([]byte("same input"))

	first, err := s.PutBuild(ctx, bundleHash, prog)
	if err != nil {
		t.Fatalf("first PutBuild() failed: %v", err)
	}
	second, err := s.PutBuild(ctx, bundleHash, prog)
	if err != nil {
		t.Fatalf("second PutBuild() failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second PutBuild() ID = %q, want the stored row %q", second.ID, first.ID)
	}

	builds, err := s.ListBuilds(ctx)
	if err != nil {
		t.Fatalf("ListBuilds() failed: %v", err)
	}
	if len(builds) != 1 {
		t.Fatalf("ListBuilds() returned %d rows, want 1", len(builds))
	}
	if builds[0].ID != first.ID {
		t.Errorf("surviving row ID = %q, want the first insert %q", builds[0].ID, first.ID)
	}
}

func TestGetBuild_Miss(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	_, err = s.GetBuild(context.Background(), "no-such-hash")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBuild() on a miss = %v, want ErrNotFound", err)
	}
}

func TestGetBuildByID(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	put, err := s.PutBuild(ctx, ir.BundleHash([]byte("x")), testProgram())
	if err != nil {
		t.Fatalf("PutBuild() failed: %v", err)
	}

	got, err := s.GetBuildByID(ctx, put.ID)
	if err != nil {
		t.Fatalf("GetBuildByID() failed: %v", err)
	}
	if got.BundleHash != put.BundleHash {
		t.Errorf("bundle hash = %q, want %q", got.BundleHash, put.BundleHash)
	}
}
