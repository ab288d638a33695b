package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/temptemp3/reach-lang/internal/ir"
)

// ErrNotFound is returned when no cached build matches the lookup key.
var ErrNotFound = errors.New("build not found")

// Build is one cached compilation: the content-addressed identity of the
// input bundle and the resulting program, plus the canonical program JSON.
type Build struct {
	ID              string
	BundleHash      string
	ProgramHash     string
	CompilerVersion string
	IRVersion       string
	ProgramJSON     []byte
	CreatedAt       string
}

// PutBuild caches a compiled program keyed by its bundle hash. Re-caching
// an identical bundle under the same compiler version is a silent no-op,
// so repeated compiles stay idempotent.
func (s *Store) PutBuild(ctx context.Context, bundleHash string, prog *ir.Program) (*Build, error) {
	programJSON, err := prog.CanonicalJSON()
	if err != nil {
		return nil, fmt.Errorf("put build: %w", err)
	}
	programHash, err := ir.ProgramHash(prog)
	if err != nil {
		return nil, fmt.Errorf("put build: %w", err)
	}
	b := &Build{
		ID:              uuid.NewString(),
		BundleHash:      bundleHash,
		ProgramHash:     programHash,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.Version,
		ProgramJSON:     programJSON,
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO builds
		(id, bundle_hash, program_hash, compiler_version, ir_version, program_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(bundle_hash, compiler_version) DO NOTHING
	`,
		b.ID, b.BundleHash, b.ProgramHash, b.CompilerVersion, b.IRVersion, b.ProgramJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("put build: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("put build: %w", err)
	}
	if n == 0 {
		// Conflict: the cache already holds this bundle, so hand back the
		// stored row rather than the unsaved candidate id.
		return s.GetBuild(ctx, bundleHash)
	}
	return b, nil
}

// GetBuild looks up a cached build by bundle hash for the current
// compiler version. Returns ErrNotFound on a cache miss.
func (s *Store) GetBuild(ctx context.Context, bundleHash string) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bundle_hash, program_hash, compiler_version, ir_version, program_json, created_at
		FROM builds
		WHERE bundle_hash = ? AND compiler_version = ?
	`, bundleHash, ir.CompilerVersion)
	return scanBuild(row)
}

// GetBuildByID looks up a cached build by its UUID.
func (s *Store) GetBuildByID(ctx context.Context, id string) (*Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, bundle_hash, program_hash, compiler_version, ir_version, program_json, created_at
		FROM builds
		WHERE id = ?
	`, id)
	return scanBuild(row)
}

// ListBuilds returns every cached build, newest first.
func (s *Store) ListBuilds(ctx context.Context) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, bundle_hash, program_hash, compiler_version, ir_version, program_json, created_at
		FROM builds
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list builds: %w", err)
	}
	defer rows.Close()

	var out []Build
	for rows.Next() {
		var b Build
		if err := rows.Scan(&b.ID, &b.BundleHash, &b.ProgramHash, &b.CompilerVersion, &b.IRVersion, &b.ProgramJSON, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("list builds: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBuild(row *sql.Row) (*Build, error) {
	var b Build
	err := row.Scan(&b.ID, &b.BundleHash, &b.ProgramHash, &b.CompilerVersion, &b.IRVersion, &b.ProgramJSON, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get build: %w", err)
	}
	return &b, nil
}
