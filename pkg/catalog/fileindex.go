package catalog

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"pakd/pkg/backend"
)

const fileSchema = `
CREATE TABLE IF NOT EXISTS files (
	path    TEXT NOT NULL,
	name    TEXT NOT NULL,
	version TEXT NOT NULL,
	arch    TEXT NOT NULL,
	repo    TEXT NOT NULL,
	PRIMARY KEY (path, name, version, arch, repo)
);
CREATE INDEX IF NOT EXISTS idx_files_pkg ON files(name, version, arch);
`

// FileIndex maps file paths to the packages that ship them.
type FileIndex struct {
	db *sql.DB
}

// OpenFileIndex opens the index at path. Use ":memory:" (or "") for an
// in-memory index.
func OpenFileIndex(path string) (*FileIndex, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file index: %w", err)
	}

	// One connection, so ":memory:" always refers to the same database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(fileSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &FileIndex{db: db}, nil
}

// Close closes the database connection.
func (fi *FileIndex) Close() error {
	if fi.db != nil {
		return fi.db.Close()
	}
	return nil
}

// Rebuild replaces the index contents with the files of every package in
// snap.
func (fi *FileIndex) Rebuild(snap *Snapshot) error {
	tx, err := fi.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM files"); err != nil {
		return fmt.Errorf("failed to clear file index: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO files (path, name, version, arch, repo)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range snap.Packages() {
		for _, f := range p.Files {
			if _, err := stmt.Exec(f, p.Name, p.Version, p.Arch, p.Repo); err != nil {
				return fmt.Errorf("failed to index %s: %w", f, err)
			}
		}
	}
	return tx.Commit()
}

// Owner is a package shipping a file.
type Owner struct {
	Name    string
	Version string
	Arch    string
	Repo    string
	Path    string
}

// Search returns the packages that ship path. A query without a leading
// "/" also matches by base name, so "powertop" finds "/usr/bin/powertop".
func (fi *FileIndex) Search(path string) ([]Owner, error) {
	query := `
		SELECT name, version, arch, repo, path FROM files
		WHERE path = ?
		ORDER BY name, version, arch
	`
	args := []any{path}
	if !strings.HasPrefix(path, "/") {
		query = `
			SELECT name, version, arch, repo, path FROM files
			WHERE path = ? OR path LIKE ? ESCAPE '\'
			ORDER BY name, version, arch
		`
		args = append(args, "%/"+escapeLike(path))
	}

	rows, err := fi.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search files: %w", err)
	}
	defer rows.Close()

	var owners []Owner
	for rows.Next() {
		var o Owner
		if err := rows.Scan(&o.Name, &o.Version, &o.Arch, &o.Repo, &o.Path); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

// Files returns the files shipped by the package id, sorted.
func (fi *FileIndex) Files(id backend.PackageID) ([]string, error) {
	rows, err := fi.db.Query(`
		SELECT DISTINCT path FROM files
		WHERE name = ? AND version = ? AND arch = ?
		ORDER BY path
	`, id.Name, id.Version, id.Arch)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// Count returns the number of indexed paths.
func (fi *FileIndex) Count() (int, error) {
	var n int
	err := fi.db.QueryRow("SELECT COUNT(*) FROM files").Scan(&n)
	return n, err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
