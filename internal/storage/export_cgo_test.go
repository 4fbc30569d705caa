//go:build cgo

package storage

import "context"

// SetBeforeVectorInsert installs a hook that runs between the two inserts
func (s *SQLite) SetBeforeVectorInsert(fn func(id int64) error) {
	s.beforeVectorInsert = fn
}

// CountRows returns the row counts of the files and file_vectors tables
func (s *SQLite) CountRows(ctx context.Context) (files, vectors int64, err error) {
	if err = s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
		return 0, 0, err
	}
	if err = s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM file_vectors`).Scan(&vectors); err != nil {
		return 0, 0, err
	}
	return files, vectors, nil
}
