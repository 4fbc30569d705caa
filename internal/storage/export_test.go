package storage

import "context"

// SetBeforeVectorInsert installs a hook that runs between the two inserts
func (p *Postgres) SetBeforeVectorInsert(fn func(id int64) error) {
	p.beforeVectorInsert = fn
}

// CountRows returns the row counts of the files and file_vectors tables
func (p *Postgres) CountRows(ctx context.Context) (files, vectors int64, err error) {
	if err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM files`).Scan(&files); err != nil {
		return 0, 0, err
	}
	if err = p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM file_vectors`).Scan(&vectors); err != nil {
		return 0, 0, err
	}
	return files, vectors, nil
}

var CheckDims = checkDims
