// Copyright 2023 the SDC AWS Processing Lambda authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database is the relational store for science file lineage.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/database"
	"github.com/swxsoc/sdc-aws-processing-lambda/internal/lineage/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("lineage record not found")

// LineageDB reads and writes lineage records.
type LineageDB struct {
	db *database.DB
}

func New(db *database.DB) *LineageDB {
	return &LineageDB{
		db: db,
	}
}

// InsertRecord writes one lineage record in its own transaction: the product
// is upserted, then the file, its status and its origin links are inserted.
// Nothing is read back except the assigned ids, so concurrent writers for the
// same product cannot lose each other's updates.
func (db *LineageDB) InsertRecord(ctx context.Context, rec *model.LineageRecord) (fileID, productID int64, err error) {
	err = db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		p := rec.Product
		row := tx.QueryRow(ctx, `
			INSERT INTO
				science_product (instrument, mode, level, version, observed_at)
			VALUES
				($1, $2, $3, $4, $5)
			ON CONFLICT ON CONSTRAINT science_product_natural_key
			DO UPDATE SET instrument = EXCLUDED.instrument
			RETURNING id
		`, p.Instrument, p.Mode, p.Level, p.Version, p.ObservedAt)
		if err := row.Scan(&productID); err != nil {
			return fmt.Errorf("upserting product: %w", err)
		}

		row = tx.QueryRow(ctx, `
			INSERT INTO
				science_file (product_id, s3_bucket, s3_key, filename)
			VALUES
				($1, $2, $3, $4)
			RETURNING id
		`, productID, rec.Bucket, rec.Key, rec.Filename)
		if err := row.Scan(&fileID); err != nil {
			return fmt.Errorf("inserting file: %w", err)
		}

		if s := rec.Status; s != nil {
			var ms *int64
			if d, ok := s.ProcessingTime(); ok {
				v := d.Milliseconds()
				ms = &v
			}

			if _, err := tx.Exec(ctx, `
				INSERT INTO
					science_file_status (file_id, status, message, processing_time_ms)
				VALUES
					($1, $2, $3, $4)
			`, fileID, string(s.Code()), s.Message(), ms); err != nil {
				return fmt.Errorf("inserting status: %w", err)
			}
		}

		for _, originID := range rec.OriginFileIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO
					science_file_origin (file_id, origin_file_id)
				VALUES
					($1, $2)
				ON CONFLICT DO NOTHING
			`, fileID, originID); err != nil {
				return fmt.Errorf("inserting origin %d: %w", originID, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return fileID, productID, nil
}

// FailedFiles returns every bucket/key whose most recent status is FAILED,
// with the origin ids linked to the failing file record. Rows are ordered by
// the failing status id.
func (db *LineageDB) FailedFiles(ctx context.Context) ([]*model.FailedFile, error) {
	var failed []*model.FailedFile

	if err := db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			WITH latest AS (
				SELECT DISTINCT ON (f.s3_bucket, f.s3_key)
					f.s3_bucket, f.s3_key, f.id AS file_id, s.id AS status_id, s.status
				FROM
					science_file f
				JOIN
					science_file_status s ON s.file_id = f.id
				ORDER BY f.s3_bucket, f.s3_key, s.id DESC
			)
			SELECT
				l.file_id, l.status_id, l.s3_bucket, l.s3_key,
				COALESCE(
					ARRAY_AGG(o.origin_file_id ORDER BY o.origin_file_id)
						FILTER (WHERE o.origin_file_id IS NOT NULL),
					'{}'
				)
			FROM
				latest l
			LEFT JOIN
				science_file_origin o ON o.file_id = l.file_id
			WHERE
				l.status = 'FAILED'
			GROUP BY l.file_id, l.status_id, l.s3_bucket, l.s3_key
			ORDER BY l.status_id
		`)
		if err != nil {
			return fmt.Errorf("failed to list: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var f model.FailedFile
			if err := rows.Scan(&f.FileID, &f.StatusID, &f.Bucket, &f.Key, &f.OriginFileIDs); err != nil {
				return fmt.Errorf("reading row: %w", err)
			}
			failed = append(failed, &f)
		}
		return rows.Err()
	}); err != nil {
		return nil, fmt.Errorf("listing failed files: %w", err)
	}

	return failed, nil
}

// FileByID returns a stored file.
func (db *LineageDB) FileByID(ctx context.Context, id int64) (*model.File, error) {
	var f model.File

	if err := db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT
				id, product_id, s3_bucket, s3_key, filename, created_at
			FROM
				science_file
			WHERE
				id = $1
		`, id)
		if err := row.Scan(&f.ID, &f.ProductID, &f.Bucket, &f.Key, &f.Filename, &f.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("reading file: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &f, nil
}

// StatusesForFile returns the statuses of a file, oldest first.
func (db *LineageDB) StatusesForFile(ctx context.Context, fileID int64) ([]*model.StatusRecord, error) {
	var statuses []*model.StatusRecord

	if err := db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT
				id, file_id, status, message, processing_time_ms, created_at
			FROM
				science_file_status
			WHERE
				file_id = $1
			ORDER BY id
		`, fileID)
		if err != nil {
			return fmt.Errorf("failed to list: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s    model.StatusRecord
				code string
			)
			if err := rows.Scan(&s.ID, &s.FileID, &code, &s.Message, &s.ProcessingTimeMs, &s.CreatedAt); err != nil {
				return fmt.Errorf("reading row: %w", err)
			}
			s.Code = model.StatusCode(code)
			statuses = append(statuses, &s)
		}
		return rows.Err()
	}); err != nil {
		return nil, fmt.Errorf("listing statuses: %w", err)
	}

	return statuses, nil
}

// OriginsForFile returns the origin ids linked to a file.
func (db *LineageDB) OriginsForFile(ctx context.Context, fileID int64) ([]int64, error) {
	var origins []int64

	if err := db.db.InTx(ctx, pgx.ReadCommitted, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT
				origin_file_id
			FROM
				science_file_origin
			WHERE
				file_id = $1
			ORDER BY origin_file_id
		`, fileID)
		if err != nil {
			return fmt.Errorf("failed to list: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return fmt.Errorf("reading row: %w", err)
			}
			origins = append(origins, id)
		}
		return rows.Err()
	}); err != nil {
		return nil, fmt.Errorf("listing origins: %w", err)
	}

	return origins, nil
}
