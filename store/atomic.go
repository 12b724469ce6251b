// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package store

import (
	"os"
	"time"

	"github.com/penny-vault/krxdata/krxerr"
	"github.com/penny-vault/krxdata/schema"
	"github.com/rs/zerolog/log"
)

// WritePartition publishes rows as the partition for date under roots,
// following a four-step atomic rewrite discipline:
//
//  1. stage the new partition under roots.Staging
//  2. if a prior version exists, move it aside to roots.Backup
//  3. rename the staged partition into roots.Root (single directory rename)
//  4. best-effort delete the backup
//
// Rows are sorted by Symbol ascending before encoding so row-group
// min/max statistics actually prune later symbol-filtered scans.
func WritePartition(roots Roots, date time.Time, rows []schema.Row) error {
	sorted := make([]schema.Row, len(rows))
	copy(sorted, rows)
	schema.SortBySymbol(sorted)

	stagingPartition := roots.stagingPartition(date)
	backupPartition := roots.backupPartition(date)
	finalPartition := roots.finalPartition(date)

	// Step 1: stage.
	if err := os.RemoveAll(stagingPartition); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "clear stale staging partition").WithPath(stagingPartition)
	}
	if err := writeParquetFile(dataFileIn(stagingPartition), sorted); err != nil {
		return err
	}

	// Step 2: back up the prior version, if any.
	if dirExists(finalPartition) {
		if err := os.RemoveAll(backupPartition); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "clear stale backup partition").WithPath(backupPartition)
		}
		if err := ensureDir(parentOf(backupPartition)); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "create backup root").WithPath(backupPartition)
		}
		if err := os.Rename(finalPartition, backupPartition); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "move prior partition to backup").WithPath(finalPartition)
		}
	}

	// Step 3: publish. A single directory rename -- this is the
	// happens-before edge a reader relies on to never observe a torn
	// partition.
	if err := ensureDir(parentOf(finalPartition)); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "create final root").WithPath(finalPartition)
	}
	if err := os.Rename(stagingPartition, finalPartition); err != nil {
		// Crash/failure between backup and publish: restore the backup so
		// the store is left in its pre-rewrite state, not torn.
		if dirExists(backupPartition) {
			_ = os.Rename(backupPartition, finalPartition)
		}
		return krxerr.Wrap(krxerr.StoreError, err, "publish staged partition").WithPath(finalPartition)
	}

	// Step 4: best-effort cleanup. If this fails, Reconcile on next
	// startup deletes the leftover backup.
	if dirExists(backupPartition) {
		if err := os.RemoveAll(backupPartition); err != nil {
			log.Warn().Err(err).Str("path", backupPartition).Msg("could not delete backup partition; will be reconciled on next startup")
		}
	}

	return nil
}

// ReadPartition decodes the published partition for date, if one exists.
func ReadPartition(root string, date time.Time) ([]schema.Row, bool, error) {
	if !HasPartition(root, date) {
		return nil, false, nil
	}
	rows, err := readParquetFile(DataFilePath(root, date))
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

// Reconcile restores roots to a coherent state after an unclean shutdown:
//
//   - staging debris (crash between steps 1 and 3) is deleted
//   - a leftover backup whose final partition is missing (crash between
//     steps 2 and 3) is moved back into place
//   - a leftover backup whose final partition exists (crash between steps
//     3 and 4) is deleted
func Reconcile(roots Roots) error {
	if err := os.RemoveAll(roots.Staging); err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "clean staging root").WithPath(roots.Staging)
	}

	entries, err := os.ReadDir(roots.Backup)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return krxerr.Wrap(krxerr.StoreError, err, "list backup root").WithPath(roots.Backup)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		date, ok := ParsePartitionDirName(entry.Name())
		if !ok {
			continue
		}
		backupPartition := roots.backupPartition(date)
		finalPartition := roots.finalPartition(date)

		if dirExists(finalPartition) {
			// Step 3 committed; the backup is leftover debris.
			if err := os.RemoveAll(backupPartition); err != nil {
				return krxerr.Wrap(krxerr.StoreError, err, "delete leftover backup partition").WithPath(backupPartition)
			}
			log.Info().Str("date", date.Format(DateLayout)).Msg("reconcile: removed leftover backup, final partition already valid")
			continue
		}

		// Step 3 never ran; the backup is the only valid copy.
		if err := ensureDir(parentOf(finalPartition)); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "create final root").WithPath(finalPartition)
		}
		if err := os.Rename(backupPartition, finalPartition); err != nil {
			return krxerr.Wrap(krxerr.StoreError, err, "restore backup partition").WithPath(backupPartition)
		}
		log.Info().Str("date", date.Format(DateLayout)).Msg("reconcile: restored partition from backup")
	}

	return nil
}
