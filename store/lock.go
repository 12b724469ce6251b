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
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/krxdata/krxerr"
	"github.com/rs/zerolog/log"
)

// LockFileName is the advisory lockfile at the root of the store,
// enforcing a single writer at a time.
const LockFileName = ".lock"

// LockInfo is the JSON payload written into the lockfile, identifying
// the orchestrator instance that holds it.
type LockInfo struct {
	RunID     string    `json:"run_id"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
}

// Lock represents an acquired advisory lock on a store root.
type Lock struct {
	path string
	info LockInfo
}

// AcquireLock takes the advisory lock on root. If a lockfile already
// exists and its PID is still alive, AcquireLock fails with a BusyError.
// If the recorded process is gone, the stale lock is broken and
// acquisition proceeds. The lock is broken before any reconciliation;
// Orchestrator.Prepare runs Reconcile only after AcquireLock returns.
func AcquireLock(root string) (*Lock, error) {
	if err := ensureDir(root); err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "create store root").WithPath(root)
	}

	path := filepath.Join(root, LockFileName)

	if existing, ok := readLockInfo(path); ok {
		if processAlive(existing.PID) {
			return nil, krxerr.New(krxerr.BusyError, "store is locked by another writer").WithPath(path)
		}
		log.Warn().Int("pid", existing.PID).Str("run_id", existing.RunID).Msg("breaking stale advisory lock; owning process is gone")
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, krxerr.Wrap(krxerr.StoreError, err, "remove stale lockfile").WithPath(path)
		}
	}

	info := LockInfo{
		RunID:     uuid.New().String(),
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(info)
	if err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "encode lock info").WithPath(path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, krxerr.New(krxerr.BusyError, "store is locked by another writer").WithPath(path)
		}
		return nil, krxerr.Wrap(krxerr.StoreError, err, "create lockfile").WithPath(path)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return nil, krxerr.Wrap(krxerr.StoreError, err, "write lockfile").WithPath(path)
	}

	return &Lock{path: path, info: info}, nil
}

// Release deletes the lockfile, relinquishing ownership.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return krxerr.Wrap(krxerr.StoreError, err, "release lockfile").WithPath(l.path)
	}
	return nil
}

// RunID is the unique identifier assigned to this orchestrator run.
func (l *Lock) RunID() string { return l.info.RunID }

func readLockInfo(path string) (LockInfo, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LockInfo{}, false
	}
	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LockInfo{}, false
	}
	return info, true
}

// processAlive reports whether pid refers to a live process, using the
// null signal to probe without actually affecting the process.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil
}
