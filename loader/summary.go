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
package loader

import (
	"strings"
	"time"

	"github.com/penny-vault/krxdata/store"
	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary renders a markdown description of the loader's window, the
// number of snapshot partitions in that window, and how long ago it was last
// prepared, suitable for the CLI to pipe through glamour for colorized
// terminal rendering.
func (l *DataLoader) Summary(lastPrepared time.Time) (string, error) {
	printer := message.NewPrinter(language.English)

	dates, err := store.ListPartitionsInWindow(l.SnapshotRoot, l.Window.Start, l.Window.End)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("# krxdata loader\n\n")
	b.WriteString(printer.Sprintf("- window: **%s** to **%s**\n",
		l.Window.Start.Format(store.DateLayout), l.Window.End.Format(store.DateLayout)))
	b.WriteString(printer.Sprintf("- partitions in window: **%d**\n", len(dates)))

	if !lastPrepared.IsZero() {
		b.WriteString("- last prepared: " + timeago.English.Format(lastPrepared) + "\n")
	} else {
		b.WriteString("- last prepared: never\n")
	}

	return b.String(), nil
}
