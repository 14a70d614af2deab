// batch.go
//
// A data service for the Al-Areiqi engineering site and its admin console
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of sitedb.
// sitedb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// sitedb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with sitedb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrEmptyBatch is returned for a null, empty or [] body
var ErrEmptyBatch = errors.New("empty batch")

// Batch is a request body holding one item or an array of items.
// Single records which form was sent so the response can mirror it.
type Batch[T any] struct {
	Items  []T
	Single bool
}

func (b *Batch[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ErrEmptyBatch
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyBatch
		}
		b.Items, b.Single = items, false
		return nil
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	b.Items, b.Single = []T{item}, true
	return nil
}

// MarshalJSON writes the items back in the form they arrived in
func (b Batch[T]) MarshalJSON() ([]byte, error) {
	if b.Single && len(b.Items) == 1 {
		return json.Marshal(b.Items[0])
	}
	return json.Marshal(b.Items)
}
