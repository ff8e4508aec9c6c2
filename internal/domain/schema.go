/*
 * Copyright (c) 2025 the clipshelf authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// datasetSchema describes the shape of a bulk-import document. It guards
// the PUT /data surface against structurally broken payloads before any
// backend work happens; per-record rules live in Validate.
const datasetSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["groups", "videos"],
  "properties": {
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"}
        }
      }
    },
    "videos": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["groupId", "url", "username"],
        "properties": {
          "id": {"type": "string"},
          "groupId": {"type": "string", "minLength": 1},
          "url": {"type": "string", "minLength": 1},
          "username": {"type": "string", "minLength": 1},
          "caption": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    }
  }
}`

var datasetSchemaLoader = gojsonschema.NewStringLoader(datasetSchema)

// ValidateDatasetJSON checks a raw bulk-import document against the
// dataset schema. The returned error wraps ErrInvalid and lists every
// violation found.
func ValidateDatasetJSON(doc []byte) error {
	result, err := gojsonschema.Validate(datasetSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}
