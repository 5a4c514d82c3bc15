// Copyright 2011 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package depgraph

import "github.com/maruel/incdep/internal/stablepath"

// SourceRequest is a memoizing computation that returns the active source
// file being compiled. It never records a dependency edge.
type SourceRequest interface {
	ActiveFile() FileID
}

// SinkRequest is a memoizing computation whose side effect is recording a
// dependency edge. It never answers "what file am I in".
//
// A single tracked request implements at most one of these two
// interfaces -- never both -- mirroring the request-evaluator pattern of
// the originating compiler: a request either produces information
// (SourceRequest) or consumes it by recording that it was depended upon
// (SinkRequest).
type SinkRequest interface {
	RecordDependency(kind NodeKind, context, name stablepath.Identifier, cascades bool)
}

// activeFileRequest is the per-job compile context passed to BuildFileGraph:
// the SourceRequest half of the split. It carries only the file identity
// and has no method that could record a dependency.
type activeFileRequest struct {
	file FileID
}

// NewSourceRequest returns the SourceRequest naming file as the file
// currently being compiled.
func NewSourceRequest(file FileID) SourceRequest {
	return activeFileRequest{file: file}
}

func (r activeFileRequest) ActiveFile() FileID { return r.file }

var _ SourceRequest = activeFileRequest{}
