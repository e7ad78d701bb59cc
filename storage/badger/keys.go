// Copyright 2025 Poiesic Systems
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


package badger

import (
	"encoding/binary"

	"github.com/poiesic/crawlsearch/core"
)

const (
	documentPrefix    = "doc:"
	documentURLPrefix = "url:"
	documentIDSeq     = "seq:doc"
	postingPrefix     = "tok:"
	chunkPrefix       = "chk:"
)

// Key separator between a variable-length component and a fixed-width suffix.
// Tokens are lowercase letters and URLs never contain NUL, so it cannot collide.
const keySep = 0x00

// makeDocumentKey builds "doc:" + big-endian ID so documents iterate in ID order.
func makeDocumentKey(id core.ID) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

func makeDocumentURLKey(url string) []byte {
	return []byte(documentURLPrefix + url)
}

// makePartialPostingKey builds the prefix shared by every posting of token.
func makePartialPostingKey(token string) []byte {
	buf := make([]byte, len(postingPrefix)+len(token)+1)
	offset := copy(buf, postingPrefix)
	offset += copy(buf[offset:], token)
	buf[offset] = keySep
	return buf
}

// makePostingKey builds "tok:" + token + NUL + big-endian document ID.
// The key alone carries the posting; values are empty.
func makePostingKey(token string, id core.ID) []byte {
	partial := makePartialPostingKey(token)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// parsePostingKey splits a posting key into its token and document ID.
func parsePostingKey(key []byte) (string, core.ID, bool) {
	if len(key) < len(postingPrefix)+1+8 {
		return "", 0, false
	}
	sep := len(key) - 9
	if key[sep] != keySep {
		return "", 0, false
	}
	token := string(key[len(postingPrefix):sep])
	return token, core.ID(binary.BigEndian.Uint64(key[sep+1:])), true
}

func makePartialChunkKey(url string) []byte {
	buf := make([]byte, len(chunkPrefix)+len(url)+1)
	offset := copy(buf, chunkPrefix)
	offset += copy(buf[offset:], url)
	buf[offset] = keySep
	return buf
}

// makeChunkKey builds "chk:" + url + NUL + big-endian chunk index.
func makeChunkKey(url string, index int) []byte {
	partial := makePartialChunkKey(url)
	buf := make([]byte, len(partial)+8)
	offset := copy(buf, partial)
	binary.BigEndian.PutUint64(buf[offset:], uint64(index))
	return buf
}
