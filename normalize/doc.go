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


// Package normalize turns raw text into normalized tokens.
//
// The default Stemmer lowercases its input, splits on anything that is not an
// ASCII letter, drops stopwords and words shorter than three letters, and
// stems the rest with the Snowball english stemmer:
//
//	n, _ := normalize.New()
//	n.Normalize("The cats are running") // [cat run]
//
// Output is a pure function of input. The inverted index relies on this: a
// document's postings are diffed against tokens computed by a previous run.
package normalize
