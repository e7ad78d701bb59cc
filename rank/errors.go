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


package rank

import "errors"

var (
	// ErrInvalidK1 is returned for a negative k1.
	ErrInvalidK1 = errors.New("k1 must not be negative")

	// ErrInvalidB is returned for a b outside [0, 1].
	ErrInvalidB = errors.New("b must be within [0, 1]")

	// ErrInvalidEpsilon is returned for a negative epsilon.
	ErrInvalidEpsilon = errors.New("epsilon must not be negative")
)
