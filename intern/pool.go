// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

// Package intern provides a capacity-bounded pool that lets many pushed
// rows share one backing string per distinct column value, realizing the
// "Values are cheap to clone (share underlying storage)" property of
// metacache.Value without metacache.Value itself needing to know about
// pooling.
package intern

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tsdbkit/metacache/metacache"
)

// DefaultCapacity bounds how many distinct strings a Pool holds before it
// starts evicting the least recently used ones. Eviction only affects
// future lookups: a metacache.Value already embedded in a cache's tree
// keeps working whether or not it is still present in the pool.
const DefaultCapacity = 1 << 20

// Pool interns strings into shared metacache.Value instances.
type Pool struct {
	cache *lru.Cache[string, metacache.Value]
}

// New builds a Pool bounded to capacity distinct strings. capacity <= 0
// uses DefaultCapacity.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, metacache.Value](capacity)
	if err != nil {
		// Only returned by golang-lru when capacity <= 0, which cannot
		// happen here; a Pool is otherwise infallible to construct.
		panic(err)
	}
	return &Pool{cache: c}
}

// Intern returns a metacache.Value for s, reusing a previously interned
// one for the same string when present.
func (p *Pool) Intern(s string) metacache.Value {
	if v, ok := p.cache.Get(s); ok {
		return v
	}
	v := metacache.NewValue(s)
	p.cache.Add(s, v)
	return v
}

// Len reports how many distinct strings are currently interned.
func (p *Pool) Len() int { return p.cache.Len() }
