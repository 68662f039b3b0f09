/* Copyright 2026 Jarrah Analytics

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       https://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License. */

package model

import (
	"context"
	"sync"
	"time"

	"github.com/jarrah-analytics/docusketch-utils/bq"
	"golang.org/x/sync/singleflight"
)

// How long a shared fetch may run once every caller has gone away.
const defaultFetchTimeout = 5 * time.Minute

// Cache memoizes query results by query text for a fixed window.
// Concurrent misses for the same key result in one fetch. Errors are
// not cached.
type Cache struct {
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
	x       sync.Mutex
	items   map[string]*cacheItem
	group   singleflight.Group
}

type cacheItem struct {
	rs        *bq.ResultSet
	fetchedAt time.Time
}

type fetchFunc func(ctx context.Context) (*bq.ResultSet, error)

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		timeout: defaultFetchTimeout,
		now:     time.Now,
		items:   make(map[string]*cacheItem),
	}
}

// Get returns the result set for key, calling fetch if there is none
// or it is older than the window. The time returned is when the
// result set was fetched.
//
// The fetch is shared by every caller waiting on key, so it does not
// stop when the ctx of the caller that started it is cancelled. A
// cancelled caller stops waiting and gets ctx.Err().
func (c *Cache) Get(ctx context.Context, key string, fetch fetchFunc) (*bq.ResultSet, time.Time, error) {
	if item := c.lookup(key); item != nil {
		return item.rs, item.fetchedAt, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		if item := c.lookup(key); item != nil { // filled while we waited
			return item, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		rs, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		item := &cacheItem{rs: rs, fetchedAt: c.now()}
		c.x.Lock()
		c.items[key] = item
		c.x.Unlock()
		return item, nil
	})

	select {
	case <-ctx.Done():
		return nil, time.Time{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, time.Time{}, res.Err
		}
		item := res.Val.(*cacheItem)
		return item.rs, item.fetchedAt, nil
	}
}

// Forget drops every entry, the next Get for any key fetches again.
func (c *Cache) Forget() {
	c.x.Lock()
	defer c.x.Unlock()
	c.items = make(map[string]*cacheItem)
}

func (c *Cache) lookup(key string) *cacheItem {
	c.x.Lock()
	defer c.x.Unlock()
	item, ok := c.items[key]
	if !ok {
		return nil
	}
	if c.now().Sub(item.fetchedAt) >= c.ttl {
		delete(c.items, key)
		return nil
	}
	return item
}
