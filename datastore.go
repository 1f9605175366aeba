package feedcrawler

import (
	"sort"
	"sync"
	"time"
)

// memoryStore holds every URL collection and extracted record for one run.
// The feed files are the only durable output of a crawl, so all bookkeeping
// lives in the process: a run starts empty and leaves nothing behind.
//
// URLs are unique per collection, mirroring a unique index: inserting a URL
// twice keeps the first entry. Records are unique per product id.
type memoryStore struct {
	mu      sync.Mutex
	urls    map[string]map[string]*UrlCollection
	order   map[string][]string
	records map[string]ProductRecord
	recIds  []string
	dupes   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		urls:    make(map[string]map[string]*UrlCollection),
		order:   make(map[string][]string),
		records: make(map[string]ProductRecord),
	}
}

// insert adds urlCollections to collection, skipping URLs already present.
// It returns the number actually inserted.
func (s *memoryStore) insert(collection string, urlCollections []UrlCollection) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.urls[collection]
	if !ok {
		entries = make(map[string]*UrlCollection)
		s.urls[collection] = entries
	}

	inserted := 0
	for _, uc := range urlCollections {
		if uc.Url == "" {
			continue
		}
		if _, exists := entries[uc.Url]; exists {
			continue
		}
		entry := &UrlCollection{
			Url:       uc.Url,
			Parent:    uc.Parent,
			MetaData:  uc.MetaData,
			CreatedAt: time.Now(),
		}
		entries[uc.Url] = entry
		s.order[collection] = append(s.order[collection], uc.Url)
		inserted++
	}
	return inserted
}

// pending returns the entries still waiting for a successful crawl: not yet
// complete, not permanently failed, and under the attempt ceiling. Insertion
// order is preserved.
func (s *memoryStore) pending(collection string, maxRetryAttempts int) []UrlCollection {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []UrlCollection
	for _, u := range s.order[collection] {
		entry := s.urls[collection][u]
		if entry.Status || entry.Permanent {
			continue
		}
		if entry.Attempts > maxRetryAttempts {
			continue
		}
		out = append(out, *entry)
	}
	return out
}

func (s *memoryStore) markComplete(collection, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.urls[collection][url]; ok {
		now := time.Now()
		entry.Status = true
		entry.UpdatedAt = &now
	}
}

func (s *memoryStore) markError(collection, url, errorLog string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.urls[collection][url]; ok {
		now := time.Now()
		entry.Error = true
		entry.ErrorLog = errorLog
		entry.Attempts++
		entry.UpdatedAt = &now
	}
}

// markFailed records a permanent failure; the entry never re-enters the
// pending set.
func (s *memoryStore) markFailed(collection, url, errorLog string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.urls[collection][url]; ok {
		now := time.Now()
		entry.Error = true
		entry.ErrorLog = errorLog
		entry.Permanent = true
		entry.Attempts++
		entry.UpdatedAt = &now
	}
}

func (s *memoryStore) count(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order[collection])
}

// failedCount counts entries that exhausted their retries or failed
// permanently.
func (s *memoryStore) failedCount(collection string, maxRetryAttempts int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	failed := 0
	for _, u := range s.order[collection] {
		entry := s.urls[collection][u]
		if entry.Status {
			continue
		}
		if entry.Permanent || entry.Attempts > maxRetryAttempts {
			failed++
		}
	}
	return failed
}

// saveRecord stores rec unless its id was seen before. The first record
// wins; duplicates are counted and dropped.
func (s *memoryStore) saveRecord(rec ProductRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.Id]; exists {
		s.dupes++
		return false
	}
	s.records[rec.Id] = rec
	s.recIds = append(s.recIds, rec.Id)
	return true
}

// productRecords returns every stored record sorted by id, so downstream
// output is stable regardless of crawl interleaving.
func (s *memoryStore) productRecords() []ProductRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(s.recIds))
	copy(ids, s.recIds)
	sort.Strings(ids)

	out := make([]ProductRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out
}

func (s *memoryStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recIds)
}

func (s *memoryStore) duplicateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dupes
}

// insert seeds destination URLs discovered while crawling parent.
func (app *Crawler) insert(collection string, urlCollections []UrlCollection) int {
	return app.store.insert(collection, urlCollections)
}

// getUrlCollections returns the URLs of collection still eligible for a
// crawl attempt.
func (app *Crawler) getUrlCollections(collection string) []UrlCollection {
	return app.store.pending(collection, app.engine.MaxRetryAttempts)
}

func (app *Crawler) markAsComplete(url, collection string) {
	app.store.markComplete(collection, url)
}

func (app *Crawler) markAsError(url, collection, errorLog string) {
	app.store.markError(collection, url, errorLog)
}

func (app *Crawler) markAsFailed(url, collection, errorLog string) {
	app.store.markFailed(collection, url, errorLog)
}

// Records returns the run's extracted products sorted by id.
func (app *Crawler) Records() []ProductRecord {
	return app.store.productRecords()
}
