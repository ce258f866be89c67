// Package entity provides the normalized in-memory store of server-owned
// records shared by every screen. Records are keyed by (Kind, ID); merges are
// last-write-wins per record and never prune keys absent from a batch.
//
// The Repository is owned by the single bubbletea update cycle and is not
// safe for concurrent use. Screens receive it through the read-only Reader
// interface.
package entity

// Kind is the closed set of record types held by the Repository.
type Kind int

const (
	KindSpace Kind = iota
	KindSpaceUser
	KindGroup
	KindPost
	KindReply
	KindPostReaction
	KindReplyReaction
	KindNotification
	KindUser
)

// kindNames is indexed by Kind.
var kindNames = [...]string{
	KindSpace:         "space",
	KindSpaceUser:     "space_user",
	KindGroup:         "group",
	KindPost:          "post",
	KindReply:         "reply",
	KindPostReaction:  "post_reaction",
	KindReplyReaction: "reply_reaction",
	KindNotification:  "notification",
	KindUser:          "user",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// ID is an opaque server-issued identifier.
type ID string

// Record is any server-owned value that can live in the Repository.
type Record interface {
	EntityKind() Kind
	EntityID() ID
}

// Key addresses a single record.
type Key struct {
	Kind Kind
	ID   ID
}

// KeyOf returns the key a record is stored under.
func KeyOf(r Record) Key {
	return Key{Kind: r.EntityKind(), ID: r.EntityID()}
}

// Batch is a heterogeneous set of records returned by a query or carried by
// a realtime event.
type Batch []Record

// Add appends records to the batch, skipping nils.
func (b Batch) Add(recs ...Record) Batch {
	for _, r := range recs {
		if r != nil {
			b = append(b, r)
		}
	}
	return b
}

// Reader is the read-only view handed to screens.
type Reader interface {
	Get(kind Kind, id ID) (Record, bool)
	AllOfKind(kind Kind) []Record
}

// bucket holds the records of one kind plus their first-insertion order.
type bucket struct {
	records map[ID]Record
	order   []ID
}

// Repository is the normalized entity cache.
type Repository struct {
	buckets map[Kind]*bucket
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{buckets: make(map[Kind]*bucket)}
}

func (r *Repository) bucket(kind Kind) *bucket {
	b, ok := r.buckets[kind]
	if !ok {
		b = &bucket{records: make(map[ID]Record)}
		r.buckets[kind] = b
	}
	return b
}

// Union merges every record of batch into the repository. A record replaces
// any existing record with the same key; keys absent from batch are kept.
func (r *Repository) Union(batch Batch) *Repository {
	for _, rec := range batch {
		if rec == nil {
			continue
		}
		r.put(rec)
	}
	return r
}

// SetOne upserts a single record.
func (r *Repository) SetOne(rec Record) *Repository {
	if rec != nil {
		r.put(rec)
	}
	return r
}

func (r *Repository) put(rec Record) {
	b := r.bucket(rec.EntityKind())
	id := rec.EntityID()
	if _, exists := b.records[id]; !exists {
		b.order = append(b.order, id)
	}
	b.records[id] = rec
}

// RemoveOne deletes exactly the record at (kind, id). Removing a missing key
// is a no-op.
func (r *Repository) RemoveOne(kind Kind, id ID) *Repository {
	b, ok := r.buckets[kind]
	if !ok {
		return r
	}
	if _, exists := b.records[id]; !exists {
		return r
	}
	delete(b.records, id)
	for i, oid := range b.order {
		if oid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return r
}

// RemoveWhere deletes every record of kind for which match returns true and
// reports how many were removed.
func (r *Repository) RemoveWhere(kind Kind, match func(Record) bool) int {
	b, ok := r.buckets[kind]
	if !ok {
		return 0
	}
	kept := b.order[:0]
	removed := 0
	for _, id := range b.order {
		if match(b.records[id]) {
			delete(b.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	b.order = kept
	return removed
}

// Get looks up a record. A miss means "not loaded yet" and is not an error.
func (r *Repository) Get(kind Kind, id ID) (Record, bool) {
	b, ok := r.buckets[kind]
	if !ok {
		return nil, false
	}
	rec, ok := b.records[id]
	return rec, ok
}

// AllOfKind returns the records of kind in first-insertion order. The
// returned slice is a copy.
func (r *Repository) AllOfKind(kind Kind) []Record {
	b, ok := r.buckets[kind]
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.records[id])
	}
	return out
}

// Len returns the total number of records across all kinds.
func (r *Repository) Len() int {
	n := 0
	for _, b := range r.buckets {
		n += len(b.records)
	}
	return n
}

// LenOfKind returns the number of records of one kind.
func (r *Repository) LenOfKind(kind Kind) int {
	if b, ok := r.buckets[kind]; ok {
		return len(b.records)
	}
	return 0
}

// Keys returns every key currently stored, grouped by kind in declaration
// order and insertion order within a kind.
func (r *Repository) Keys() []Key {
	var keys []Key
	for _, k := range Kinds() {
		b, ok := r.buckets[k]
		if !ok {
			continue
		}
		for _, id := range b.order {
			keys = append(keys, Key{Kind: k, ID: id})
		}
	}
	return keys
}
