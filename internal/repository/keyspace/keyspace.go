// Package keyspace names the Redis/Valkey keys that back a poem collection.
//
// Layout for collection "poems" under prefix "poemdex:":
//
//	poemdex:collection:poems   metadata hash
//	poemdex:poems:idx          FT index
//	poemdex:poems:rec:<id>     one record hash
package keyspace

import (
	"strconv"

	"github.com/kailas-cloud/poemdex/internal/domain"
)

// Keyspace renders keys under a fixed prefix.
type Keyspace struct {
	prefix string
}

// New returns a Keyspace. An empty prefix falls back to domain.DefaultKeyPrefix.
func New(prefix string) Keyspace {
	if prefix == "" {
		prefix = domain.DefaultKeyPrefix
	}
	return Keyspace{prefix: prefix}
}

// Prefix returns the namespace prefix.
func (k Keyspace) Prefix() string { return k.prefix }

// Meta is the metadata hash of a collection.
func (k Keyspace) Meta(collection string) string {
	return k.prefix + "collection:" + collection
}

// Index is the FT index name of a collection.
func (k Keyspace) Index(collection string) string {
	return k.prefix + collection + ":idx"
}

// RecordPrefix is the key prefix the FT index watches.
func (k Keyspace) RecordPrefix(collection string) string {
	return k.prefix + collection + ":rec:"
}

// Record is the hash key of one record.
func (k Keyspace) Record(collection string, id int64) string {
	return k.RecordPrefix(collection) + strconv.FormatInt(id, 10)
}

// EmbeddingCache is the KV key of one cached embedding.
func (k Keyspace) EmbeddingCache(digest string) string {
	return k.prefix + "emb_cache:" + digest
}
