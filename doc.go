/*
Package victionary implements the host-side registry for custom extension
types and functions, plus the transaction-aware metadata cache that serves
them to the DDL and query layers.

We implement:

1. Normalized keys, turning typed identifier tuples into one lowercase
string that alone defines equality, ordering and prefix matching.

2. Descriptors, the immutable runtime records of loaded extensions and
their custom types, holding direct function references.

3. The Client, a six-collection cache keyed by normalized strings: three
collections (properties, custom columns, extensions) persist to a Store;
replicas rebuild them from replicated DDL, not from these rows. Three
(type descriptors, extension descriptors, type contexts) are memory-only
and rebuilt from loaded modules.

4. Transactional buffering: writes made inside a host transaction are
buffered per Txn and invisible to other transactions until CommitAll;
WriteUncommitted flushes the replicable part to the Store ahead of the
commit point.

The extension-facing ABI and its chainable builders live in the vef
subpackage; version parsing lives in semver.

# Lock discipline

One reader/writer lock guards all six collections. Read/ReadErr take it
shared, Write/CommitAll/RollbackAll take it exclusive. Entries are
immutable once inserted, so values obtained under the lock stay safe to
read after it is released; only cache membership needs the lock.

# Persisted form

Each replicable entry is one physical row: the normalized key string maps
to a msgpack row carrying the original component spellings. Buckets are
flat, one per collection.
*/
package victionary
