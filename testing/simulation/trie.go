package simulation

import (
	"bytes"
	"os"
	"sort"

	"github.com/ChainSafe/chaindb"
	"github.com/ChainSafe/gossamer/lib/trie"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/pkg/errors"

	commitmenttypes "github.com/ComposableFi/centauri/modules/core/23-commitment/types"
)

// Entry is a key value pair of a state trie.
type Entry struct {
	Key   []byte
	Value []byte
}

// TrieStore commits sets of entries into substrate state tries persisted in an
// in-memory database, and proves keys of every trie committed so far.
type TrieStore struct {
	db  *chaindb.BadgerDB
	dir string
	// keys of every committed trie, sorted
	keys map[types.Hash][][]byte
}

// NewTrieStore opens a trie database in a fresh temporary directory, removed
// again by Close.
func NewTrieStore() (*TrieStore, error) {
	dir, err := os.MkdirTemp("", "centauri-trie-")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create trie database directory")
	}
	db, err := chaindb.NewBadgerDB(&chaindb.Config{DataDir: dir})
	if err != nil {
		os.RemoveAll(dir)
		return nil, errors.Wrap(err, "failed to open trie database")
	}
	return &TrieStore{db: db, dir: dir, keys: make(map[types.Hash][][]byte)}, nil
}

// Commit builds the trie of entries, persists its nodes and returns the root.
func (s *TrieStore) Commit(entries []Entry) (types.Hash, error) {
	t := trie.NewEmptyTrie()
	for _, entry := range entries {
		t.Put(entry.Key, entry.Value)
	}

	root, err := t.Hash()
	if err != nil {
		return types.Hash{}, errors.Wrap(err, "failed to hash trie")
	}
	if len(entries) == 0 {
		return types.Hash(root), nil
	}
	if err := t.Store(s.db); err != nil {
		return types.Hash{}, errors.Wrap(err, "failed to store trie")
	}

	keys := make([][]byte, len(entries))
	for i, entry := range entries {
		keys[i] = entry.Key
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })
	s.keys[types.Hash(root)] = keys
	return types.Hash(root), nil
}

// Prove returns the encoded trie nodes proving keys in the trie with root.
// Keys absent from the trie are proven absent by the path of the present key
// sharing the longest nibble prefix with them, which ends at the node where
// the absent key diverges.
func (s *TrieStore) Prove(root types.Hash, keys ...[]byte) ([][]byte, error) {
	committed, ok := s.keys[root]
	if !ok {
		return nil, errors.Errorf("no trie committed under root %x", root)
	}

	proven := make([][]byte, len(keys))
	for i, key := range keys {
		proven[i] = closestKey(committed, key)
	}

	nodes, err := trie.GenerateProof(root[:], proven, s.db)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to generate proof under root %x", root)
	}
	return nodes, nil
}

func closestKey(sorted [][]byte, key []byte) []byte {
	i := sort.Search(len(sorted), func(i int) bool { return bytes.Compare(sorted[i], key) >= 0 })
	if i < len(sorted) && bytes.Equal(sorted[i], key) {
		return key
	}

	// the longest common prefix is shared with one of the sorted neighbours
	var closest []byte
	longest := -1
	for _, j := range []int{i - 1, i} {
		if j < 0 || j >= len(sorted) {
			continue
		}
		if n := commonNibbles(sorted[j], key); n > longest {
			closest, longest = sorted[j], n
		}
	}
	return closest
}

func commonNibbles(a, b []byte) int {
	n := 0
	for ; n < len(a) && n < len(b); n++ {
		if a[n] != b[n] {
			if a[n]>>4 == b[n]>>4 {
				return 2*n + 1
			}
			return 2 * n
		}
	}
	return 2 * n
}

// Close releases the database and removes its directory. It is safe to call on
// a nil store and more than once.
func (s *TrieStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if rmErr := os.RemoveAll(s.dir); err == nil {
		err = rmErr
	}
	return err
}

// IBCEntries maps the IBC store into state trie entries: every store key is
// committed under the "ibc" prefix with the hash of its key and value.
func IBCEntries(store sdk.KVStore) ([]Entry, error) {
	prefix := commitmenttypes.NewMerklePrefix([]byte(commitmenttypes.DefaultPrefix))

	iterator := store.Iterator(nil, nil)
	defer iterator.Close()

	var entries []Entry
	for ; iterator.Valid(); iterator.Next() {
		key, err := commitmenttypes.ApplyPrefix(prefix, string(iterator.Key()))
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: commitmenttypes.CommitValue(key, iterator.Value())})
	}
	return entries, nil
}
