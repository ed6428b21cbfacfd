package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"
)

// Memory はプロセス内メモリにドキュメントを保持するClient実装。
// テストおよびSTORE=memoryでのローカル開発に使用する。
type Memory struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewMemory は空のMemoryを生成する。
func NewMemory() *Memory {
	return &Memory{collections: make(map[string][]Document)}
}

// Collection は指定名のコレクションを返す。
func (m *Memory) Collection(name string) Collection {
	return &memoryCollection{store: m, name: name}
}

// Ping は常に成功する。
func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memoryCollection struct {
	store *Memory
	name  string
}

func (c *memoryCollection) FindOne(ctx context.Context, filter Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := Normalize(filter)
	if err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	for _, doc := range c.store.collections[c.name] {
		if matches(doc, f) {
			return clone(doc), nil
		}
	}
	return nil, ErrNoDocuments
}

func (c *memoryCollection) Find(ctx context.Context, filter Document) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := Normalize(filter)
	if err != nil {
		return nil, err
	}

	c.store.mu.RLock()
	defer c.store.mu.RUnlock()

	result := []Document{}
	for _, doc := range c.store.collections[c.name] {
		if matches(doc, f) {
			result = append(result, clone(doc))
		}
	}
	return result, nil
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized, err := Normalize(doc)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	if given, ok := normalized[IDField].(string); ok {
		parsed, err := uuid.Parse(given)
		if err != nil {
			return "", fmt.Errorf("invalid document id %q: %w", given, err)
		}
		id = parsed.String()
	}
	normalized[IDField] = id

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, existing := range c.store.collections[c.name] {
		if existing[IDField] == id {
			return "", fmt.Errorf("duplicate document id: %s", id)
		}
	}
	if key, ok := c.conflict(normalized, ""); ok {
		return "", fmt.Errorf("failed to insert document into %s: %s: %w", c.name, key, ErrDuplicateKey)
	}
	c.store.collections[c.name] = append(c.store.collections[c.name], normalized)
	return id, nil
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter Document, set Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := Normalize(filter)
	if err != nil {
		return 0, err
	}
	s, err := Normalize(set)
	if err != nil {
		return 0, err
	}
	delete(s, IDField)

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	for _, doc := range c.store.collections[c.name] {
		if matches(doc, f) {
			merged := clone(doc)
			for k, v := range s {
				merged[k] = v
			}
			id, _ := doc[IDField].(string)
			if key, ok := c.conflict(merged, id); ok {
				return 0, fmt.Errorf("failed to update document in %s: %s: %w", c.name, key, ErrDuplicateKey)
			}
			for k, v := range s {
				doc[k] = v
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := Normalize(filter)
	if err != nil {
		return 0, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	docs := c.store.collections[c.name]
	for i, doc := range docs {
		if matches(doc, f) {
			c.store.collections[c.name] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// conflict はdocの一意フィールドがskipID以外の既存ドキュメントと重複する場合にそのフィールド名を返す。
// 値が未設定のフィールドは検査しない。呼び出し側でロックを保持すること。
func (c *memoryCollection) conflict(doc Document, skipID string) (string, bool) {
	key, ok := UniqueKeys[c.name]
	if !ok {
		return "", false
	}
	v, ok := doc[key]
	if !ok || v == nil {
		return "", false
	}
	for _, existing := range c.store.collections[c.name] {
		if existing[IDField] == skipID {
			continue
		}
		if reflect.DeepEqual(existing[key], v) {
			return key, true
		}
	}
	return "", false
}

// matches はドキュメントがフィルタの全フィールドと等値一致するかを判定する。
func matches(doc, filter Document) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// compile-time interface check
var _ Client = (*Memory)(nil)
