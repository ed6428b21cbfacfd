package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// wrapWriteError は一意制約違反をErrDuplicateKeyに変換し、それ以外はそのまま包む。
func wrapWriteError(op, collection string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("failed to %s document in %s: %s: %w", op, collection, pqErr.Constraint, ErrDuplicateKey)
	}
	return fmt.Errorf("failed to %s document in %s: %w", op, collection, err)
}

// Postgres はPostgreSQLのdocumentsテーブル（JSONB）を使用したClient実装。
// テーブル定義はdatabaseパッケージのマイグレーションで作成する。
// *sql.DBのコネクションプールを共有するため並行利用に対して安全。
type Postgres struct {
	db *sql.DB
}

// NewPostgres はPostgresを生成する。
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Collection は指定名のコレクションを返す。
func (p *Postgres) Collection(name string) Collection {
	return &postgresCollection{db: p.db, name: name}
}

// Ping はデータベースへの疎通を確認する。
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

type postgresCollection struct {
	db   *sql.DB
	name string
}

// whereClause はフィルタをWHERE句と引数に変換する。
// _idはid列との比較、それ以外のフィールドはJSONBの包含演算子(@>)で評価する。
func (c *postgresCollection) whereClause(filter Document) (string, []any, error) {
	f, err := Normalize(filter)
	if err != nil {
		return "", nil, err
	}

	conds := []string{"collection = $1"}
	args := []any{c.name}

	if id, ok := f[IDField]; ok {
		delete(f, IDField)
		args = append(args, id)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if len(f) > 0 {
		raw, err := json.Marshal(f)
		if err != nil {
			return "", nil, fmt.Errorf("failed to encode filter: %w", err)
		}
		args = append(args, string(raw))
		conds = append(conds, fmt.Sprintf("body @> $%d::jsonb", len(args)))
	}

	return strings.Join(conds, " AND "), args, nil
}

func (c *postgresCollection) FindOne(ctx context.Context, filter Document) (Document, error) {
	where, args, err := c.whereClause(filter)
	if err != nil {
		return nil, err
	}

	var id string
	var body []byte
	err = c.db.QueryRowContext(ctx,
		`SELECT id, body FROM documents WHERE `+where+` ORDER BY created_at, id LIMIT 1`,
		args...,
	).Scan(&id, &body)
	if err == sql.ErrNoRows {
		return nil, ErrNoDocuments
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find document in %s: %w", c.name, err)
	}

	return withID(id, body)
}

func (c *postgresCollection) Find(ctx context.Context, filter Document) ([]Document, error) {
	where, args, err := c.whereClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT id, body FROM documents WHERE `+where+` ORDER BY created_at, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents in %s: %w", c.name, err)
	}
	defer rows.Close()

	result := []Document{}
	for rows.Next() {
		var id string
		var body []byte
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc, err := withID(id, body)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	return result, nil
}

func (c *postgresCollection) InsertOne(ctx context.Context, doc Document) (string, error) {
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
	delete(normalized, IDField)

	body, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, body, created_at)
		 VALUES ($1, $2, $3::jsonb, clock_timestamp())`,
		id, c.name, string(body),
	)
	if err != nil {
		return "", wrapWriteError("insert", c.name, err)
	}

	return id, nil
}

func (c *postgresCollection) UpdateOne(ctx context.Context, filter Document, set Document) (int64, error) {
	where, args, err := c.whereClause(filter)
	if err != nil {
		return 0, err
	}
	s, err := Normalize(set)
	if err != nil {
		return 0, err
	}
	delete(s, IDField)

	raw, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("failed to encode update: %w", err)
	}
	args = append(args, string(raw))

	result, err := c.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE documents SET body = body || $%d::jsonb
		 WHERE id = (SELECT id FROM documents WHERE %s ORDER BY created_at, id LIMIT 1)`, len(args), where),
		args...,
	)
	if err != nil {
		return 0, wrapWriteError("update", c.name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (c *postgresCollection) DeleteOne(ctx context.Context, filter Document) (int64, error) {
	where, args, err := c.whereClause(filter)
	if err != nil {
		return 0, err
	}

	result, err := c.db.ExecContext(ctx,
		`DELETE FROM documents
		 WHERE id = (SELECT id FROM documents WHERE `+where+` ORDER BY created_at, id LIMIT 1)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document from %s: %w", c.name, err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// withID はJSONB本文を正規形のドキュメントに変換し、_idを付与する。
func withID(id string, body []byte) (Document, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return nil, err
	}
	doc[IDField] = id
	return doc, nil
}

// compile-time interface check
var _ Client = (*Postgres)(nil)
