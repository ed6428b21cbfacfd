package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Normalize はドキュメントをJSON互換の正規形に変換する。
// 数値は整数ならint64、それ以外はfloat64に、time.TimeはRFC3339Nano（UTC）文字列になる。
// PostgreSQL実装がJSONBから読み出す値と同じ形になるため、実装間で比較結果が一致する。
func Normalize(doc Document) (Document, error) {
	if doc == nil {
		return Document{}, nil
	}
	prepared := make(map[string]any, len(doc))
	for k, v := range doc {
		if t, ok := v.(time.Time); ok {
			prepared[k] = FormatTime(t)
			continue
		}
		prepared[k] = v
	}

	raw, err := json.Marshal(prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decodeDocument(raw)
}

// decodeDocument はJSONバイト列を正規形のドキュメントに変換する。
func decodeDocument(raw []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if m == nil {
		return Document{}, nil
	}
	return Document(convertNumbers(m).(map[string]any)), nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, err := t.Float64()
		if err != nil || math.IsInf(f, 0) {
			return t.String()
		}
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = convertNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = convertNumbers(inner)
		}
		return t
	default:
		return v
	}
}

// clone はドキュメントのシャローコピーを返す。正規化済みドキュメントに対して使用する。
func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
