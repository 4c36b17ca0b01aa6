package mongostore

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// normalize rewrites a decoded BSON value into the plain representation the
// model layer loads from: driver arrays become []any, documents become
// map[string]any and BSON datetimes become time.Time in the local zone.
func normalize(value any) any {
	switch t := value.(type) {
	case bson.M:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = normalize(v)
		}
		return doc
	case bson.D:
		doc := make(map[string]any, len(t))
		for _, e := range t {
			doc[e.Key] = normalize(e.Value)
		}
		return doc
	case map[string]any:
		doc := make(map[string]any, len(t))
		for k, v := range t {
			doc[k] = normalize(v)
		}
		return doc
	case bson.A:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = normalize(v)
		}
		return lst
	case []any:
		lst := make([]any, len(t))
		for n, v := range t {
			lst[n] = normalize(v)
		}
		return lst
	case primitive.DateTime:
		return t.Time().Local()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return value
	}
}

func normalizeDoc(doc bson.M) map[string]any {
	out, _ := normalize(doc).(map[string]any)
	return out
}
