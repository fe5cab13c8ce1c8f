// internal/storage/redis/codec.go
package redis

import (
	"fmt"
	"strconv"
)

// Key scheme. One hash record per item keyed by its document ID, one sorted
// set per user keyed by the user ID (members = document IDs, scores = order),
// and a single global counter minting document IDs.
const (
	idCounterKey = "todo:id"

	fieldTitle     = "title"
	fieldOrder     = "order"
	fieldCompleted = "completed"
	fieldUserID    = "userID"
)

// encodeRecord projects an item onto the hash-field pairs exactly as the
// store expects them: order as its decimal string, completed as the literal
// "true"/"false".
func encodeRecord(item TodoItem) []interface{} {
	return []interface{}{
		fieldTitle, item.Title,
		fieldOrder, strconv.Itoa(item.Order),
		fieldCompleted, strconv.FormatBool(item.Completed),
		fieldUserID, item.UserID,
	}
}

// decodeRecord rebuilds a TodoItem from a raw hash reply. An empty reply
// (redis returns an empty map for a missing key) yields ErrNotFound; a reply
// with missing or undecodable fields yields ErrBadRecord.
func decodeRecord(documentID string, raw map[string]string) (TodoItem, error) {
	if len(raw) == 0 {
		return TodoItem{}, fmt.Errorf("%w: no record for id %s", ErrNotFound, documentID)
	}

	item := TodoItem{DocumentID: documentID}

	var ok bool
	if item.Title, ok = raw[fieldTitle]; !ok {
		return TodoItem{}, fmt.Errorf("%w: id %s: missing field %q", ErrBadRecord, documentID, fieldTitle)
	}
	if item.UserID, ok = raw[fieldUserID]; !ok || item.UserID == "" {
		return TodoItem{}, fmt.Errorf("%w: id %s: missing field %q", ErrBadRecord, documentID, fieldUserID)
	}

	orderStr, ok := raw[fieldOrder]
	if !ok {
		return TodoItem{}, fmt.Errorf("%w: id %s: missing field %q", ErrBadRecord, documentID, fieldOrder)
	}
	order, err := strconv.Atoi(orderStr)
	if err != nil {
		return TodoItem{}, fmt.Errorf("%w: id %s: order %q is not an integer", ErrBadRecord, documentID, orderStr)
	}
	item.Order = order

	switch raw[fieldCompleted] {
	case "true":
		item.Completed = true
	case "false":
		item.Completed = false
	default:
		return TodoItem{}, fmt.Errorf("%w: id %s: completed %q is not a boolean literal", ErrBadRecord, documentID, raw[fieldCompleted])
	}

	return item, nil
}
