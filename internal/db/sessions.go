package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

// ErrNoSession is returned when no server.started event exists.
var ErrNoSession = errors.New("no server session recorded")

// EventNode is one event with the events logged under it.
type EventNode struct {
	ID       int64          `json:"id"`
	Time     time.Time      `json:"time"`
	Type     string         `json:"event_type"`
	Payload  map[string]any `json:"payload,omitempty"`
	Children []*EventNode   `json:"children,omitempty"`
}

// LatestSessionID returns the id of the newest server.started event.
func LatestSessionID(database *sql.DB) (int64, error) {
	var id int64
	err := database.QueryRow(
		`SELECT id FROM events WHERE event_type = ? ORDER BY id DESC LIMIT 1`,
		EventServerStarted,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoSession
	}
	return id, err
}

// SessionTree loads rootID and all of its descendants.
func SessionTree(database *sql.DB, rootID int64) (*EventNode, error) {
	rows, err := database.Query(`
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM events WHERE id = ?
			UNION ALL
			SELECT e.id FROM events e JOIN subtree s ON e.parent_id = s.id
		)
		SELECT e.id, e.timestamp, e.parent_id, e.event_type, e.payload
		FROM events e
		WHERE e.id IN (SELECT id FROM subtree)
		ORDER BY e.id ASC
	`, rootID)
	if err != nil {
		return nil, fmt.Errorf("query session %d: %w", rootID, err)
	}
	defer rows.Close()

	byID := map[int64]*EventNode{}
	var order []*EventNode
	parents := map[int64]int64{}
	for rows.Next() {
		var (
			node     EventNode
			ts       int64
			parentID sql.NullInt64
			payload  sql.NullString
		)
		if err := rows.Scan(&node.ID, &ts, &parentID, &node.Type, &payload); err != nil {
			return nil, err
		}
		node.Time = time.Unix(ts, 0).UTC()
		if payload.Valid && payload.String != "" {
			// Payloads are written by LogEvent; anything else is shown without fields.
			_ = json.Unmarshal([]byte(payload.String), &node.Payload)
		}
		if parentID.Valid {
			parents[node.ID] = parentID.Int64
		}
		byID[node.ID] = &node
		order = append(order, &node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	root, ok := byID[rootID]
	if !ok {
		return nil, fmt.Errorf("event %d not found", rootID)
	}
	for _, node := range order {
		if node.ID == rootID {
			continue
		}
		if parent, ok := byID[parents[node.ID]]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return root, nil
}

// RenderTree writes root as an indented tree. maxDepth 0 means unlimited.
func RenderTree(w io.Writer, root *EventNode, maxDepth int) error {
	var b strings.Builder
	b.WriteString(eventLine(root) + "\n")
	renderChildren(&b, root, "", 2, maxDepth)
	_, err := io.WriteString(w, b.String())
	return err
}

func renderChildren(b *strings.Builder, node *EventNode, prefix string, depth, maxDepth int) {
	if len(node.Children) == 0 {
		return
	}
	if maxDepth > 0 && depth > maxDepth {
		b.WriteString(prefix + "└── [...]\n")
		return
	}
	for i, child := range node.Children {
		connector, indent := "├── ", "│   "
		if i == len(node.Children)-1 {
			connector, indent = "└── ", "    "
		}
		b.WriteString(prefix + connector + eventLine(child) + "\n")
		renderChildren(b, child, prefix+indent, depth+1, maxDepth)
	}
}

// eventLine renders "[id] time  type  key=value ..." with keys sorted.
func eventLine(node *EventNode) string {
	line := fmt.Sprintf("[%d] %s  %s", node.ID, node.Time.Format(time.DateTime), node.Type)
	keys := make([]string, 0, len(node.Payload))
	for k := range node.Payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line += "  " + k + "=" + payloadValue(node.Payload[k])
	}
	return line
}

func payloadValue(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > 80 {
			return fmt.Sprintf("%q", val[:80]+"...")
		}
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
