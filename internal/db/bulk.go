package db

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BulkAction is one "index this document under this id" directive plus its body.
type BulkAction struct {
	Index    string
	ID       string
	Document map[string]any
}

// BulkRequest is a batch of index actions through an optional ingest pipeline.
type BulkRequest struct {
	Pipeline string
	Actions  []BulkAction
}

type bulkDirective struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

// Body encodes the request as NDJSON: each directive line followed by its document line.
func (r *BulkRequest) Body() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range r.Actions {
		a := &r.Actions[i]
		if err := enc.Encode(bulkDirective{Index: bulkTarget{Index: a.Index, ID: a.ID}}); err != nil {
			return nil, fmt.Errorf("encode directive %s: %w", a.ID, err)
		}
		if err := enc.Encode(a.Document); err != nil {
			return nil, fmt.Errorf("encode document %s: %w", a.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// BulkResponse is the engine reply to a bulk request.
type BulkResponse struct {
	Took   int                      `json:"took"`
	Errors bool                     `json:"errors"`
	Items  []map[string]BulkItemRes `json:"items"`
}

// BulkItemRes is the per-document outcome.
type BulkItemRes struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Error  *BulkItemReason `json:"error,omitempty"`
}

// BulkItemReason describes a rejected document.
type BulkItemReason struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Failures returns rejected items keyed by document id.
func (r *BulkResponse) Failures() map[string]string {
	if r == nil || !r.Errors {
		return nil
	}
	out := map[string]string{}
	for _, item := range r.Items {
		for _, res := range item {
			if res.Error == nil {
				continue
			}
			out[res.ID] = fmt.Sprintf("%s: %s", res.Error.Type, res.Error.Reason)
		}
	}
	return out
}
