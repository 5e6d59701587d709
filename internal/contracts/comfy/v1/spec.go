package v1

// Wire shapes of the ComfyUI HTTP API (v1 of this client's contract).
//   - POST /prompt        body PromptRequest, reply PromptResponse
//   - GET  /history/{id}  reply History, keyed by prompt id; the key is
//     absent until the server has started tracking the prompt

import (
	"encoding/json"
	"sort"
	"strconv"
)

// StatusError is the status_str the server reports for a failed execution.
const StatusError = "error"

// PromptRequest wraps a job graph for submission.
type PromptRequest struct {
	Prompt   any    `json:"prompt"`
	ClientID string `json:"client_id,omitempty"`
}

type PromptResponse struct {
	PromptID   string         `json:"prompt_id"`
	Number     int            `json:"number"`
	NodeErrors map[string]any `json:"node_errors,omitempty"`
}

type History map[string]HistoryEntry

type HistoryEntry struct {
	Status  Status                `json:"status"`
	Outputs map[string]NodeOutput `json:"outputs"`
}

// Status is the execution status block. Messages are kept raw; their
// shape varies between server versions.
type Status struct {
	StatusStr string            `json:"status_str"`
	Completed bool              `json:"completed"`
	Messages  []json.RawMessage `json:"messages,omitempty"`
}

// NodeOutput holds one node's media lists keyed by kind ("gifs", "images",
// "audio"), undecoded.
type NodeOutput map[string]json.RawMessage

type FileRef struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
	Format    string `json:"format,omitempty"`
}

// Files decodes the media list under key. Entries that do not decode as
// files, or lack a filename, are skipped.
func (o NodeOutput) Files(key string) []FileRef {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var out []FileRef
	for _, item := range items {
		var f FileRef
		if err := json.Unmarshal(item, &f); err != nil || f.Filename == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Failed reports whether the server marked the execution as errored.
func (e *HistoryEntry) Failed() bool {
	return e.Status.StatusStr == StatusError
}

// Finished reports whether the execution completed successfully. Some
// server versions omit the completed flag but still publish outputs.
func (e *HistoryEntry) Finished() bool {
	return e.Status.Completed || len(e.Outputs) > 0
}

// Filenames lists the produced files under the given media keys, nodes in
// numeric id order.
func (e *HistoryEntry) Filenames(keys ...string) []string {
	ids := make([]string, 0, len(e.Outputs))
	for id := range e.Outputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})

	var out []string
	for _, id := range ids {
		for _, key := range keys {
			for _, f := range e.Outputs[id].Files(key) {
				out = append(out, f.Filename)
			}
		}
	}
	return out
}

// ExecutionError is the payload of an "execution_error" status message.
type ExecutionError struct {
	NodeID           string `json:"node_id"`
	NodeType         string `json:"node_type"`
	ExceptionType    string `json:"exception_type"`
	ExceptionMessage string `json:"exception_message"`
}

// ExecutionError returns the first execution_error message, if any.
func (s Status) ExecutionError() (ExecutionError, bool) {
	for _, raw := range s.Messages {
		var msg []json.RawMessage
		if err := json.Unmarshal(raw, &msg); err != nil || len(msg) != 2 {
			continue
		}
		var kind string
		if err := json.Unmarshal(msg[0], &kind); err != nil || kind != "execution_error" {
			continue
		}
		var ee ExecutionError
		if err := json.Unmarshal(msg[1], &ee); err != nil {
			continue
		}
		return ee, true
	}
	return ExecutionError{}, false
}

// String summarizes the status for a progress line.
func (s Status) String() string {
	out := "status_str=" + s.StatusStr + " completed=" + strconv.FormatBool(s.Completed)
	if ee, ok := s.ExecutionError(); ok {
		out += " node=" + ee.NodeID
		if ee.NodeType != "" {
			out += " (" + ee.NodeType + ")"
		}
		if ee.ExceptionMessage != "" {
			out += ": " + ee.ExceptionMessage
		}
	}
	return out
}
