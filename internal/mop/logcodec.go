package mop

import (
	"encoding/json"

	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// LogEntry is what an Operator proposes through the replicated log: an
// OperatorType tag plus the JSON-encoded request body. Grounded on
// master/catalog/applier.go's json.Unmarshal(data, args) dispatch style -
// the teacher's own proto package is hand-written plain structs rather than
// codegen'd wire-protobuf, so the Log Codec follows the same plain-JSON
// convention rather than pulling in gogo/protobuf or golang/protobuf purely
// for this one encode/decode path.
type LogEntry struct {
	Type OperatorType
	Body json.RawMessage
}

// EncodeLogEntry tags req with t and encodes it as a LogEntry payload
// suitable for Node.Propose.
func EncodeLogEntry(t OperatorType, req interface{}) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Info(err, "encode log entry body", t.String())
	}
	entry := LogEntry{Type: t, Body: body}
	raw, err := json.Marshal(entry)
	if err != nil {
		return nil, errors.Info(err, "encode log entry envelope", t.String())
	}
	return raw, nil
}

// DecodeLogEntry parses the envelope and returns its type tag and raw body,
// leaving the caller to unmarshal Body into the concrete request type that
// Type names.
func DecodeLogEntry(raw []byte) (OperatorType, json.RawMessage, error) {
	var entry LogEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return 0, nil, errors.Info(err, "decode log entry envelope")
	}
	return entry.Type, entry.Body, nil
}

// DecodeLogEntryBody unmarshals body into out, a pointer to the concrete
// per-variant request struct named by the entry's OperatorType.
func DecodeLogEntryBody(body json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Info(err, "decode log entry body")
	}
	return nil
}

// proposalEntry is what ProposeTask actually hands to Node.Propose: a
// LogEntry envelope plus the correlation id ApplyFromLog uses to find the
// live Operator waiting on this proposal (see operator.go's pendingOps).
// Kept distinct from LogEntry itself so wire uses that don't need
// correlation (e.g. GRPCServer's request/response envelopes) are unaffected.
type proposalEntry struct {
	ReqID string
	Type  OperatorType
	Body  json.RawMessage
}

// EncodeProposal tags req with t and reqID for one Node.Propose call.
func EncodeProposal(reqID string, t OperatorType, req interface{}) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Info(err, "encode proposal body", t.String())
	}
	raw, err := json.Marshal(proposalEntry{ReqID: reqID, Type: t, Body: body})
	if err != nil {
		return nil, errors.Info(err, "encode proposal envelope", t.String())
	}
	return raw, nil
}

// DecodeProposal parses a proposalEntry envelope back into its correlation
// id, type tag, and raw body.
func DecodeProposal(raw []byte) (reqID string, t OperatorType, body json.RawMessage, err error) {
	var entry proposalEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return "", 0, nil, errors.Info(err, "decode proposal envelope")
	}
	return entry.ReqID, entry.Type, entry.Body, nil
}
