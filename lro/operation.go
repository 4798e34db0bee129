// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro

import (
	"fmt"
	"sync"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	rpcstatus "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/known/anypb"
)

// State is the observed state of an operation.
type State int

const (
	// StateRunning indicates the server has not reported completion.
	StateRunning State = iota
	// StateSucceeded indicates the operation completed with a response.
	StateSucceeded
	// StatePartiallySucceeded indicates the operation completed with a response
	// while reporting failures of some of its parts.
	StatePartiallySucceeded
	// StateFailed indicates the operation completed with an error.
	StateFailed
	// StateCancelled indicates the server acknowledged a cancellation.
	StateCancelled
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StatePartiallySucceeded:
		return "partially_succeeded"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s is a final state.
func (s State) Terminal() bool { return s != StateRunning }

// Operation is a handle to a server-side long-running operation.
//
// Its fields are refreshed by [Driver.Poll]; it is safe for concurrent use.
type Operation struct {
	name string

	// verb and resource label errors and log lines.
	verb     string
	resource string

	mu  sync.Mutex
	raw *longrunningpb.Operation
}

// NewOperation returns a handle for the operation called name.
func NewOperation(name, verb, resource string) *Operation {
	return &Operation{
		name:     name,
		verb:     verb,
		resource: resource,
		raw:      &longrunningpb.Operation{Name: name},
	}
}

// FromProto returns a handle initialized from a fetched operation.
func FromProto(op *longrunningpb.Operation, verb, resource string) *Operation {
	o := NewOperation(op.GetName(), verb, resource)
	o.raw = op
	return o
}

// Name returns the operation name.
func (o *Operation) Name() string { return o.name }

// Verb returns the SDK operation that started it, e.g. "ModelMonitor.Create".
func (o *Operation) Verb() string { return o.verb }

// Resource returns the resource the operation acts on, if known.
func (o *Operation) Resource() string { return o.resource }

// Proto returns the last fetched operation.
func (o *Operation) Proto() *longrunningpb.Operation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.raw
}

func (o *Operation) set(raw *longrunningpb.Operation) {
	o.mu.Lock()
	o.raw = raw
	o.mu.Unlock()
}

// Done reports whether the server reported completion.
func (o *Operation) Done() bool { return o.Proto().GetDone() }

// Error returns the error status of a failed or cancelled operation.
func (o *Operation) Error() *rpcstatus.Status { return o.Proto().GetError() }

// State returns the observed state.
func (o *Operation) State() State {
	raw := o.Proto()
	if !raw.GetDone() {
		return StateRunning
	}
	if st := raw.GetError(); st != nil {
		if codes.Code(st.GetCode()) == codes.Canceled {
			return StateCancelled
		}
		return StateFailed
	}
	if len(PartialFailures(raw.GetMetadata())) > 0 {
		return StatePartiallySucceeded
	}
	return StateSucceeded
}

// PartialFailures returns the partial failures reported in the metadata.
func (o *Operation) PartialFailures() []*rpcstatus.Status {
	return PartialFailures(o.Proto().GetMetadata())
}

// Metadata decodes the operation metadata into out.
func (o *Operation) Metadata(out proto.Message) error {
	md := o.Proto().GetMetadata()
	if md == nil {
		return nil
	}
	if err := md.UnmarshalTo(out); err != nil {
		return fmt.Errorf("decode metadata of %s: %w", o.name, err)
	}
	return nil
}

// PartialFailures extracts the partial_failures of a metadata message.
//
// Metadata messages carry them in a nested generic_metadata message; both that
// layout and a top-level partial_failures field are recognized.
func PartialFailures(md *anypb.Any) []*rpcstatus.Status {
	if md == nil {
		return nil
	}
	m, err := md.UnmarshalNew()
	if err != nil {
		return nil
	}
	return partialFailures(m.ProtoReflect(), 0)
}

func partialFailures(m protoreflect.Message, depth int) []*rpcstatus.Status {
	if depth > 2 {
		return nil
	}
	fields := m.Descriptor().Fields()
	if fd := fields.ByName("partial_failures"); fd != nil && fd.IsList() && fd.Message() != nil {
		list := m.Get(fd).List()
		out := make([]*rpcstatus.Status, 0, list.Len())
		for i := range list.Len() {
			if st := asStatus(list.Get(i).Message().Interface()); st != nil {
				out = append(out, st)
			}
		}
		return out
	}
	if fd := fields.ByName("generic_metadata"); fd != nil && fd.Message() != nil && m.Has(fd) {
		return partialFailures(m.Get(fd).Message(), depth+1)
	}
	return nil
}

func asStatus(m proto.Message) *rpcstatus.Status {
	if st, ok := m.(*rpcstatus.Status); ok {
		return st
	}
	b, err := proto.Marshal(m)
	if err != nil {
		return nil
	}
	st := new(rpcstatus.Status)
	if err := proto.Unmarshal(b, st); err != nil {
		return nil
	}
	return st
}
