// Package client defines the uniform lifecycle contract shared by every
// service connector, the base implementation of its state machine, and the
// registry of named configuration entries the factory draws from.
package client

import (
	"context"
)

// Type identifies a connector kind. The set is closed: the factory dispatches
// over these values and nothing else.
type Type string

// Supported connector types
const (
	TypeRest       Type = "rest"
	TypeMQTT       Type = "mqtt"
	TypeS3         Type = "s3"
	TypeSQS        Type = "sqs"
	TypeKinesis    Type = "kinesis"
	TypeSSM        Type = "ssm"
	TypeCloudWatch Type = "cloudwatch"
	TypeNATS       Type = "nats"
	TypeWebSocket  Type = "websocket"
)

// Types returns all supported connector types
func Types() []Type {
	return []Type{
		TypeRest, TypeMQTT, TypeS3, TypeSQS, TypeKinesis,
		TypeSSM, TypeCloudWatch, TypeNATS, TypeWebSocket,
	}
}

// State represents the current lifecycle state of a client
type State int

const (
	// StateUninitialized indicates the client was created but not initialized
	StateUninitialized State = iota
	// StateInitialized indicates the client is connected and ready
	StateInitialized
	// StateDestroyed indicates the client released its resources
	StateDestroyed
)

// String returns a string representation of the client state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Client is the uniform lifecycle contract implemented by every connector.
// The state machine is Uninitialized -> Initialized -> Destroyed: Reset is
// only valid from Initialized and re-arms without reconnecting; Destroy is
// valid from any state and idempotent. Domain operations invoked outside
// Initialized fail with a lifecycle error naming the client.
type Client interface {
	// Init validates required configuration fields synchronously before
	// attempting any external connection. On failure the state remains
	// Uninitialized and the error names the missing field or wraps the
	// transport cause.
	Init(ctx context.Context) error

	// Reset re-arms the client without reconnecting. Only valid from
	// Initialized.
	Reset(ctx context.Context) error

	// Destroy releases resources. Valid from any state; repeated calls are
	// no-ops.
	Destroy(ctx context.Context) error

	// IsInitialized reports whether the client is in the Initialized state
	IsInitialized() bool

	// Name returns the client's registered name
	Name() string
}
