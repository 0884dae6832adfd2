package core

import (
	"errors"
)

var (
	ErrCapacityExceeded      = errors.New("request exceeds batch capacity")
	ErrBatchActive           = errors.New("batch has already been started")
	ErrBatchNotActive        = errors.New("batch has not been started")
	ErrBatchUninitialized    = errors.New("batch is not initialized")
	ErrNoCamera              = errors.New("batch begun without a camera")
	ErrStackImbalance        = errors.New("framebuffer stack depth mismatch")
	ErrStackEmpty            = errors.New("framebuffer stack is empty")
	ErrUnknownUniform        = errors.New("unknown uniform")
	ErrUnknownAttribute      = errors.New("unknown vertex attribute type")
	ErrIncompleteFramebuffer = errors.New("framebuffer is incomplete")
	ErrShaderSource          = errors.New("malformed shader source")
	ErrShaderCompile         = errors.New("shader compilation failed")
	ErrShaderLink            = errors.New("shader program link failed")
	ErrDestroyed             = errors.New("object already destroyed")
	ErrStaleHandle           = errors.New("stale or unknown handle")
	ErrOutOfBounds           = errors.New("out of bounds")
	ErrQueueFull             = errors.New("queue is full")
	ErrQueueEmpty            = errors.New("queue is empty")
	ErrNoWorkers             = errors.New("attempting to create worker pool with less than 1 worker")
	ErrUnknown               = errors.New("unknown")
)
