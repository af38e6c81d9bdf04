package csp

// This file provides every Channel operation as a package-level function
// taking the channel as its first argument, mirroring the method of the
// same name. Both forms are part of the public surface; the static forms
// exist for call sites that read more naturally as free functions (most
// visibly Pipeline and the functional helpers in pipeline.go).

// Put is the static form of Channel.Put.
func Put[T any](ch *Channel[T], v T) bool { return ch.Put(v) }

// Take is the static form of Channel.Take.
func Take[T any](ch *Channel[T]) (T, bool) { return ch.Take() }

// TailValue is the static form of Channel.Tail.
func TailValue[T any](ch *Channel[T], v T) bool { return ch.Tail(v) }

// CloseChannel is the static form of Channel.Close.
func CloseChannel[T any](ch *Channel[T], all bool) { ch.Close(all) }

// DoneChannel is the static form of Channel.Done.
func DoneChannel[T any](ch *Channel[T]) <-chan struct{} { return ch.Done() }

// EmptyChannel is the static form of Channel.Empty.
func EmptyChannel[T any](ch *Channel[T]) bool { return ch.Empty() }

// LengthOf is the static form of Channel.Length.
func LengthOf[T any](ch *Channel[T]) int { return ch.Length() }

// SizeOf is the static form of Channel.Size.
func SizeOf[T any](ch *Channel[T]) int { return ch.Size() }

// StateOf is the static form of Channel.State.
func StateOf[T any](ch *Channel[T]) State { return ch.State() }
