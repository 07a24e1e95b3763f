// Package engine synchronizes a typed attribute revision with the device.
//
// The Engine owns the only mutable state of the bridge: the current
// revision and the snapshot store. Two transitions change the current
// revision:
//
//	Initialize(useDefaults)  compute a full revision, from the card or the
//	                         schema defaults
//	Reconcile(next)          write every attribute that differs from the
//	                         current revision, then adopt next
//
// Successful writes are mirrored into the snapshot under the mangled write
// command so that Restore can replay them on the next start. Failed writes
// are logged and otherwise ignored; the new revision is adopted anyway.
//
// Every public method takes the engine lock, so transports may call the
// engine from concurrent goroutines.
package engine
