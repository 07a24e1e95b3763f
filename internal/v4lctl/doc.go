// Package v4lctl runs the xawtv v4lctl utility to read and write capture
// card attributes.
//
// Every operation is a single synchronous subprocess:
//
//	v4lctl -c /dev/video0 show "UV Ratio"      → "UV Ratio: 51"
//	v4lctl -c /dev/video0 setattr "UV Ratio" 60%
//	v4lctl -c /dev/video0 bright 70%
//	v4lctl -c /dev/video0 list
//
// Failures never surface as errors from Read and Write: a read that cannot
// run or cannot be parsed returns "", a write that cannot be launched
// returns false. Each invocation is logged with its exact command line.
//
// The Tool interface is what the synchronization engine consumes, so tests
// can substitute a fake device.
package v4lctl
