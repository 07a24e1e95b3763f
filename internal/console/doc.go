// Package console is the interactive shell of v4lctl-cfg.
//
// Lines are split like a shell would, so attribute names with spaces are
// quoted:
//
//	v4lctl> get "UV Ratio"
//	v4lctl> set setattr "UV Ratio" 60%
//	v4lctl> apply bright=70 norm=PAL-I
//	v4lctl> show compact
//
// get and set are raw v4lctl reads and writes; apply goes through the
// reconcile and only writes what changed. Run drives the loop with
// readline; Execute runs a single line and is what tests call.
package console
