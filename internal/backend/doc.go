// Package backend is the attribute control surface shared by the terminal
// front ends. A Backend is either the in-process engine (Local) or a daemon
// reached over HTTP (*client.Client); the dashboard and the console do not
// care which.
//
// The package also renders revisions and change lists for terminals:
//
//	fmt.Print(backend.FormatDetailed(rev))
//	fmt.Print(backend.FormatChanges(changes))
package backend
