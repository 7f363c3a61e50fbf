// Package state persists read positions of followed input files.
//
// The tail command records, for the file it follows, the byte offset just
// after the last complete line it read. Saving it lets a restarted process
// resume from that line instead of re-sending the whole file.
//
// # Usage
//
//	repo := state.NewFileRepository(state.DefaultPath("/var/log/app.jsonl"))
//
//	s, err := repo.Load(ctx)
//	if err != nil {
//	    return err
//	}
//
//	// ... read lines, then
//	s.Advance(offset, lines)
//	if err := repo.Save(ctx, s); err != nil {
//	    return err
//	}
//
// The offset only proves a line was read and handed to the client, not
// that it was delivered. Records pending in memory when the process dies
// are lost.
//
// # Version
//
// Current version: 2.0.0
// Minimum compatible version: 2.0.0
//
// See version.go for version constants that can be used programmatically.
package state
