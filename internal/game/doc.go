// Package game provides the schedule row model extracted from a schedule page.
//
// A Game pairs an away team with a home team. Each game is assigned a deterministic
// SHA1-based ID generated from both team names, which enables deduplication within a run
// and snapshot-based detection of newly listed games across runs. The package also
// publishes the JSON Schema handed to LLM-driven extraction.
package game
