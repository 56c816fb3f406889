// Package storage provides JSON-based persistence for game snapshots.
//
// Snapshots track the games seen on a schedule page across runs so that a later run
// can report only new games. One file is kept per source page
// (snapshot_<slug>.json), derived from the page URL. The default storage location is
// ~/.local/share/nba-schedule/.
package storage
