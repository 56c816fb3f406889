// Package cli implements the command-line interface for nba-schedule.
//
// The cli package provides the Cobra-based CLI that crawls a schedule page with either the
// selector or the LLM extraction strategy, post-processes the extracted games (dedupe, team
// filter, sort, new-since-last-run) and prints them as raw extracted JSON, a JSON envelope
// or text. It coordinates the config, crawler, extraction, storage and filter packages.
package cli
