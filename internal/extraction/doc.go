// Package extraction turns a fetched page into row objects.
//
// CSSStrategy applies a selector schema: one record per element matching the base
// selector, one key per field. LLMStrategy sends the page (optionally split into
// overlapping chunks) to a chat model together with an instruction and a JSON schema
// and parses the rows out of the reply.
//
// Both return []map[string]any so the crawler can serialize either the same way.
package extraction
