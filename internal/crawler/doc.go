// Package crawler runs a single page crawl: fetch (or read from cache), shape the HTML,
// apply an extraction strategy and report the outcome as a Result.
//
// A Crawler owns one browser session between Start and Close. Run never returns an
// error; failures are reported through Result.Success and Result.ErrorMessage.
package crawler
