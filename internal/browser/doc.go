// Package browser fetches rendered pages.
//
// Three engines implement Fetcher: a go-rod controlled Chrome (the default), a chromedp
// controlled Chrome, and a plain HTTP client for pages that need no JavaScript. Browser
// engines can strip overlay elements (cookie banners, modals) and inline same-origin
// iframe content before the HTML is captured.
package browser
