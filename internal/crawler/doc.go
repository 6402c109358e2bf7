// Package crawler drives the dependent crawl of a release calendar: the
// calendar yields movie pages, movie pages yield director and star pages,
// and each person's known-for list yields film pages whose ratings are
// looked up. Every page is cached by URL; a key already in its cache
// document is never fetched again.
package crawler
