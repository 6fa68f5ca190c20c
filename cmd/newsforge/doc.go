// Command newsforge is the CLI for the news-to-video pipeline service. It
// runs the daemon in the foreground and manages jobs through the daemon's
// HTTP API.
package main
