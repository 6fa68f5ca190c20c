// Package api serves the HTTP job API: job CRUD, manual publish, health,
// metrics, and token-based authentication. Handlers translate between the
// wire types in this package and the jobs store, and map the services error
// taxonomy onto HTTP status codes.
package api
