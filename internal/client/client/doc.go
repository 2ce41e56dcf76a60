// Package client contains the CLI's side of the aquatrack API.
//
// HTTPClient implements Client over the REST API. It sends the stored access
// token as a bearer header and, when the server answers 401, rotates the
// session once through /api/auth/refresh before repeating the request. The
// rotated pair is written back to the TokenStore.
//
// InitDatabase and RunMigrations bootstrap the local sqlite file that backs
// the session store.
//
// Errors: ErrUnavailable (transport failure), ErrUnauthorized (401 after the
// refresh attempt), ErrNotLoggedIn (no stored session) and *APIError for the
// remaining non-2xx answers.
package client
