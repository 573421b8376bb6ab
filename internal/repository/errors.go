// Package repository contains the data access layer: thin structs over a
// *sql.DB exposing exactly the primitives the core depends on: point
// read, point write with partial field merge, point delete, and a
// filtered-and-ordered collection scan. This file defines sentinel errors
// shared across repositories so handlers can map failures to HTTP status
// codes without inspecting driver errors.
package repository

import "errors"

// ErrProductNotFound is returned when a product id has no row. Handlers
// translate it into HTTP 404 before any ownership decision runs.
var ErrProductNotFound = errors.New("product not found")

// ErrUserNotFound is returned when a uid or email has no user record.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when creating a user whose uid or email
// collides with an existing row. Handlers translate it into HTTP 409.
var ErrUserExists = errors.New("user already exists")
