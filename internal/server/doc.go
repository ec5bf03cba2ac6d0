// Package server hosts the Fiber HTTP front end. It wires configuration into
// a Runtime (cache store, site locations, theme resolver, hasher and merge
// service), serves the js/, skin/ and media/ trees with immutable caching for
// content-hashed names, and renders every configured page's head block.
// Diagnostics live under /-/ and are registered by the routes sub-package.
package server
