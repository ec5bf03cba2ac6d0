// Package head renders the JavaScript/CSS portion of an HTML page head and
// embeds content-derived hashes into every asset URL so browsers refetch a file
// as soon as its bytes change. The Hasher resolves assets through injected
// collaborators (ThemeResolver, Locations, Merger) and memoizes hashed URLs in
// a cache.Store behind a cache.Gate; the Block type is the page-head renderer
// that groups items by conditional comment and attribute parameters before
// handing them to the Hasher.
//
// Hashing is best effort: a missing file, an unknown merge kind or an URL that
// cannot carry a version segment always degrades to the unmodified URL.
package head
