// Package query answers lookups over a materialized tree: by role, by title,
// and by role[title] path. Queries never touch the provider; results are live
// references into the tree, not copies.
package query
