// Package provider defines the narrow extension contract for content
// providers and the closed registry they are installed into at startup.
//
// A provider answers four questions: can it serve a query (QueryURI), what
// page URIs follow a start URI (Paginate), what bytes live at a URI
// (Fetch), and what raw records those bytes contain (Parse). Everything
// else, scheduling, caching, fault isolation, belongs to the scanner.
package provider
