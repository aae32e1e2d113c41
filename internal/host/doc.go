// Package host runs the localhost popup bridge.
//
// Ownership boundary:
// - the HTTP server the popup page is served from and talks back to
// - the window-opener platform adapter (allocate surface, launch browser)
// - session admin routes for the embedding application
//
// The bridge implements the popup package's WindowOpener capability: a
// "window" is a surface slot plus a browser launched at its locator, and
// aliveness is the page's polling presence.
package host
