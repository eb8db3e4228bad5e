// Package offline is the offline cache worker: a versioned, cache-first layer
// in front of the page assets and the mapping library.
//
// # Lifecycle
//
// A Worker moves through the same phases as a browser service worker:
//
//	parsed → installing → installed → activating → activated
//	              ↘ redundant (install failed)
//
// Install fetches every asset in the fixed list and stores them in the cache
// named after the current version, all or nothing. Activate deletes every
// cache whose name differs from the current one and then claims: from that
// point on Middleware and Transport answer matching requests from the cache.
//
// # Versioning
//
// The cache name embeds a version token ("safescape-cache-v2"). Bumping the
// token on deployment is the only invalidation mechanism; stale caches are
// pruned on the next activation.
//
// # Fetch
//
// A request whose URL is cached is answered from the cache and never reaches
// the network. Anything else is passed through untouched and its response is
// not stored.
package offline
