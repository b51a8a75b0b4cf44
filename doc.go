/*
Package spafall serves "Single Page Applications" (SPAs) from a document
root: static assets are served verbatim, while all other request paths fall
back onto the index document so client-side DOM routing keeps working for
bookmarked and reloaded routes.

A request path counts as a static asset when it lives below the asset path
prefix ("/assets/" by default) or carries one of the well-known asset file
name extensions (".js", ".css", ".png", ".jpg", ".ico", ".svg" by default);
this decision is a pure function of the path string, available standalone as
the Classifier type. Any other path is served literally when a matching
entry exists inside the document root, and answered with the index document
otherwise.

The Handler type implements http.Handler to serve the SPA and its static
resources. The Handler fetches these resources from any resource provider
implementing the fs.FS interface. This design even allows to seamlessly
embed an SPA into a Go binary. Only GET and HEAD requests are served; all
other methods are rejected with a "405 method not allowed" response.

The Server type wraps a Handler in a ready-made HTTP server with a TOML
loadable configuration, listening on port 7777 unless told otherwise.
*/
package spafall
