// Package viewer offers the image viewer launch action.
//
// Installations are discovered once at startup by glob. Launching an image
// sequence version opens its "Server link" component; other selections open
// the viewer empty.
package viewer
