// Package ftrack implements host.Client against the ftrack JSON API.
//
// Every call is a POST of a batch of operations to <server>/api authenticated
// with the ftrack-user and ftrack-api-key headers. Entity ids for created
// objects are generated client side so follow-up operations can reference
// them without an extra round trip.
package ftrack
