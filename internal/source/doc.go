// Package source contains the marketplace listing sources. Each marketplace
// gets an explicit adapter struct for its raw record shape, converted once
// at this boundary into the canonical model.Listing; nothing deeper in the
// pipeline branches on source-specific fields.
package source
