// Package types defines the Registry contract, the Descriptor and Dataset
// collaborator types, the Config for backend selection, and the standard
// error kinds for the datakeep storage system.
package types
