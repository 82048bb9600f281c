package datakeep

// Version is the datakeep release version, overridable at build time with
// -ldflags "-X github.com/mesh-intelligence/datakeep/pkg/datakeep.Version=...".
var Version = "0.1.0"
