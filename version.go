package entropia

// Version is the release of the module. It is overridden at link time by release
// builds with -ldflags "-X github.com/aretw0/entropia.Version=...".
var Version = "0.4.0-dev"
