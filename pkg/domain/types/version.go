package types

// Version is the build version, overwritten by -ldflags at release time
var Version = "dev"
