package kennel

// Version is the current release of the kennel module.
const Version = "0.4.0"
