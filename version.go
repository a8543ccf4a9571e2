package pollable

const VersionStr = "0.1.0"
