package domain

// CommandMarker prefixes every textual command.
const CommandMarker = "/"
