package main

// EnvUnion names the environment variable holding the default profile.
const EnvUnion = "UNIAO_UNION"

// DefaultProfile is the profile created by init when none is named.
const DefaultProfile = "default"

// Valid output formats.
var (
	validExportFormats = []string{"json", "csv", "markdown"}
	validGraphFormats  = []string{"tree", "json", "dot"}
)
