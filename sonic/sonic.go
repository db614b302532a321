package sonic

import "github.com/bytedance/sonic"

// Config decodes user supplied files. Strings are copied out of the input
// buffer and checked for invalid UTF-8, and unknown fields are still
// validated as JSON.
var Config = sonic.Config{
	CopyString:         true,
	ValidateString:     true,
	NoValidateJSONSkip: false,
}.Froze()
